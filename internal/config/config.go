package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Identity drivers understood by Load.
const (
	IdentityDriverSupabase = "supabase"
	IdentityDriverMemory   = "memory"
)

// Config holds runtime configuration values for the gate API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	AutoMigrate            bool
	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseAnonKey        string
	IdentityDriver         string
	IdentityTimeout        time.Duration
	IdentityJWTSecret      string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	RedisURL               string
	NATSURL                string
	EventsChannel          string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GATE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The hosted platform's conventional variable names are accepted as well.
	_ = v.BindEnv("app.port", "GATE_APP_PORT", "PORT")
	_ = v.BindEnv("supabase.url", "GATE_SUPABASE_URL", "SUPABASE_URL")
	_ = v.BindEnv("supabase.service_role_key", "GATE_SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_ROLE_KEY")
	_ = v.BindEnv("supabase.anon_key", "GATE_SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY")
	_ = v.BindEnv("database.url", "GATE_DATABASE_URL", "DATABASE_URL")

	v.SetDefault("app.name", "Gate API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "3000")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("identity.driver", IdentityDriverSupabase)
	v.SetDefault("identity.timeout", "10s")
	v.SetDefault("events.channel", "gate")

	timeout, err := time.ParseDuration(v.GetString("identity.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid identity timeout: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		AutoMigrate:            v.GetBool("database.auto_migrate"),
		SupabaseURL:            strings.TrimRight(v.GetString("supabase.url"), "/"),
		SupabaseServiceRoleKey: v.GetString("supabase.service_role_key"),
		SupabaseAnonKey:        v.GetString("supabase.anon_key"),
		IdentityDriver:         strings.ToLower(strings.TrimSpace(v.GetString("identity.driver"))),
		IdentityTimeout:        timeout,
		IdentityJWTSecret:      v.GetString("identity.jwt_secret"),
		BootstrapAdminEmail:    v.GetString("identity.bootstrap_admin_email"),
		BootstrapAdminPassword: v.GetString("identity.bootstrap_admin_password"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventsChannel:          v.GetString("events.channel"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database url must be provided")
	}

	switch c.IdentityDriver {
	case IdentityDriverSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("supabase url and service role key must be provided")
		}
	case IdentityDriverMemory:
		if c.IdentityJWTSecret == "" {
			return fmt.Errorf("identity jwt secret must be provided for the memory driver")
		}
	default:
		return fmt.Errorf("unsupported identity driver %q", c.IdentityDriver)
	}

	if c.IdentityTimeout <= 0 {
		return fmt.Errorf("identity timeout must be positive")
	}

	return nil
}
