package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gate-api/internal/identity"
	"github.com/noah-isme/gate-api/internal/models"
	"github.com/noah-isme/gate-api/internal/utils"
)

// Auth gate failure messages.
const (
	MessageNoToken         = "Unauthorized: No token provided."
	MessageInvalidToken    = "Unauthorized: Invalid token."
	MessageProfileNotFound = "Forbidden: User profile not found."
)

// ProfileLookup resolves a staff profile by identity user id.
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (models.Profile, error)
}

// Identity is the authenticated caller resolved by the auth gate.
type Identity struct {
	UserID string
	Email  string
	Role   models.Role
}

type identityKey struct{}

// AuthGate authenticates bearer tokens against the identity provider and
// authorises the caller's profile role. Every request costs one token
// verification and one profile read; nothing is cached.
type AuthGate struct {
	provider identity.Provider
	profiles ProfileLookup
	logger   zerolog.Logger
}

// NewAuthGate constructs the gate.
func NewAuthGate(provider identity.Provider, profiles ProfileLookup, logger zerolog.Logger) *AuthGate {
	return &AuthGate{
		provider: provider,
		profiles: profiles,
		logger:   logger.With().Str("component", "auth_gate").Logger(),
	}
}

// Require admits callers whose profile role is exactly one of roles. The
// token is read from the Authorization header only.
func (g *AuthGate) Require(roles ...models.Role) fiber.Handler {
	return g.require(false, roles)
}

// RequireStream is Require for websocket routes: on upgrade requests the token
// may also be passed as the access_token query parameter, since browsers
// cannot set headers there.
func (g *AuthGate) RequireStream(roles ...models.Role) fiber.Handler {
	return g.require(true, roles)
}

func (g *AuthGate) require(allowQueryToken bool, roles []models.Role) fiber.Handler {
	set := newRoleSet(roles...)

	return func(c *fiber.Ctx) error {
		token := bearerToken(c, allowQueryToken)
		if token == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, MessageNoToken)
		}

		ctx := c.UserContext()
		logger := g.logger.With().Str("correlation_id", GetCorrelationID(c)).Logger()

		user, err := g.provider.VerifyToken(ctx, token)
		if err != nil || strings.TrimSpace(user.ID) == "" {
			logger.Debug().Err(err).Msg("token verification failed")
			return utils.SendError(c, fiber.StatusUnauthorized, MessageInvalidToken)
		}

		profile, err := g.profiles.GetByID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn().Str("user_id", user.ID).Msg("authenticated user has no profile")
				return utils.SendError(c, fiber.StatusForbidden, MessageProfileNotFound)
			}
			logger.Error().Err(err).Str("user_id", user.ID).Msg("profile lookup failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "Authentication Error: "+err.Error())
		}

		if !set.allows(profile.Role) {
			logger.Warn().Str("user_id", user.ID).Str("role", profile.Role.String()).Msg("role not permitted")
			return utils.SendError(c, fiber.StatusForbidden, set.message)
		}

		caller := Identity{UserID: user.ID, Email: user.Email, Role: profile.Role}
		c.Locals("user_id", caller.UserID)
		c.Locals("user_email", caller.Email)
		c.Locals("user_role", caller.Role)
		c.SetUserContext(ContextWithIdentity(ctx, caller))

		return c.Next()
	}
}

// Admin admits administrators only.
func (g *AuthGate) Admin() fiber.Handler {
	return g.Require(models.RoleAdmin)
}

// Security admits security staff only.
func (g *AuthGate) Security() fiber.Handler {
	return g.Require(models.RoleSecurity)
}

// AdminOrSecurity admits administrators and security staff.
func (g *AuthGate) AdminOrSecurity() fiber.Handler {
	return g.Require(models.RoleAdmin, models.RoleSecurity)
}

// ContextWithIdentity attaches the caller identity to ctx.
func ContextWithIdentity(ctx context.Context, caller Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, caller)
}

// IdentityFromContext returns the caller identity stored by the gate.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	caller, ok := ctx.Value(identityKey{}).(Identity)
	return caller, ok
}

// bearerToken reads "Authorization: Bearer <token>"; the scheme is matched
// case-insensitively.
func bearerToken(c *fiber.Ctx, allowQueryToken bool) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}

	if allowQueryToken && websocket.IsWebSocketUpgrade(c) {
		return strings.TrimSpace(c.Query("access_token"))
	}

	return ""
}
