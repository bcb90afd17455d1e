package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const memoryIssuer = "gate-api"

// MemoryProvider keeps accounts in process and signs HS256 access tokens.
// It is meant for local development and tests.
type MemoryProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	users   map[string]memoryAccount
	byEmail map[string]string
}

type memoryAccount struct {
	user         User
	passwordHash []byte
}

// MemoryOption customises a MemoryProvider.
type MemoryOption func(*MemoryProvider)

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) MemoryOption {
	return func(p *MemoryProvider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(p *MemoryProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewMemoryProvider creates an in-process provider signing tokens with secret.
func NewMemoryProvider(secret string, opts ...MemoryOption) (*MemoryProvider, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("memory identity provider requires a signing secret")
	}

	p := &MemoryProvider{
		secret:  []byte(secret),
		ttl:     time.Hour,
		now:     time.Now,
		users:   make(map[string]memoryAccount),
		byEmail: make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// CreateUser registers an account. Emails are unique, case-insensitively.
func (p *MemoryProvider) CreateUser(_ context.Context, params CreateUserParams) (User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || params.Password == "" {
		return User{}, &APIError{Status: 400, Code: "validation_failed", Message: "email and password are required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.MinCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byEmail[email]; exists {
		return User{}, &APIError{Status: 422, Code: "email_exists", Message: "A user with this email address has already been registered"}
	}

	now := p.now().UTC()
	user := User{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: now,
	}
	if params.EmailConfirm {
		user.EmailConfirmedAt = &now
	}

	p.users[user.ID] = memoryAccount{user: user, passwordHash: hash}
	p.byEmail[email] = user.ID

	return user, nil
}

// DeleteUser removes an account.
func (p *MemoryProvider) DeleteUser(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.users[id]
	if !ok {
		return ErrUserNotFound
	}

	delete(p.users, id)
	delete(p.byEmail, account.user.Email)
	return nil
}

// SignIn checks credentials and returns an access token.
func (p *MemoryProvider) SignIn(_ context.Context, email, password string) (string, error) {
	p.mu.RLock()
	id, ok := p.byEmail[strings.ToLower(strings.TrimSpace(email))]
	var account memoryAccount
	if ok {
		account = p.users[id]
	}
	p.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(account.passwordHash, []byte(password)) != nil {
		return "", &APIError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}

	return p.IssueToken(id)
}

// IssueToken signs an access token for the account with the given id.
func (p *MemoryProvider) IssueToken(id string) (string, error) {
	now := p.now()
	claims := jwt.RegisteredClaims{
		Issuer:    memoryIssuer,
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates the token signature and expiry and resolves the
// subject to a live account.
func (p *MemoryProvider) VerifyToken(_ context.Context, token string) (User, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(memoryIssuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !parsed.Valid {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	p.mu.RLock()
	account, ok := p.users[claims.Subject]
	p.mu.RUnlock()
	if !ok {
		return User{}, fmt.Errorf("%w: account no longer exists", ErrInvalidToken)
	}

	return account.user, nil
}
