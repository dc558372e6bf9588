package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
	"github.com/storefront-labs/storefront-api/internal/core/ports"
)

// AuthConfig holds the token and hashing settings of the AuthService.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// sessionClaims is the JWT payload of a session token.
type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService implements signup, login and stateless token verification.
type AuthService struct {
	users     ports.UserRepository
	denylist  ports.TokenDenylist
	hasher    passwordHasher
	validate  *validator.Validate
	secret    []byte
	tokenTTL  time.Duration
	dummyHash string
	now       func() time.Time
	log       zerolog.Logger
}

// NewAuthService builds an AuthService. denylist may be nil, in which case
// tokens cannot be revoked before they expire.
func NewAuthService(users ports.UserRepository, denylist ports.TokenDenylist, cfg AuthConfig, log zerolog.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	s := &AuthService{
		users:    users,
		denylist: denylist,
		hasher:   newBcryptHasher(cfg.BcryptCost),
		validate: validator.New(),
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: cfg.TokenTTL,
		now:      time.Now,
		log:      log,
	}

	// Unknown emails are checked against this hash so that they cost as much
	// as a wrong password.
	dummy, err := s.hasher.Hash(uuid.NewString())
	if err != nil {
		log.Warn().Err(err).Msg("failed to prepare dummy password hash")
	}
	s.dummyHash = dummy
	return s
}

// Login verifies the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.WithField(domain.ErrMissingField, "email")
	}
	if password == "" {
		return nil, domain.WithField(domain.ErrMissingField, "password")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("login: %w", err)
		}
		_ = s.hasher.Compare(s.dummyHash, password)
		s.log.Debug().Str("email", email).Msg("login rejected: unknown email")
		return nil, domain.WithField(domain.ErrInvalidCredentials, "password")
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.log.Debug().Str("user_id", user.ID).Msg("login rejected: password mismatch")
		return nil, domain.WithField(domain.ErrInvalidCredentials, "password")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: token, User: user}, nil
}

// Signup creates a customer account and logs it in.
func (s *AuthService) Signup(ctx context.Context, fullName, email, password string) (*ports.AuthResult, error) {
	user, err := s.Register(ctx, fullName, email, password, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: token, User: user}, nil
}

// Register validates the credentials, hashes the password and stores a new
// account with the given role. Nothing is hashed or stored when validation
// fails.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string, role domain.Role) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = domain.NormalizeEmail(email)

	if err := s.validateCredentials(fullName, email, password); err != nil {
		return nil, err
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return nil, domain.WithField(err, "role")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.WithField(domain.ErrEmailTaken, "email")
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Error().Err(err).Msg("password hashing failed")
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		MemberSince:  now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.WithField(domain.ErrEmailTaken, "email")
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("account created")
	return user, nil
}

func (s *AuthService) validateCredentials(fullName, email, password string) error {
	switch {
	case fullName == "":
		return domain.WithField(domain.ErrMissingField, "fullName")
	case email == "":
		return domain.WithField(domain.ErrMissingField, "email")
	case password == "":
		return domain.WithField(domain.ErrMissingField, "password")
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return domain.WithField(domain.ErrInvalidEmail, "email")
	}
	if utf8.RuneCountInString(password) < domain.MinPasswordLength {
		return domain.WithField(domain.ErrWeakPassword, "password")
	}
	if len(password) > domain.MaxPasswordBytes {
		return domain.WithField(domain.ErrPasswordTooLong, "password")
	}
	return nil
}

// VerifyToken checks the signature and expiry of a session token and returns
// the identity it carries.
func (s *AuthService) VerifyToken(ctx context.Context, raw string) (domain.Identity, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.log.Debug().Err(err).Msg("token expired")
			return domain.Identity{}, domain.ErrTokenExpired
		}
		s.log.Debug().Err(err).Msg("token rejected")
		return domain.Identity{}, domain.ErrTokenInvalid
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil || claims.Subject == "" {
		s.log.Debug().Str("sub", claims.Subject).Str("role", claims.Role).Msg("token missing identity claims")
		return domain.Identity{}, domain.ErrTokenInvalid
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("verify token: %w", err)
		}
		if revoked {
			s.log.Debug().Str("jti", claims.ID).Msg("token revoked")
			return domain.Identity{}, domain.ErrTokenRevoked
		}
	}

	id := domain.Identity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Role:      role,
		TokenID:   claims.ID,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// CurrentUser re-fetches the account behind id so that profile changes made
// after the token was issued are visible.
func (s *AuthService) CurrentUser(ctx context.Context, id domain.Identity) (*domain.User, error) {
	return s.users.FindByID(ctx, id.SubjectID)
}

// Logout revokes the token behind id for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, id domain.Identity) error {
	if s.denylist == nil || id.TokenID == "" {
		return nil
	}
	ttl := id.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.denylist.Revoke(ctx, id.TokenID, ttl); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("user_id", id.SubjectID).Msg("session revoked")
	return nil
}

// EnsureAdmin creates the bootstrap admin account unless the email is
// already registered.
func (s *AuthService) EnsureAdmin(ctx context.Context, fullName, email, password string) error {
	existing, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err == nil {
		if !existing.IsAdmin() {
			s.log.Warn().Str("email", existing.Email).Msg("bootstrap admin email belongs to a non-admin account")
		}
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	_, err = s.Register(ctx, fullName, email, password, domain.RoleAdmin)
	return err
}

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	now := s.now()
	claims := sessionClaims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
