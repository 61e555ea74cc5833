package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sheetdesk/sheetdesk/internal/identity"
	"github.com/sheetdesk/sheetdesk/internal/user"
)

// ErrInvalidCredentials is returned when the email/password pair does not
// resolve to an active user. The same error covers unknown emails and wrong
// passwords so callers cannot probe for accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned when a bearer token fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID uuid.UUID `json:"uid"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// Service provides authentication operations: credential verification, token
// issuing and parsing, and initial admin bootstrap.
type Service struct {
	userRepo   user.Repository
	secret     []byte
	expiry     time.Duration
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(userRepo user.Repository, secret string, expiry time.Duration, bcryptCost int) *Service {
	return &Service{
		userRepo:   userRepo,
		secret:     []byte(secret),
		expiry:     expiry,
		bcryptCost: bcryptCost,
	}
}

// Login verifies the email/password pair and returns the user with a signed
// token. Inactive users cannot log in (inactive rows are invisible to the
// repository).
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("looking up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(u)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}

// IssueToken signs a fresh token for the given user.
func (s *Service) IssueToken(u *user.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: u.ID,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

// ParseToken verifies a bearer token and returns its claims.
func (s *Service) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// HashPassword hashes a plaintext password at the configured cost.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// GenerateTempPassword returns a random temporary password for accounts
// created without an explicit one.
func GenerateTempPassword() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// BootstrapAdmin creates the initial admin account if the users table is
// empty. Returns true when an admin was created.
func (s *Service) BootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	count, err := s.userRepo.CountAll(ctx)
	if err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}

	if count > 0 {
		return false, nil
	}

	if password == "" {
		password, err = GenerateTempPassword()
		if err != nil {
			return false, err
		}
		slog.Info("generated initial admin password", "password", password)
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return false, err
	}

	admin := &user.User{
		Username:     "admin",
		Email:        email,
		PasswordHash: hash,
		Role:         identity.RoleAdmin,
	}

	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("creating admin: %w", err)
	}

	slog.Info("initial admin account created", "email", email)

	return true, nil
}
