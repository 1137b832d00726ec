// internal/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNoCredential means the request carried no usable bearer
	// credential at all (absent or malformed Authorization header).
	// Maps to 401.
	ErrNoCredential = errors.New("missing bearer credential")

	// ErrInvalidToken means a credential was presented but failed
	// verification (bad signature, expired, garbage). Maps to 403.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrUserExists means the email is already registered.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidLogin means unknown email or wrong password.
	ErrInvalidLogin = errors.New("invalid email or password")
)

// User is a registered API caller.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Claims are the JWT claims seatwise issues: subject identity plus the
// registered expiry.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service handles registration, login and token verification. The
// user store is in-memory; durable user storage is a deployment
// concern behind this same interface.
type Service struct {
	mu        sync.RWMutex
	users     map[string]*User // email -> user
	jwtSecret []byte
	tokenTTL  time.Duration

	now func() time.Time // test hook
}

// NewService creates an auth service. ttl <= 0 defaults to one hour.
func NewService(jwtSecret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		users:     make(map[string]*User),
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[email]; exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	s.users[email] = user
	return user, nil
}

// Login validates credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	user, exists := s.users[email]
	s.mu.RUnlock()

	if !exists {
		return "", ErrInvalidLogin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidLogin
	}
	return s.GenerateToken(user)
}

// GenerateToken issues an HS256 JWT for the user.
func (s *Service) GenerateToken(user *User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "seatwise",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken verifies a token string and returns its claims. Every
// verification failure, expiry included, comes back as
// ErrInvalidToken.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
// An absent or malformed header is ErrNoCredential, distinct from a
// present-but-invalid token.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoCredential
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) || len(header) == len(prefix) {
		return "", fmt.Errorf("%w: malformed Authorization header", ErrNoCredential)
	}
	return header[len(prefix):], nil
}
