package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"decode/internal/platform/config"
)

var ErrInvalidSession = errors.New("invalid session")

// Session is the validated form of a session token. It is decoded once at the
// trust boundary and passed inward as a typed value.
type Session struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	ImpersonatedBy string `json:"impersonated_by,omitempty"`
	ExpiresAt      int64  `json:"expires_at"`
}

// Impersonating reports whether an admin is viewing as this user.
func (s *Session) Impersonating() bool {
	return s.ImpersonatedBy != ""
}

type Claims struct {
	UserID         string `json:"uid"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	ImpersonatedBy string `json:"imp,omitempty"`
	jwt.RegisteredClaims
}

type TokenService struct {
	config config.SessionConfig
}

func NewTokenService(cfg config.SessionConfig) *TokenService {
	return &TokenService{config: cfg}
}

func (s *TokenService) TTL() time.Duration {
	return s.config.TTL
}

// Issue signs a session token for the user. impersonatedBy is the admin user
// id when the session is an impersonation, otherwise empty.
func (s *TokenService) Issue(userID, email, role, impersonatedBy string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:         userID,
		Email:          email,
		Role:           role,
		ImpersonatedBy: impersonatedBy,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.config.AppName,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *TokenService) Validate(tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.AppName), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidSession
	}

	return &Session{
		UserID:         claims.UserID,
		Email:          claims.Email,
		Role:           claims.Role,
		ImpersonatedBy: claims.ImpersonatedBy,
		ExpiresAt:      claims.ExpiresAt.Unix(),
	}, nil
}
