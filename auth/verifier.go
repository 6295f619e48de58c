package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/masterchelly/microsites/errs"
)

// Claims is the subset of a GoTrue access token the server reads.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 access tokens signed with the project's JWT secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify returns the token's user or a 401 error.
func (v *Verifier) Verify(token string) (User, error) {
	if token == "" {
		return User{}, errs.NewMissingTokenError()
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if errors.Is(err, jwt.ErrTokenExpired) {
		return User{}, errs.NewExpiredTokenError()
	}
	if err != nil {
		return User{}, errs.NewInvalidTokenError().WithCause(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return User{}, errs.NewInvalidTokenError()
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return User{}, errs.NewInvalidTokenError().WithCause(err)
	}
	return User{ID: id, Email: claims.Email, Role: claims.Role}, nil
}
