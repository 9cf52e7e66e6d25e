// AngelaMos | 2026
// verifier.go

// Package auth verifies access tokens issued by the hosted auth provider.
// Sessions, passwords and refresh tokens live with the provider; this
// service only checks signatures and reads the caller's identity.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/weddingplanner/internal/config"
	"github.com/carterperez-dev/weddingplanner/internal/core"
	"github.com/carterperez-dev/weddingplanner/internal/middleware"
)

const clockSkew = 30 * time.Second

type Verifier struct {
	keyOption jwt.ParseOption
	config    config.AuthConfig
}

// NewVerifier prefers the provider's JWKS when configured and falls back to
// the shared HS256 secret. The key set is fetched once at startup.
func NewVerifier(ctx context.Context, cfg config.AuthConfig) (*Verifier, error) {
	v := &Verifier{config: cfg}

	switch {
	case cfg.JWKSURL != "":
		set, err := jwk.Fetch(ctx, cfg.JWKSURL)
		if err != nil {
			return nil, fmt.Errorf("fetch jwks: %w", err)
		}
		v.keyOption = jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true))
	case cfg.JWTSecret != "":
		v.keyOption = jwt.WithKey(jwa.HS256(), []byte(cfg.JWTSecret))
	default:
		return nil, fmt.Errorf("new verifier: %w", core.ErrNotConfigured)
	}

	return v, nil
}

func (v *Verifier) Mode() string {
	if v.config.JWKSURL != "" {
		return "jwks"
	}
	return "hs256"
}

func (v *Verifier) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	opts := []jwt.ParseOption{
		v.keyOption,
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(clockSkew),
	}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.config.Audience))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	var email string
	//nolint:errcheck // email is optional
	_ = token.Get("email", &email)

	return &middleware.AccessTokenClaims{
		UserID: subject,
		Email:  email,
		Role:   roleOf(token),
	}, nil
}

// roleOf reads the application role from app_metadata, where the provider
// keeps operator-assigned data, and falls back to the top-level role claim.
func roleOf(token jwt.Token) string {
	var meta map[string]any
	if err := token.Get("app_metadata", &meta); err == nil {
		if role, ok := meta["role"].(string); ok && role != "" {
			return role
		}
	}

	var role string
	//nolint:errcheck // role is optional
	_ = token.Get("role", &role)
	return role
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}
