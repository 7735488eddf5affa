// Package auth verifies bearer tokens issued by the platform auth service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

// Scopes understood by the configuration service.
const (
	ScopeCertify      = "certify"
	ScopeValidate     = "validate"
	ScopeNatlSysAdmin = "natlsysadmin"
)

// ErrNoToken is returned when verification is attempted without a token.
var ErrNoToken = errors.New("no bearer token")

// JWTValidator validates JWT tokens and extracts claims.
type JWTValidator interface {
	Validate(ctx context.Context, token string) (*Claims, error)
}

// KeySource resolves the verification key for a parsed, unverified token.
type KeySource interface {
	Key(ctx context.Context, token *jwt.Token) (any, error)
}

// Claims represents the extracted claims from a validated JWT token.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	Scopes    []string
}

// HasAnyScope reports whether the claims carry at least one of scopes.
func (c *Claims) HasAnyScope(scopes ...string) bool {
	if c == nil {
		return false
	}
	for _, s := range scopes {
		if slices.Contains(c.Scopes, s) {
			return true
		}
	}
	return false
}

// Validator checks signature, issuer, audience and expiry of RS256 tokens.
type Validator struct {
	keys     KeySource
	issuer   string
	audience string
	logger   logger.Logger
}

// NewValidator creates a Validator. issuer and audience are enforced when non-empty.
func NewValidator(keys KeySource, issuer, audience string, log logger.Logger) *Validator {
	return &Validator{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		logger:   log,
	}
}

// Validate parses tokenString and returns its claims if it is valid.
func (v *Validator) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrNoToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	mapClaims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, mapClaims, func(token *jwt.Token) (any, error) {
		return v.keys.Key(ctx, token)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims := extractClaims(mapClaims)
	v.logger.Debug("token validated", "subject", claims.Subject, "scopes", claims.Scopes)
	return claims, nil
}

func extractClaims(mapClaims jwt.MapClaims) *Claims {
	claims := &Claims{}
	claims.Subject, _ = mapClaims.GetSubject()
	claims.Issuer, _ = mapClaims.GetIssuer()
	claims.Audience, _ = mapClaims.GetAudience()
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	claims.Scopes = extractScopes(mapClaims["scope"])
	return claims
}

// extractScopes accepts either a JSON array of strings or a space separated string.
func extractScopes(raw any) []string {
	var scopes []string
	switch typed := raw.(type) {
	case string:
		scopes = strings.Fields(typed)
	case []string:
		scopes = typed
	case []any:
		for _, item := range typed {
			if s, ok := item.(string); ok {
				scopes = append(scopes, s)
			}
		}
	}

	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" when the header is absent or not a bearer credential.
func BearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

type claimsContextKey struct{}

// WithClaims stores claims in the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// GetClaims retrieves claims from the context, or nil.
func GetClaims(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsContextKey{}).(*Claims); ok {
		return claims
	}
	return nil
}
