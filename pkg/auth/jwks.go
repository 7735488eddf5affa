package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

// JWKSClient fetches and caches JSON Web Key Sets for JWT signature verification.
type JWKSClient struct {
	jwksURL string
	cache   *jwksCache
	client  *resty.Client
	logger  logger.Logger
}

type jwksCache struct {
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	mu        sync.RWMutex
	ttl       time.Duration
}

// JWK represents a JSON Web Key from the JWKS endpoint.
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSResponse represents the response from a JWKS endpoint.
type JWKSResponse struct {
	Keys []JWK `json:"keys"`
}

// NewJWKSClient creates a client that caches keys from jwksURL for cacheTTL.
func NewJWKSClient(jwksURL string, cacheTTL time.Duration, log logger.Logger) *JWKSClient {
	return &JWKSClient{
		jwksURL: jwksURL,
		cache: &jwksCache{
			keys: make(map[string]*rsa.PublicKey),
			ttl:  cacheTTL,
		},
		client: resty.New().SetTimeout(10 * time.Second),
		logger: log,
	}
}

// Key implements KeySource using the token's kid header.
func (c *JWKSClient) Key(ctx context.Context, token *jwt.Token) (any, error) {
	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, errors.New("missing kid in token header")
	}
	return c.GetKey(ctx, kid)
}

// GetKey returns the cached key for kid, refreshing the set on a miss.
func (c *JWKSClient) GetKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key := c.cache.get(kid); key != nil {
		return key, nil
	}

	c.logger.Debug("JWKS key not in cache, fetching from endpoint", "kid", kid)
	if err := c.refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
	}

	key := c.cache.get(kid)
	if key == nil {
		return nil, fmt.Errorf("key not found: %s", kid)
	}
	return key, nil
}

func (c *JWKSClient) refresh(ctx context.Context) error {
	var body JWKSResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(c.jwksURL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode())
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, jwk := range body.Keys {
		key, err := parseJWK(jwk)
		if err != nil {
			c.logger.Warn("failed to parse JWK", "kid", jwk.Kid, "error", err)
			continue
		}
		keys[jwk.Kid] = key
	}
	if len(keys) == 0 {
		return errors.New("no valid keys found in JWKS response")
	}

	c.cache.set(keys)
	c.logger.Info("JWKS cache updated", "key_count", len(keys))
	return nil
}

// parseJWK converts an RSA JWK to a public key.
func parseJWK(jwk JWK) (*rsa.PublicKey, error) {
	if jwk.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type: %s", jwk.Kty)
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

func (c *jwksCache) get(kid string) *rsa.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if time.Now().After(c.expiresAt) {
		return nil
	}
	return c.keys[kid]
}

func (c *jwksCache) set(keys map[string]*rsa.PublicKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.keys = keys
	c.expiresAt = time.Now().Add(c.ttl)
}
