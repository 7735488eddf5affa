// Package handler exposes the application configuration over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/jsonschema-go/jsonschema"
	"golang.org/x/sync/errgroup"

	"github.com/crvs-platform/appconfig/pkg/appconfig"
	"github.com/crvs-platform/appconfig/pkg/auth"
	"github.com/crvs-platform/appconfig/pkg/controller"
	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

// Route paths served by the public API.
const (
	PathConfig       = "/config"
	PathPublicConfig = "/publicConfig"
	PathUpdate       = "/updateApplicationConfig"
	PathSchema       = "/applicationConfigSchema"
)

// ConfigResolver resolves and updates the effective application configuration.
type ConfigResolver interface {
	Resolve(ctx context.Context, token string) (*appconfig.ApplicationConfig, error)
	ResolveLoginView(ctx context.Context, token string) (appconfig.LoginConfig, error)
	ApplyUpdate(ctx context.Context, token string, partial appconfig.Document) (*appconfig.ApplicationConfig, error)
}

// CertificateProvider returns certificate templates for authorized callers.
type CertificateProvider interface {
	FetchIfAuthorized(ctx context.Context, token string) ([]appconfig.Certificate, error)
}

// ConfigResponse is the body of GET /config.
type ConfigResponse struct {
	Config       *appconfig.ApplicationConfig `json:"config"`
	Certificates []appconfig.Certificate      `json:"certificates"`
}

// PublicConfigResponse is the body of GET /publicConfig.
type PublicConfigResponse struct {
	Config appconfig.LoginConfig `json:"config"`
}

// Handler serves the configuration endpoints.
type Handler struct {
	resolver     ConfigResolver
	certificates CertificateProvider
	validator    auth.JWTValidator
	schema       *jsonschema.Schema
	logger       logger.Logger
}

// Options configures a Handler.
type Options struct {
	Resolver     ConfigResolver
	Certificates CertificateProvider
	// Validator guards the update endpoint. When nil the endpoint is open.
	Validator auth.JWTValidator
	// Schema is served on the schema endpoint; the endpoint is not
	// registered when nil.
	Schema *jsonschema.Schema
	Logger logger.Logger
}

// New creates a Handler.
func New(opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		resolver:     opts.Resolver,
		certificates: opts.Certificates,
		validator:    opts.Validator,
		schema:       opts.Schema,
		logger:       log,
	}
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET(PathConfig, h.GetConfig)
	r.GET(PathPublicConfig, h.GetPublicConfig)
	r.POST(PathUpdate, h.requireScope(auth.ScopeNatlSysAdmin), h.UpdateConfig)
	if h.schema != nil {
		r.GET(PathSchema, h.GetSchema)
	}
}

// GetConfig returns the resolved configuration together with the caller's
// certificate templates. Both are fetched concurrently and either failure
// fails the request.
func (h *Handler) GetConfig(c *gin.Context) {
	token := auth.BearerToken(c.GetHeader("Authorization"))

	var resp ConfigResponse
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		cfg, err := h.resolver.Resolve(ctx, token)
		if err != nil {
			return err
		}
		resp.Config = cfg
		return nil
	})
	g.Go(func() error {
		certificates, err := h.certificates.FetchIfAuthorized(ctx, token)
		if err != nil {
			return err
		}
		resp.Certificates = certificates
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.WithContext(c.Request.Context()).Error("config request failed", "error", err)
		controller.Error(c, err)
		return
	}

	controller.OK(c, resp)
}

// GetPublicConfig returns the login subset. The caller's token is never
// forwarded upstream.
func (h *Handler) GetPublicConfig(c *gin.Context) {
	view, err := h.resolver.ResolveLoginView(c.Request.Context(), "")
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Error("public config request failed", "error", err)
		controller.Error(c, err)
		return
	}
	controller.OK(c, PublicConfigResponse{Config: view})
}

// UpdateConfig applies a partial configuration and answers 201 with the
// freshly resolved configuration.
func (h *Handler) UpdateConfig(c *gin.Context) {
	partial, err := decodeDocument(c.Request.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		controller.Error(c, controller.NewError("request.too_large", err).
			WithMessage("request body is too large").
			WithHTTPStatus(http.StatusRequestEntityTooLarge))
		return
	}
	if err != nil {
		controller.Error(c, controller.NewValidationError("request body must be a JSON object", map[string]any{
			"reason": err.Error(),
		}))
		return
	}

	token := auth.BearerToken(c.GetHeader("Authorization"))
	cfg, err := h.resolver.ApplyUpdate(c.Request.Context(), token, partial)
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Error("config update failed", "error", err)
		controller.Error(c, err)
		return
	}
	controller.Created(c, cfg)
}

// GetSchema serves the JSON Schema of the configuration document.
func (h *Handler) GetSchema(c *gin.Context) {
	controller.OK(c, h.schema)
}

func (h *Handler) requireScope(scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.validator == nil {
			c.Next()
			return
		}

		token := auth.BearerToken(c.GetHeader("Authorization"))
		verification := auth.Verify(c.Request.Context(), h.validator, token)
		if !verification.Verified() {
			h.logger.WithContext(c.Request.Context()).Warn("token rejected", "error", verification.Err)
			controller.Error(c, controller.NewUnauthorizedError("a valid bearer token is required"))
			return
		}
		if !verification.Claims.HasAnyScope(scopes...) {
			controller.Error(c, controller.NewForbiddenError("insufficient scope").
				WithDetails(map[string]any{"required_scopes": scopes}))
			return
		}

		ctx := auth.WithClaims(c.Request.Context(), verification.Claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func decodeDocument(body io.Reader) (appconfig.Document, error) {
	if body == nil {
		return nil, errors.New("request body is empty")
	}
	var doc appconfig.Document
	decoder := json.NewDecoder(body)
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("request body is empty")
		}
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("request body is null")
	}
	return doc, nil
}
