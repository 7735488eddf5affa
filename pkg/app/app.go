// Package app assembles the configuration service from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/crvs-platform/appconfig/pkg/appconfig"
	"github.com/crvs-platform/appconfig/pkg/auth"
	"github.com/crvs-platform/appconfig/pkg/config"
	"github.com/crvs-platform/appconfig/pkg/configschema"
	"github.com/crvs-platform/appconfig/pkg/countryconfig"
	"github.com/crvs-platform/appconfig/pkg/handler"
	"github.com/crvs-platform/appconfig/pkg/health"
	"github.com/crvs-platform/appconfig/pkg/observability/logger"
	"github.com/crvs-platform/appconfig/pkg/observability/metrics"
	"github.com/crvs-platform/appconfig/pkg/server"
	"github.com/crvs-platform/appconfig/pkg/store"
	"github.com/crvs-platform/appconfig/pkg/store/mongodb"
	"github.com/crvs-platform/appconfig/pkg/version"
)

// Store is the document store backing the override record.
type Store interface {
	appconfig.DocumentStore
	store.Adapter
}

// Dependencies are the external collaborators of the service. Nil fields are
// built from the configuration.
type Dependencies struct {
	Store     Store
	Upstream  *countryconfig.Client
	Validator auth.JWTValidator
	Metrics   *metrics.Registry
	Health    *health.Registry
}

// App is a fully wired service ready to run.
type App struct {
	Config  *config.Config
	Logger  logger.Logger
	Servers *server.HTTPServers
	Handler *handler.Handler

	store Store
}

// New wires the service. Missing dependencies are created from cfg; the
// MongoDB connection is opened here and gives up when ctx is canceled.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRegistry()
	}
	if deps.Health == nil {
		deps.Health = health.NewRegistry()
	}
	if deps.Upstream == nil {
		deps.Upstream = countryconfig.NewClient(countryconfig.Config{
			BaseURL: cfg.CountryConfig.URL,
			Timeout: cfg.CountryConfig.Timeout,
		}, deps.Metrics.Upstream, log)
	}
	if deps.Validator == nil && cfg.Auth.Enabled {
		validator, err := NewValidator(cfg.Auth, log)
		if err != nil {
			return nil, err
		}
		deps.Validator = validator
	}
	if deps.Store == nil {
		adapter, err := mongodb.NewAdapter(ctx, mongodb.Config{
			URL:              cfg.Database.URL,
			Database:         cfg.Database.DatabaseName,
			ConnectTimeout:   cfg.Database.ConnectTimeout,
			OperationTimeout: cfg.Database.OperationTimeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect override store: %w", err)
		}
		deps.Store = adapter
	}

	deps.Health.Register(health.NewDatabaseChecker("mongodb", deps.Store))
	deps.Health.Register(health.NewUpstreamChecker("country-config", deps.Upstream))

	overrides := appconfig.NewOverrideStore(deps.Store, cfg.Database.Collection, deps.Metrics.Override, log)
	resolver := appconfig.NewResolver(deps.Upstream, overrides, log)
	certificates := appconfig.NewCertificateFetcher(deps.Upstream, deps.Validator, log)

	schema, err := configschema.ApplicationConfig()
	if err != nil {
		return nil, fmt.Errorf("build application config schema: %w", err)
	}

	h := handler.New(handler.Options{
		Resolver:     resolver,
		Certificates: certificates,
		Validator:    deps.Validator,
		Schema:       schema,
		Logger:       log,
	})

	public := server.NewPublicAPIServer(cfg.HTTP, deps.Metrics.HTTP, log)
	h.Register(public.Engine())

	servers := &server.HTTPServers{Public: public}
	if cfg.Management.Enabled {
		servers.Management = server.NewManagementServer(
			cfg.Management,
			log,
			deps.Health,
			deps.Metrics,
			version.Current(cfg.Service.Name),
		)
	}

	return &App{
		Config:  cfg,
		Logger:  log,
		Servers: servers,
		Handler: h,
		store:   deps.Store,
	}, nil
}

// Run serves until ctx is cancelled, then closes the store.
func (a *App) Run(ctx context.Context) error {
	return server.RunHTTPServers(ctx, a.Servers, &server.RunOptions{
		Config: a.Config,
		Logger: a.Logger,
		ShutdownHooks: []server.LifecycleHook{
			{Name: "override-store", Fn: func(context.Context) error { return a.store.Close() }},
		},
	})
}

// NewValidator builds the token validator from a static PEM key or a JWKS endpoint.
func NewValidator(cfg config.AuthConfig, log logger.Logger) (*auth.Validator, error) {
	var keys auth.KeySource
	switch {
	case cfg.PublicKeyFile != "":
		key, err := auth.LoadStaticKey(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load token public key: %w", err)
		}
		keys = key
	case cfg.JWKSUrl != "":
		keys = auth.NewJWKSClient(cfg.JWKSUrl, cfg.JWKSCacheTTL, log)
	default:
		return nil, errors.New("auth is enabled but neither public_key_file nor jwks_url is set")
	}
	return auth.NewValidator(keys, cfg.Issuer, cfg.Audience, log), nil
}

// CheckDependencies pings every dependency once and reports the failures.
func CheckDependencies(ctx context.Context, cfg *config.Config, log logger.Logger) (health.AggregatedResult, error) {
	registry := metrics.NewRegistry()
	upstream := countryconfig.NewClient(countryconfig.Config{
		BaseURL: cfg.CountryConfig.URL,
		Timeout: cfg.CountryConfig.Timeout,
	}, registry.Upstream, log)

	checks := health.NewRegistry()
	checks.Register(health.NewUpstreamChecker("country-config", upstream))

	adapter, err := mongodb.NewAdapter(ctx, mongodb.Config{
		URL:              cfg.Database.URL,
		Database:         cfg.Database.DatabaseName,
		ConnectTimeout:   cfg.Database.ConnectTimeout,
		OperationTimeout: cfg.Database.OperationTimeout,
	}, log)
	if err != nil {
		result := checks.Check(ctx)
		return result, fmt.Errorf("connect override store: %w", err)
	}
	defer adapter.Close()
	checks.Register(health.NewDatabaseChecker("mongodb", adapter))

	result := checks.Check(ctx)
	if result.Status == health.StatusUnhealthy {
		return result, errors.New("one or more dependencies are unhealthy")
	}
	return result, nil
}
