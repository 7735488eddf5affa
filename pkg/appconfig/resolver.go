package appconfig

import (
	"context"
	"fmt"

	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

// BaseConfigSource fetches the provider's application configuration.
type BaseConfigSource interface {
	FetchApplicationConfig(ctx context.Context, token string) (Document, error)
}

// Resolver combines the provider document with the local override.
type Resolver struct {
	source    BaseConfigSource
	overrides Overrides
	logger    logger.Logger
}

// NewResolver creates a Resolver.
func NewResolver(source BaseConfigSource, overrides Overrides, log logger.Logger) *Resolver {
	return &Resolver{
		source:    source,
		overrides: overrides,
		logger:    log,
	}
}

// Resolve fetches, strips and validates the base document, then overlays the
// override. The merged result is not validated again.
//
// Errors: the fetch error as returned by the source, a *ValidationError with
// SourceUpstream when the base document is malformed, or a *PersistenceError.
func (r *Resolver) Resolve(ctx context.Context, token string) (*ApplicationConfig, error) {
	log := r.logger.WithContext(ctx)

	raw, err := r.source.FetchApplicationConfig(ctx, token)
	if err != nil {
		return nil, err
	}

	base, err := ValidateFull(StripInternalIDs(raw))
	if err != nil {
		log.Warn("base configuration rejected", "error", err)
		return nil, err
	}

	override, found, err := r.overrides.ReadSingleton(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return base, nil
	}

	merged, err := mergeConfigs(base, override)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// ResolveLoginView resolves and projects the login fields.
func (r *Resolver) ResolveLoginView(ctx context.Context, token string) (LoginConfig, error) {
	cfg, err := r.Resolve(ctx, token)
	if err != nil {
		return LoginConfig{}, err
	}
	return cfg.LoginView(), nil
}

// ApplyUpdate validates partial, merges it into the stored override and
// returns a fresh resolution.
func (r *Resolver) ApplyUpdate(ctx context.Context, token string, partial Document) (*ApplicationConfig, error) {
	update, err := ValidateUpdate(partial)
	if err != nil {
		return nil, err
	}
	if _, err := r.overrides.UpsertSingleton(ctx, update); err != nil {
		return nil, err
	}
	r.logger.WithContext(ctx).Info("application configuration override applied")
	return r.Resolve(ctx, token)
}

func mergeConfigs(base, override *ApplicationConfig) (*ApplicationConfig, error) {
	baseDoc, err := base.ToDocument()
	if err != nil {
		return nil, err
	}
	overrideDoc, err := override.ToDocument()
	if err != nil {
		return nil, err
	}

	merged := DeepMerge(baseDoc, overrideDoc)
	cfg, err := decode(merged, SourceUpstream)
	if err != nil {
		return nil, fmt.Errorf("merge override: %w", err)
	}
	return cfg, nil
}
