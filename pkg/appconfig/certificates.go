package appconfig

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/crvs-platform/appconfig/pkg/auth"
	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

// Events with a certificate template, in response order.
var CertificateEvents = []string{"birth", "death", "marriage"}

// Certificate is the SVG template for one event.
type Certificate struct {
	SVGCode string `json:"svgCode"`
	Event   string `json:"event"`
}

// CertificateSource fetches one event's certificate template.
type CertificateSource interface {
	FetchCertificate(ctx context.Context, event, token string) (string, error)
}

// CertificateFetcher returns certificate templates to callers holding one of
// the certify, validate or natlsysadmin scopes.
type CertificateFetcher struct {
	source    CertificateSource
	validator auth.JWTValidator
	logger    logger.Logger
}

// NewCertificateFetcher creates a CertificateFetcher. A nil validator
// rejects every token.
func NewCertificateFetcher(source CertificateSource, validator auth.JWTValidator, log logger.Logger) *CertificateFetcher {
	return &CertificateFetcher{
		source:    source,
		validator: validator,
		logger:    log,
	}
}

// FetchIfAuthorized returns the three certificates, or an empty list when the
// token is missing, invalid or lacks the scopes. A failed fetch fails the call.
func (f *CertificateFetcher) FetchIfAuthorized(ctx context.Context, token string) ([]Certificate, error) {
	verification := auth.Verify(ctx, f.validator, token)
	if !verification.Verified() {
		f.logger.WithContext(ctx).Debug("certificates withheld", "reason", verification.Err)
		return []Certificate{}, nil
	}
	if !verification.Claims.HasAnyScope(auth.ScopeCertify, auth.ScopeValidate, auth.ScopeNatlSysAdmin) {
		return []Certificate{}, nil
	}

	certificates := make([]Certificate, len(CertificateEvents))
	g, gctx := errgroup.WithContext(ctx)
	for i, event := range CertificateEvents {
		g.Go(func() error {
			svg, err := f.source.FetchCertificate(gctx, event, token)
			if err != nil {
				return err
			}
			certificates[i] = Certificate{SVGCode: svg, Event: event}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return certificates, nil
}
