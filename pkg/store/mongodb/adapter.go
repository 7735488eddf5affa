// Package mongodb provides the MongoDB adapter backing the override document.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/crvs-platform/appconfig/pkg/observability/logger"
	"github.com/crvs-platform/appconfig/pkg/observability/tracing"
	"github.com/crvs-platform/appconfig/pkg/store"
)

// Adapter provides MongoDB connectivity.
type Adapter struct {
	client   *mongo.Client
	database string
	logger   logger.Logger
	timeout  time.Duration
	mu       sync.RWMutex
	closed   bool
}

// Config holds MongoDB adapter configuration.
type Config struct {
	URL              string
	Database         string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
}

// Cosa fa: inizializza un adapter MongoDB e verifica connettività via ping.
// Cosa NON fa: non crea indici o collezioni automaticamente.
// La connessione rispetta la cancellazione di ctx.
// Esempio minimo: adapter, err := mongodb.NewAdapter(ctx, cfg, log)
func NewAdapter(ctx context.Context, cfg Config, log logger.Logger) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("mongodb URL is required")
	}
	if cfg.Database == "" {
		return nil, errors.New("mongodb database is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Info("MongoDB connection established", "database", cfg.Database)
	return &Adapter{
		client:   client,
		database: cfg.Database,
		logger:   log,
		timeout:  cfg.OperationTimeout,
	}, nil
}

func (a *Adapter) collection(name string) *mongo.Collection {
	return a.client.Database(a.database).Collection(name)
}

func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.RLock()
	closed := a.closed
	a.mu.RUnlock()
	if closed {
		return errors.New("mongodb adapter is closed")
	}
	return a.client.Ping(ctx, readpref.Primary())
}

func (a *Adapter) HealthCheck(ctx context.Context) error {
	hcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.Ping(hcCtx); err != nil {
		a.logger.Error("MongoDB health check failed", "error", err)
		return fmt.Errorf("mongodb health check failed: %w", err)
	}
	return nil
}

func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close mongodb connection: %w", err)
	}
	return nil
}

// Cosa fa: legge il primo documento che soddisfa filter e lo decodifica in result.
// Cosa NON fa: non distingue tra più documenti corrispondenti.
// Esempio minimo: err := adapter.FindOne(ctx, "applicationconfigs", bson.D{}, &doc)
func (a *Adapter) FindOne(ctx context.Context, collection string, filter, result any) (err error) {
	ctx, span := tracing.StartDatabaseSpan(ctx, tracing.SpanOperationDBFind, collection)
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	return mapFindError(a.collection(collection).FindOne(opCtx, filter).Decode(result))
}

func mapFindError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

// Cosa fa: applica update al documento che soddisfa filter, creandolo se assente.
// Esempio minimo: err := adapter.Upsert(ctx, "applicationconfigs", bson.D{}, bson.M{"$set": fields})
func (a *Adapter) Upsert(ctx context.Context, collection string, filter, update any) (err error) {
	ctx, span := tracing.StartDatabaseSpan(ctx, tracing.SpanOperationDBUpsert, collection)
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	_, err = a.collection(collection).UpdateOne(opCtx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (a *Adapter) withOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}
