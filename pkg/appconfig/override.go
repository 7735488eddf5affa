package appconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/crvs-platform/appconfig/pkg/observability/logger"
	"github.com/crvs-platform/appconfig/pkg/observability/metrics"
	"github.com/crvs-platform/appconfig/pkg/store"
)

// DocumentStore is the slice of the MongoDB adapter the override store needs.
type DocumentStore interface {
	FindOne(ctx context.Context, collection string, filter, result any) error
	Upsert(ctx context.Context, collection string, filter, update any) error
}

// Overrides reads and writes the single override document.
type Overrides interface {
	ReadSingleton(ctx context.Context) (*ApplicationConfig, bool, error)
	UpsertSingleton(ctx context.Context, partial *ApplicationConfig) (*ApplicationConfig, error)
}

// OverrideStore keeps the override document as the only record of a collection.
type OverrideStore struct {
	db         DocumentStore
	collection string
	metrics    *metrics.OverrideMetrics
	logger     logger.Logger
}

// NewOverrideStore creates an OverrideStore. m may be nil.
func NewOverrideStore(db DocumentStore, collection string, m *metrics.OverrideMetrics, log logger.Logger) *OverrideStore {
	return &OverrideStore{
		db:         db,
		collection: collection,
		metrics:    m,
		logger:     log,
	}
}

// ReadSingleton returns the override document. A missing record yields found=false.
func (s *OverrideStore) ReadSingleton(ctx context.Context) (cfg *ApplicationConfig, found bool, err error) {
	defer func() { s.metrics.Observe("read", err) }()

	var raw bson.M
	if err := s.db.FindOne(ctx, s.collection, bson.D{}, &raw); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, &PersistenceError{Op: "read", Err: err}
	}
	delete(raw, InternalIDKey)

	// bson.M nests as bson.M and bson.A, both of which encode as plain JSON.
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, false, &PersistenceError{Op: "read", Err: fmt.Errorf("encode stored override: %w", err)}
	}
	cfg = &ApplicationConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, false, &PersistenceError{Op: "read", Err: fmt.Errorf("decode stored override: %w", err)}
	}
	return cfg, true, nil
}

// UpsertSingleton merges partial into the stored override, creating it when
// absent, and returns the stored result.
//
// Nested objects are written as dotted $set paths so a single-document upsert
// merges at field level. Concurrent writers interleave per field.
func (s *OverrideStore) UpsertSingleton(ctx context.Context, partial *ApplicationConfig) (*ApplicationConfig, error) {
	doc, err := partial.ToDocument()
	if err != nil {
		return nil, &PersistenceError{Op: "write", Err: err}
	}

	fields := bson.M{}
	flattenSet("", doc, fields)
	if len(fields) == 0 {
		s.logger.Debug("override update carries no fields, skipping write")
		cfg, _, err := s.ReadSingleton(ctx)
		if err != nil {
			return nil, err
		}
		if cfg == nil {
			cfg = &ApplicationConfig{}
		}
		return cfg, nil
	}

	err = s.db.Upsert(ctx, s.collection, bson.D{}, bson.M{"$set": fields})
	s.metrics.Observe("write", err)
	if err != nil {
		return nil, &PersistenceError{Op: "write", Err: err}
	}
	s.logger.Info("override document updated", "fields", sortedKeys(fields))

	cfg, _, err := s.ReadSingleton(ctx)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// flattenSet turns nested objects into dotted keys. Empty objects and nulls
// carry nothing to set and are skipped.
func flattenSet(prefix string, doc Document, out bson.M) {
	for key, value := range doc {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch typed := value.(type) {
		case nil:
			continue
		case map[string]any:
			flattenSet(path, typed, out)
		default:
			out[path] = typed
		}
	}
}

func sortedKeys(m bson.M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
