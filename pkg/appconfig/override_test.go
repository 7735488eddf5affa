package appconfig

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/crvs-platform/appconfig/pkg/observability/logger"
	"github.com/crvs-platform/appconfig/pkg/observability/metrics"
)

func TestOverrideStore_ReadMissing(t *testing.T) {
	s := NewOverrideStore(&memoryStore{}, "applicationconfigs", metrics.NewRegistry().Override, logger.NewNop())

	cfg, found, err := s.ReadSingleton(context.Background())
	if err != nil {
		t.Fatalf("missing record must not be an error: %v", err)
	}
	if found || cfg != nil {
		t.Fatalf("expected no override, got %+v", cfg)
	}
}

func TestOverrideStore_UpsertMergesFields(t *testing.T) {
	db := &memoryStore{}
	s := NewOverrideStore(db, "applicationconfigs", nil, logger.NewNop())

	first, err := ValidateUpdate(parseDocument(t, `{"BIRTH": {"FEE": {"LATE": 3}}, "APPLICATION_NAME": "A"}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, err := s.UpsertSingleton(context.Background(), first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := ValidateUpdate(parseDocument(t, `{"BIRTH": {"REGISTRATION_TARGET": 20}}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	stored, err := s.UpsertSingleton(context.Background(), second)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if *stored.ApplicationName != "A" {
		t.Fatal("earlier fields must survive a later update")
	}
	if *stored.Birth.Fee.Late != 3 || *stored.Birth.RegistrationTarget != 20 {
		t.Fatalf("expected nested fields to merge, got %+v", stored.Birth)
	}
}

func TestOverrideStore_EmptyUpdateSkipsWrite(t *testing.T) {
	db := &memoryStore{}
	s := NewOverrideStore(db, "applicationconfigs", nil, logger.NewNop())

	cfg, err := s.UpsertSingleton(context.Background(), &ApplicationConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.writes != 0 {
		t.Fatalf("expected no write, got %d", db.writes)
	}
	if cfg == nil {
		t.Fatal("expected an empty override")
	}
}

func TestOverrideStore_ReadDropsID(t *testing.T) {
	db := &memoryStore{doc: map[string]any{"APPLICATION_NAME": "Stored"}}
	s := NewOverrideStore(db, "applicationconfigs", nil, logger.NewNop())

	cfg, found, err := s.ReadSingleton(context.Background())
	if err != nil || !found {
		t.Fatalf("expected stored override, got found=%v err=%v", found, err)
	}
	if _, ok := cfg.Extra["_id"]; ok {
		t.Fatal("_id must not leak into the override")
	}
}

func TestOverrideStore_CorruptRecord(t *testing.T) {
	db := &memoryStore{doc: map[string]any{"BIRTH": "not an object"}}
	s := NewOverrideStore(db, "applicationconfigs", nil, logger.NewNop())

	_, _, err := s.ReadSingleton(context.Background())
	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Op != "read" {
		t.Fatalf("expected read PersistenceError, got %v", err)
	}
}

func TestFlattenSet(t *testing.T) {
	out := bson.M{}
	flattenSet("", Document{
		"A": map[string]any{"B": map[string]any{"C": 1.0}, "EMPTY": map[string]any{}},
		"D": []any{"x"},
		"N": nil,
	}, out)

	if len(out) != 2 {
		t.Fatalf("expected two paths, got %v", out)
	}
	if out["A.B.C"] != 1.0 {
		t.Fatalf("expected dotted path, got %v", out)
	}
	if _, ok := out["D"].([]any); !ok {
		t.Fatalf("arrays must be set whole, got %v", out["D"])
	}
}

func TestOverrideStore_UpsertUnderScalarFails(t *testing.T) {
	db := &memoryStore{doc: map[string]any{"BIRTH": "legacy"}}
	s := NewOverrideStore(db, "applicationconfigs", nil, logger.NewNop())

	partial, err := ValidateUpdate(parseDocument(t, `{"BIRTH": {"REGISTRATION_TARGET": 20}}`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	_, err = s.UpsertSingleton(context.Background(), partial)
	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Op != "write" {
		t.Fatalf("expected write PersistenceError, got %v", err)
	}
	if db.doc["BIRTH"] != "legacy" {
		t.Fatalf("failed write must leave the record untouched, got %v", db.doc)
	}
}
