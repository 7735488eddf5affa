package appconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/crvs-platform/appconfig/pkg/auth"
	"github.com/crvs-platform/appconfig/pkg/store"
)

const baseConfigJSON = `{
  "APPLICATION_NAME": "Farajaland CRS",
  "COUNTRY_LOGO": {"_id": "6412", "fileName": "logo.png", "file": "data:image/png;base64,AAA"},
  "LOGIN_BACKGROUND": {"backgroundColor": "36304E", "backgroundImage": "", "imageFit": "FILL"},
  "CURRENCY": {"_id": "6413", "isoCode": "ZMW", "languagesAndCountry": ["en-ZM"]},
  "PHONE_NUMBER_PATTERN": "^0(7|9)[0-9]{8}$",
  "NID_NUMBER_PATTERN": "^[0-9]{10}$",
  "BIRTH": {
    "_id": "6414",
    "REGISTRATION_TARGET": 30,
    "LATE_REGISTRATION_TARGET": 365,
    "FEE": {"ON_TIME": 0, "LATE": 5.5, "DELAYED": 15},
    "PRINT_IN_ADVANCE": true
  },
  "DEATH": {"REGISTRATION_TARGET": 30, "FEE": {"ON_TIME": 0, "DELAYED": 0}, "PRINT_IN_ADVANCE": true},
  "MARRIAGE": {"REGISTRATION_TARGET": 30, "FEE": {"ON_TIME": 10, "DELAYED": 45}, "PRINT_IN_ADVANCE": false},
  "FIELD_AGENT_AUDIT_LOCATIONS": "DISTRICT",
  "DECLARATION_AUDIT_LOCATIONS": "DISTRICT",
  "FEATURES": {
    "DEATH_REGISTRATION": true,
    "MARRIAGE_REGISTRATION": false,
    "EXTERNAL_VALIDATION_WORKQUEUE": false,
    "INFORMANT_SIGNATURE": true,
    "PRINT_DECLARATION": false,
    "DATE_OF_BIRTH_UNKNOWN": true,
    "INFORMANT_SIGNATURE_REQUIRED": false
  },
  "USER_NOTIFICATION_DELIVERY_METHOD": "email",
  "INFORMANT_NOTIFICATION_DELIVERY_METHOD": "",
  "SIGNATURE_REQUIRED_FOR_ROLES": ["LOCAL_REGISTRAR", "NATIONAL_REGISTRAR"],
  "SENTRY": "https://sentry.example",
  "LANGUAGES": ["en", "fr"]
}`

func parseDocument(t *testing.T, raw string) Document {
	t.Helper()
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func baseDocument(t *testing.T) Document {
	return parseDocument(t, baseConfigJSON)
}

// expectedBase is the base document as Resolve returns it without an override.
func expectedBase(t *testing.T) Document {
	doc := StripInternalIDs(baseDocument(t))
	doc["SEARCH_DEFAULT_CRITERIA"] = DefaultSearchCriteria
	return doc
}

func toDocument(t *testing.T, cfg *ApplicationConfig) Document {
	t.Helper()
	doc, err := cfg.ToDocument()
	if err != nil {
		t.Fatalf("to document: %v", err)
	}
	return doc
}

type fakeSource struct {
	mu     sync.Mutex
	doc    Document
	err    error
	tokens []string
}

func (f *fakeSource) FetchApplicationConfig(_ context.Context, token string) (Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return nil, f.err
	}
	return DeepMerge(f.doc, nil), nil
}

// memoryStore applies $set updates to a single in-memory document.
type memoryStore struct {
	mu      sync.Mutex
	doc     map[string]any
	findErr error
	setErr  error
	writes  int
}

func (m *memoryStore) FindOne(_ context.Context, _ string, _, result any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return m.findErr
	}
	if m.doc == nil {
		return store.ErrNotFound
	}
	out := bson.M{"_id": "singleton"}
	for k, v := range cloneDocument(m.doc) {
		out[k] = v
	}
	*(result.(*bson.M)) = out
	return nil
}

func (m *memoryStore) Upsert(_ context.Context, _ string, _, update any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	set := update.(bson.M)["$set"].(bson.M)
	next := cloneDocument(m.doc)
	for path, value := range set {
		parts := strings.Split(path, ".")
		node := next
		for _, part := range parts[:len(parts)-1] {
			existing, present := node[part]
			if !present || existing == nil {
				child := map[string]any{}
				node[part] = child
				node = child
				continue
			}
			child, ok := existing.(map[string]any)
			if !ok {
				// mongo refuses to create a field inside a scalar
				return fmt.Errorf("cannot create field %q in element {%s: %v}", parts[len(parts)-1], part, existing)
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	m.doc = next
	m.writes++
	return nil
}

type fakeValidator struct {
	claims *auth.Claims
	err    error
}

func (f fakeValidator) Validate(context.Context, string) (*auth.Claims, error) {
	return f.claims, f.err
}

type fakeCertificates struct {
	mu      sync.Mutex
	failFor string
	err     error
	calls   []string
}

func (f *fakeCertificates) FetchCertificate(_ context.Context, event, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, event+":"+token)
	if event == f.failFor {
		return "", f.err
	}
	return "<svg>" + event + "</svg>", nil
}
