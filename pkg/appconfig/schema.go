package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	fullValidator   = newValidator("validate")
	updateValidator = newValidator("update")
)

func newValidator(tag string) *validator.Validate {
	v := validator.New()
	v.SetTagName(tag)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateFull checks that doc is a complete application configuration.
// Unknown keys at any depth are kept in Extra. SEARCH_DEFAULT_CRITERIA is
// defaulted when absent.
func ValidateFull(doc Document) (*ApplicationConfig, error) {
	cfg, err := decode(doc, SourceUpstream)
	if err != nil {
		return nil, err
	}
	if err := fullValidator.Struct(cfg); err != nil {
		return nil, toValidationError(err, SourceUpstream)
	}
	if cfg.SearchDefaultCriteria == nil {
		def := DefaultSearchCriteria
		cfg.SearchDefaultCriteria = &def
	}
	return cfg, nil
}

// ValidateUpdate checks a partial configuration. Every field is optional but
// type checked when present; keys outside the schema are rejected at any depth.
func ValidateUpdate(doc Document) (*ApplicationConfig, error) {
	cfg, err := decode(doc, SourceInput)
	if err != nil {
		return nil, err
	}
	if len(cfg.Extra) > 0 {
		keys := unknownPaths("", cfg.Extra)
		sort.Strings(keys)
		return nil, &ValidationError{Source: SourceInput, Field: keys[0], Reason: "is not allowed"}
	}
	if err := updateValidator.Struct(cfg); err != nil {
		return nil, toValidationError(err, SourceInput)
	}
	return cfg, nil
}

func decode(doc Document, source ValidationSource) (*ApplicationConfig, error) {
	if doc == nil {
		doc = Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, &ValidationError{Source: source, Reason: fmt.Sprintf("not encodable: %v", err)}
	}

	var cfg ApplicationConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &ValidationError{
				Source: source,
				Field:  typeErr.Field,
				Reason: "must be " + jsonTypeName(typeErr.Type),
			}
		}
		return nil, &ValidationError{Source: source, Reason: err.Error()}
	}
	return &cfg, nil
}

func toValidationError(err error, source ValidationSource) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Source: source, Reason: err.Error()}
	}
	fe := fieldErrs[0]
	return &ValidationError{
		Source: source,
		Field:  fieldPath(fe.Namespace()),
		Reason: reason(fe),
	}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64, reflect.Int32:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "a valid " + t.String()
	}
}
