// Package configschema publishes JSON Schemas for the application
// configuration document and for the service's own settings file.
package configschema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/crvs-platform/appconfig/pkg/appconfig"
	"github.com/crvs-platform/appconfig/pkg/config"
)

const draft = "https://json-schema.org/draft/2020-12/schema"

// ApplicationConfig returns the schema of a fully resolved application
// configuration. Required fields, enums and non-empty strings mirror the
// rules enforced by appconfig.ValidateFull.
func ApplicationConfig() (*jsonschema.Schema, error) {
	t := reflect.TypeOf(appconfig.ApplicationConfig{})
	schema, err := jsonschema.ForType(t, &jsonschema.ForOptions{IgnoreInvalidTypes: true})
	if err != nil {
		return nil, fmt.Errorf("build application config schema: %w", err)
	}
	applyValidationRules(schema, t)

	if prop := schema.Properties["SEARCH_DEFAULT_CRITERIA"]; prop != nil {
		prop.Default = json.RawMessage(fmt.Sprintf("%q", appconfig.DefaultSearchCriteria))
	}
	// Unknown top-level keys are passed through.
	schema.AdditionalProperties = &jsonschema.Schema{}

	schema.Title = "Application Configuration"
	schema.Description = "Configuration document served to CRVS clients."
	schema.Schema = draft
	return schema, nil
}

// ServiceConfig returns the schema of the service settings file with defaults
// taken from config.DefaultConfig.
func ServiceConfig() (*jsonschema.Schema, error) {
	opts := &jsonschema.ForOptions{
		IgnoreInvalidTypes: true,
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeOf(time.Duration(0)): {Type: "string"},
		},
	}

	t := reflect.TypeOf(config.Config{})
	schema, err := jsonschema.ForType(t, opts)
	if err != nil {
		return nil, fmt.Errorf("build service config schema: %w", err)
	}
	applyFieldNames(schema, t)

	defaults := config.DefaultConfig()
	injectDefaults(schema, reflect.ValueOf(defaults))
	pruneRequiredWithDefaults(schema)

	schema.Title = defaults.Service.Name + " service configuration"
	schema.Description = "Settings file for the " + defaults.Service.Name + " service."
	schema.Schema = draft
	return schema, nil
}

// applyValidationRules translates validate tags into schema keywords.
func applyValidationRules(schema *jsonschema.Schema, t reflect.Type) {
	if schema == nil {
		return
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || len(schema.Properties) == 0 {
		return
	}

	required := []string{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, omit := jsonFieldName(field)
		if omit {
			continue
		}
		prop := schema.Properties[name]
		if prop == nil {
			continue
		}

		target := prop
		for _, rule := range strings.Split(field.Tag.Get("validate"), ",") {
			key, param, _ := strings.Cut(rule, "=")
			switch key {
			case "required":
				required = append(required, name)
			case "dive":
				if prop.Items != nil {
					target = prop.Items
				}
			case "min":
				if param == "1" && schemaAllowsString(target) {
					one := 1
					target.MinLength = &one
				}
			case "oneof":
				values := strings.Fields(param)
				enum := make([]any, 0, len(values))
				for _, v := range values {
					enum = append(enum, v)
				}
				target.Enum = enum
			}
		}

		elem := field.Type
		for elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		applyValidationRules(prop, elem)
	}
	schema.Required = dedupeStrings(append(schema.Required, required...))
}

func applyFieldNames(schema *jsonschema.Schema, t reflect.Type) {
	if schema == nil || t == nil {
		return
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		if len(schema.Properties) == 0 {
			return
		}
		nameMap := make(map[string]string)
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			jsonName, omit := jsonFieldName(field)
			if omit {
				continue
			}
			desired := fieldKeyName(field)
			nameMap[jsonName] = desired
			if prop, ok := schema.Properties[jsonName]; ok {
				delete(schema.Properties, jsonName)
				schema.Properties[desired] = prop
				applyFieldNames(prop, field.Type)
			}
		}

		if len(schema.Required) > 0 {
			updated := make([]string, 0, len(schema.Required))
			for _, name := range schema.Required {
				if mapped, ok := nameMap[name]; ok {
					updated = append(updated, mapped)
				} else {
					updated = append(updated, name)
				}
			}
			schema.Required = dedupeStrings(updated)
		}

		if len(schema.PropertyOrder) > 0 {
			updated := make([]string, 0, len(schema.PropertyOrder))
			for _, name := range schema.PropertyOrder {
				if mapped, ok := nameMap[name]; ok {
					updated = append(updated, mapped)
				} else {
					updated = append(updated, name)
				}
			}
			schema.PropertyOrder = dedupeStrings(updated)
		}

		if len(schema.DependentRequired) > 0 {
			updated := make(map[string][]string, len(schema.DependentRequired))
			for name, deps := range schema.DependentRequired {
				if mapped, ok := nameMap[name]; ok {
					name = mapped
				}
				updatedDeps := make([]string, 0, len(deps))
				for _, dep := range deps {
					if mapped, ok := nameMap[dep]; ok {
						updatedDeps = append(updatedDeps, mapped)
					} else {
						updatedDeps = append(updatedDeps, dep)
					}
				}
				updated[name] = dedupeStrings(updatedDeps)
			}
			schema.DependentRequired = updated
		}

	case reflect.Slice, reflect.Array:
		applyFieldNames(schema.Items, t.Elem())

	case reflect.Map:
		if schema.AdditionalProperties != nil {
			applyFieldNames(schema.AdditionalProperties, t.Elem())
		}
	}
}

func injectDefaults(schema *jsonschema.Schema, value reflect.Value) {
	if schema == nil || !value.IsValid() {
		return
	}
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return
		}
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Struct:
		if len(schema.Properties) == 0 {
			return
		}
		t := value.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := fieldKeyName(field)
			if name == "" {
				continue
			}
			propSchema, ok := schema.Properties[name]
			if !ok {
				continue
			}

			fieldVal := value.Field(i)
			if fieldVal.Kind() == reflect.Pointer && fieldVal.IsNil() {
				if propSchema.Default == nil && schemaAllowsNull(propSchema) {
					propSchema.Default = json.RawMessage("null")
				}
				continue
			}

			if propSchema.Default == nil {
				if raw, ok := marshalDefault(propSchema, fieldVal); ok {
					propSchema.Default = raw
				}
			}

			injectDefaults(propSchema, fieldVal)
		}

	case reflect.Slice, reflect.Array, reflect.Map, reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if schema.Default == nil {
			if raw, ok := marshalDefault(schema, value); ok {
				schema.Default = raw
			}
		}
	}
}

func pruneRequiredWithDefaults(schema *jsonschema.Schema) {
	if schema == nil {
		return
	}
	for _, prop := range schema.Properties {
		pruneRequiredWithDefaults(prop)
	}
	if len(schema.Required) == 0 || len(schema.Properties) == 0 {
		return
	}
	kept := make([]string, 0, len(schema.Required))
	for _, name := range schema.Required {
		prop := schema.Properties[name]
		if prop == nil || prop.Default == nil {
			kept = append(kept, name)
		}
	}
	schema.Required = kept
}

func marshalDefault(schema *jsonschema.Schema, value reflect.Value) (json.RawMessage, bool) {
	if !value.IsValid() {
		return nil, false
	}
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, false
		}
		value = value.Elem()
	}

	if value.Type() == reflect.TypeOf(time.Duration(0)) && schemaAllowsString(schema) {
		dur := value.Interface().(time.Duration)
		payload, err := json.Marshal(dur.String())
		if err != nil {
			return nil, false
		}
		return payload, true
	}

	payload, err := json.Marshal(value.Interface())
	if err != nil {
		return nil, false
	}
	return payload, true
}

func schemaAllowsString(schema *jsonschema.Schema) bool {
	if schema == nil {
		return false
	}
	if schema.Type == "string" {
		return true
	}
	for _, t := range schema.Types {
		if t == "string" {
			return true
		}
	}
	return false
}

func fieldKeyName(field reflect.StructField) string {
	if tag, ok := tagName(field.Tag.Get("mapstructure")); ok {
		return tag
	}
	if tag, ok := tagName(field.Tag.Get("yaml")); ok {
		return tag
	}
	return toSnakeCase(field.Name)
}

func tagName(tag string) (string, bool) {
	if tag == "" {
		return "", false
	}
	name := strings.Split(tag, ",")[0]
	if name == "" || name == "-" {
		return "", false
	}
	return name, true
}

func toSnakeCase(value string) string {
	if value == "" {
		return value
	}
	var b strings.Builder
	b.Grow(len(value) + 8)

	for i, r := range value {
		if i > 0 && isWordBoundary(value, i, r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func isWordBoundary(value string, index int, r rune) bool {
	if !unicode.IsUpper(r) {
		return false
	}
	prev := rune(value[index-1])
	if unicode.IsUpper(prev) {
		if index+1 < len(value) {
			next := rune(value[index+1])
			return unicode.IsLower(next)
		}
		return false
	}
	return true
}

func jsonFieldName(field reflect.StructField) (string, bool) {
	if !field.IsExported() {
		return "", true
	}
	name := field.Name
	if tag, ok := field.Tag.Lookup("json"); ok {
		tagName, _, found := strings.Cut(tag, ",")
		if tagName == "-" && !found {
			return "", true
		}
		if tagName != "" {
			name = tagName
		}
	}
	return name, false
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func schemaAllowsNull(schema *jsonschema.Schema) bool {
	if schema == nil {
		return false
	}
	if schema.Type == "null" {
		return true
	}
	for _, t := range schema.Types {
		if t == "null" {
			return true
		}
	}
	return false
}
