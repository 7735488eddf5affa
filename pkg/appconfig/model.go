// Package appconfig resolves the application configuration served to clients.
//
// A resolution fetches the base document from the country configuration
// service, strips provider identifiers, validates it and overlays the locally
// persisted override document.
package appconfig

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Document is an untyped JSON object as exchanged with the provider and the store.
type Document = map[string]any

// SearchCriteria values accepted for SEARCH_DEFAULT_CRITERIA.
const (
	SearchTrackingID         = "TRACKING_ID"
	SearchRegistrationNumber = "REGISTRATION_NUMBER"
	SearchNationalID         = "NATIONAL_ID"
	SearchName               = "NAME"
	SearchPhoneNumber        = "PHONE_NUMBER"
	SearchEmail              = "EMAIL"

	DefaultSearchCriteria = SearchTrackingID
)

// ApplicationConfig is the resolved configuration document.
//
// Every field is a pointer so that partial documents (updates, overrides)
// share the type with fully resolved ones. Keys the service does not know
// about, at any depth, are kept in Extra and written back unchanged.
type ApplicationConfig struct {
	ApplicationName      *string          `json:"APPLICATION_NAME,omitempty" validate:"required,min=1" update:"omitempty,min=1"`
	CountryLogo          *CountryLogo     `json:"COUNTRY_LOGO,omitempty" validate:"required"`
	LoginBackground      *LoginBackground `json:"LOGIN_BACKGROUND,omitempty" validate:"required"`
	Currency             *Currency        `json:"CURRENCY,omitempty" validate:"required"`
	PhoneNumberPattern   *string          `json:"PHONE_NUMBER_PATTERN,omitempty" validate:"required,min=1" update:"omitempty,min=1"`
	NIDNumberPattern     *string          `json:"NID_NUMBER_PATTERN,omitempty" validate:"required,min=1" update:"omitempty,min=1"`
	Birth                *BirthSettings   `json:"BIRTH,omitempty" validate:"required"`
	Death                *EventSettings   `json:"DEATH,omitempty" validate:"required"`
	Marriage             *EventSettings   `json:"MARRIAGE,omitempty" validate:"required"`
	FieldAgentAuditLocs  *string          `json:"FIELD_AGENT_AUDIT_LOCATIONS,omitempty" validate:"required,min=1" update:"omitempty,min=1"`
	DeclarationAuditLocs *string          `json:"DECLARATION_AUDIT_LOCATIONS,omitempty" validate:"required,min=1" update:"omitempty,min=1"`
	Features             *Features        `json:"FEATURES,omitempty"`

	UserNotificationDeliveryMethod      *string   `json:"USER_NOTIFICATION_DELIVERY_METHOD,omitempty"`
	InformantNotificationDeliveryMethod *string   `json:"INFORMANT_NOTIFICATION_DELIVERY_METHOD,omitempty"`
	SignatureRequiredForRoles           *[]string `json:"SIGNATURE_REQUIRED_FOR_ROLES,omitempty" validate:"omitempty,dive,oneof=FIELD_AGENT LOCAL_REGISTRAR LOCAL_SYSTEM_ADMIN NATIONAL_REGISTRAR REGISTRATION_AGENT" update:"omitempty,dive,oneof=FIELD_AGENT LOCAL_REGISTRAR LOCAL_SYSTEM_ADMIN NATIONAL_REGISTRAR REGISTRATION_AGENT"`
	SearchDefaultCriteria               *string   `json:"SEARCH_DEFAULT_CRITERIA,omitempty" validate:"omitempty,oneof=TRACKING_ID REGISTRATION_NUMBER NATIONAL_ID NAME PHONE_NUMBER EMAIL" update:"omitempty,oneof=TRACKING_ID REGISTRATION_NUMBER NATIONAL_ID NAME PHONE_NUMBER EMAIL"`

	// Extra holds unrecognised keys, nested under the section they appeared in.
	Extra Document `json:"-"`
}

type CountryLogo struct {
	FileName *string `json:"fileName,omitempty" validate:"required,min=1" update:"omitempty,min=1"`
	File     *string `json:"file,omitempty" validate:"required,min=1" update:"omitempty,min=1"`
}

// LoginBackground fields may be empty strings.
type LoginBackground struct {
	BackgroundColor *string `json:"backgroundColor,omitempty"`
	BackgroundImage *string `json:"backgroundImage,omitempty"`
	ImageFit        *string `json:"imageFit,omitempty"`
}

type Currency struct {
	ISOCode             *string   `json:"isoCode,omitempty" validate:"required,min=1" update:"omitempty,min=1"`
	LanguagesAndCountry *[]string `json:"languagesAndCountry,omitempty" validate:"required,dive,min=1" update:"omitempty,dive,min=1"`
}

type BirthSettings struct {
	RegistrationTarget     *float64  `json:"REGISTRATION_TARGET,omitempty" validate:"required"`
	LateRegistrationTarget *float64  `json:"LATE_REGISTRATION_TARGET,omitempty" validate:"required"`
	Fee                    *BirthFee `json:"FEE,omitempty" validate:"required"`
	PrintInAdvance         *bool     `json:"PRINT_IN_ADVANCE,omitempty" validate:"required"`
}

type BirthFee struct {
	OnTime  *float64 `json:"ON_TIME,omitempty" validate:"required"`
	Late    *float64 `json:"LATE,omitempty" validate:"required"`
	Delayed *float64 `json:"DELAYED,omitempty" validate:"required"`
}

// EventSettings covers death and marriage registration.
type EventSettings struct {
	RegistrationTarget *float64  `json:"REGISTRATION_TARGET,omitempty" validate:"required"`
	Fee                *EventFee `json:"FEE,omitempty" validate:"required"`
	PrintInAdvance     *bool     `json:"PRINT_IN_ADVANCE,omitempty" validate:"required"`
}

type EventFee struct {
	OnTime  *float64 `json:"ON_TIME,omitempty" validate:"required"`
	Delayed *float64 `json:"DELAYED,omitempty" validate:"required"`
}

// Features is optional, but when present every flag is required.
type Features struct {
	DeathRegistration           *bool `json:"DEATH_REGISTRATION,omitempty" validate:"required"`
	MarriageRegistration        *bool `json:"MARRIAGE_REGISTRATION,omitempty" validate:"required"`
	ExternalValidationWorkqueue *bool `json:"EXTERNAL_VALIDATION_WORKQUEUE,omitempty" validate:"required"`
	InformantSignature          *bool `json:"INFORMANT_SIGNATURE,omitempty" validate:"required"`
	PrintDeclaration            *bool `json:"PRINT_DECLARATION,omitempty" validate:"required"`
	DateOfBirthUnknown          *bool `json:"DATE_OF_BIRTH_UNKNOWN,omitempty" validate:"required"`
	InformantSignatureRequired  *bool `json:"INFORMANT_SIGNATURE_REQUIRED,omitempty" validate:"required"`
}

// LoginConfig is the subset of the configuration shown before sign-in.
type LoginConfig struct {
	ApplicationName                     *string          `json:"APPLICATION_NAME,omitempty"`
	CountryLogo                         *CountryLogo     `json:"COUNTRY_LOGO,omitempty"`
	PhoneNumberPattern                  *string          `json:"PHONE_NUMBER_PATTERN,omitempty"`
	LoginBackground                     *LoginBackground `json:"LOGIN_BACKGROUND,omitempty"`
	UserNotificationDeliveryMethod      *string          `json:"USER_NOTIFICATION_DELIVERY_METHOD,omitempty"`
	InformantNotificationDeliveryMethod *string          `json:"INFORMANT_NOTIFICATION_DELIVERY_METHOD,omitempty"`

	// Extra holds unrecognised keys nested under the projected sections.
	Extra Document `json:"-"`
}

// MarshalJSON writes the typed fields over the Extra bag.
func (l LoginConfig) MarshalJSON() ([]byte, error) {
	type plain LoginConfig
	return marshalWithExtra(plain(l), l.Extra)
}

// LoginView projects the login fields. Absent fields stay absent.
func (c *ApplicationConfig) LoginView() LoginConfig {
	view := LoginConfig{
		ApplicationName:                     c.ApplicationName,
		CountryLogo:                         c.CountryLogo,
		PhoneNumberPattern:                  c.PhoneNumberPattern,
		LoginBackground:                     c.LoginBackground,
		UserNotificationDeliveryMethod:      c.UserNotificationDeliveryMethod,
		InformantNotificationDeliveryMethod: c.InformantNotificationDeliveryMethod,
	}
	for key := range jsonFields(reflect.TypeOf(LoginConfig{})) {
		value, ok := c.Extra[key]
		if !ok {
			continue
		}
		if view.Extra == nil {
			view.Extra = Document{}
		}
		view.Extra[key] = cloneValue(value)
	}
	return view
}

// jsonFields maps the exact JSON names of t's fields to their dereferenced types.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	fields := make(map[string]reflect.Type, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		fields[name] = ft
	}
	return fields
}

// splitKnown separates doc into the keys t declares and everything else.
//
// Keys match exactly, so "birth" never lands in BIRTH. Objects under
// struct-typed fields are split recursively and unknown keys keep their
// position in the returned document.
func splitKnown(doc Document, t reflect.Type) (known, unknown Document) {
	fields := jsonFields(t)
	known = make(Document, len(doc))
	for key, value := range doc {
		ft, ok := fields[key]
		if !ok {
			if unknown == nil {
				unknown = Document{}
			}
			unknown[key] = value
			continue
		}
		sub, isMap := value.(map[string]any)
		if ft.Kind() != reflect.Struct || !isMap {
			known[key] = value
			continue
		}
		subKnown, subUnknown := splitKnown(sub, ft)
		known[key] = subKnown
		if len(subUnknown) > 0 {
			if unknown == nil {
				unknown = Document{}
			}
			unknown[key] = subUnknown
		}
	}
	return known, unknown
}

// unknownPaths lists the dotted paths of the leaves in an unknown-key document.
func unknownPaths(prefix string, doc Document) []string {
	var paths []string
	for key, value := range doc {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok && len(sub) > 0 {
			paths = append(paths, unknownPaths(path, sub)...)
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func marshalWithExtra(typed any, extra Document) ([]byte, error) {
	known, err := json.Marshal(typed)
	if err != nil || len(extra) == 0 {
		return known, err
	}
	var doc Document
	if err := json.Unmarshal(known, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(DeepMerge(extra, doc))
}

// MarshalJSON writes the typed fields over the Extra bag, so a typed value
// wins where both carry the same key.
func (c ApplicationConfig) MarshalJSON() ([]byte, error) {
	type plain ApplicationConfig
	return marshalWithExtra(plain(c), c.Extra)
}

// UnmarshalJSON decodes the typed fields and collects unknown keys, at any
// depth, into Extra.
func (c *ApplicationConfig) UnmarshalJSON(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	known, unknown := splitKnown(doc, reflect.TypeOf(ApplicationConfig{}))
	typed, err := json.Marshal(known)
	if err != nil {
		return err
	}

	type plain ApplicationConfig
	var p plain
	if err := json.Unmarshal(typed, &p); err != nil {
		return err
	}
	p.Extra = unknown
	*c = ApplicationConfig(p)
	return nil
}

// ToDocument converts c into its untyped JSON form.
func (c *ApplicationConfig) ToDocument() (Document, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode application config: %w", err)
	}
	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode application config: %w", err)
	}
	return doc, nil
}
