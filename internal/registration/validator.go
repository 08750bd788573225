package registration

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// ErrTranslatorNotFound indicates the English translator could not be loaded.
var ErrTranslatorNotFound = errors.New("translator not found")

// ValidationError maps JSON field names to human readable messages.
type ValidationError map[string]string

// Error implements the error interface.
func (ve ValidationError) Error() string {
	if len(ve) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(ve)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return "validation error: " + string(b)
}

// Fields returns the names of the invalid fields in sorted order.
func (ve ValidationError) Fields() []string {
	fields := make([]string, 0, len(ve))
	for f := range ve {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Validator checks registration payloads using go-playground/validator with
// English messages keyed by JSON field name.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator builds a Validator with English translations registered.
func NewValidator() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}

	err := validate.RegisterTranslation("datetime", enTrans,
		func(t ut.Translator) error {
			return t.Add("datetime", "{0} must be a date in YYYY-MM-DD format", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register datetime translation: %w", err)
	}

	return &Validator{validate: validate, translator: enTrans}, nil
}

// Validate returns a ValidationError when req breaks any field rule.
func (v *Validator) Validate(req Request) error {
	if err := v.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}

		ve := make(ValidationError, len(fieldErrs))
		for _, fe := range fieldErrs {
			ve[fe.Field()] = fe.Translate(v.translator)
		}
		return ve
	}

	return nil
}

var defaultValidator = sync.OnceValues(NewValidator)

// Validate checks req with a shared Validator.
func Validate(req Request) error {
	v, err := defaultValidator()
	if err != nil {
		return err
	}
	return v.Validate(req)
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
