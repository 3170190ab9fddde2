// Package validate checks constructor configuration against its declared tags.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ErrInvalidConfig is returned by every constructor whose configuration
// fails validation. It is never returned at call time.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	err := en_translations.RegisterDefaultTranslations(validate, translator)
	if err != nil {
		panic(err)
	}
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// Check validates cfg against its declared tags. A failure is returned
// as FieldErrors wrapped with ErrInvalidConfig.
func Check(cfg any) error {
	if err := validate.Struct(cfg); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}

		var fields FieldErrors
		for _, verror := range verrors {
			field := FieldError{
				Field: verror.Field(),
				Err:   customErrForTag(verror.Tag(), verror),
			}
			fields = append(fields, field)
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, fields)
	}

	return nil
}

type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	d, err := json.Marshal(fe)
	if err != nil {
		return err.Error()
	}
	return string(d)
}

// Fields returns the names of the offending fields.
func (fe FieldErrors) Fields() []string {
	names := make([]string, 0, len(fe))
	for _, f := range fe {
		names = append(names, f.Field)
	}
	return names
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "gt":
		return fmt.Sprintf("%s must be greater than zero", verror.Field())
	case "excluded_with":
		return fmt.Sprintf("%s cannot be combined with %s", verror.Field(), verror.Param())
	default:
		return verror.Translate(translator)
	}
}
