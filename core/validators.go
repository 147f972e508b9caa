package core

import (
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "this field cannot be blank"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	oneOfTag  = "oneof"
	oneOfText = "must be one of: {0}"

	gteTag  = "gte"
	gteText = "must be greater than or equal to {0}"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) error {
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		return errors.Wrap(err, "registering default translations")
	}

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	if err := validate.RegisterValidation(notBlankTag, notBlankValidation); err != nil {
		return errors.Wrapf(err, "registering %s", notBlankTag)
	}
	if err := RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText); err != nil {
		return err
	}

	if err := RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true); err != nil {
		return err
	}
	if err := RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true); err != nil {
		return err
	}
	if err := registerParamTranslation(validate, translator, oneOfTag, oneOfText); err != nil {
		return err
	}
	return registerParamTranslation(validate, translator, gteTag, gteText)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) error {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	err := validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
	return errors.Wrapf(err, "registering %s translation", tag)
}

// registerParamTranslation overrides a translation whose text references the tag's param as {0}.
func registerParamTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) error {
	err := validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Param())
			return s
		},
	)
	return errors.Wrapf(err, "registering %s translation", tag)
}

// Custom Global Validators

// notBlankValidation rejects strings made only of whitespace.
func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}
