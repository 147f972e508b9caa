package applicant

import (
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ppdb/core"
)

var (
	transportTag  = "transport"
	transportText = "must be one of: " + strings.Join(TransportModes, ", ")

	regStatusTag  = "regstatus"
	regStatusText = "must be one of: " + strings.Join(Statuses, ", ")
)

// RegisterValidators adds the applicant validation tags to validate.
// core.InitValidators must have run first.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) error {
	validate.RegisterCustomTypeFunc(nullValue, null.Float64{}, null.Int{}, null.String{})

	if err := validate.RegisterValidation(transportTag, oneOfValidation(TransportModes)); err != nil {
		return errors.Wrapf(err, "registering %s", transportTag)
	}
	if err := core.RegisterCustomTranslation(validate, translator, transportTag, transportText); err != nil {
		return err
	}

	if err := validate.RegisterValidation(regStatusTag, oneOfValidation(Statuses)); err != nil {
		return errors.Wrapf(err, "registering %s", regStatusTag)
	}
	return core.RegisterCustomTranslation(validate, translator, regStatusTag, regStatusText)
}

// nullValue lets validation tags apply to the wrapped value of null types; invalid ones count as empty.
func nullValue(v reflect.Value) interface{} {
	switch n := v.Interface().(type) {
	case null.Float64:
		if n.Valid {
			return n.Float64
		}
	case null.Int:
		if n.Valid {
			return n.Int
		}
	case null.String:
		if n.Valid {
			return n.String
		}
	}
	return nil
}

func oneOfValidation(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		for _, a := range allowed {
			if s == a {
				return true
			}
		}
		return false
	}
}
