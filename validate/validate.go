// Package validate checks request values against their struct tags and
// hands out identifiers.
package validate

import (
	"errors"
	"reflect"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

var translator ut.Translator

func init() {

	validate = validator.New()

	// Decimals are compared by value, so gte/lte tags work on prices and funds.
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		d, ok := v.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})

	validate.RegisterValidation("money", validateMoney)

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTranslation("money", translator, func(ut ut.Translator) error {
		return ut.Add("money", "{0} must have at most 2 decimal places and be less than 10000000000", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("money", fe.Field())
		return t
	})
}

// Amounts tagged money are stored as NUMERIC(12,2).
const moneyScale = 2

var moneyLimit = decimal.New(1, 10)

func validateMoney(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	if !ok {
		return false
	}
	return d.Equal(d.Truncate(moneyScale)) && d.Abs().LessThan(moneyLimit)
}

// fieldDecimal reads the decimal behind fl. The custom type func hands
// validations a float64, so the exact value is taken from the parent struct
// when there is one.
func fieldDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	if p := fl.Parent(); p.Kind() == reflect.Struct {
		if f := p.FieldByName(fl.StructFieldName()); f.IsValid() && f.CanInterface() {
			if d, ok := f.Interface().(decimal.Decimal); ok {
				return d, true
			}
		}
	}

	if f := fl.Field(); f.Kind() == reflect.Float64 {
		return decimal.NewFromFloat(f.Float()), true
	}
	return decimal.Decimal{}, false
}

// Check validates val and returns the first failure in plain English.
func Check(val any) error {
	if err := validate.Struct(val); err != nil {

		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		if len(verrors) < 1 {
			return nil
		}

		return errors.New(verrors[0].Translate(translator))
	}

	return nil
}

func GenerateID() string {
	return uuid.NewString()
}
