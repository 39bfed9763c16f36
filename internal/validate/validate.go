package validate

import (
	"math"
	"reflect"

	"github.com/go-playground/validator/v10"
)

const (
	TagQuantity = "quantity"

	quantityField = "cantidad"
)

// New returns a validator with the cart item rules registered.
func New() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation(TagQuantity, ValidateQuantity); err != nil {
		panic(err)
	}
	return validate
}

// ValidateQuantity accepts an item whose cantidad is missing, null or a whole
// number. Fractions, strings and booleans are rejected.
func ValidateQuantity(fl validator.FieldLevel) bool {
	item := fl.Field()
	if item.Kind() != reflect.Map {
		return false
	}
	if item.IsNil() {
		return true
	}

	value := item.MapIndex(reflect.ValueOf(quantityField))
	if !value.IsValid() {
		return true
	}
	if value.Kind() == reflect.Interface {
		if value.IsNil() {
			return true
		}
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Float32, reflect.Float64:
		f := value.Float()
		return !math.IsInf(f, 0) && f == math.Trunc(f)
	default:
		return false
	}
}
