package httpx

import (
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"
)

// Decimal request values outside these bounds are rejected before any
// arithmetic touches them. A coefficient of 128 bits holds 38 digits.
const (
	maxAmountExponent  = 18
	maxAmountCoeffBits = 128
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// AmountInRange reports whether d has a bounded scale and coefficient.
func AmountInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp > maxAmountExponent || exp < -maxAmountExponent {
		return false
	}
	return d.Coefficient().BitLen() <= maxAmountCoeffBits
}

// checkAmounts walks v and collects every decimal field out of range.
func checkAmounts(v any) error {
	fields := map[string]string{}
	walkAmounts(reflect.ValueOf(v), "", fields)
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func walkAmounts(v reflect.Value, path string, fields map[string]string) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			walkAmounts(v.Elem(), path, fields)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			walkAmounts(v.Index(i), path+"["+strconv.Itoa(i)+"]", fields)
		}
	case reflect.Struct:
		if v.Type() == decimalType {
			if !AmountInRange(v.Interface().(decimal.Decimal)) {
				fields[path] = "is out of range"
			}
			return
		}
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			name := t.Field(i).Name
			if path != "" {
				name = path + "." + name
			}
			walkAmounts(v.Field(i), name, fields)
		}
	}
}
