// FILE: lixenwraith/inputs/coerce.go
package inputs

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Coercion targets reported in CoercionError.Target
const (
	TargetBool    = "boolean"
	TargetInteger = "integer"
	TargetFloat   = "float"
)

var (
	truthy = map[string]struct{}{"true": {}, "1": {}, "yes": {}, "on": {}}
	falsy  = map[string]struct{}{"false": {}, "0": {}, "no": {}, "off": {}}
)

// ParseBool interprets v as a boolean. Strings are trimmed and compared case-insensitively
// against true/1/yes/on and false/0/no/off. Integers 0 and 1 go through the same sets.
func ParseBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		return boolFromString(val)
	case []byte:
		return boolFromString(string(val))
	case json.Number:
		return boolFromString(val.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return boolFromString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return boolFromString(strconv.FormatUint(rv.Uint(), 10))
	}

	return false, &CoercionError{Target: TargetBool, Value: v, Err: fmt.Errorf("unsupported type %T", v)}
}

func boolFromString(s string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if _, ok := truthy[normalized]; ok {
		return true, nil
	}
	if _, ok := falsy[normalized]; ok {
		return false, nil
	}
	return false, &CoercionError{Target: TargetBool, Value: s}
}

// ToInt64 converts numeric kinds and numeric strings to int64.
// Floats convert only when they hold an integral value within range.
func ToInt64(v any) (int64, error) {
	fail := func(err error) (int64, error) {
		return 0, &CoercionError{Target: TargetInteger, Value: v, Err: err}
	}

	switch val := v.(type) {
	case json.Number:
		return ToInt64(val.String())
	case []byte:
		return ToInt64(string(val))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return fail(errors.New("overflow"))
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return floatToInt64(rv.Float(), fail)
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return i, nil
		}
		// Accept "3.0" style input as long as it is integral
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return floatToInt64(f, fail)
		}
		return fail(errors.Unwrap(err))
	}

	return fail(fmt.Errorf("unsupported type %T", v))
}

func floatToInt64(f float64, fail func(error) (int64, error)) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return fail(errors.New("not an integral value"))
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return fail(errors.New("overflow"))
	}
	return int64(f), nil
}

// ToFloat64 converts numeric kinds and numeric strings to float64.
func ToFloat64(v any) (float64, error) {
	fail := func(err error) (float64, error) {
		return 0, &CoercionError{Target: TargetFloat, Value: v, Err: err}
	}

	switch val := v.(type) {
	case json.Number:
		return ToFloat64(val.String())
	case []byte:
		return ToFloat64(string(val))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		if err != nil {
			return fail(errors.Unwrap(err))
		}
		return f, nil
	}

	return fail(fmt.Errorf("unsupported type %T", v))
}
