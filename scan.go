// FILE: lixenwraith/inputs/scan.go
package inputs

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// TagName is the struct tag consulted by Scan.
const TagName = "input"

// JSON decodes a JSON string field into Value.
type JSON struct{ Value any }

// YAML decodes a YAML string field into Value.
type YAML struct{ Value any }

// Base64 decodes a base64 string field into raw bytes.
type Base64 []byte

// Base64JSON decodes a base64 string and then parses the result as JSON.
type Base64JSON struct{ Value any }

// Base64YAML decodes a base64 string and then parses the result as YAML.
type Base64YAML struct{ Value any }

var markerModes = map[reflect.Type]DecodeMode{
	reflect.TypeOf(JSON{}):       ModeJSON,
	reflect.TypeOf(YAML{}):       ModeYAML,
	reflect.TypeOf(Base64{}):     ModeBase64,
	reflect.TypeOf(Base64JSON{}): ModeBase64JSON,
	reflect.TypeOf(Base64YAML{}): ModeBase64YAML,
}

// Scan decodes the live state into target, a non-nil pointer to a struct or map.
func (in *Inputs) Scan(target any) error {
	return in.unmarshal("", target)
}

// ScanKey decodes the value stored under key into target. An absent key leaves target zeroed.
func (in *Inputs) ScanKey(key string, target any) error {
	return in.unmarshal(key, target)
}

// unmarshal is the single decoding path behind Scan and ScanKey.
func (in *Inputs) unmarshal(key string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: scan target must be non-nil pointer, got %T", ErrUsage, target)
	}

	var data any
	if key == "" {
		data = in.All()
	} else {
		value, ok := in.Get(key)
		if !ok {
			value = map[string]any{}
		}
		data = value
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          TagName,
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		if key == "" {
			return fmt.Errorf("scan failed: %w", err)
		}
		return fmt.Errorf("scan failed for input %q: %w", key, err)
	}
	return nil
}

// decodeHook returns the composite decode hook for all type conversions
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		markerHookFunc(),
		boolHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// markerHookFunc fills the JSON, YAML and Base64 marker types from string data.
func markerHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		mode, ok := markerModes[t]
		if !ok {
			return data, nil
		}
		if f.Kind() != reflect.String && !(f.Kind() == reflect.Slice && f.Elem().Kind() == reflect.Uint8) {
			if mode == ModeBase64 {
				return data, nil
			}
			// Already structured
			return wrapMarker(t, data), nil
		}

		decoded, err := Decode(data, DecodeOptions{Mode: mode})
		if err != nil {
			return nil, err
		}
		if mode == ModeBase64 {
			return Base64(decoded.([]byte)), nil
		}
		return wrapMarker(t, decoded), nil
	}
}

func wrapMarker(t reflect.Type, value any) any {
	switch t {
	case reflect.TypeOf(JSON{}):
		return JSON{Value: value}
	case reflect.TypeOf(YAML{}):
		return YAML{Value: value}
	case reflect.TypeOf(Base64JSON{}):
		return Base64JSON{Value: value}
	case reflect.TypeOf(Base64YAML{}):
		return Base64YAML{Value: value}
	default:
		return value
	}
}

// boolHookFunc applies the yes/no/on/off vocabulary to bool fields.
func boolHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t.Kind() != reflect.Bool || f.Kind() != reflect.String {
			return data, nil
		}
		return ParseBool(data)
	}
}
