// FILE: lixenwraith/inputs/decode.go
package inputs

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names used in decode errors and file detection
const (
	FormatBase64 = "base64"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatTOML   = "toml"
)

// DecodeMode is a named decode chain, mirroring the marker types accepted by Scan.
type DecodeMode int

const (
	ModeNone DecodeMode = iota
	ModeJSON
	ModeYAML
	ModeBase64
	ModeBase64JSON
	ModeBase64YAML
)

// DecodeOptions selects the decode chain applied to a raw value.
// Base64 runs first; JSON or YAML (never both) is applied to its output.
type DecodeOptions struct {
	// Default is returned by DecodeInput when the key is absent. Ignored by Decode.
	Default any
	// Required makes DecodeInput fail with ErrRequired when the key is absent.
	Required bool

	Base64 bool
	JSON   bool
	YAML   bool

	// Mode, when set, replaces the Base64/JSON/YAML flags.
	Mode DecodeMode

	// Lenient returns the original raw value unchanged instead of a DecodeError.
	Lenient bool
}

// resolve applies Mode and validates the flag combination.
func (o DecodeOptions) resolve() (DecodeOptions, error) {
	switch o.Mode {
	case ModeNone:
	case ModeJSON:
		o.Base64, o.JSON, o.YAML = false, true, false
	case ModeYAML:
		o.Base64, o.JSON, o.YAML = false, false, true
	case ModeBase64:
		o.Base64, o.JSON, o.YAML = true, false, false
	case ModeBase64JSON:
		o.Base64, o.JSON, o.YAML = true, true, false
	case ModeBase64YAML:
		o.Base64, o.JSON, o.YAML = true, false, true
	default:
		return o, fmt.Errorf("%w: unknown decode mode %d", ErrUsage, o.Mode)
	}

	if o.JSON && o.YAML {
		return o, fmt.Errorf("%w: decode from JSON and YAML are mutually exclusive", ErrUsage)
	}
	return o, nil
}

// Decode applies the decode chain selected by opts to value.
// Strings and byte slices are decoded. Values that are already structured (maps, slices)
// pass through a JSON/YAML step unchanged. In lenient mode any failing step returns the
// original value unchanged.
func Decode(value any, opts DecodeOptions) (any, error) {
	return decodeValue("", value, opts)
}

func decodeValue(key string, value any, opts DecodeOptions) (any, error) {
	opts, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	result, err := decodeChain(value, opts)
	if err != nil {
		if opts.Lenient {
			return value, nil
		}
		var de *DecodeError
		if errors.As(err, &de) && de.Key == "" {
			de.Key = key
		}
		return nil, err
	}
	return result, nil
}

func decodeChain(value any, opts DecodeOptions) (any, error) {
	current := value

	if opts.Base64 {
		s, ok := textOf(current)
		if !ok {
			return nil, &DecodeError{Format: FormatBase64, Value: fmt.Sprint(current),
				Err: fmt.Errorf("expected string, got %T", current)}
		}
		decoded, err := base64Bytes(s)
		if err != nil {
			return nil, err
		}
		current = decoded
	}

	if !opts.JSON && !opts.YAML {
		return current, nil
	}

	s, ok := textOf(current)
	if !ok {
		// Already structured, nothing left to parse
		return current, nil
	}

	if opts.JSON {
		return jsonValue(s)
	}
	return yamlValue(s)
}

// DecodeBase64 decodes standard padded base64 into bytes. When strict is false an
// undecodable value is returned unchanged.
func DecodeBase64(s string, strict bool) (any, error) {
	b, err := base64Bytes(s)
	if err != nil {
		if strict {
			return nil, err
		}
		return s, nil
	}
	return b, nil
}

// DecodeJSON parses JSON text into a normalized structured value. When strict is false
// unparsable text is returned unchanged.
func DecodeJSON(s string, strict bool) (any, error) {
	v, err := jsonValue(s)
	if err != nil {
		if strict {
			return nil, err
		}
		return s, nil
	}
	return v, nil
}

// DecodeYAML parses YAML text into a normalized structured value. When strict is false
// unparsable text is returned unchanged.
func DecodeYAML(s string, strict bool) (any, error) {
	v, err := yamlValue(s)
	if err != nil {
		if strict {
			return nil, err
		}
		return s, nil
	}
	return v, nil
}

func base64Bytes(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, &DecodeError{Format: FormatBase64, Value: s, Err: err}
	}
	return b, nil
}

func jsonValue(s string) (any, error) {
	decoder := json.NewDecoder(strings.NewReader(s))
	decoder.UseNumber() // Preserve number precision

	var v any
	if err := decoder.Decode(&v); err != nil {
		return nil, &DecodeError{Format: FormatJSON, Value: s, Err: err}
	}
	// Reject trailing content such as `{"a":1} garbage`
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Format: FormatJSON, Value: s, Err: errors.New("unexpected data after top-level value")}
	}
	return normalize(v), nil
}

func yamlValue(s string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, &DecodeError{Format: FormatYAML, Value: s, Err: err}
	}
	return normalize(v), nil
}

// decodeDocument parses a whole payload as JSON, falling back to YAML, and requires a mapping.
func decodeDocument(data []byte) (map[string]any, error) {
	text := string(bytes.TrimSpace(data))

	v, jsonErr := jsonValue(text)
	if jsonErr != nil {
		var yamlErr error
		v, yamlErr = yamlValue(text)
		if yamlErr != nil {
			return nil, &DecodeError{Format: FormatJSON + "/" + FormatYAML, Value: text, Err: errors.Join(jsonErr, yamlErr)}
		}
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, &DecodeError{Format: FormatJSON + "/" + FormatYAML, Value: text,
			Err: fmt.Errorf("expected a mapping, got %T", v)}
	}
	return m, nil
}

// textOf returns the text form of strings and byte slices.
func textOf(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	default:
		return "", false
	}
}

// normalize converts decoder output into the canonical representation:
// map[string]any for mappings, []any for sequences, int64 for integral numbers
// and float64 for the rest.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case uint64:
		if val <= math.MaxInt64 {
			return int64(val)
		}
		return float64(val)
	case uint:
		return normalize(uint64(val))
	case float32:
		return float64(val)
	default:
		return v
	}
}
