// FILE: lixenwraith/inputs/errors.go
package inputs

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match these through errors.Is.
var (
	ErrDecode       = errors.New("decode failed")
	ErrCoercion     = errors.New("coercion failed")
	ErrState        = errors.New("invalid inputs state")
	ErrUsage        = errors.New("invalid usage")
	ErrRequired     = errors.New("required input missing")
	ErrFileNotFound = errors.New("input file not found")
)

// DecodeError reports a value that could not be decoded from base64, JSON or YAML.
type DecodeError struct {
	Key    string // empty when decoding outside of a keyed lookup (e.g. stdin)
	Format string
	Value  string
	Err    error
}

func (e *DecodeError) Error() string {
	value := truncate(e.Value, 64)
	if e.Key != "" {
		return fmt.Sprintf("failed to decode input %s from %s (value %q): %v", e.Key, e.Format, value, e.Err)
	}
	return fmt.Sprintf("failed to decode %s (value %q): %v", e.Format, value, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// CoercionError reports a value that does not have the requested bool/int/float shape.
type CoercionError struct {
	Key    string
	Target string
	Value  any
	Err    error
}

func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("input %s not a%s %s: %v", e.Key, article(e.Target), e.Target, e.Value)
	if e.Key == "" {
		msg = fmt.Sprintf("cannot convert %T %v to %s", e.Value, e.Value, e.Target)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CoercionError) Unwrap() error { return e.Err }

func (e *CoercionError) Is(target error) bool { return target == ErrCoercion }

// withKey returns a copy of the error bound to key.
func (e *CoercionError) withKey(key string) *CoercionError {
	c := *e
	c.Key = key
	return &c
}

// StateError reports an operation that is not valid in the current freeze state.
type StateError struct {
	Op  string
	Msg string
}

func (e *StateError) Error() string { return fmt.Sprintf("%s: %s", e.Op, e.Msg) }

func (e *StateError) Is(target error) bool { return target == ErrState }

func article(word string) string {
	if word == "" {
		return ""
	}
	switch word[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "n"
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
