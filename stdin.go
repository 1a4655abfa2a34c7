// FILE: lixenwraith/inputs/stdin.go
package inputs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// DefaultStdinOverrideEnv forces stdin consumption when set to a truthy value.
const DefaultStdinOverrideEnv = "FROM_STDIN"

// MaxStdinSize bounds the payload read from standard input.
const MaxStdinSize = 10 * 1024 * 1024

// StdinSource reads one JSON or YAML mapping from a reader, at most once.
type StdinSource struct {
	reader      io.Reader
	enabled     bool
	overrideEnv string
	env         map[string]string
	lenient     bool
	priority    int

	once sync.Once
	data map[string]any
	err  error
}

// StdinOptions configures a StdinSource
type StdinOptions struct {
	// Reader defaults to os.Stdin
	Reader io.Reader
	// Enabled requests stdin consumption
	Enabled bool
	// OverrideEnv names the variable that forces consumption; empty uses DefaultStdinOverrideEnv
	OverrideEnv string
	// Environment is the snapshot checked for OverrideEnv; nil uses the process environment
	Environment map[string]string
	// Lenient yields an empty map instead of a DecodeError for a payload that is not a mapping
	Lenient bool
}

// NewStdinSource creates a stdin source. Nothing is read until Load.
func NewStdinSource(opts StdinOptions, priority int) *StdinSource {
	reader := opts.Reader
	if reader == nil {
		reader = os.Stdin
	}
	overrideEnv := opts.OverrideEnv
	if overrideEnv == "" {
		overrideEnv = DefaultStdinOverrideEnv
	}
	env := opts.Environment
	if env == nil {
		env = environSnapshot()
	}
	return &StdinSource{
		reader:      reader,
		enabled:     opts.Enabled,
		overrideEnv: overrideEnv,
		env:         env,
		lenient:     opts.Lenient,
		priority:    priority,
	}
}

func (s *StdinSource) Name() string  { return string(SourceStdin) }
func (s *StdinSource) Priority() int { return s.priority }

// Active reports whether stdin will be consumed: either requested explicitly or
// forced by a truthy override variable.
func (s *StdinSource) Active() bool {
	if s.enabled {
		return true
	}
	raw, ok := s.env[s.overrideEnv]
	if !ok {
		return false
	}
	forced, err := ParseBool(raw)
	return err == nil && forced
}

// Load returns the decoded mapping. The reader is consumed on the first call only;
// later calls return the cached result.
func (s *StdinSource) Load() (map[string]any, error) {
	if !s.Active() {
		return map[string]any{}, nil
	}
	s.once.Do(func() {
		s.data, s.err = s.read()
	})
	if s.err != nil {
		return nil, s.err
	}
	return copyMap(s.data), nil
}

func (s *StdinSource) read() (map[string]any, error) {
	raw, err := io.ReadAll(io.LimitReader(s.reader, MaxStdinSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(raw) > MaxStdinSize {
		return nil, fmt.Errorf("stdin payload exceeds maximum size %d bytes", MaxStdinSize)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	data, err := decodeDocument(raw)
	if err != nil {
		if s.lenient {
			return map[string]any{}, nil
		}
		return nil, err
	}
	return data, nil
}

// ReadStdin reads a mapping from r when enabled is true or forceEnv holds a truthy value
// in the process environment. An empty forceEnv means DefaultStdinOverrideEnv.
// Inactive or blank input yields an empty map.
func ReadStdin(r io.Reader, enabled bool, forceEnv string) (map[string]any, error) {
	if forceEnv = strings.TrimSpace(forceEnv); forceEnv == "" {
		forceEnv = DefaultStdinOverrideEnv
	}
	env := map[string]string{}
	if v, ok := os.LookupEnv(forceEnv); ok {
		env[forceEnv] = v
	}
	return NewStdinSource(StdinOptions{
		Reader:      r,
		Enabled:     enabled,
		OverrideEnv: forceEnv,
		Environment: env,
	}, 0).Load()
}
