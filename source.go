// FILE: lixenwraith/inputs/source.go
package inputs

import (
	"fmt"
	"os"
	"strings"
)

// SourceID names a built-in source, used to define merge precedence
type SourceID string

const (
	// SourceFile represents values loaded from input files (JSON, YAML or TOML)
	SourceFile SourceID = "file"
	// SourceExplicit represents the map handed to the constructor
	SourceExplicit SourceID = "explicit"
	// SourceEnv represents values taken from the environment snapshot
	SourceEnv SourceID = "env"
	// SourceStdin represents a JSON or YAML document read from standard input
	SourceStdin SourceID = "stdin"
)

// PriorityStep separates the priorities of consecutive built-in sources, leaving room
// for custom sources to slot in between them.
const PriorityStep = 100

// DefaultSources returns the built-in precedence order, lowest priority first.
func DefaultSources() []SourceID {
	return []SourceID{SourceFile, SourceExplicit, SourceEnv, SourceStdin}
}

// Source supplies a flat or nested map of input values.
// Sources with a higher priority override lower ones on merge.
type Source interface {
	// Name identifies the source in ordering, Origin and Debug output
	Name() string
	// Priority is the merge rank; higher wins
	Priority() int
	// Load returns the values supplied by the source
	Load() (map[string]any, error)
}

// ExplicitSource serves a caller-supplied map.
type ExplicitSource struct {
	values   map[string]any
	priority int
}

// NewExplicitSource copies values so later mutation by the caller has no effect.
func NewExplicitSource(values map[string]any, priority int) *ExplicitSource {
	return &ExplicitSource{values: copyMap(values), priority: priority}
}

func (s *ExplicitSource) Name() string  { return string(SourceExplicit) }
func (s *ExplicitSource) Priority() int { return s.priority }

func (s *ExplicitSource) Load() (map[string]any, error) {
	return copyMap(s.values), nil
}

// EnvironmentSource serves variables from an environment snapshot.
// Values are kept as strings; use the typed accessors to coerce them.
type EnvironmentSource struct {
	env      map[string]string
	prefix   string
	priority int
}

// NewEnvironmentSource builds a source over env. When prefix is set only variables carrying
// it are kept, and the prefix is stripped from their names.
func NewEnvironmentSource(env map[string]string, prefix string, priority int) *EnvironmentSource {
	snapshot := make(map[string]string, len(env))
	for k, v := range env {
		snapshot[k] = v
	}
	return &EnvironmentSource{env: snapshot, prefix: prefix, priority: priority}
}

func (s *EnvironmentSource) Name() string  { return string(SourceEnv) }
func (s *EnvironmentSource) Priority() int { return s.priority }

func (s *EnvironmentSource) Load() (map[string]any, error) {
	result := make(map[string]any, len(s.env))
	for name, value := range s.env {
		if s.prefix != "" {
			if !strings.HasPrefix(name, s.prefix) {
				continue
			}
			name = strings.TrimPrefix(name, s.prefix)
			if name == "" {
				continue
			}
		}
		result[name] = value
	}
	return result, nil
}

// SourceFunc loads values for a custom source.
type SourceFunc func() (map[string]any, error)

type customSource struct {
	name     string
	priority int
	load     SourceFunc
}

// NewCustomSource wraps fn as a Source with the given name and priority.
func NewCustomSource(name string, priority int, fn SourceFunc) Source {
	return &customSource{name: name, priority: priority, load: fn}
}

func (s *customSource) Name() string  { return s.name }
func (s *customSource) Priority() int { return s.priority }

func (s *customSource) Load() (map[string]any, error) {
	if s.load == nil {
		return map[string]any{}, nil
	}
	values, err := s.load()
	if err != nil {
		return nil, fmt.Errorf("custom source %s: %w", s.name, err)
	}
	return values, nil
}

// environSnapshot converts os.Environ output into a map.
func environSnapshot() map[string]string {
	return parseEnviron(os.Environ())
}

func parseEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = value
	}
	return env
}

// validateSourceOrder rejects unknown and repeated source IDs.
func validateSourceOrder(order []SourceID) error {
	seen := make(map[SourceID]bool, len(order))
	for _, id := range order {
		switch id {
		case SourceFile, SourceExplicit, SourceEnv, SourceStdin:
		default:
			return fmt.Errorf("%w: unknown source %q", ErrUsage, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: source %q listed more than once", ErrUsage, id)
		}
		seen[id] = true
	}
	return nil
}

// ParseSourceOrder parses a comma-separated list such as "explicit,env,stdin".
func ParseSourceOrder(s string) ([]SourceID, error) {
	var order []SourceID
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		order = append(order, SourceID(part))
	}
	if err := validateSourceOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}
