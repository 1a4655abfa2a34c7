// FILE: lixenwraith/inputs/convenience.go
package inputs

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Quick creates a fully loaded Inputs instance with a single call using the standard
// precedence: Stdin > Env > Explicit.
func Quick(inputs map[string]any, fromStdin bool) (*Inputs, error) {
	return NewBuilder().WithInputs(inputs).WithStdin(fromStdin).Build()
}

// MustQuick is like Quick but panics on error
func MustQuick(inputs map[string]any, fromStdin bool) *Inputs {
	in, err := Quick(inputs, fromStdin)
	if err != nil {
		panic(fmt.Sprintf("inputs initialization failed: %v", err))
	}
	return in
}

// Validate checks that all required keys are present with a non-nil value
func (in *Inputs) Validate(required ...string) error {
	in.mutex.RLock()
	defer in.mutex.RUnlock()

	var missing []string
	for _, key := range required {
		if v, ok := in.lookup(key); !ok || v == nil {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrRequired, strings.Join(missing, ", "))
	}
	return nil
}

// Debug returns a formatted string showing all input values and their sources
func (in *Inputs) Debug() string {
	in.mutex.RLock()
	defer in.mutex.RUnlock()

	var b strings.Builder
	b.WriteString("Inputs Debug Info:\n")

	names := make([]string, 0, len(in.sources))
	for _, src := range in.sources {
		name := src.Name()
		if fs, ok := src.(*FileSource); ok {
			name += "(" + fs.Path() + ")"
		}
		names = append(names, fmt.Sprintf("%s@%d", name, src.Priority()))
	}
	fmt.Fprintf(&b, "Precedence (low to high): %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Frozen: %t\n", in.frozen != nil)
	b.WriteString("Current values:\n")

	for _, key := range sortedKeys(in.live) {
		fmt.Fprintf(&b, "  %s:\n", key)
		fmt.Fprintf(&b, "    Current: %v\n", in.live[key])
		fmt.Fprintf(&b, "    Origin: %s\n", in.origin[key])

		for _, src := range in.sources {
			contributed := in.values[src.Name()]
			if value, ok := contributed[key]; ok {
				fmt.Fprintf(&b, "    %s: %v\n", src.Name(), value)
			}
		}
	}

	return b.String()
}

// Dump writes the live state to w in the given format: json (default), yaml or toml
func (in *Inputs) Dump(w io.Writer, format string) error {
	data := in.All()

	switch strings.ToLower(format) {
	case "", FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode inputs as YAML: %w", err)
		}
		return encoder.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(data); err != nil {
			return fmt.Errorf("failed to encode inputs as TOML: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported dump format %q", ErrUsage, format)
	}
}

// Clone creates a deep copy including the snapshot and source tracking.
// Sources are shared and are not loaded again.
func (in *Inputs) Clone() *Inputs {
	in.mutex.RLock()
	defer in.mutex.RUnlock()

	clone := &Inputs{
		live:          copyMap(in.live),
		origin:        copyOrigin(in.origin),
		sources:       append([]Source(nil), in.sources...),
		values:        make(map[string]map[string]any, len(in.values)),
		caseSensitive: in.caseSensitive,
		logger:        in.logger,
	}
	if in.frozen != nil {
		clone.frozen = copyMap(in.frozen)
		clone.frozenOrigin = copyOrigin(in.frozenOrigin)
	}
	for name, values := range in.values {
		clone.values[name] = copyMap(values)
	}
	return clone
}
