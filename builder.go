// FILE: lixenwraith/inputs/builder.go
package inputs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ValidatorFunc defines the signature for a function that can validate an Inputs instance.
// It receives the fully loaded *Inputs object and should return an error if validation fails.
type ValidatorFunc func(in *Inputs) error

// Builder provides a fluent interface for building inputs
type Builder struct {
	opts       Options
	extra      []Source
	args       []string
	err        error
	validators []ValidatorFunc
	discovery  []FileDiscoveryOptions
}

// NewBuilder creates a new inputs builder
func NewBuilder() *Builder {
	return &Builder{
		opts:       DefaultOptions(),
		args:       os.Args[1:],
		validators: make([]ValidatorFunc, 0),
	}
}

// WithInputs sets the explicit input map
func (b *Builder) WithInputs(inputs map[string]any) *Builder {
	b.opts.Inputs = copyMap(inputs)
	return b
}

// WithInput adds a single explicit input. Dotted paths create nested maps.
func (b *Builder) WithInput(path string, value any) *Builder {
	for _, segment := range strings.Split(path, ".") {
		if !isValidKeySegment(segment) {
			b.err = errors.Join(b.err, fmt.Errorf("%w: invalid segment %q in input path %q", ErrUsage, segment, path))
			return b
		}
	}
	if b.opts.Inputs == nil {
		b.opts.Inputs = make(map[string]any)
	}
	setNestedValue(b.opts.Inputs, path, value)
	return b
}

// WithStdin enables or disables reading standard input
func (b *Builder) WithStdin(enabled bool) *Builder {
	b.opts.FromStdin = enabled
	return b
}

// WithStdinReader replaces os.Stdin as the stdin source
func (b *Builder) WithStdinReader(r io.Reader) *Builder {
	b.opts.Stdin = r
	return b
}

// WithStdinOverrideEnv sets the variable that forces stdin consumption
func (b *Builder) WithStdinOverrideEnv(name string) *Builder {
	b.opts.StdinOverrideEnv = name
	return b
}

// WithLenientStdin turns an undecodable stdin payload into an empty map
func (b *Builder) WithLenientStdin() *Builder {
	b.opts.LenientStdin = true
	return b
}

// WithEnvironment sets the environment snapshot used instead of os.Environ
func (b *Builder) WithEnvironment(env map[string]string) *Builder {
	b.opts.Environment = env
	return b
}

// WithoutEnvironment disables the environment source
func (b *Builder) WithoutEnvironment() *Builder {
	b.opts.FromEnvironment = false
	return b
}

// WithEnvPrefix keeps only environment variables with this prefix
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.opts.EnvPrefix = prefix
	return b
}

// WithFile adds an input file. Files are merged in the order they are added.
func (b *Builder) WithFile(path string) *Builder {
	if path != "" {
		b.opts.Files = append(b.opts.Files, path)
	}
	return b
}

// WithArgs sets the command-line arguments consulted by file discovery
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithSources sets the precedence order for the built-in sources, lowest first
func (b *Builder) WithSources(sources ...SourceID) *Builder {
	if err := validateSourceOrder(sources); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.opts.Sources = sources
	return b
}

// WithSource adds a custom source ranked by its own priority
func (b *Builder) WithSource(src Source) *Builder {
	if src != nil {
		b.extra = append(b.extra, src)
	}
	return b
}

// WithCaseSensitive disables top-level key folding
func (b *Builder) WithCaseSensitive() *Builder {
	b.opts.CaseSensitive = true
	return b
}

// WithLogger sets the logger for load and state events
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.opts.Logger = logger
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build creates the Inputs instance with all specified options
func (b *Builder) Build() (*Inputs, error) {
	if b.err != nil {
		return nil, b.err
	}

	opts := b.opts
	if discovered := b.discoveredFiles(); len(discovered) > 0 {
		opts.Files = append(discovered, b.opts.Files...)
	}

	in, loadErr := NewWithOptions(opts, b.extra...)
	if loadErr != nil && !errors.Is(loadErr, ErrFileNotFound) {
		// Return on fatal load errors. ErrFileNotFound is not fatal.
		return nil, loadErr
	}

	// Run validators
	for _, validator := range b.validators {
		if err := validator(in); err != nil {
			return nil, fmt.Errorf("inputs validation failed: %w", err)
		}
	}

	// ErrFileNotFound or nil
	return in, loadErr
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Inputs {
	in, err := b.Build()
	if err != nil {
		// A missing file is not fatal for MustBuild.
		if !errors.Is(err, ErrFileNotFound) {
			panic(fmt.Sprintf("inputs build failed: %v", err))
		}
	}
	return in
}

// BuildAndScan builds and decodes the merged inputs into the provided target pointer
func (b *Builder) BuildAndScan(target any) error {
	in, err := b.Build()
	if err != nil && !errors.Is(err, ErrFileNotFound) {
		return err
	}

	if err := in.Scan(target); err != nil {
		return fmt.Errorf("failed to scan inputs into target: %w", err)
	}

	// ErrFileNotFound or nil
	return err
}
