// FILE: lixenwraith/inputs/inputs.go
package inputs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// OriginRuntime is reported by Origin for keys written through Set or Update.
const OriginRuntime = "runtime"

// Options configures how inputs are gathered and merged
type Options struct {
	// Inputs is the explicit map supplied by the caller
	Inputs map[string]any

	// FromStdin requests reading a JSON or YAML mapping from Stdin
	FromStdin bool
	// Stdin defaults to os.Stdin
	Stdin io.Reader
	// StdinOverrideEnv names the variable that forces stdin consumption
	// Default: "FROM_STDIN"
	StdinOverrideEnv string
	// LenientStdin turns an undecodable stdin payload into an empty map
	LenientStdin bool

	// FromEnvironment enables the environment source
	FromEnvironment bool
	// Environment is the snapshot used for the env source and the stdin override (nil = os.Environ)
	Environment map[string]string
	// EnvPrefix keeps only variables with this prefix and strips it
	// Example: "DIRECTED_INPUTS_" maps DIRECTED_INPUTS_REGION to "region"
	EnvPrefix string

	// Files are loaded in order as the file source
	Files []string

	// Sources defines the precedence order (last = highest priority)
	// Default: [SourceFile, SourceExplicit, SourceEnv, SourceStdin]
	Sources []SourceID

	// CaseSensitive disables top-level key folding
	CaseSensitive bool

	// Logger receives debug events; nil discards them
	Logger *slog.Logger
}

// DefaultOptions returns the standard options: environment enabled, stdin disabled
func DefaultOptions() Options {
	return Options{
		FromEnvironment:  true,
		StdinOverrideEnv: DefaultStdinOverrideEnv,
		Sources:          DefaultSources(),
	}
}

// GetOptions controls a single GetInput lookup.
// At most one of Bool, Integer and Float may be set.
type GetOptions struct {
	Default  any
	Required bool
	Bool     bool
	Integer  bool
	Float    bool
}

// Inputs holds the merged view of all sources plus an optional frozen snapshot.
// All methods are safe for concurrent use.
type Inputs struct {
	live          map[string]any            // Current merged state
	frozen        map[string]any            // Snapshot taken by FreezeInputs, nil if none
	origin        map[string]string         // Top-level key -> name of the winning source
	frozenOrigin  map[string]string         // origin at freeze time
	sources       []Source                  // Sorted by ascending priority
	values        map[string]map[string]any // Per-source contributions
	caseSensitive bool
	logger        *slog.Logger
	mutex         sync.RWMutex
}

// New gathers inputs from the explicit map, the environment and, when fromStdin is true
// or FROM_STDIN is truthy, standard input.
func New(inputs map[string]any, fromStdin bool) (*Inputs, error) {
	opts := DefaultOptions()
	opts.Inputs = inputs
	opts.FromStdin = fromStdin
	return NewWithOptions(opts)
}

// NewWithOptions gathers inputs with custom options. Extra sources are merged according to
// their own priority. A missing input file is not fatal: the instance is returned together
// with an error wrapping ErrFileNotFound.
func NewWithOptions(opts Options, extra ...Source) (*Inputs, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sources, err := opts.buildSources()
	if err != nil {
		return nil, err
	}
	sources = append(sources, extra...)
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority() < sources[j].Priority()
	})

	in := &Inputs{
		live:          make(map[string]any),
		origin:        make(map[string]string),
		sources:       sources,
		values:        make(map[string]map[string]any),
		caseSensitive: opts.CaseSensitive,
		logger:        logger,
	}

	loadErr := in.load()
	if loadErr != nil && !errors.Is(loadErr, ErrFileNotFound) {
		return nil, loadErr
	}
	return in, loadErr
}

// buildSources instantiates the built-in sources in precedence order.
func (o Options) buildSources() ([]Source, error) {
	order := o.Sources
	if len(order) == 0 {
		order = DefaultSources()
	}
	if err := validateSourceOrder(order); err != nil {
		return nil, err
	}

	env := o.Environment
	if env == nil {
		env = environSnapshot()
	}

	var sources []Source
	for i, id := range order {
		priority := (i + 1) * PriorityStep
		switch id {
		case SourceFile:
			for _, path := range o.Files {
				sources = append(sources, NewFileSource(path, priority))
			}
		case SourceExplicit:
			sources = append(sources, NewExplicitSource(o.Inputs, priority))
		case SourceEnv:
			if o.FromEnvironment {
				sources = append(sources, NewEnvironmentSource(env, o.EnvPrefix, priority))
			}
		case SourceStdin:
			sources = append(sources, NewStdinSource(StdinOptions{
				Reader:      o.Stdin,
				Enabled:     o.FromStdin,
				OverrideEnv: o.StdinOverrideEnv,
				Environment: env,
				Lenient:     o.LenientStdin,
			}, priority))
		}
	}
	return sources, nil
}

// load runs every source once and merges the results in priority order.
func (in *Inputs) load() error {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	var loadErrors []error
	for _, src := range in.sources {
		data, err := src.Load()
		if err != nil {
			if errors.Is(err, ErrFileNotFound) {
				in.logger.Debug("input source skipped", "source", src.Name(), "error", err)
				loadErrors = append(loadErrors, err)
				continue
			}
			return fmt.Errorf("failed to load %s source: %w", src.Name(), err)
		}

		canonical := canonicalize(data, in.caseSensitive)
		contributed, ok := in.values[src.Name()]
		if !ok {
			contributed = make(map[string]any)
			in.values[src.Name()] = contributed
		}
		mergeInto(contributed, canonical)
		mergeInto(in.live, canonical)
		for key := range canonical {
			in.origin[key] = src.Name()
		}

		in.logger.Debug("input source loaded", "source", src.Name(), "priority", src.Priority(), "keys", len(canonical))
	}

	return errors.Join(loadErrors...)
}

// lookup finds key in the live map. A dotted key that is not a top-level key is
// resolved through nested maps. Only the first segment is case-folded; nested
// segments must match exactly.
func (in *Inputs) lookup(key string) (any, bool) {
	canonical := canonicalKey(key, in.caseSensitive)
	if v, ok := in.live[canonical]; ok {
		return v, true
	}

	if !strings.Contains(key, ".") {
		return nil, false
	}
	first, rest, _ := strings.Cut(key, ".")
	current, ok := in.live[canonicalKey(first, in.caseSensitive)]
	if !ok {
		return nil, false
	}
	for _, segment := range strings.Split(rest, ".") {
		m, isMap := asMap(current)
		if !isMap {
			return nil, false
		}
		if current, ok = m[segment]; !ok {
			return nil, false
		}
	}
	return current, true
}

// Get returns a deep copy of the value stored under key. Top-level keys are matched
// case-insensitively unless the instance is case-sensitive; segments after the first
// dot of a nested path are matched exactly.
func (in *Inputs) Get(key string) (any, bool) {
	in.mutex.RLock()
	defer in.mutex.RUnlock()

	v, ok := in.lookup(key)
	if !ok {
		return nil, false
	}
	return DeepCopy(v), true
}

// Has reports whether key is present.
func (in *Inputs) Has(key string) bool {
	in.mutex.RLock()
	defer in.mutex.RUnlock()

	_, ok := in.lookup(key)
	return ok
}

// GetInput returns the value for key, optionally coerced. An absent or nil value yields
// opts.Default without coercion, or ErrRequired when opts.Required is set.
// Key matching follows Get: only the top-level segment is case-insensitive.
func (in *Inputs) GetInput(key string, opts GetOptions) (any, error) {
	flags := 0
	for _, set := range []bool{opts.Bool, opts.Integer, opts.Float} {
		if set {
			flags++
		}
	}
	if flags > 1 {
		return nil, fmt.Errorf("%w: only one of bool, integer and float may be requested for input %s", ErrUsage, key)
	}

	value, ok := in.Get(key)
	if !ok || value == nil {
		if opts.Required {
			return nil, fmt.Errorf("%w: %s", ErrRequired, key)
		}
		return opts.Default, nil
	}

	var (
		result any
		err    error
	)
	switch {
	case opts.Bool:
		result, err = ParseBool(value)
	case opts.Integer:
		result, err = ToInt64(value)
	case opts.Float:
		result, err = ToFloat64(value)
	default:
		return value, nil
	}

	if err != nil {
		var ce *CoercionError
		if errors.As(err, &ce) {
			return nil, ce.withKey(key)
		}
		return nil, err
	}
	return result, nil
}

// String returns the value for key rendered as a string, or def when absent.
func (in *Inputs) String(key, def string) (string, error) {
	value, err := in.GetInput(key, GetOptions{Default: def})
	if err != nil {
		return "", err
	}

	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(v).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(v).Uint(), 10), nil
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(v).Float(), 'f', -1, 64), nil
	default:
		return "", &CoercionError{Key: key, Target: "string", Value: value, Err: fmt.Errorf("unsupported type %T", value)}
	}
}

// Bool returns the value for key as a boolean, or def when absent.
func (in *Inputs) Bool(key string, def bool) (bool, error) {
	value, err := in.GetInput(key, GetOptions{Default: def, Bool: true})
	if err != nil {
		return false, err
	}
	return value.(bool), nil
}

// Int64 returns the value for key as an integer, or def when absent.
func (in *Inputs) Int64(key string, def int64) (int64, error) {
	value, err := in.GetInput(key, GetOptions{Default: def, Integer: true})
	if err != nil {
		return 0, err
	}
	return value.(int64), nil
}

// Float64 returns the value for key as a float, or def when absent.
func (in *Inputs) Float64(key string, def float64) (float64, error) {
	value, err := in.GetInput(key, GetOptions{Default: def, Float: true})
	if err != nil {
		return 0, err
	}
	return value.(float64), nil
}

// DecodeInput looks up key and applies the decode chain selected by opts.
// An absent or nil value yields opts.Default undecoded.
func (in *Inputs) DecodeInput(key string, opts DecodeOptions) (any, error) {
	if _, err := opts.resolve(); err != nil {
		return nil, err
	}

	value, ok := in.Get(key)
	if !ok || value == nil {
		if opts.Required {
			return nil, fmt.Errorf("%w: %s", ErrRequired, key)
		}
		return opts.Default, nil
	}
	return decodeValue(key, value, opts)
}

// FreezeInputs snapshots the live state and returns a copy of the snapshot.
// Freezing again overwrites the previous snapshot. The live state stays mutable.
func (in *Inputs) FreezeInputs() map[string]any {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	in.freeze()
	return copyMap(in.frozen)
}

func (in *Inputs) freeze() {
	in.frozen = copyMap(in.live)
	in.frozenOrigin = copyOrigin(in.origin)
	in.logger.Debug("inputs frozen", "keys", len(in.frozen))
}

// ThawInputs restores the live state to the snapshot, discarding later mutations.
// The snapshot is kept, so thawing can be repeated.
func (in *Inputs) ThawInputs() (map[string]any, error) {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	if err := in.thaw("thaw"); err != nil {
		return nil, err
	}
	return copyMap(in.live), nil
}

func (in *Inputs) thaw(op string) error {
	if in.frozen == nil {
		return &StateError{Op: op, Msg: "inputs were never frozen"}
	}
	in.live = copyMap(in.frozen)
	in.origin = copyOrigin(in.frozenOrigin)
	in.logger.Debug("inputs thawed", "keys", len(in.live))
	return nil
}

// ShiftInputs freezes when no snapshot exists; otherwise it thaws and drops the snapshot.
// It returns the resulting live state.
func (in *Inputs) ShiftInputs() map[string]any {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	if in.frozen == nil {
		in.freeze()
		return copyMap(in.live)
	}

	_ = in.thaw("shift") // snapshot present
	in.frozen = nil
	in.frozenOrigin = nil
	return copyMap(in.live)
}

// IsFrozen reports whether a snapshot exists.
func (in *Inputs) IsFrozen() bool {
	in.mutex.RLock()
	defer in.mutex.RUnlock()
	return in.frozen != nil
}

// Set stores a copy of value under key.
func (in *Inputs) Set(key string, value any) {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	canonical := canonicalKey(key, in.caseSensitive)
	in.live[canonical] = DeepCopy(value)
	in.origin[canonical] = OriginRuntime
}

// Delete removes key and reports whether it was present.
func (in *Inputs) Delete(key string) bool {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	canonical := canonicalKey(key, in.caseSensitive)
	if _, ok := in.live[canonical]; !ok {
		return false
	}
	delete(in.live, canonical)
	delete(in.origin, canonical)
	return true
}

// Update deep-merges values into the live state, values winning on collision.
func (in *Inputs) Update(values map[string]any) {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	canonical := canonicalize(values, in.caseSensitive)
	mergeInto(in.live, canonical)
	for key := range canonical {
		in.origin[key] = OriginRuntime
	}
}

// All returns a deep copy of the live state.
func (in *Inputs) All() map[string]any {
	in.mutex.RLock()
	defer in.mutex.RUnlock()
	return copyMap(in.live)
}

// Keys returns the top-level keys in ascending order.
func (in *Inputs) Keys() []string {
	in.mutex.RLock()
	defer in.mutex.RUnlock()
	return sortedKeys(in.live)
}

// Paths returns every leaf in dot notation, in ascending order.
func (in *Inputs) Paths() []string {
	in.mutex.RLock()
	defer in.mutex.RUnlock()
	return sortedKeys(flattenMap(in.live, ""))
}

// Origin returns the name of the source that supplied the current top-level value of key.
func (in *Inputs) Origin(key string) (string, bool) {
	in.mutex.RLock()
	defer in.mutex.RUnlock()

	name, ok := in.origin[canonicalKey(key, in.caseSensitive)]
	return name, ok
}

// SourceValues returns a copy of what the named source contributed at load time.
func (in *Inputs) SourceValues(name string) map[string]any {
	in.mutex.RLock()
	defer in.mutex.RUnlock()

	values, ok := in.values[name]
	if !ok {
		return nil
	}
	return copyMap(values)
}

// Sources returns the source names in ascending priority order.
func (in *Inputs) Sources() []string {
	in.mutex.RLock()
	defer in.mutex.RUnlock()

	names := make([]string, 0, len(in.sources))
	for _, src := range in.sources {
		names = append(names, src.Name())
	}
	return names
}

func copyOrigin(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
