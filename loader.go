// FILE: lixenwraith/inputs/loader.go
package inputs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultMaxFileSize bounds the size of an input file.
const DefaultMaxFileSize = 10 * 1024 * 1024

// FileSource loads a mapping from a JSON, YAML or TOML file.
type FileSource struct {
	path     string
	format   string
	maxSize  int64
	priority int
}

// NewFileSource creates a file source. The format is detected from the extension and then
// from the content; use WithFormat to force one.
func NewFileSource(path string, priority int) *FileSource {
	return &FileSource{path: path, maxSize: DefaultMaxFileSize, priority: priority}
}

// WithFormat forces the file format ("json", "yaml", "toml" or "auto").
func (s *FileSource) WithFormat(format string) *FileSource {
	s.format = strings.ToLower(format)
	return s
}

// WithMaxSize overrides the size limit. Zero or less disables it.
func (s *FileSource) WithMaxSize(n int64) *FileSource {
	s.maxSize = n
	return s
}

func (s *FileSource) Name() string  { return string(SourceFile) }
func (s *FileSource) Priority() int { return s.priority }

// Path returns the file the source reads.
func (s *FileSource) Path() string { return s.path }

// Load reads and parses the file. A missing file yields an error wrapping ErrFileNotFound.
func (s *FileSource) Load() (map[string]any, error) {
	fileInfo, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to stat input file '%s': %w", s.path, err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("input file '%s' is a directory", s.path)
	}
	if s.maxSize > 0 && fileInfo.Size() > s.maxSize {
		return nil, fmt.Errorf("input file '%s' exceeds maximum size %d bytes", s.path, s.maxSize)
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file '%s': %w", s.path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if s.maxSize > 0 {
		reader = io.LimitReader(file, s.maxSize)
	}

	fileData, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file '%s': %w", s.path, err)
	}

	format := s.format
	if format == "" || format == "auto" {
		// Try extension first
		format = detectFileFormat(s.path)
		if format == "" {
			format = detectFormatFromContent(fileData)
		}
	}

	values, err := parseDocument(format, fileData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input file '%s': %w", s.path, err)
	}
	return values, nil
}

// parseDocument decodes data in the given format into a normalized mapping.
func parseDocument(format string, data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var v any
	switch format {
	case FormatTOML:
		m := make(map[string]any)
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, &DecodeError{Format: FormatTOML, Value: string(data), Err: err}
		}
		v = normalize(m)
	case FormatJSON:
		parsed, err := jsonValue(string(data))
		if err != nil {
			return nil, err
		}
		v = parsed
	case FormatYAML:
		parsed, err := yamlValue(string(data))
		if err != nil {
			return nil, err
		}
		v = parsed
	default:
		return nil, fmt.Errorf("%w: unable to determine format", ErrDecode)
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, &DecodeError{Format: format, Value: string(data), Err: fmt.Errorf("expected a mapping, got %T", v)}
	}
	return m, nil
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing. Only a document that
// parses to a mapping counts, since YAML accepts most plain text as a scalar.
func detectFormatFromContent(data []byte) string {
	// Try JSON first (strict format)
	if v, err := jsonValue(string(data)); err == nil {
		if _, ok := v.(map[string]any); ok {
			return FormatJSON
		}
	}

	// TOML before YAML: "key = value" lines are valid YAML scalars
	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil && len(tomlTest) > 0 {
		return FormatTOML
	}

	var yamlTest any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		if _, ok := normalize(yamlTest).(map[string]any); ok {
			return FormatYAML
		}
	}

	return ""
}
