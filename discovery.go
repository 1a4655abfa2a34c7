// FILE: lixenwraith/inputs/discovery.go
package inputs

import (
	"os"
	"path/filepath"
	"strings"
)

// FileDiscoveryOptions configures automatic input file discovery
type FileDiscoveryOptions struct {
	// Base name of input file (without extension)
	Name string

	// Extensions to try (in order)
	Extensions []string

	// Custom search paths (in addition to defaults)
	Paths []string

	// Environment variable to check for explicit path
	EnvVar string

	// CLI flag to check (e.g., "--inputs" or "-i")
	CLIFlag string

	// Whether to search in XDG config directories
	UseXDG bool

	// Whether to search in current directory
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns sensible defaults
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".json", ".yaml", ".yml", ".toml"},
		EnvVar:        strings.ToUpper(appName) + "_INPUTS",
		CLIFlag:       "--inputs",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// WithFileDiscovery adds the first input file found as a file source.
// Discovery runs in Build, so the arguments and environment set on the builder
// at that point are used. A discovered file ranks below files added with WithFile.
// No file found is not an error.
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	b.discovery = append(b.discovery, opts)
	return b
}

// discoveredFiles resolves every registered discovery against the builder's
// arguments and environment.
func (b *Builder) discoveredFiles() []string {
	if len(b.discovery) == 0 {
		return nil
	}

	env := b.opts.Environment
	if env == nil {
		env = environSnapshot()
	}

	var files []string
	for _, opts := range b.discovery {
		if path := DiscoverFile(opts, b.args, env); path != "" {
			files = append(files, path)
		}
	}
	return files
}

// DiscoverFile resolves an input file: CLI flag first, then the environment variable,
// then the search paths. It returns "" when nothing is found.
func DiscoverFile(opts FileDiscoveryOptions, args []string, env map[string]string) string {
	// Check CLI args first (highest priority)
	if opts.CLIFlag != "" {
		for i, arg := range args {
			if arg == opts.CLIFlag && i+1 < len(args) {
				return args[i+1]
			}
			if strings.HasPrefix(arg, opts.CLIFlag+"=") {
				return strings.TrimPrefix(arg, opts.CLIFlag+"=")
			}
		}
	}

	if opts.EnvVar != "" {
		if path := env[opts.EnvVar]; path != "" {
			return path
		}
	}

	var searchPaths []string
	searchPaths = append(searchPaths, opts.Paths...)

	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			searchPaths = append(searchPaths, cwd)
		}
	}

	if opts.UseXDG {
		searchPaths = append(searchPaths, xdgConfigPaths(opts.Name, env)...)
	}

	for _, dir := range searchPaths {
		for _, ext := range opts.Extensions {
			path := filepath.Join(dir, opts.Name+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}

	return ""
}

// xdgConfigPaths returns XDG-compliant search paths
func xdgConfigPaths(appName string, env map[string]string) []string {
	var paths []string

	if xdgHome := env["XDG_CONFIG_HOME"]; xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := env["HOME"]; home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	if xdgDirs := env["XDG_CONFIG_DIRS"]; xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		// Default system paths
		paths = append(paths,
			filepath.Join("/etc/xdg", appName),
			filepath.Join("/etc", appName),
		)
	}

	return paths
}
