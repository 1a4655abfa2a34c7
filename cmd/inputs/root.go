// FILE: lixenwraith/inputs/cmd/inputs/root.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/inputs"
)

// rootFlags are shared by every subcommand
type rootFlags struct {
	stdin         bool
	set           []string
	files         []string
	envPrefix     string
	noEnv         bool
	order         string
	caseSensitive bool
	logLevel      string
}

// NewRootCommand builds the inputs command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "inputs",
		Short: "Merge and inspect directed inputs",
		Long: `inputs merges values from --set flags, input files, the environment and
standard input by source priority, then prints, coerces or decodes them.

Standard input is read when --stdin is given or FROM_STDIN is truthy.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flags.stdin, "stdin", false, "read a JSON or YAML mapping from standard input")
	pf.StringArrayVar(&flags.set, "set", nil, "explicit input as key=value (repeatable, dotted keys nest)")
	pf.StringArrayVar(&flags.files, "file", nil, "input file in JSON, YAML or TOML (repeatable)")
	pf.StringVar(&flags.envPrefix, "env-prefix", "", "only use environment variables with this prefix")
	pf.BoolVar(&flags.noEnv, "no-env", false, "ignore the environment")
	pf.StringVar(&flags.order, "order", "", "source precedence, lowest first (e.g. file,explicit,env,stdin)")
	pf.BoolVar(&flags.caseSensitive, "case-sensitive", false, "keep top-level key case")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newGetCommand(flags),
		newDecodeCommand(flags),
		newDumpCommand(flags),
		newDebugCommand(flags),
	)

	return rootCmd
}

// newLogger routes slog through charmbracelet/log on w.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:     lvl,
		Formatter: log.TextFormatter,
		Prefix:    "inputs",
	})
	return slog.New(handler), nil
}

// loadInputs builds an Inputs instance from the persistent flags.
func loadInputs(cmd *cobra.Command, flags *rootFlags) (*inputs.Inputs, error) {
	logger, err := newLogger(cmd.ErrOrStderr(), flags.logLevel)
	if err != nil {
		return nil, err
	}

	b := inputs.NewBuilder().
		WithArgs(nil).
		WithStdin(flags.stdin).
		WithStdinReader(cmd.InOrStdin()).
		WithEnvPrefix(flags.envPrefix).
		WithLogger(logger)

	for _, kv := range flags.set {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", kv)
		}
		b.WithInput(key, value)
	}
	for _, path := range flags.files {
		b.WithFile(path)
	}
	if flags.noEnv {
		b.WithoutEnvironment()
	}
	if flags.caseSensitive {
		b.WithCaseSensitive()
	}
	if flags.order != "" {
		order, err := inputs.ParseSourceOrder(flags.order)
		if err != nil {
			return nil, err
		}
		b.WithSources(order...)
	}

	in, err := b.Build()
	if err != nil {
		if in == nil {
			return nil, err
		}
		// Missing files are reported but not fatal
		logger.Warn("some inputs were not loaded", "error", err)
	}
	return in, nil
}

func newGetCommand(flags *rootFlags) *cobra.Command {
	var (
		def      string
		asBool   bool
		asInt    bool
		asFloat  bool
		required bool
	)

	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print a single input, optionally coerced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadInputs(cmd, flags)
			if err != nil {
				return err
			}

			opts := inputs.GetOptions{Required: required, Bool: asBool, Integer: asInt, Float: asFloat}
			if cmd.Flags().Changed("default") {
				opts.Default = def
			}
			value, err := in.GetInput(args[0], opts)
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), value)
		},
	}

	cmd.Flags().StringVar(&def, "default", "", "value printed when KEY is absent")
	cmd.Flags().BoolVar(&asBool, "bool", false, "coerce to boolean")
	cmd.Flags().BoolVar(&asInt, "int", false, "coerce to integer")
	cmd.Flags().BoolVar(&asFloat, "float", false, "coerce to float")
	cmd.Flags().BoolVar(&required, "required", false, "fail when KEY is absent")
	cmd.MarkFlagsMutuallyExclusive("bool", "int", "float")

	return cmd
}

func newDecodeCommand(flags *rootFlags) *cobra.Command {
	var opts inputs.DecodeOptions

	cmd := &cobra.Command{
		Use:   "decode KEY",
		Short: "Decode an input from base64, JSON or YAML and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadInputs(cmd, flags)
			if err != nil {
				return err
			}

			value, err := in.DecodeInput(args[0], opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), value)
		},
	}

	cmd.Flags().BoolVar(&opts.Base64, "base64", false, "decode base64 first")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "parse as JSON")
	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "parse as YAML")
	cmd.Flags().BoolVar(&opts.Lenient, "lenient", false, "return the raw value when decoding fails")
	cmd.Flags().BoolVar(&opts.Required, "required", false, "fail when KEY is absent")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")

	return cmd
}

func newDumpCommand(flags *rootFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print all merged inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadInputs(cmd, flags)
			if err != nil {
				return err
			}
			return in.Dump(cmd.OutOrStdout(), format)
		},
	}

	cmd.Flags().StringVar(&format, "format", inputs.FormatJSON, "output format (json, yaml, toml)")
	return cmd
}

func newDebugCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Show source precedence and where each input came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadInputs(cmd, flags)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), in.Debug())
			return err
		},
	}
}

// printValue prints scalars as is and structured values as JSON.
func printValue(w io.Writer, value any) error {
	switch value.(type) {
	case map[string]any, []any:
		return printJSON(w, value)
	case []byte:
		_, err := fmt.Fprintln(w, string(value.([]byte)))
		return err
	default:
		_, err := fmt.Fprintln(w, value)
		return err
	}
}

func printJSON(w io.Writer, value any) error {
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
