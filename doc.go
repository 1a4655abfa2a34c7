// FILE: lixenwraith/inputs/doc.go

// Package inputs gathers application inputs from explicit maps, the process environment,
// standard input and input files, and deep-merges them by source priority.
//
// Default precedence, lowest to highest: file, explicit, env, stdin. Top-level keys are
// case-insensitive unless CaseSensitive is set. Nested mappings merge key-wise; scalars and
// sequences are replaced by the higher-priority source.
//
// Quick Start:
//
//	in, err := inputs.New(map[string]any{"region": "us-east-1"}, false)
//	if err != nil {
//		return err
//	}
//	debug, err := in.Bool("debug", false)
//
// Stdin is read once, when fromStdin is true or FROM_STDIN is truthy, and must hold a JSON
// or YAML mapping.
//
// Typed access:
//
//	in.GetInput("retries", inputs.GetOptions{Default: int64(3), Integer: true})
//	in.DecodeInput("payload", inputs.DecodeOptions{Mode: inputs.ModeBase64JSON})
//
// Absent keys return the default without coercion. Malformed values return *CoercionError or
// *DecodeError; only DecodeOptions.Lenient suppresses the latter.
//
// Freeze and thaw:
//
//	in.FreezeInputs()           // snapshot
//	in.Set("region", "eu-west-1")
//	in.ThawInputs()             // back to the snapshot
//
// Builder:
//
//	in, err := inputs.NewBuilder().
//		WithInputs(defaults).
//		WithFile("inputs.yaml").
//		WithEnvPrefix("DIRECTED_INPUTS_").
//		WithSources(inputs.SourceFile, inputs.SourceEnv, inputs.SourceExplicit).
//		Build()
//
// All methods on *Inputs are safe for concurrent use.
package inputs
