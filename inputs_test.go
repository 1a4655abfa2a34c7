// FILE: lixenwraith/inputs/inputs_test.go
package inputs

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// testOptions returns options isolated from the process environment and stdin
func testOptions(inputs map[string]any, env map[string]string, stdin string) Options {
	opts := DefaultOptions()
	opts.Inputs = inputs
	if env == nil {
		env = map[string]string{}
	}
	opts.Environment = env
	opts.Stdin = strings.NewReader(stdin)
	return opts
}

// TestNew tests construction from the process environment
func TestNew(t *testing.T) {
	t.Setenv("INPUTS_TEST_REGION", "from-env")
	t.Setenv("FROM_STDIN", "false")

	in, err := New(map[string]any{"INPUTS_TEST_REGION": "explicit", "other": 1}, false)
	require.NoError(t, err)

	v, err := in.GetInput("inputs_test_region", GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "from-env", v, "env overrides explicit by default")

	v, err = in.GetInput("other", GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

// TestPrecedence tests the default and custom source orders
func TestPrecedence(t *testing.T) {
	explicit := map[string]any{
		"region": "explicit",
		"db":     map[string]any{"host": "explicit-host", "port": 5432},
		"only":   "explicit-only",
	}
	env := map[string]string{"REGION": "env", "Extra": "env-extra"}
	stdin := `{"region": "stdin", "db": {"host": "stdin-host"}}`

	t.Run("Default", func(t *testing.T) {
		opts := testOptions(explicit, env, stdin)
		opts.FromStdin = true
		in, err := NewWithOptions(opts)
		require.NoError(t, err)

		region, _ := in.String("region", "")
		assert.Equal(t, "stdin", region)

		db, _ := in.Get("db")
		assert.Equal(t, map[string]any{"host": "stdin-host", "port": 5432}, db)

		only, _ := in.String("ONLY", "")
		assert.Equal(t, "explicit-only", only)

		extra, _ := in.String("extra", "")
		assert.Equal(t, "env-extra", extra)

		origin, ok := in.Origin("region")
		require.True(t, ok)
		assert.Equal(t, "stdin", origin)
		origin, _ = in.Origin("only")
		assert.Equal(t, "explicit", origin)
	})

	t.Run("ReorderedExplicitHighest", func(t *testing.T) {
		opts := testOptions(explicit, env, stdin)
		opts.FromStdin = true
		opts.Sources = []SourceID{SourceStdin, SourceEnv, SourceExplicit}
		in, err := NewWithOptions(opts)
		require.NoError(t, err)

		region, _ := in.String("region", "")
		assert.Equal(t, "explicit", region)

		db, _ := in.Get("db")
		assert.Equal(t, map[string]any{"host": "explicit-host", "port": 5432}, db)
		assert.Equal(t, []string{"stdin", "env", "explicit"}, in.Sources())
	})

	t.Run("OmittedSourceDisabled", func(t *testing.T) {
		opts := testOptions(explicit, env, stdin)
		opts.FromStdin = true
		opts.Sources = []SourceID{SourceExplicit}
		in, err := NewWithOptions(opts)
		require.NoError(t, err)

		region, _ := in.String("region", "")
		assert.Equal(t, "explicit", region)
		assert.False(t, in.Has("extra"))
	})

	t.Run("EnvironmentDisabled", func(t *testing.T) {
		opts := testOptions(explicit, env, "")
		opts.FromEnvironment = false
		in, err := NewWithOptions(opts)
		require.NoError(t, err)
		assert.False(t, in.Has("extra"))
		assert.Equal(t, []string{"explicit", "stdin"}, in.Sources())
	})

	t.Run("CustomSourceBetweenBuiltins", func(t *testing.T) {
		opts := testOptions(explicit, env, "")
		// explicit=200, env=300
		custom := NewCustomSource("vault", 250, func() (map[string]any, error) {
			return map[string]any{"region": "vault", "extra": "vault"}, nil
		})
		in, err := NewWithOptions(opts, custom)
		require.NoError(t, err)

		region, _ := in.String("region", "")
		assert.Equal(t, "env", region)

		origin, _ := in.Origin("extra")
		assert.Equal(t, "env", origin)
		assert.Equal(t, map[string]any{"region": "vault", "extra": "vault"}, in.SourceValues("vault"))
	})

	t.Run("EqualPriorityKeepsRegistrationOrder", func(t *testing.T) {
		first := NewCustomSource("first", 1000, func() (map[string]any, error) {
			return map[string]any{"k": "first"}, nil
		})
		second := NewCustomSource("second", 1000, func() (map[string]any, error) {
			return map[string]any{"k": "second"}, nil
		})
		in, err := NewWithOptions(testOptions(nil, nil, ""), first, second)
		require.NoError(t, err)

		k, _ := in.String("k", "")
		assert.Equal(t, "second", k)
	})

	t.Run("InvalidOrder", func(t *testing.T) {
		opts := testOptions(nil, nil, "")
		opts.Sources = []SourceID{"cli"}
		_, err := NewWithOptions(opts)
		assert.ErrorIs(t, err, ErrUsage)
	})

	t.Run("CaseSensitive", func(t *testing.T) {
		opts := testOptions(map[string]any{"Region": "explicit"}, map[string]string{"REGION": "env"}, "")
		opts.CaseSensitive = true
		in, err := NewWithOptions(opts)
		require.NoError(t, err)

		assert.Equal(t, []string{"REGION", "Region"}, in.Keys())
		assert.False(t, in.Has("region"))
	})
}

// TestStdinIntegration tests stdin activation through the core
func TestStdinIntegration(t *testing.T) {
	t.Run("ForcedByEnvironment", func(t *testing.T) {
		opts := testOptions(nil, map[string]string{"FROM_STDIN": "true"}, `{"payload": "x"}`)
		opts.FromStdin = false
		in, err := NewWithOptions(opts)
		require.NoError(t, err)

		v, _ := in.String("payload", "")
		assert.Equal(t, "x", v)
	})

	t.Run("NotRequested", func(t *testing.T) {
		in, err := NewWithOptions(testOptions(nil, nil, `{"payload": "x"}`))
		require.NoError(t, err)
		assert.False(t, in.Has("payload"))
	})

	t.Run("MalformedIsFatal", func(t *testing.T) {
		opts := testOptions(nil, nil, "[not, a, mapping]")
		opts.FromStdin = true
		in, err := NewWithOptions(opts)
		assert.Nil(t, in)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("MalformedLenient", func(t *testing.T) {
		opts := testOptions(map[string]any{"a": 1}, nil, "[not, a, mapping]")
		opts.FromStdin = true
		opts.LenientStdin = true
		in, err := NewWithOptions(opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, in.Keys())
	})
}

// TestFileIntegration tests file sources through the core
func TestFileIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	base := writeFile(t, tmpDir, "base.yaml", "region: file\nreplicas: 1\n")
	overlay := writeFile(t, tmpDir, "overlay.json", `{"replicas": 2}`)

	opts := testOptions(map[string]any{"region": "explicit"}, nil, "")
	opts.Files = []string{base, overlay, filepath.Join(tmpDir, "missing.toml")}

	in, err := NewWithOptions(opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileNotFound)
	require.NotNil(t, in, "missing file is not fatal")

	region, _ := in.String("region", "")
	assert.Equal(t, "explicit", region)

	replicas, err := in.Int64("replicas", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), replicas)

	assert.Equal(t, map[string]any{"region": "file", "replicas": int64(2)}, in.SourceValues("file"))
}

// TestGetInput tests lookup, defaults and coercion
func TestGetInput(t *testing.T) {
	in, err := NewWithOptions(testOptions(map[string]any{
		"flag":    "yes",
		"count":   "42",
		"ratio":   "0.25",
		"bad":     "maybe",
		"nothing": nil,
		"nested":  map[string]any{"Inner": map[string]any{"value": int64(7)}},
	}, nil, ""))
	require.NoError(t, err)

	t.Run("Raw", func(t *testing.T) {
		v, err := in.GetInput("COUNT", GetOptions{})
		require.NoError(t, err)
		assert.Equal(t, "42", v)
	})

	t.Run("Coerced", func(t *testing.T) {
		v, err := in.GetInput("flag", GetOptions{Bool: true})
		require.NoError(t, err)
		assert.Equal(t, true, v)

		v, err = in.GetInput("count", GetOptions{Integer: true})
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)

		v, err = in.GetInput("ratio", GetOptions{Float: true})
		require.NoError(t, err)
		assert.Equal(t, 0.25, v)
	})

	t.Run("AbsentReturnsDefaultUncoerced", func(t *testing.T) {
		v, err := in.GetInput("missing", GetOptions{Default: "not-a-bool", Bool: true})
		require.NoError(t, err)
		assert.Equal(t, "not-a-bool", v)

		v, err = in.GetInput("nothing", GetOptions{Default: 5})
		require.NoError(t, err)
		assert.Equal(t, 5, v)

		v, err = in.GetInput("missing", GetOptions{})
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("Required", func(t *testing.T) {
		_, err := in.GetInput("missing", GetOptions{Required: true})
		assert.ErrorIs(t, err, ErrRequired)
		_, err = in.GetInput("nothing", GetOptions{Required: true})
		assert.ErrorIs(t, err, ErrRequired)
	})

	t.Run("BadCoercionNeverFallsBack", func(t *testing.T) {
		v, err := in.GetInput("bad", GetOptions{Default: false, Bool: true})
		assert.Nil(t, v)

		var ce *CoercionError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "bad", ce.Key)
		assert.Equal(t, "maybe", ce.Value)
		assert.Equal(t, "input bad not a boolean: maybe", err.Error())
	})

	t.Run("MultipleCoercionFlags", func(t *testing.T) {
		_, err := in.GetInput("count", GetOptions{Integer: true, Float: true})
		assert.ErrorIs(t, err, ErrUsage)
	})

	t.Run("DottedPath", func(t *testing.T) {
		v, err := in.GetInput("NESTED.Inner.value", GetOptions{Integer: true})
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)

		assert.False(t, in.Has("nested.inner.value"), "nested keys keep their case")
	})

	t.Run("ReturnedValuesAreCopies", func(t *testing.T) {
		v, _ := in.GetInput("nested", GetOptions{})
		v.(map[string]any)["Inner"] = "changed"

		again, _ := in.Get("nested")
		assert.IsType(t, map[string]any{}, again.(map[string]any)["Inner"])
	})
}

// TestTypedHelpers tests String, Bool, Int64 and Float64
func TestTypedHelpers(t *testing.T) {
	in, err := NewWithOptions(testOptions(map[string]any{
		"s": "text", "i": int64(3), "f": 1.5, "b": true, "raw": []byte("bytes"), "m": map[string]any{},
	}, map[string]string{"DEBUG": "on", "PORT": "8080", "RATE": "2.5"}, ""))
	require.NoError(t, err)

	s, err := in.String("s", "")
	require.NoError(t, err)
	assert.Equal(t, "text", s)

	s, _ = in.String("i", "")
	assert.Equal(t, "3", s)
	s, _ = in.String("f", "")
	assert.Equal(t, "1.5", s)
	s, _ = in.String("b", "")
	assert.Equal(t, "true", s)
	s, _ = in.String("raw", "")
	assert.Equal(t, "bytes", s)
	s, _ = in.String("absent", "fallback")
	assert.Equal(t, "fallback", s)
	_, err = in.String("m", "")
	assert.ErrorIs(t, err, ErrCoercion)

	debug, err := in.Bool("debug", false)
	require.NoError(t, err)
	assert.True(t, debug)
	absent, _ := in.Bool("absent", true)
	assert.True(t, absent)

	port, err := in.Int64("port", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(8080), port)

	rate, err := in.Float64("rate", 0)
	require.NoError(t, err)
	assert.Equal(t, 2.5, rate)

	_, err = in.Int64("s", 0)
	assert.ErrorIs(t, err, ErrCoercion)
}

// TestDecodeInput tests keyed decoding
func TestDecodeInput(t *testing.T) {
	in, err := NewWithOptions(testOptions(map[string]any{
		"payload": "eyJhIjogMX0=",
		"config":  "name: svc\n",
		"broken":  "%%%",
	}, nil, ""))
	require.NoError(t, err)

	v, err := in.DecodeInput("payload", DecodeOptions{Base64: true, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1)}, v)

	v, err = in.DecodeInput("CONFIG", DecodeOptions{Mode: ModeYAML})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "svc"}, v)

	_, err = in.DecodeInput("broken", DecodeOptions{Base64: true})
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "broken", de.Key)

	v, err = in.DecodeInput("broken", DecodeOptions{Base64: true, Lenient: true})
	require.NoError(t, err)
	assert.Equal(t, "%%%", v)

	v, err = in.DecodeInput("missing", DecodeOptions{Default: "d", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "d", v)

	_, err = in.DecodeInput("missing", DecodeOptions{Required: true})
	assert.ErrorIs(t, err, ErrRequired)

	_, err = in.DecodeInput("missing", DecodeOptions{JSON: true, YAML: true})
	assert.ErrorIs(t, err, ErrUsage, "usage is checked before lookup")
}

// TestFreezeThaw tests the snapshot state machine
func TestFreezeThaw(t *testing.T) {
	newInputs := func(t *testing.T) *Inputs {
		in, err := NewWithOptions(testOptions(map[string]any{
			"region": "us-east-1",
			"db":     map[string]any{"host": "a"},
		}, nil, ""))
		require.NoError(t, err)
		return in
	}

	t.Run("TypedValuesNotShared", func(t *testing.T) {
		in, err := NewWithOptions(testOptions(map[string]any{
			"tags":  map[string]string{"team": "a"},
			"ports": []int{80},
		}, nil, ""))
		require.NoError(t, err)
		in.FreezeInputs()

		tags, ok := in.Get("tags")
		require.True(t, ok)
		tags.(map[string]string)["team"] = "mutated"
		ports, _ := in.Get("ports")
		ports.([]int)[0] = 1

		current, _ := in.Get("tags")
		assert.Equal(t, map[string]string{"team": "a"}, current)

		thawed, err := in.ThawInputs()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"team": "a"}, thawed["tags"])
		assert.Equal(t, []int{80}, thawed["ports"])

		team, err := in.String("tags.team", "")
		require.NoError(t, err)
		assert.Equal(t, "a", team)
	})

	t.Run("CallerMapsNotShared", func(t *testing.T) {
		tags := map[string]string{"team": "a"}
		in, err := NewWithOptions(testOptions(map[string]any{"tags": tags}, nil, ""))
		require.NoError(t, err)
		in.FreezeInputs()

		tags["team"] = "changed"
		set := []int{1}
		in.Set("ids", set)
		set[0] = 2

		ids, _ := in.Get("ids")
		assert.Equal(t, []int{1}, ids)

		thawed, err := in.ThawInputs()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"team": "a"}, thawed["tags"])
	})

	t.Run("ThawBeforeFreeze", func(t *testing.T) {
		in := newInputs(t)
		_, err := in.ThawInputs()
		assert.ErrorIs(t, err, ErrState)

		var se *StateError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "thaw", se.Op)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		in := newInputs(t)
		before := in.All()

		frozen := in.FreezeInputs()
		assert.Equal(t, before, frozen)
		assert.True(t, in.IsFrozen())

		thawed, err := in.ThawInputs()
		require.NoError(t, err)
		assert.Equal(t, before, thawed)
	})

	t.Run("ThawDiscardsMutations", func(t *testing.T) {
		in := newInputs(t)
		in.FreezeInputs()

		in.Set("region", "eu-west-1")
		in.Set("new", 1)
		in.Delete("db")
		in.Update(map[string]any{"other": map[string]any{"x": 1}})

		region, _ := in.String("region", "")
		assert.Equal(t, "eu-west-1", region)
		origin, _ := in.Origin("region")
		assert.Equal(t, OriginRuntime, origin)

		_, err := in.ThawInputs()
		require.NoError(t, err)

		region, _ = in.String("region", "")
		assert.Equal(t, "us-east-1", region)
		assert.Equal(t, []string{"db", "region"}, in.Keys())
		origin, _ = in.Origin("region")
		assert.Equal(t, "explicit", origin)
	})

	t.Run("FrozenSnapshotIsolated", func(t *testing.T) {
		in := newInputs(t)
		frozen := in.FreezeInputs()
		frozen["region"] = "tampered"
		frozen["db"].(map[string]any)["host"] = "tampered"

		in.Set("region", "changed")
		thawed, err := in.ThawInputs()
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", thawed["region"])
		assert.Equal(t, "a", thawed["db"].(map[string]any)["host"])
	})

	t.Run("RepeatThaw", func(t *testing.T) {
		in := newInputs(t)
		in.FreezeInputs()

		for i := 0; i < 3; i++ {
			in.Set("region", "changed")
			_, err := in.ThawInputs()
			require.NoError(t, err)
			region, _ := in.String("region", "")
			assert.Equal(t, "us-east-1", region)
		}
	})

	t.Run("RefreezeOverwrites", func(t *testing.T) {
		in := newInputs(t)
		in.FreezeInputs()
		in.Set("region", "second")
		in.FreezeInputs()
		in.Set("region", "third")

		thawed, err := in.ThawInputs()
		require.NoError(t, err)
		assert.Equal(t, "second", thawed["region"])
	})

	t.Run("Shift", func(t *testing.T) {
		in := newInputs(t)

		state := in.ShiftInputs()
		assert.True(t, in.IsFrozen())
		assert.Equal(t, "us-east-1", state["region"])

		in.Set("region", "changed")
		state = in.ShiftInputs()
		assert.False(t, in.IsFrozen())
		assert.Equal(t, "us-east-1", state["region"])

		_, err := in.ThawInputs()
		assert.ErrorIs(t, err, ErrState)
	})
}

// TestFreezeThawProperty checks that thaw always restores the frozen state
func TestFreezeThawProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := inputMapGen(2).Draw(t, "initial")
		in, err := NewWithOptions(testOptions(initial, nil, ""))
		require.NoError(t, err)

		frozen := in.FreezeInputs()

		ops := rapid.IntRange(0, 10).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			key := rapid.StringMatching(`[a-z]{1,3}`).Draw(t, "key")
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				in.Set(key, scalarGen().Draw(t, "value"))
			case 1:
				in.Delete(key)
			case 2:
				in.Update(inputMapGen(1).Draw(t, "update"))
			}
		}

		thawed, err := in.ThawInputs()
		require.NoError(t, err)
		require.Equal(t, frozen, thawed)
		require.Equal(t, frozen, in.All())
	})
}

// TestConcurrentAccess tests that readers and writers can run in parallel
func TestConcurrentAccess(t *testing.T) {
	in, err := NewWithOptions(testOptions(map[string]any{"counter": 0}, nil, ""))
	require.NoError(t, err)
	in.FreezeInputs()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				in.Set("counter", i*j)
				_, _ = in.GetInput("counter", GetOptions{Integer: true})
				_ = in.All()
				if j%25 == 0 {
					_, _ = in.ThawInputs()
				}
			}
		}(i)
	}
	wg.Wait()

	_, err = in.ThawInputs()
	require.NoError(t, err)
	v, _ := in.Get("counter")
	assert.Equal(t, 0, v)
}
