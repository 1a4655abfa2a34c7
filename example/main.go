// FILE: lixenwraith/inputs/example/main.go
package main

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/lixenwraith/inputs"
)

// Deployment is the shape the merged inputs are scanned into.
type Deployment struct {
	Region   string        `input:"region"`
	Replicas int           `input:"replicas"`
	Debug    bool          `input:"debug"`
	Labels   []string      `input:"labels"`
	Settings inputs.JSON   `input:"settings"`
	Secret   inputs.Base64 `input:"secret"`
}

const inputFilePath = "inputs.yaml"

func main() {
	// =========================================================================
	// PART 1: SETUP
	// An input file, an environment snapshot and a stdin payload.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 1: Preparing sources...")

	defer func() {
		log.Println("---")
		log.Println("🧹 Cleaning up...")
		os.Remove(inputFilePath)
	}()

	fileContent := "region: us-east-1\nreplicas: 2\nlabels: [web]\n"
	if err := os.WriteFile(inputFilePath, []byte(fileContent), 0644); err != nil {
		log.Fatalf("❌ FATAL: Could not write input file: %v", err)
	}

	env := map[string]string{
		"DIRECTED_INPUTS_DEBUG":    "yes",
		"DIRECTED_INPUTS_REPLICAS": "4",
		"UNRELATED":                "ignored",
	}
	stdin := strings.NewReader(`{"settings": "{\"timeout\": 30}", "labels": "web,api"}`)

	// =========================================================================
	// PART 2: BUILD
	// Precedence, lowest first: file, explicit, env, stdin.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 2: Building inputs...")

	in, err := inputs.NewBuilder().
		WithArgs(nil).
		WithFile(inputFilePath).
		WithInput("region", "eu-west-1").
		WithInput("secret", base64.StdEncoding.EncodeToString([]byte("hunter2"))).
		WithEnvironment(env).
		WithEnvPrefix("DIRECTED_INPUTS_").
		WithStdin(true).
		WithStdinReader(stdin).
		WithValidator(func(in *inputs.Inputs) error {
			return in.Validate("region", "replicas")
		}).
		Build()
	if err != nil {
		log.Fatalf("❌ FATAL: Build failed: %v", err)
	}
	fmt.Print(in.Debug())

	// =========================================================================
	// PART 3: TYPED ACCESS
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 3: Typed access...")

	replicas, err := in.Int64("replicas", 1)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
	debug, err := in.Bool("debug", false)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
	settings, err := in.DecodeInput("settings", inputs.DecodeOptions{JSON: true})
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
	log.Printf("✅ replicas=%d debug=%t settings=%v", replicas, debug, settings)

	var deployment Deployment
	if err := in.Scan(&deployment); err != nil {
		log.Fatalf("❌ FATAL: Scan failed: %v", err)
	}
	log.Printf("✅ scanned: %+v (secret %q)", deployment, string(deployment.Secret))

	// =========================================================================
	// PART 4: FREEZE AND THAW
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 4: Freeze and thaw...")

	in.FreezeInputs()
	in.Set("region", "ap-south-1")
	region, _ := in.String("region", "")
	log.Printf("   after Set: region=%s", region)

	if _, err := in.ThawInputs(); err != nil {
		log.Fatalf("❌ FATAL: Thaw failed: %v", err)
	}
	region, _ = in.String("region", "")
	log.Printf("✅ after thaw: region=%s", region)
}
