// cmd/tools/registry-export/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"social-support-intake/internal/wizard/fields"
	"social-support-intake/pkg/registry"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	out := exportCmd.String("out", "configs/step-registry.json", "Where to write the built-in registry")
	path := validateCmd.String("path", "configs/step-registry.json", "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := exportRegistry(registry.Default(), *out); err != nil {
			fmt.Printf("Error exporting registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported registry to %s\n", *out)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(*path); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Registry validation passed.")

	case "help":
		fallthrough
	default:
		help()
	}
}

func validateRegistry(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(fields.New(fields.WithRegistry(reg)).Has); err != nil {
		return err
	}

	count := 0
	for _, s := range reg.Steps {
		count += len(s.Fields)
	}
	fmt.Printf("Found %d steps with %d fields.\n", len(reg.Steps), count)
	return nil
}

func exportRegistry(reg *registry.StepRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: registry-export <command> [flags]

Commands:
  export    Write the built-in step registry as JSON
  validate  Validate a registry file against the field rules
  help      Show this help message

Examples:
  registry-export export -out configs/step-registry.json
  registry-export validate -path configs/step-registry.json
`, "\n")
}
