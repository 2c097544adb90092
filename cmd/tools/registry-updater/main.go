// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"immigration-workers/pkg/registry"
)

const defaultRegistryPath = "configs/visa-registry.json"

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to the visa registry file")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listPath := listCmd.String("path", defaultRegistryPath, "Path to the visa registry file")

	bumpCmd := flag.NewFlagSet("bump-version", flag.ExitOnError)
	bumpPath := bumpCmd.String("path", defaultRegistryPath, "Path to the visa registry file")
	bumpLevel := bumpCmd.String("level", "patch", "Version component to bump (major, minor, patch)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(*validatePath); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listSchemas(*listPath); err != nil {
			fmt.Printf("Error listing schemas: %v\n", err)
			os.Exit(1)
		}

	case "bump-version":
		bumpCmd.Parse(os.Args[2:])
		if err := bumpVersion(*bumpPath, *bumpLevel); err != nil {
			fmt.Printf("Error bumping version: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

// validateRegistry runs the same structural and semantic checks the worker
// manager applies at startup, so a bad rule set is caught before deploy.
func validateRegistry(path string) error {
	reg, err := registry.Load(path)
	if err != nil {
		return err
	}

	snap := reg.Snapshot()
	if snap.Len() == 0 {
		return fmt.Errorf("registry contains no schemas")
	}

	fmt.Printf("Registry validation passed. Version %s, %d schemas.\n", snap.Version, snap.Len())
	return nil
}

func listSchemas(path string) error {
	doc, err := readDocument(path)
	if err != nil {
		return err
	}

	// Validate before printing anything
	if _, err := registry.NewFromDocument(doc); err != nil {
		return err
	}

	fmt.Printf("Registry version %s (last updated %s)\n\n", doc.SchemaVersion, doc.LastUpdated)

	sorted := make([]registry.VisaSchema, len(doc.Schemas))
	copy(sorted, doc.Schemas)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].VisaType != sorted[j].VisaType {
			return sorted[i].VisaType < sorted[j].VisaType
		}
		return sorted[i].ApplicationType < sorted[j].ApplicationType
	})

	for _, s := range sorted {
		fmt.Printf("  %s/%s: %d categories, %d required fields, %d required documents\n",
			s.VisaType, s.ApplicationType,
			len(s.Categories), len(s.RequiredEvaluationFields), len(s.RequiredDocuments))
	}
	return nil
}

// bumpVersion increments the semver schemaVersion and stamps lastUpdated.
// The document is re-validated before it is written back.
func bumpVersion(path, level string) error {
	doc, err := readDocument(path)
	if err != nil {
		return err
	}

	next, err := nextVersion(doc.SchemaVersion, level)
	if err != nil {
		return err
	}

	doc.SchemaVersion = next
	doc.LastUpdated = time.Now().UTC().Format("2006-01-02")

	if _, err := registry.NewFromDocument(doc); err != nil {
		return fmt.Errorf("registry invalid after bump: %w", err)
	}

	if err := writeDocument(path, doc); err != nil {
		return err
	}

	fmt.Printf("Bumped registry version to %s\n", next)
	return nil
}

func nextVersion(current, level string) (string, error) {
	parts := strings.Split(current, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("schemaVersion %q is not semver", current)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", fmt.Errorf("schemaVersion %q is not semver: %w", current, err)
		}
		nums[i] = n
	}

	switch level {
	case "major":
		nums[0]++
		nums[1] = 0
		nums[2] = 0
	case "minor":
		nums[1]++
		nums[2] = 0
	case "patch":
		nums[2]++
	default:
		return "", fmt.Errorf("unknown level %q, want major, minor or patch", level)
	}

	return fmt.Sprintf("%d.%d.%d", nums[0], nums[1], nums[2]), nil
}

func readDocument(path string) (*registry.VisaRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var doc registry.VisaRegistry
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode registry: %w", err)
	}
	return &doc, nil
}

func writeDocument(path string, doc *registry.VisaRegistry) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  validate      Validate the visa registry file
  list          List registered visa schemas
  bump-version  Bump the registry schemaVersion and stamp lastUpdated
  help          Show this help message

Examples:
  registry-updater validate -path configs/visa-registry.json
  registry-updater list
  registry-updater bump-version -level minor

Use 'registry-updater <command> -h' for more information about a command.

`)
}
