//go:build ignore

package main

import (
	"fmt"
	"os"
	"strings"

	// Import the probe package
	"github.com/kmorling/netscout/internal/probe"
)

// Statistics tracks validation results
type Statistics struct {
	TotalSignatures int
	Valid           int
	Invalid         int
	Failures        []Failure
}

// Failure stores information about a signature that failed validation
type Failure struct {
	File  string
	Name  string
	Error string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate-catalog <signatures.yaml> [more.yaml ...]")
		fmt.Println("Example: validate-catalog signatures/custom.yaml")
		fmt.Println()
		fmt.Println("Validates HTTP fingerprint signature files and reports issues")
		fmt.Println("alongside summary statistics for the built-in catalogs.")
		os.Exit(1)
	}

	stats := Statistics{}

	for _, path := range os.Args[1:] {
		sigs, err := probe.LoadSignatures(path)
		if err != nil {
			// Record the file-level failure; per-signature errors come
			// wrapped with the signature name.
			stats.Invalid++
			stats.Failures = append(stats.Failures, Failure{
				File:  path,
				Error: err.Error(),
			})
			continue
		}
		stats.TotalSignatures += len(sigs)
		stats.Valid += len(sigs)
		fmt.Printf("%s: %d signature(s) OK\n", path, len(sigs))
	}

	fmt.Println()
	fmt.Println("Built-in catalogs:")
	fmt.Printf("  HTTP signatures:  %d\n", len(probe.DefaultSignatures))
	fmt.Printf("  mDNS services:    %d\n", len(probe.ServiceCatalog))
	fmt.Printf("  SSDP families:    %d\n", len(probe.FamilyCatalog))

	// Sanity-check the built-ins too, so a bad edit is caught before a
	// release rather than at scan time.
	for i := range probe.DefaultSignatures {
		sig := probe.DefaultSignatures[i]
		if err := probe.ValidateSignature(&sig); err != nil {
			stats.Invalid++
			stats.Failures = append(stats.Failures, Failure{
				File:  "builtin",
				Name:  sig.Name,
				Error: err.Error(),
			})
		}
	}

	fmt.Println()
	fmt.Printf("Validated: %d OK, %d failed\n", stats.Valid, stats.Invalid)

	if len(stats.Failures) > 0 {
		fmt.Println("\nFailures:")
		for _, f := range stats.Failures {
			loc := f.File
			if f.Name != "" {
				loc = f.File + ": " + f.Name
			}
			fmt.Printf("  %s\n    %s\n", loc, strings.TrimSpace(f.Error))
		}
		os.Exit(1)
	}
}
