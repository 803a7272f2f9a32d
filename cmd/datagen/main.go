package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/saranya/insurewise/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		policies    = flag.Int("policies", cfg.NumPolicies, "number of policies to generate")
		seed        = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output      = flag.String("output", "data/policies.json", "path to write the catalog")
		writeStdout = flag.Bool("stdout", false, "write the catalog to stdout instead of a file")
	)
	flag.Parse()

	gen := generator.New(generator.Config{
		NumPolicies: *policies,
		Seed:        *seed,
	})
	catalog := gen.Generate()

	if *writeStdout {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(catalog); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write catalog to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteCatalog(catalog, *output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d policies into %s\n", len(catalog), *output)
}
