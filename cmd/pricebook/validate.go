package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mikael/pricebook/internal/export"
	"github.com/mikael/pricebook/internal/normalize"
	"github.com/mikael/pricebook/internal/observability"
	"github.com/mikael/pricebook/internal/validation"
)

var validateNormalize bool

var validateCmd = &cobra.Command{
	Use:   "validate <result.json>",
	Short: "Validate a candidate extraction result against the pricing schema",
	Long: `Validates a JSON file against the pricing extraction schema and reports the first violation found.

With --normalize, the validated result is also run through catalog normalization and printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateNormalize, "normalize", false, "Normalize the validated result and print it")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	result, err := validation.ValidateCandidate(raw)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Valid: %d location(s), %d resort(s)\n", len(result.Locations), result.TotalResorts())

	if !validateNormalize {
		return nil
	}

	normalized, err := normalize.Normalize(result)
	if err != nil {
		return err
	}

	data, err := export.ResultJSON(normalized)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(data))

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintResult(normalized)
	return nil
}
