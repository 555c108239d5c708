// Package main provides the entry point for the pricebook CLI and server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pricebook",
	Short: "Travel pricing document extraction",
	Long:  "Pricebook extracts structured pricing data (locations, resorts, rooms, activities) from travel pricing documents and normalizes it into a consistent catalog, via CLI or REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
