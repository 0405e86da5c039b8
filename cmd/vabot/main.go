// Package main provides the entry point for the VA Bot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vabot",
	Short: "VA Bot daily reporting pipeline",
	Long:  "VA Bot polls the income-stream connectors, assembles the daily earnings report, encrypts and emails it, and gates continuation behind operator approval with timed auto-resume.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
