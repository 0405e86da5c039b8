package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/veeresh/va-bot/internal/config"
	"github.com/veeresh/va-bot/internal/connector"
	"github.com/veeresh/va-bot/internal/credentials"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report which connectors are ready and which are failing",
	Long:  `Resolve credentials for every registered connector without executing any jobs, and print ready/failing sets plus a JSON summary.`,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkReport is the readiness snapshot the check command prints.
type checkReport struct {
	Ready      []string          `json:"ready"`
	Errors     map[string]string `json:"errors"`
	KeyIssuers []string          `json:"key_issuers"`
}

// buildCheckReport resolves credentials for every adapter without running
// any jobs, and records which ready connectors can mint their own platform
// API keys.
func buildCheckReport(registry *connector.Registry, router *credentials.Router) checkReport {
	rep := checkReport{
		Ready:      make([]string, 0),
		Errors:     make(map[string]string),
		KeyIssuers: make([]string, 0),
	}
	for _, a := range registry.Adapters() {
		if _, err := router.Resolve(a.Platform()); err != nil {
			rep.Errors[a.Name()] = err.Error()
			continue
		}
		rep.Ready = append(rep.Ready, a.Name())
		if a.Capabilities().IssuesAPIKeys {
			rep.KeyIssuers = append(rep.KeyIssuers, a.Name())
		}
	}
	sort.Strings(rep.Ready)
	sort.Strings(rep.KeyIssuers)
	return rep
}

func (r checkReport) canMintKeys(name string) bool {
	for _, n := range r.KeyIssuers {
		if n == name {
			return true
		}
	}
	return false
}

func runCheck(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	registry := connector.DefaultRegistry()
	router := credentials.NewRouter(credentials.DefaultPlatforms(loc))
	rep := buildCheckReport(registry, router)

	fmt.Println("\n=== CONNECTORS READY ===")
	if len(rep.Ready) == 0 {
		fmt.Println("- none ready")
	}
	for _, name := range rep.Ready {
		if rep.canMintKeys(name) {
			fmt.Printf("OK  %s (can mint API keys)\n", name)
		} else {
			fmt.Printf("OK  %s\n", name)
		}
	}

	fmt.Println("\n=== CONNECTORS WITH ERRORS ===")
	if len(rep.Errors) == 0 {
		fmt.Println("- none")
	}
	names := make([]string, 0, len(rep.Errors))
	for name := range rep.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("ERR %s -> %s\n", name, rep.Errors[name])
	}

	if next := router.NextActivation(); next != nil {
		fmt.Printf("\nNext activation: %s on %s\n", next.Title, next.ActivateOn.Format("2006-01-02"))
	}

	summary, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println("\n=== SUMMARY JSON ===")
	fmt.Println(string(summary))
	return nil
}
