package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/veeresh/va-bot/internal/approval"
	"github.com/veeresh/va-bot/internal/config"
)

var approveCmd = &cobra.Command{
	Use:   "approve <report-id>",
	Short: "Signal approval for a pending report",
	Long:  `Mint an approval reference for the given report id and deliver it to the running serve process, exactly as clicking the emailed link would.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runApprove,
}

func init() {
	rootCmd.AddCommand(approveCmd)
}

func runApprove(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	tokens, err := approval.NewTokenService(cfg.ApprovalSecret, time.Hour)
	if err != nil {
		return fmt.Errorf("approval tokens: %w (set APPROVAL_SECRET)", err)
	}
	token, err := tokens.Issue(args[0])
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/approve/%s", cfg.ExternalHost, token)
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("calling approval endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("approval endpoint returned %d: %s", resp.StatusCode, body)
	}
	fmt.Printf("%s\n", body)
	return nil
}
