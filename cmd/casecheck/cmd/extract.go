package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/casecheck/casecheck/internal/rules"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Evaluate an extraction expression against a response file",
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().String("path", "", "extraction expression, e.g. $.items[*].id.unique()")
	extractCmd.Flags().String("response", "", "response body file (JSON)")
	extractCmd.Flags().Int("index", 0, "match index (-1 for all matches)")
	extractCmd.MarkFlagRequired("path")
	extractCmd.MarkFlagRequired("response")
}

func runExtract(cmd *cobra.Command, args []string) error {
	expr, _ := cmd.Flags().GetString("path")
	responsePath, _ := cmd.Flags().GetString("response")
	index, _ := cmd.Flags().GetInt("index")

	responseBody, err := os.ReadFile(responsePath)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	var data any
	if err := json.Unmarshal(responseBody, &data); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	value, err := rules.Extract(expr, data, index)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
