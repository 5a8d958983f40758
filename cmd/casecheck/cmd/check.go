package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/casecheck/casecheck/internal/core/config"
	"github.com/casecheck/casecheck/internal/core/db"
	"github.com/casecheck/casecheck/internal/core/report"
	"github.com/casecheck/casecheck/internal/loader"
	"github.com/casecheck/casecheck/internal/rules"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a validation case against a response file",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().String("case", "", "validation case file (YAML)")
	checkCmd.Flags().String("response", "", "response body file (JSON)")
	checkCmd.MarkFlagRequired("case")
	checkCmd.MarkFlagRequired("response")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	casePath, _ := cmd.Flags().GetString("case")
	responsePath, _ := cmd.Flags().GetString("response")

	testCase, err := loader.LoadCase(casePath)
	if err != nil {
		return fmt.Errorf("failed to load case: %w", err)
	}

	responseBody, err := os.ReadFile(responsePath)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	var data any
	if err := json.Unmarshal(responseBody, &data); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	startedAt := time.Now().UTC()
	engine := rules.NewEngine()
	results := engine.Validate(testCase.Validate, data)

	// Fail-fast truncates reporting after the first failure; evaluation
	// itself always runs every rule
	if cfg.FailFast {
		for i, r := range results {
			if !r.Passed {
				results = results[:i+1]
				break
			}
		}
	}

	passed, failed := 0, 0
	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	// Persistence is optional; without --db-url results only print
	if dbURL != "" {
		database, err := db.Open(dbURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		queries, err := db.LoadQueries(database)
		if err != nil {
			return fmt.Errorf("failed to load queries: %w", err)
		}

		store, err := report.NewRunStore(queries, cfg.DataDir, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}

		runID, err := store.SaveRun(testCase.Name, startedAt, results)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		slog.Info("run saved", "run_id", string(runID))
	}

	if cfg.ReportFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			status := "PASS"
			if !r.Passed {
				status = "FAIL"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s", status, r.Type, r.Path)
			if !r.Passed && r.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), ": %s", r.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d passed, %d failed\n", testCase.Name, passed, failed)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d validations failed", failed, len(results))
	}
	return nil
}
