// Package config provides configuration management for the casecheck runner.
package config

// RunnerConfig holds configuration for the check runner and result store.
type RunnerConfig struct {
	DataDir      string
	ReportFormat string
	FailFast     bool
	MaxBatchSize int
}

// DefaultRunnerConfig returns configuration with default values.
func DefaultRunnerConfig() *RunnerConfig {
	return &RunnerConfig{
		DataDir:      "./data",
		ReportFormat: "text",
		FailFast:     false,
		MaxBatchSize: 1000,
	}
}
