package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*RunnerConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultRunnerConfig
	v.SetDefault("runner.data_dir", "./data")
	v.SetDefault("runner.report_format", "text")
	v.SetDefault("runner.fail_fast", false)
	v.SetDefault("runner.max_batch_size", 1000)

	// Bind environment variables with CC_ prefix
	v.SetEnvPrefix("CC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &RunnerConfig{
		DataDir:      v.GetString("runner.data_dir"),
		ReportFormat: v.GetString("runner.report_format"),
		FailFast:     v.GetBool("runner.fail_fast"),
		MaxBatchSize: v.GetInt("runner.max_batch_size"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks report format and positive batch size.
func validateConfig(cfg *RunnerConfig) error {
	switch cfg.ReportFormat {
	case "text", "json":
	default:
		return fmt.Errorf("report_format must be text or json, got %q", cfg.ReportFormat)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if cfg.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", cfg.MaxBatchSize)
	}
	return nil
}
