package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultRunnerConfig(), cfg)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
runner:
  data_dir: /var/lib/casecheck
  report_format: json
  fail_fast: true
  max_batch_size: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/casecheck", cfg.DataDir)
	assert.Equal(t, "json", cfg.ReportFormat)
	assert.True(t, cfg.FailFast)
	assert.Equal(t, 50, cfg.MaxBatchSize)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("CC_RUNNER_REPORT_FORMAT", "json")
	t.Setenv("CC_RUNNER_MAX_BATCH_SIZE", "7")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.ReportFormat)
	assert.Equal(t, 7, cfg.MaxBatchSize)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "bad report format",
			content: "runner:\n  report_format: xml\n",
			wantMsg: "report_format",
		},
		{
			name:    "empty data dir",
			content: "runner:\n  data_dir: \"\"\n",
			wantMsg: "data_dir",
		},
		{
			name:    "non-positive batch size",
			content: "runner:\n  max_batch_size: 0\n",
			wantMsg: "max_batch_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
