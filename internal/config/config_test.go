package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"ELECT_LOGGING_LEVEL", "ELECT_LOGGING_OUTPUT", "ELECT_LOGGING_FILE_PATH",
	"ELECT_PATHS_OUTPUT_DIR", "ELECT_PATHS_INPUT_FILE",
	"ELECT_PIPELINE_SKIP_ROWS", "ELECT_PIPELINE_SHEET", "ELECT_PIPELINE_ALL_SHEETS",
	"ELECT_PIPELINE_TURNOUT_TOLERANCE", "ELECT_PIPELINE_MAX_CONCURRENCY",
	"ELECT_TELEMETRY_METRICS_FILE",
}

// clearEnv unsets every variable the tests touch and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range configEnvVars {
		name := name
		if val, ok := os.LookupEnv(name); ok {
			t.Cleanup(func() { os.Setenv(name, val) })
		} else {
			t.Cleanup(func() { os.Unsetenv(name) })
		}
		os.Unsetenv(name)
	}
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(t *testing.T)
		fileContent string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, "data/reports", cfg.Paths.OutputDir)
				assert.Equal(t, 3, cfg.Pipeline.SkipRows)
				assert.Equal(t, 0.01, cfg.Pipeline.TurnoutTolerance)
				assert.Equal(t, 4, cfg.Pipeline.MaxConcurrency)
				assert.False(t, cfg.Pipeline.AllSheets)
				assert.Equal(t, "electcli", cfg.Telemetry.ServiceName)
			},
		},
		{
			name: "environment overrides defaults",
			setupEnv: func(t *testing.T) {
				t.Setenv("ELECT_LOGGING_LEVEL", "DEBUG")
				t.Setenv("ELECT_PIPELINE_SKIP_ROWS", "5")
				t.Setenv("ELECT_PIPELINE_SHEET", "2019")
				t.Setenv("ELECT_PIPELINE_ALL_SHEETS", "true")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 5, cfg.Pipeline.SkipRows)
				assert.Equal(t, "2019", cfg.Pipeline.Sheet)
				assert.True(t, cfg.Pipeline.AllSheets)
			},
		},
		{
			name: "file values are kept unless env overrides them",
			fileContent: `
paths:
  output_dir: out/elections
pipeline:
  skip_rows: 2
  max_concurrency: 8
`,
			setupEnv: func(t *testing.T) {
				t.Setenv("ELECT_PIPELINE_MAX_CONCURRENCY", "2")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "out/elections", cfg.Paths.OutputDir)
				assert.Equal(t, 2, cfg.Pipeline.SkipRows)
				assert.Equal(t, 2, cfg.Pipeline.MaxConcurrency)
				assert.Equal(t, 0.01, cfg.Pipeline.TurnoutTolerance)
			},
		},
		{
			name: "negative skip rows is rejected",
			setupEnv: func(t *testing.T) {
				t.Setenv("ELECT_PIPELINE_SKIP_ROWS", "-1")
			},
			wantErr: true,
		},
		{
			name: "unknown log level is rejected",
			setupEnv: func(t *testing.T) {
				t.Setenv("ELECT_LOGGING_LEVEL", "verbose")
			},
			wantErr: true,
		},
		{
			name: "file output requires a file path",
			setupEnv: func(t *testing.T) {
				t.Setenv("ELECT_LOGGING_OUTPUT", "file")
				t.Setenv("ELECT_LOGGING_FILE_PATH", "")
			},
			wantErr: true,
		},
		{
			name: "non numeric env value is rejected",
			setupEnv: func(t *testing.T) {
				t.Setenv("ELECT_PIPELINE_SKIP_ROWS", "three")
			},
			wantErr: true,
		},
		{
			name:        "malformed yaml is rejected",
			fileContent: "pipeline: [unterminated",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.setupEnv != nil {
				tt.setupEnv(t)
			}

			configFile := ""
			if tt.fileContent != "" {
				configFile = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.fileContent), 0644))
			}

			cfg, err := LoadFile(configFile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
