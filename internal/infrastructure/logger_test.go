package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"electcli/internal/config"
)

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger is nil")
	}
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}

	logger.Info("test message", "key", "value")

	// Close log file to allow reading on Windows
	CloseLogFile()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var logEntry map[string]interface{}
	if err := json.Unmarshal(content, &logEntry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v", err)
	}
	if logEntry["msg"] != "test message" {
		t.Errorf("Expected msg='test message', got %v", logEntry["msg"])
	}
	if logEntry["key"] != "value" {
		t.Errorf("Expected key='value', got %v", logEntry["key"])
	}
	if logEntry["level"] != "INFO" {
		t.Errorf("Expected level='INFO', got %v", logEntry["level"])
	}
}

func TestInitializeLogger_BadFilePath(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	// A regular file cannot be used as the log directory.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: filepath.Join(blocker, "app.log"),
	})
	if err == nil {
		t.Fatal("expected an error for an unusable log path")
	}
}

func TestRunIDAndSheetInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug")

	ctx := WithRunID(context.Background(), "run-42")
	ctx = WithSheet(ctx, "2019")
	logger.InfoContext(ctx, "sheet started")
	logger.InfoContext(context.Background(), "no context")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	var withCtx, without map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &withCtx); err != nil {
		t.Fatalf("Failed to parse log JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &without); err != nil {
		t.Fatalf("Failed to parse log JSON: %v", err)
	}

	if withCtx["run_id"] != "run-42" {
		t.Errorf("Expected run_id='run-42', got %v", withCtx["run_id"])
	}
	if withCtx["sheet"] != "2019" {
		t.Errorf("Expected sheet='2019', got %v", withCtx["sheet"])
	}
	if _, ok := without["run_id"]; ok {
		t.Error("run_id must not be added without a context value")
	}
}

func TestRunIDSurvivesWith(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(NewLogger(&buf, "info"), "pipeline")

	ctx := EnsureRunID(context.Background())
	logger.InfoContext(ctx, "step")

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Failed to parse log JSON: %v", err)
	}
	if entry["component"] != "pipeline" {
		t.Errorf("Expected component='pipeline', got %v", entry["component"])
	}
	if entry["run_id"] != GetRunID(ctx) {
		t.Errorf("Expected run_id=%s, got %v", GetRunID(ctx), entry["run_id"])
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := parseLogLevel(tt.level); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn message should be logged at warn level")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	if GetRunID(ctx) != "" {
		t.Error("Expected empty run ID")
	}
	if GetSheet(ctx) != "" {
		t.Error("Expected empty sheet")
	}

	ctx = EnsureRunID(ctx)
	first := GetRunID(ctx)
	if first == "" {
		t.Fatal("EnsureRunID did not set a run ID")
	}
	if GetRunID(EnsureRunID(ctx)) != first {
		t.Error("EnsureRunID must keep an existing run ID")
	}
	if GenerateRunID() == GenerateRunID() {
		t.Error("run IDs must be unique")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	if WithError(logger, nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}

	WithError(logger, errors.New("disk full")).Error("write failed")
	if !strings.Contains(buf.String(), `"error":"disk full"`) {
		t.Errorf("error attribute missing: %s", buf.String())
	}
}
