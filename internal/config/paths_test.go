package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("out", "")

	assert.Equal(t, "out", p.OutputDir)
	assert.Equal(t, filepath.Join("out", "constituencies.csv"), p.ConstituenciesCSV)
	assert.Equal(t, filepath.Join("out", "seat_totals.csv"), p.SeatTotalsCSV)
	assert.Equal(t, filepath.Join("out", "outcomes.csv"), p.OutcomesCSV)
	assert.Equal(t, filepath.Join("out", "party_results.csv"), p.PartyResultsCSV)
	assert.Equal(t, filepath.Join("out", "national_totals.csv"), p.NationalTotalsCSV)
	assert.Equal(t, filepath.Join("out", "diagnostics.csv"), p.DiagnosticsCSV)

	custom := NewPaths("out", "/tmp/report.csv")
	assert.Equal(t, "/tmp/report.csv", custom.DiagnosticsCSV)
}

func TestPaths_ForSheet(t *testing.T) {
	p := NewPaths("out", "/tmp/report.csv").ForSheet("GE 2019")

	assert.Equal(t, filepath.Join("out", "GE_2019"), p.OutputDir)
	assert.Equal(t, filepath.Join("out", "GE_2019", "seat_totals.csv"), p.SeatTotalsCSV)
	// Per-sheet diagnostics never share the batch-level override.
	assert.Equal(t, filepath.Join("out", "GE_2019", "diagnostics.csv"), p.DiagnosticsCSV)
}

func TestPaths_ForSheets(t *testing.T) {
	paths := NewPaths("out", "").ForSheets([]string{"2019 GE", "2019_GE", "2017", "2019_ge", "2019_GE_2"})

	var dirs []string
	for _, p := range paths {
		dirs = append(dirs, p.OutputDir)
	}
	assert.Equal(t, []string{
		filepath.Join("out", "2019_GE"),
		filepath.Join("out", "2019_GE_2"),
		filepath.Join("out", "2017"),
		filepath.Join("out", "2019_ge_3"),
		filepath.Join("out", "2019_GE_2_2"),
	}, dirs)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	p := NewPaths(filepath.Join(base, "a", "b"), filepath.Join(base, "diag", "d.csv"))

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.OutputDir, filepath.Join(base, "diag")} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSanitizeDirName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2019", "2019"},
		{" 1997 ", "1997"},
		{"GE 2017/18", "GE_2017_18"},
		{"..", "_"},
		{"", "sheet"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeDirName(tt.in))
		})
	}
}
