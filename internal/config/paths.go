package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Well-known output file names. Only the interchange and seat totals files are
// always written; the rest are written when the pipeline produces them.
const (
	ConstituenciesFile = "constituencies.csv"
	SeatTotalsFile     = "seat_totals.csv"
	OutcomesFile       = "outcomes.csv"
	PartyResultsFile   = "party_results.csv"
	NationalTotalsFile = "national_totals.csv"
	DiagnosticsFile    = "diagnostics.csv"
)

// Paths contains every output path of one pipeline run.
type Paths struct {
	OutputDir string

	ConstituenciesCSV string
	SeatTotalsCSV     string
	OutcomesCSV       string
	PartyResultsCSV   string
	NationalTotalsCSV string
	DiagnosticsCSV    string
}

// NewPaths lays out the output files under outputDir.
// An explicit diagnostics path overrides the default location.
func NewPaths(outputDir, diagnosticsFile string) *Paths {
	p := &Paths{
		OutputDir:         outputDir,
		ConstituenciesCSV: filepath.Join(outputDir, ConstituenciesFile),
		SeatTotalsCSV:     filepath.Join(outputDir, SeatTotalsFile),
		OutcomesCSV:       filepath.Join(outputDir, OutcomesFile),
		PartyResultsCSV:   filepath.Join(outputDir, PartyResultsFile),
		NationalTotalsCSV: filepath.Join(outputDir, NationalTotalsFile),
		DiagnosticsCSV:    filepath.Join(outputDir, DiagnosticsFile),
	}
	if diagnosticsFile != "" {
		p.DiagnosticsCSV = diagnosticsFile
	}
	return p
}

// ForSheet returns the paths for one sheet of a batch run, in a sub-directory
// named after the sheet.
func (p *Paths) ForSheet(sheet string) *Paths {
	return NewPaths(filepath.Join(p.OutputDir, SanitizeDirName(sheet)), "")
}

// ForSheets is ForSheet for every sheet of a batch run. Sheets whose names sanitize
// to the same directory, compared case-insensitively, get a numeric suffix in
// sheet order: "2019_GE", "2019_GE_2", ...
func (p *Paths) ForSheets(sheets []string) []*Paths {
	taken := make(map[string]bool, len(sheets))
	out := make([]*Paths, len(sheets))
	for i, sheet := range sheets {
		base := SanitizeDirName(sheet)
		dir := base
		for n := 2; taken[strings.ToLower(dir)]; n++ {
			dir = fmt.Sprintf("%s_%d", base, n)
		}
		taken[strings.ToLower(dir)] = true
		out[i] = NewPaths(filepath.Join(p.OutputDir, dir), "")
	}
	return out
}

// EnsureDirectories creates the output directory if it doesn't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.OutputDir, filepath.Dir(p.DiagnosticsCSV)}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs all resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Resolved output paths",
		slog.String("output_dir", p.OutputDir),
		slog.String("constituencies", p.ConstituenciesCSV),
		slog.String("seat_totals", p.SeatTotalsCSV),
		slog.String("diagnostics", p.DiagnosticsCSV))
}

// SanitizeDirName turns a sheet name into a safe directory name.
func SanitizeDirName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "sheet"
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_", "..", "_")
	return replacer.Replace(name)
}
