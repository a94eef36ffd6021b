// Command seats recomputes seat totals from a cleaned interchange file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"electcli/internal/config"
	"electcli/internal/infrastructure"
	"electcli/internal/operations"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("seats", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "interchange CSV written by processor (constituencies.csv)")
	out := fs.String("out", config.SeatTotalsFile, "seat totals CSV to write")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *in == "" {
		fmt.Fprintln(stderr, "seats: -in is required")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		return 1
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.EnsureRunID(context.Background())
	sheet, err := seatTotals(ctx, logger, *in, *out, cfg.Pipeline.TurnoutTolerance)
	if err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Seat totals failed", slog.String("input", *in))
		return 1
	}

	for _, st := range sheet.SeatTotals {
		fmt.Fprintf(stdout, "%s\t%d\n", st.Party, st.Seats)
	}
	return 0
}

// seatTotals re-runs the pipeline over an interchange file, writing only the seat
// totals to out. Every diagnostic is logged, including on failure, when the
// diagnostics file is also written next to out.
func seatTotals(ctx context.Context, logger *slog.Logger, in, out string, tolerance float64) (*operations.SheetResult, error) {
	pipeline, err := operations.NewPipeline(operations.Options{
		TurnoutTolerance: tolerance,
		MaxConcurrency:   1,
	}, logger, nil)
	if err != nil {
		return nil, err
	}

	paths := config.NewPaths(filepath.Dir(out), "")
	paths.SeatTotalsCSV = out

	res, err := pipeline.Execute(ctx, operations.Request{InputFile: in, Paths: paths})
	var sheet *operations.SheetResult
	if res != nil && len(res.Sheets) > 0 {
		sheet = res.Sheets[0]
		for _, d := range sheet.Report.Entries {
			logger.WarnContext(ctx, "Constituency flagged",
				slog.String("stage", d.Stage),
				slog.String("kind", string(d.Kind)),
				slog.Bool("excluded", d.Excluded),
				slog.Int("row", d.Row),
				slog.String("constituency", d.Constituency),
				slog.String("field", d.Field),
				slog.String("message", d.Message))
		}
	}
	return sheet, err
}
