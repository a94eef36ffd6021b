package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"electcli/internal/config"
	"electcli/internal/dataprocessing"
	"electcli/internal/infrastructure"
	"electcli/internal/operations"
	"electcli/pkg/contracts"
)

// options are the command-line flags. Zero values leave the configuration untouched.
type options struct {
	configFile  string
	input       string
	sheet       string
	skip        int
	allSheets   bool
	outDir      string
	columns     string
	diagnostics string
	metrics     string
	trace       string
	bom         bool
	version     bool

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "YAML config file (defaults to config.yaml or $ELECT_CONFIG_FILE)")
	fs.StringVar(&opts.input, "in", "", "input workbook (.xlsx) or interchange file (.csv)")
	fs.StringVar(&opts.sheet, "sheet", "", "sheet to read (defaults to the first sheet)")
	fs.IntVar(&opts.skip, "skip", 0, "preamble rows above the header")
	fs.BoolVar(&opts.allSheets, "all-sheets", false, "process every sheet, one output sub-directory each")
	fs.StringVar(&opts.outDir, "out", "", "output directory")
	fs.StringVar(&opts.columns, "columns", "", "YAML column mapping overriding the built-in workbook layout")
	fs.StringVar(&opts.diagnostics, "diagnostics", "", "diagnostics CSV path (written on failure regardless)")
	fs.StringVar(&opts.metrics, "metrics", "", "Prometheus textfile to write metrics to")
	fs.StringVar(&opts.trace, "trace", "", "file to write spans to")
	fs.BoolVar(&opts.bom, "bom", false, "prefix secondary reports with a UTF-8 BOM for Excel")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// apply overlays explicitly given flags onto cfg.
func (o *options) apply(cfg *config.Config) {
	if o.set["in"] {
		cfg.Paths.InputFile = o.input
	}
	if o.set["sheet"] {
		cfg.Pipeline.Sheet = o.sheet
	}
	if o.set["skip"] {
		cfg.Pipeline.SkipRows = o.skip
	}
	if o.set["all-sheets"] {
		cfg.Pipeline.AllSheets = o.allSheets
	}
	if o.set["out"] {
		cfg.Paths.OutputDir = o.outDir
	}
	if o.set["columns"] {
		cfg.Paths.ColumnsFile = o.columns
	}
	if o.set["diagnostics"] {
		cfg.Paths.DiagnosticsFile = o.diagnostics
	}
	if o.set["metrics"] {
		cfg.Telemetry.MetricsFile = o.metrics
	}
	if o.set["trace"] {
		cfg.Telemetry.TraceFile = o.trace
	}
}

func loadConfig(o *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Paths.InputFile == "" {
		return nil, fmt.Errorf("no input file: pass -in or set %s_PATHS_INPUT_FILE", config.EnvPrefix)
	}
	return cfg, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	if opts.version {
		fmt.Fprintf(stdout, "processor %s\n", contracts.Version)
		return 0
	}

	cfg, err := loadConfig(opts)
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

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	mapping := dataprocessing.DefaultWorkbookMapping()
	if cfg.Paths.ColumnsFile != "" {
		mapping, err = dataprocessing.LoadColumnMapping(cfg.Paths.ColumnsFile)
		if err != nil {
			logger.Error("Failed to load column mapping",
				slog.String("path", cfg.Paths.ColumnsFile),
				slog.String("error", err.Error()))
			return 1
		}
	}

	outputs := operations.AllOutputs()
	outputs.Diagnostics = cfg.Paths.DiagnosticsFile != ""

	pipeline, err := operations.NewPipeline(operations.Options{
		Mapping:          mapping,
		TurnoutTolerance: cfg.Pipeline.TurnoutTolerance,
		MaxConcurrency:   cfg.Pipeline.MaxConcurrency,
		BOMPrefix:        opts.bom,
		Outputs:          outputs,
	}, logger, telemetry)
	if err != nil {
		logger.Error("Failed to create pipeline", slog.String("error", err.Error()))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureRunID(ctx)

	logger.InfoContext(ctx, "Starting election results processing",
		slog.String("version", contracts.Version),
		slog.String("input", cfg.Paths.InputFile),
		slog.String("sheet", cfg.Pipeline.Sheet),
		slog.Int("skip_rows", cfg.Pipeline.SkipRows),
		slog.Bool("all_sheets", cfg.Pipeline.AllSheets),
		slog.String("output_dir", cfg.Paths.OutputDir))

	start := time.Now()
	res, err := pipeline.Execute(ctx, operations.Request{
		InputFile: cfg.Paths.InputFile,
		Sheet:     cfg.Pipeline.Sheet,
		SkipRows:  cfg.Pipeline.SkipRows,
		AllSheets: cfg.Pipeline.AllSheets,
		Paths:     config.NewPaths(cfg.Paths.OutputDir, cfg.Paths.DiagnosticsFile),
	})
	if err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Processing failed",
			slog.Duration("duration", time.Since(start)))
		return 1
	}

	for _, sheet := range res.Sheets {
		seats := 0
		for _, st := range sheet.SeatTotals {
			seats += st.Seats
		}
		fmt.Fprintf(stdout, "%s: %d constituencies, %d seats allocated, %d rows excluded -> %s\n",
			sheet.Sheet, len(sheet.Results), seats, sheet.Report.Excluded(), sheet.Paths.OutputDir)
	}
	logger.InfoContext(ctx, "Processing completed",
		slog.Int("sheets", len(res.Sheets)),
		slog.Duration("duration", time.Since(start)))

	if sm, err := infrastructure.NewSystemMetrics(telemetry.Meter); err == nil {
		stats := sm.Collect(ctx, start)
		logger.DebugContext(ctx, "Runtime statistics", slog.Any("stats", stats.FormatStats()))
	}
	return 0
}
