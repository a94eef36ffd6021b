package operations

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"electcli/internal/config"
	"electcli/internal/dataprocessing"
	apperrors "electcli/internal/errors"
	"electcli/internal/exporter"
	"electcli/internal/infrastructure"
	"electcli/internal/validation"
	"electcli/pkg/contracts/domain"
)

// Outputs selects the optional files of a run. Seat totals are always written.
type Outputs struct {
	Constituencies bool
	Outcomes       bool
	PartyResults   bool
	NationalTotals bool
	Diagnostics    bool
}

// AllOutputs enables every file.
func AllOutputs() Outputs {
	return Outputs{
		Constituencies: true,
		Outcomes:       true,
		PartyResults:   true,
		NationalTotals: true,
		Diagnostics:    true,
	}
}

// Options configures a Pipeline.
type Options struct {
	// Mapping is used for workbook input. An empty mapping selects
	// dataprocessing.DefaultWorkbookMapping. CSV input always uses the interchange mapping.
	Mapping          dataprocessing.ColumnMapping
	TurnoutTolerance float64
	// MaxConcurrency bounds the sheets processed at once in batch mode.
	MaxConcurrency int
	BOMPrefix      bool
	Outputs        Outputs
}

// Request describes one run.
type Request struct {
	InputFile string
	Sheet     string
	SkipRows  int
	AllSheets bool
	Paths     *config.Paths
}

// RunResult is everything a run produced, one SheetResult per processed sheet.
type RunResult struct {
	RunID    string
	Input    validation.InputKind
	LoadStep *StepState
	Sheets   []*SheetResult
}

// SheetResult holds the tables and step states of one sheet.
type SheetResult struct {
	Sheet          string
	Paths          *config.Paths
	Steps          []*StepState
	Report         domain.DiagnosticReport
	Results        []domain.ConstituencyResult
	PartyResults   []domain.PartyResult
	Outcomes       []domain.ConstituencyOutcome
	SeatTotals     []domain.SeatTotal
	NationalTotals []domain.PartyTotal
	Footers        int
}

// Step returns the state of the named step, or nil.
func (r *SheetResult) Step(id string) *StepState {
	for _, s := range r.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Pipeline runs Loader, Cleaner, Reshaper, Summarizer and the exporters in order.
type Pipeline struct {
	opts       Options
	logger     *slog.Logger
	tracer     *PipelineTracer
	loader     *dataprocessing.Loader
	summarizer *dataprocessing.Summarizer
	validator  *validation.FileValidator
}

// NewPipeline creates a pipeline. A nil telemetry runs with no-op tracing and metrics.
func NewPipeline(opts Options, logger *slog.Logger, telemetry *infrastructure.Telemetry) (*Pipeline, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if len(opts.Mapping.Parties) == 0 {
		opts.Mapping = dataprocessing.DefaultWorkbookMapping()
	}
	if err := opts.Mapping.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = runtime.NumCPU()
	}

	tracer, err := NewPipelineTracer(telemetry)
	if err != nil {
		return nil, err
	}

	logger = infrastructure.WithComponent(logger, "pipeline")
	return &Pipeline{
		opts:       opts,
		logger:     logger,
		tracer:     tracer,
		loader:     dataprocessing.NewLoader(logger),
		summarizer: dataprocessing.NewSummarizer(logger),
		validator:  validation.NewFileValidator(logger),
	}, nil
}

// Execute validates the input, loads it and processes one sheet, or every sheet
// of the workbook when AllSheets is set. The returned result is non-nil whenever
// loading got far enough to produce sheet results, including on error.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*RunResult, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	result := &RunResult{
		RunID:    infrastructure.GetRunID(ctx),
		LoadStep: NewStepState(StepLoad, req.Sheet),
	}

	ctx, span := p.tracer.TraceRun(ctx, result.RunID, req.InputFile)
	defer span.End()

	if req.Paths == nil {
		return result, apperrors.NewConfigError("no output paths given", nil)
	}
	if err := p.validator.ValidateOutputDirectory(req.Paths.OutputDir); err != nil {
		return result, err
	}
	req.Paths.LogPathResolution(p.logger)

	kind, err := p.validator.ValidateInput(req.InputFile)
	if err != nil {
		return result, err
	}
	result.Input = kind

	mapping := p.opts.Mapping
	if kind == validation.InputCSV {
		mapping = dataprocessing.InterchangeMapping()
	}

	var tables []*domain.RawTable
	err = p.runStep(ctx, result.LoadStep, func(ctx context.Context) error {
		var loadErr error
		tables, loadErr = p.load(ctx, kind, req)
		if loadErr != nil {
			return loadErr
		}
		rows := 0
		for _, t := range tables {
			rows += len(t.Records)
			p.tracer.RecordRowsLoaded(ctx, t.Sheet, len(t.Records))
		}
		result.LoadStep.SetCount("sheets", len(tables))
		result.LoadStep.SetCount("rows", rows)
		return nil
	})
	if err != nil {
		return result, err
	}

	if len(tables) == 0 {
		return result, apperrors.NewFormatError("workbook has no sheets", nil).
			WithContext(apperrors.CtxPath, req.InputFile)
	}
	if req.AllSheets && kind == validation.InputWorkbook {
		result.Sheets, err = p.RunBatch(ctx, tables, mapping, req.Paths)
		return result, err
	}

	sheet, err := p.runSheet(ctx, tables[0], mapping, req.Paths)
	result.Sheets = []*SheetResult{sheet}
	return result, err
}

func (p *Pipeline) load(ctx context.Context, kind validation.InputKind, req Request) ([]*domain.RawTable, error) {
	switch {
	case kind == validation.InputCSV:
		// The interchange header is always the first line; SkipRows is a workbook setting.
		table, err := p.loader.LoadCSV(ctx, req.InputFile, 0)
		if err != nil {
			return nil, err
		}
		return []*domain.RawTable{table}, nil
	case req.AllSheets:
		return p.loader.LoadSheets(ctx, req.InputFile, req.SkipRows)
	default:
		table, err := p.loader.LoadWorkbook(ctx, req.InputFile, dataprocessing.LoadOptions{
			Sheet:    req.Sheet,
			SkipRows: req.SkipRows,
		})
		if err != nil {
			return nil, err
		}
		return []*domain.RawTable{table}, nil
	}
}

// RunSheet processes one loaded table with the pipeline's mapping.
func (p *Pipeline) RunSheet(ctx context.Context, table *domain.RawTable, paths *config.Paths) (*SheetResult, error) {
	return p.runSheet(infrastructure.EnsureRunID(ctx), table, p.opts.Mapping, paths)
}

// RunBatch processes each table concurrently, writing into one sub-directory of
// paths per sheet. Sheet names that would share a directory get a numeric suffix. The first fatal error cancels the sheets still running; results
// are returned in table order either way.
func (p *Pipeline) RunBatch(ctx context.Context, tables []*domain.RawTable, mapping dataprocessing.ColumnMapping, paths *config.Paths) ([]*SheetResult, error) {
	results := make([]*SheetResult, len(tables))

	names := make([]string, len(tables))
	for i, table := range tables {
		names[i] = table.Sheet
	}
	sheetPaths := paths.ForSheets(names)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxConcurrency)

	for i, table := range tables {
		i, table := i, table
		g.Go(func() error {
			res, err := p.runSheet(gctx, table, mapping, sheetPaths[i])
			results[i] = res
			if err != nil {
				if appErr, ok := apperrors.AsAppError(err); ok {
					appErr.WithContext(apperrors.CtxSheet, table.Sheet)
				}
				return fmt.Errorf("sheet %q: %w", table.Sheet, err)
			}
			return nil
		})
	}

	err := g.Wait()
	p.logger.InfoContext(ctx, "Batch completed",
		slog.Int("sheets", len(tables)),
		slog.Bool("success", err == nil))
	return results, err
}

// runSheet runs clean, reshape, summarize and export for one table. The
// diagnostics file is written even when a step fails.
func (p *Pipeline) runSheet(ctx context.Context, table *domain.RawTable, mapping dataprocessing.ColumnMapping, paths *config.Paths) (*SheetResult, error) {
	ctx = infrastructure.WithSheet(ctx, table.Sheet)
	res := &SheetResult{
		Sheet: table.Sheet,
		Paths: paths,
		Steps: []*StepState{
			NewStepState(StepClean, table.Sheet),
			NewStepState(StepReshape, table.Sheet),
			NewStepState(StepSummarize, table.Sheet),
			NewStepState(StepExport, table.Sheet),
		},
	}

	if err := paths.EnsureDirectories(); err != nil {
		return res, apperrors.NewStorageError("failed to create output directories", err).
			WithContext(apperrors.CtxPath, paths.OutputDir)
	}
	exp := exporter.NewResultsExporter("", p.logger, exporter.Options{BOMPrefix: p.opts.BOMPrefix})

	err := p.process(ctx, table, mapping, res, exp)
	for _, s := range res.Steps {
		if s.GetStatus() == StepStatusPending {
			s.Skip("earlier step failed")
		}
	}

	p.tracer.RecordDiagnostics(ctx, res.Report.Entries)
	if p.opts.Outputs.Diagnostics || err != nil {
		if werr := exp.ExportDiagnostics(paths.DiagnosticsCSV, res.Report.Entries); werr != nil {
			p.logger.ErrorContext(ctx, "Failed to write diagnostics",
				slog.String("path", paths.DiagnosticsCSV),
				slog.String("error", werr.Error()))
			if err == nil {
				err = werr
			}
		}
	}

	p.logSheetSummary(ctx, res, err)
	return res, err
}

func (p *Pipeline) process(ctx context.Context, table *domain.RawTable, mapping dataprocessing.ColumnMapping, res *SheetResult, exp *exporter.ResultsExporter) error {
	parties := mapping.PartyList()

	err := p.runStep(ctx, res.Step(StepClean), func(ctx context.Context) error {
		cleaned, err := dataprocessing.Clean(table, mapping, dataprocessing.CleanOptions{
			TurnoutTolerance: p.opts.TurnoutTolerance,
		})
		if cleaned != nil {
			res.Results = cleaned.Results
			res.Footers = cleaned.Footers
			res.Report.Add(cleaned.Diagnostics...)
			p.recordCleanExclusions(ctx, cleaned)

			step := res.Step(StepClean)
			step.SetCount("rows_in", len(table.Records))
			step.SetCount("rows_out", len(cleaned.Results))
			step.SetCount("footers", cleaned.Footers)
			step.SetCount("excluded", cleaned.Excluded())
		}
		return err
	})
	if err != nil {
		return err
	}

	err = p.runStep(ctx, res.Step(StepReshape), func(ctx context.Context) error {
		reshaped := dataprocessing.Reshape(res.Results, parties)
		res.PartyResults = reshaped.Rows
		res.Report.Add(reshaped.Diagnostics...)
		res.NationalTotals = dataprocessing.NationalTotals(res.Results, parties)
		p.tracer.RecordExcluded(ctx, ReasonZeroTotal, reshaped.ZeroTotal)
		p.tracer.RecordExcluded(ctx, ReasonNoCandidates, reshaped.NoCandidates)

		step := res.Step(StepReshape)
		step.SetCount("rows_out", len(reshaped.Rows))
		step.SetCount("zero_total", reshaped.ZeroTotal)
		step.SetCount("no_candidates", reshaped.NoCandidates)
		return nil
	})
	if err != nil {
		return err
	}

	err = p.runStep(ctx, res.Step(StepSummarize), func(ctx context.Context) error {
		outcomes, err := p.summarizer.Summarize(ctx, res.PartyResults)
		if err != nil {
			return err
		}
		seats, err := p.summarizer.SeatTotals(ctx, outcomes)
		if err != nil {
			return err
		}
		res.Outcomes = outcomes
		res.SeatTotals = seats
		p.tracer.RecordSeats(ctx, seats)

		step := res.Step(StepSummarize)
		step.SetCount("constituencies", len(outcomes))
		step.SetCount("parties_with_seats", len(seats))
		return nil
	})
	if err != nil {
		return err
	}

	return p.runStep(ctx, res.Step(StepExport), func(ctx context.Context) error {
		return p.export(ctx, exp, res)
	})
}

func (p *Pipeline) export(ctx context.Context, exp *exporter.ResultsExporter, res *SheetResult) error {
	files := 0
	out := p.opts.Outputs

	if out.Constituencies {
		if err := exp.ExportConstituencies(res.Paths.ConstituenciesCSV, res.Results); err != nil {
			return err
		}
		files++
	}
	if err := exp.ExportSeatTotals(res.Paths.SeatTotalsCSV, res.SeatTotals); err != nil {
		return err
	}
	files++
	if out.Outcomes {
		if err := exp.ExportOutcomes(res.Paths.OutcomesCSV, res.Outcomes); err != nil {
			return err
		}
		files++
	}
	if out.PartyResults {
		if err := exp.ExportPartyResults(res.Paths.PartyResultsCSV, res.PartyResults); err != nil {
			return err
		}
		files++
	}
	if out.NationalTotals {
		if err := exp.ExportNationalTotals(res.Paths.NationalTotalsCSV, res.NationalTotals); err != nil {
			return err
		}
		files++
	}

	res.Step(StepExport).SetCount("files", files)
	p.logger.DebugContext(ctx, "Outputs written",
		slog.String("output_dir", res.Paths.OutputDir),
		slog.Int("files", files))
	return nil
}

func (p *Pipeline) recordCleanExclusions(ctx context.Context, cleaned *dataprocessing.CleanResult) {
	duplicates := 0
	for _, d := range cleaned.Diagnostics {
		if d.Excluded && d.Kind == domain.DiagnosticAggregation {
			duplicates++
		}
	}
	p.tracer.RecordExcluded(ctx, ReasonFooter, cleaned.Footers)
	p.tracer.RecordExcluded(ctx, ReasonDuplicate, duplicates)
	p.tracer.RecordExcluded(ctx, ReasonInvalidValue, cleaned.Excluded()-cleaned.Footers-duplicates)
}

// runStep executes fn as one traced, timed step. A cancelled context skips the step.
func (p *Pipeline) runStep(ctx context.Context, state *StepState, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		state.Skip("run cancelled")
		return err
	}

	ctx, span := p.tracer.TraceStep(ctx, state.ID, state.Sheet)
	defer span.End()

	logger := p.logger.With(slog.String("step", state.ID))
	logger.DebugContext(ctx, "Step started")

	state.Start()
	err := fn(ctx)
	if err != nil {
		state.Fail(err)
	} else {
		state.Complete()
	}
	p.tracer.RecordStepCompletion(ctx, span, state, err)

	if err != nil {
		attrs := []any{slog.Duration("duration", state.Duration())}
		if appErr, ok := apperrors.AsAppError(err); ok {
			attrs = append(attrs, slog.String("error_type", string(appErr.Type)))
		}
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Step failed", attrs...)
		return err
	}

	logger.InfoContext(ctx, "Step completed",
		slog.Duration("duration", state.Duration()),
		slog.Any("counts", state.CountsSnapshot()))
	return nil
}

func (p *Pipeline) logSheetSummary(ctx context.Context, res *SheetResult, err error) {
	byKind := res.Report.ByKind()
	attrs := []any{
		slog.Int("constituencies", len(res.Results)),
		slog.Int("party_results", len(res.PartyResults)),
		slog.Int("outcomes", len(res.Outcomes)),
		slog.Int("footers", res.Footers),
		slog.Int("excluded", res.Report.Excluded()),
		slog.Int("warnings", byKind[domain.DiagnosticWarning]),
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "Sheet failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	p.logger.InfoContext(ctx, "Sheet completed", attrs...)
}
