// Package operations runs the election results pipeline as a sequence of
// observable steps.
//
// A run has a load step followed, per sheet, by clean, reshape, summarize and
// export. Each step has a StepState (status, timings, named counts), its own
// span, and a duration sample on pipeline_step_duration_seconds. A step that
// fails stops the sheet; the remaining steps are marked skipped and the
// diagnostics file is still written so the failing rows can be found.
//
// Batch mode runs every sheet of a workbook concurrently with errgroup, each
// sheet writing into its own sub-directory of the output directory. The first
// fatal error cancels the sheets still in flight.
//
// Example usage:
//
//	p, err := operations.NewPipeline(operations.Options{Outputs: operations.AllOutputs()}, logger, telemetry)
//	res, err := p.Execute(ctx, operations.Request{
//		InputFile: "results.xlsx",
//		Sheet:     "2019",
//		SkipRows:  2,
//		Paths:     config.NewPaths("out", ""),
//	})
package operations
