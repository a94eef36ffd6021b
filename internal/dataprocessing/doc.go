// Package dataprocessing implements the election results pipeline stages.
//
// # Stages
//
//  1. Loader: reads a workbook sheet (or an interchange CSV) into a domain.RawTable,
//     dropping the preamble rows above the header.
//  2. Clean: resolves a ColumnMapping against the header and turns each record into a
//     domain.ConstituencyResult, excluding bad rows with a diagnostic.
//  3. Reshape and NationalTotals: wide to long form with vote share and rank, and the
//     per-party national sums.
//  4. Summarizer: winner, runner-up and majority per constituency, then seats per party.
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger)
//	table, err := loader.LoadWorkbook(ctx, "results.xlsx", dataprocessing.LoadOptions{Sheet: "2019", SkipRows: 3})
//	if err != nil {
//	    return err
//	}
//	cleaned, err := dataprocessing.Clean(table, dataprocessing.DefaultWorkbookMapping(), dataprocessing.CleanOptions{})
//	long := dataprocessing.Reshape(cleaned.Results, domain.Parties())
//	outcomes, err := dataprocessing.NewSummarizer(logger).Summarize(ctx, long.Rows)
//
// # Column identity
//
// The source sheet repeats the label "Votes" once per party, so columns are never
// looked up by label alone. A ColumnRef names a label and its occurrence (or a fixed
// position) and is resolved to an index once per table.
//
// # Missing votes
//
// An empty party cell means the party did not stand. It is kept as a nil entry and
// never counted as zero votes.
package dataprocessing
