// Package exporter writes the pipeline's tables as CSV files.
//
// CSVWriter: core CSV writing with headers, streaming and an optional UTF-8 BOM
// for Excel compatibility. Failures are STORAGE errors carrying the file path.
//
// ResultsExporter: one method per output table. The interchange file
// (constituencies.csv) has a fixed header and writes a party that did not stand
// as an empty cell, so it can be loaded and cleaned again with
// dataprocessing.InterchangeMapping and give back the same table.
//
// Example usage:
//
//	exp := exporter.NewResultsExporter("data/reports", logger, exporter.Options{})
//	err := exp.ExportConstituencies("constituencies.csv", cleaned.Results)
//	err = exp.ExportSeatTotals("seat_totals.csv", seats)
package exporter
