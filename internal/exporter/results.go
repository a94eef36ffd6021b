package exporter

import (
	"log/slog"
	"strconv"

	"electcli/internal/dataprocessing"
	"electcli/pkg/contracts/domain"
)

// Options for ResultsExporter.
type Options struct {
	// BOMPrefix adds a UTF-8 BOM to the secondary reports so Excel opens them as UTF-8.
	// The interchange file never gets one, so it re-reads byte for byte.
	BOMPrefix bool
}

// ResultsExporter writes every table the pipeline produces.
type ResultsExporter struct {
	csvWriter *CSVWriter
	opts      Options
}

// NewResultsExporter creates an exporter resolving relative paths under baseDir.
func NewResultsExporter(baseDir string, logger *slog.Logger, opts Options) *ResultsExporter {
	return &ResultsExporter{
		csvWriter: NewCSVWriter(baseDir, logger),
		opts:      opts,
	}
}

// InterchangeHeaders is the fixed header of the cleaned constituency file.
func InterchangeHeaders() []string {
	headers := []string{
		dataprocessing.ColConstituency,
		dataprocessing.ColCountry,
		dataprocessing.ColElectorate,
		dataprocessing.ColTurnout,
		dataprocessing.ColTotalVotes,
	}
	for _, p := range domain.Parties() {
		headers = append(headers, string(p))
	}
	return headers
}

// ExportConstituencies writes the interchange file, one row per constituency in input order.
func (e *ResultsExporter) ExportConstituencies(path string, results []domain.ConstituencyResult) error {
	parties := domain.Parties()
	records := make([][]string, 0, len(results))
	for _, r := range results {
		row := []string{
			r.Constituency,
			r.Country,
			formatInt(r.Electorate),
			formatFloat(r.Turnout),
			formatInt(r.TotalVotes),
		}
		for _, p := range parties {
			row = append(row, formatVotes(r.Votes[p]))
		}
		records = append(records, row)
	}
	return e.csvWriter.WriteCSV(path, WriteOptions{Headers: InterchangeHeaders(), Records: records})
}

// ExportSeatTotals writes Party,Seats in the order given.
func (e *ResultsExporter) ExportSeatTotals(path string, totals []domain.SeatTotal) error {
	records := make([][]string, 0, len(totals))
	for _, t := range totals {
		if t.Seats < 1 {
			continue
		}
		records = append(records, []string{string(t.Party), strconv.Itoa(t.Seats)})
	}
	return e.csvWriter.WriteCSV(path, WriteOptions{
		Headers: []string{"Party", "Seats"},
		Records: records,
	})
}

// ExportOutcomes writes winner, runner-up and majority per constituency.
func (e *ResultsExporter) ExportOutcomes(path string, outcomes []domain.ConstituencyOutcome) error {
	records := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		records = append(records, []string{
			o.Constituency,
			string(o.Winner),
			formatShare(o.WinnerShare),
			string(o.RunnerUp),
			formatShare(o.RunnerUpShare),
			formatShare(o.Majority),
		})
	}
	return e.csvWriter.WriteCSV(path, WriteOptions{
		Headers:   []string{"Constituency", "Winner", "Winner share", "Runner-up", "Runner-up share", "Majority"},
		Records:   records,
		BOMPrefix: e.opts.BOMPrefix,
	})
}

// ExportPartyResults streams the long-form table. Shares are written unrounded.
func (e *ResultsExporter) ExportPartyResults(path string, rows []domain.PartyResult) error {
	stream, err := e.csvWriter.CreateStreamWriter(path,
		[]string{"Constituency", "Party", "Votes", "Share", "Rank"}, e.opts.BOMPrefix)
	if err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.Constituency, string(r.Party), formatInt(r.Votes), formatFloat(r.Share), strconv.Itoa(r.Rank)}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return err
		}
	}
	return stream.Close()
}

// ExportNationalTotals writes Party,Votes in the order given.
func (e *ResultsExporter) ExportNationalTotals(path string, totals []domain.PartyTotal) error {
	records := make([][]string, 0, len(totals))
	for _, t := range totals {
		records = append(records, []string{string(t.Party), formatInt(t.Votes)})
	}
	return e.csvWriter.WriteCSV(path, WriteOptions{
		Headers:   []string{"Party", "Votes"},
		Records:   records,
		BOMPrefix: e.opts.BOMPrefix,
	})
}

// ExportDiagnostics writes the diagnostic report. A zero row number is left blank.
func (e *ResultsExporter) ExportDiagnostics(path string, diagnostics []domain.Diagnostic) error {
	records := make([][]string, 0, len(diagnostics))
	for _, d := range diagnostics {
		row := ""
		if d.Row > 0 {
			row = strconv.Itoa(d.Row)
		}
		records = append(records, []string{
			d.Stage,
			string(d.Kind),
			row,
			d.Constituency,
			d.Field,
			d.Value,
			formatBool(d.Excluded),
			d.Message,
		})
	}
	return e.csvWriter.WriteCSV(path, WriteOptions{
		Headers:   []string{"Stage", "Kind", "Row", "Constituency", "Field", "Value", "Excluded", "Message"},
		Records:   records,
		BOMPrefix: e.opts.BOMPrefix,
	})
}
