package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "electcli/internal/errors"
	"electcli/pkg/contracts/domain"
)

const utf8BOM = "\ufeff"

// LoadOptions selects the sheet to read and how many preamble rows sit above the header.
// An empty Sheet means the first sheet of the workbook.
type LoadOptions struct {
	Sheet    string
	SkipRows int
}

// Loader reads raw tables from workbooks and CSV files. It never interprets cell values.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader that logs through logger.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadWorkbook reads one sheet of an xlsx workbook.
func (l *Loader) LoadWorkbook(ctx context.Context, path string, opts LoadOptions) (*domain.RawTable, error) {
	f, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet, appErr := pickSheet(f, opts.Sheet)
	if appErr != nil {
		return nil, appErr.WithContext(apperrors.CtxPath, path)
	}
	return l.readSheet(ctx, f, path, sheet, opts.SkipRows)
}

// LoadSheets reads every sheet of a workbook with the same skip offset, in workbook order.
// A sheet that cannot be read fails the whole call.
func (l *Loader) LoadSheets(ctx context.Context, path string, skipRows int) ([]*domain.RawTable, error) {
	f, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	tables := make([]*domain.RawTable, 0, len(sheets))
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, err := l.readSheet(ctx, f, path, sheet, skipRows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// LoadCSV reads a comma-separated file. A leading UTF-8 BOM is ignored.
func (l *Loader) LoadCSV(ctx context.Context, path string, skipRows int) (*domain.RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewFormatError("failed to open csv file", err).
			WithContext(apperrors.CtxPath, path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewFormatError("failed to parse csv file", err).
				WithContext(apperrors.CtxPath, path)
		}
		rows = append(rows, record)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}

	table, appErr := buildTable(path, "", rows, skipRows)
	if appErr != nil {
		return nil, appErr.WithContext(apperrors.CtxPath, path)
	}
	l.logLoaded(ctx, table)
	return table, nil
}

func (l *Loader) readSheet(ctx context.Context, f *excelize.File, path, sheet string, skipRows int) (*domain.RawTable, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewFormatError("failed to read sheet", err).
			WithContext(apperrors.CtxPath, path).
			WithContext(apperrors.CtxSheet, sheet)
	}

	table, appErr := buildTable(path, sheet, rows, skipRows)
	if appErr != nil {
		return nil, appErr.WithContext(apperrors.CtxPath, path).WithContext(apperrors.CtxSheet, sheet)
	}
	l.logLoaded(ctx, table)
	return table, nil
}

func (l *Loader) logLoaded(ctx context.Context, table *domain.RawTable) {
	l.logger.InfoContext(ctx, "Loaded raw table",
		slog.String("source", filepath.Base(table.Source)),
		slog.String("sheet", table.Sheet),
		slog.Int("header_row", table.HeaderRow),
		slog.Int("columns", len(table.Header)),
		slog.Int("records", len(table.Records)))
}

func openWorkbook(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewFormatError("failed to open workbook", err).
			WithContext(apperrors.CtxPath, path)
	}
	return f, nil
}

// pickSheet returns the named sheet, or the first sheet when name is empty.
// Names are matched exactly first and then ignoring surrounding space and case,
// since workbook tab names often carry stray whitespace.
func pickSheet(f *excelize.File, name string) (string, *apperrors.AppError) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", apperrors.NewFormatError("workbook has no sheets", nil)
	}
	if name == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == name {
			return s, nil
		}
	}
	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return "", apperrors.NewFormatError(
		fmt.Sprintf("sheet not found (available: %s)", strings.Join(sheets, ", ")), nil).
		WithContext(apperrors.CtxSheet, name)
}

// buildTable drops the preamble, takes the next row as header and keeps every
// non-blank row below it. Row numbers are 1-based positions in the source.
func buildTable(source, sheet string, rows [][]string, skipRows int) (*domain.RawTable, *apperrors.AppError) {
	if skipRows < 0 {
		return nil, apperrors.NewFormatError("skip offset must not be negative", nil).
			WithContext(apperrors.CtxRow, skipRows)
	}
	if skipRows >= len(rows) {
		return nil, apperrors.NewFormatError(
			fmt.Sprintf("skip offset %d leaves no header row in %d rows", skipRows, len(rows)), nil)
	}

	header := make([]string, len(rows[skipRows]))
	for i, h := range rows[skipRows] {
		header[i] = strings.TrimSpace(h)
	}
	if isBlank(header) {
		return nil, apperrors.NewFormatError("header row is empty", nil).
			WithContext(apperrors.CtxRow, skipRows+1)
	}

	table := &domain.RawTable{
		Source:    source,
		Sheet:     sheet,
		HeaderRow: skipRows + 1,
		Header:    header,
	}
	for i := skipRows + 1; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		table.Records = append(table.Records, domain.RawRecord{Row: i + 1, Cells: rows[i]})
	}
	return table, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
