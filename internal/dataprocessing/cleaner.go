package dataprocessing

import (
	stderrors "errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "electcli/internal/errors"
	"electcli/pkg/contracts/domain"
)

// Pipeline stage names as they appear in diagnostics.
const (
	StageLoad      = "load"
	StageClean     = "clean"
	StageReshape   = "reshape"
	StageSummarize = "summarize"
)

// DefaultTurnoutTolerance is the allowed gap between total votes and
// electorate × turnout, as a fraction of the electorate.
const DefaultTurnoutTolerance = 0.01

var resultValidator = validator.New()

// validatorFieldLabels maps struct field names back to source column labels.
var validatorFieldLabels = map[string]string{
	"Constituency": ColConstituency,
	"Country":      ColCountry,
	"Electorate":   ColElectorate,
	"Turnout":      ColTurnout,
	"TotalVotes":   ColTotalVotes,
}

// CleanOptions tunes the consistency checks of Clean.
type CleanOptions struct {
	// TurnoutTolerance of zero selects DefaultTurnoutTolerance.
	TurnoutTolerance float64
}

// CleanResult holds the cleaned constituencies in source order and everything
// that was dropped or flagged on the way.
type CleanResult struct {
	Results     []domain.ConstituencyResult
	Diagnostics []domain.Diagnostic
	// Footers counts rows without a country, treated as summary or note rows.
	Footers int
}

// Excluded counts the rows removed by a diagnostic.
func (r *CleanResult) Excluded() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Excluded {
			n++
		}
	}
	return n
}

// Clean turns a raw table into typed constituency results.
//
// A row without a country is a footer and is dropped. A row with an unparseable
// or out-of-range value is excluded with a DATA_QUALITY diagnostic. A constituency
// seen twice is an AGGREGATION error and stops cleaning. If every data row was
// excluded the call fails with a DATA_QUALITY error. On error the returned result
// still carries the diagnostics gathered so far.
func Clean(table *domain.RawTable, mapping ColumnMapping, opts CleanOptions) (*CleanResult, error) {
	if table == nil {
		return nil, apperrors.NewFormatError("no table to clean", nil)
	}
	cols, err := mapping.Resolve(table.Header)
	if err != nil {
		return nil, err
	}
	tolerance := opts.TurnoutTolerance
	if tolerance <= 0 {
		tolerance = DefaultTurnoutTolerance
	}

	out := &CleanResult{}
	firstSeen := make(map[string]int)
	candidates := 0

	for _, rec := range table.Records {
		country := strings.TrimSpace(rec.Cell(cols.country))
		if country == "" {
			out.Footers++
			footer := apperrors.NewDataQualityError("no country, dropped as footer or summary row").
				WithContext(apperrors.CtxRow, rec.Row).
				WithContext(apperrors.CtxConstituency, strings.TrimSpace(rec.Cell(cols.constituency))).
				WithContext(apperrors.CtxField, ColCountry)
			out.Diagnostics = append(out.Diagnostics, toDiagnostic(StageClean, footer, true))
			continue
		}
		candidates++

		result, problems := cleanRecord(rec, cols, country)
		if len(problems) > 0 {
			for i, p := range problems {
				// One row, one exclusion, however many fields were bad.
				out.Diagnostics = append(out.Diagnostics, toDiagnostic(StageClean, p, i == 0))
			}
			continue
		}

		if first, dup := firstSeen[result.Constituency]; dup {
			appErr := apperrors.NewAggregationError("constituency appears more than once").
				WithContext(apperrors.CtxConstituency, result.Constituency).
				WithContext(apperrors.CtxRow, rec.Row).
				WithContext("first_row", first)
			out.Diagnostics = append(out.Diagnostics, toDiagnostic(StageClean, appErr, true))
			return out, appErr
		}
		firstSeen[result.Constituency] = rec.Row

		for _, w := range consistencyWarnings(result, tolerance) {
			out.Diagnostics = append(out.Diagnostics, toWarning(StageClean, w))
		}
		out.Results = append(out.Results, result)
	}

	if candidates > 0 && len(out.Results) == 0 {
		return out, apperrors.NewDataQualityError(
			fmt.Sprintf("all %d data rows failed cleaning", candidates)).
			WithContext(apperrors.CtxSheet, table.Sheet)
	}
	return out, nil
}

// cleanRecord parses one row. Every bad field is reported, not just the first.
func cleanRecord(rec domain.RawRecord, cols *ResolvedMapping, country string) (domain.ConstituencyResult, []*apperrors.AppError) {
	name := strings.TrimSpace(rec.Cell(cols.constituency))
	result := domain.ConstituencyResult{
		Constituency: name,
		Country:      country,
		Votes:        make(map[domain.Party]*int64, len(cols.parties)),
		SourceRow:    rec.Row,
	}

	var problems []*apperrors.AppError
	bad := func(field, value, msg string) {
		problems = append(problems, apperrors.NewDataQualityError(msg).
			WithContext(apperrors.CtxRow, rec.Row).
			WithContext(apperrors.CtxConstituency, name).
			WithContext(apperrors.CtxField, field).
			WithContext(apperrors.CtxValue, value))
	}

	if name == "" {
		bad(ColConstituency, "", "constituency name is empty")
	}

	var err error
	raw := rec.Cell(cols.electorate)
	if result.Electorate, err = parseCount(raw); err != nil {
		bad(ColElectorate, raw, err.Error())
	}
	raw = rec.Cell(cols.turnout)
	if result.Turnout, err = parseTurnout(raw, cols.turnoutPercent); err != nil {
		bad(ColTurnout, raw, err.Error())
	}
	raw = rec.Cell(cols.totalVotes)
	if result.TotalVotes, err = parseCount(raw); err != nil {
		bad(ColTotalVotes, raw, err.Error())
	}

	for _, p := range cols.parties {
		raw = strings.TrimSpace(rec.Cell(p.index))
		if raw == "" {
			continue
		}
		n, err := parseCount(raw)
		if err != nil {
			bad(string(p.party), raw, err.Error())
			continue
		}
		result.Votes[p.party] = domain.Int64(n)
	}

	if len(problems) == 0 {
		if err := resultValidator.Struct(result); err != nil {
			var verrs validator.ValidationErrors
			if stderrors.As(err, &verrs) {
				for _, fe := range verrs {
					field := validatorFieldLabels[fe.Field()]
					bad(field, fmt.Sprint(fe.Value()), fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param()))
				}
			} else {
				bad("", "", err.Error())
			}
		}
	}
	return result, problems
}

// consistencyWarnings flags discrepancies that are reported but do not exclude the row.
func consistencyWarnings(r domain.ConstituencyResult, tolerance float64) []*apperrors.AppError {
	var warnings []*apperrors.AppError
	warn := func(field, value, msg string) {
		warnings = append(warnings, apperrors.NewDataQualityError(msg).
			WithContext(apperrors.CtxRow, r.SourceRow).
			WithContext(apperrors.CtxConstituency, r.Constituency).
			WithContext(apperrors.CtxField, field).
			WithContext(apperrors.CtxValue, value))
	}

	if r.Electorate > 0 {
		expected := r.ExpectedVotes()
		if math.Abs(float64(r.TotalVotes)-expected) > tolerance*float64(r.Electorate) {
			warn(ColTotalVotes, strconv.FormatInt(r.TotalVotes, 10),
				fmt.Sprintf("total votes differ from electorate × turnout (%.0f) by more than %g of the electorate",
					expected, tolerance))
		}
	}

	var sum int64
	for _, v := range r.Votes {
		if v != nil {
			sum += *v
		}
	}
	if sum > r.TotalVotes {
		warn(ColTotalVotes, strconv.FormatInt(r.TotalVotes, 10),
			fmt.Sprintf("party votes sum to %d, more than total votes", sum))
	}
	return warnings
}

func toDiagnostic(stage string, err *apperrors.AppError, excluded bool) domain.Diagnostic {
	return domain.Diagnostic{
		Stage:        stage,
		Kind:         diagnosticKind(err.Type),
		Row:          contextInt(err, apperrors.CtxRow),
		Constituency: err.ContextString(apperrors.CtxConstituency),
		Field:        err.ContextString(apperrors.CtxField),
		Value:        err.ContextString(apperrors.CtxValue),
		Message:      err.Message,
		Excluded:     excluded,
	}
}

func toWarning(stage string, err *apperrors.AppError) domain.Diagnostic {
	d := toDiagnostic(stage, err, false)
	d.Kind = domain.DiagnosticWarning
	return d
}

func diagnosticKind(t apperrors.ErrorType) domain.DiagnosticKind {
	switch t {
	case apperrors.ErrTypeFormat:
		return domain.DiagnosticFormat
	case apperrors.ErrTypeAggregation:
		return domain.DiagnosticAggregation
	default:
		return domain.DiagnosticDataQuality
	}
}

func contextInt(err *apperrors.AppError, key string) int {
	if v, ok := err.Context[key].(int); ok {
		return v
	}
	return 0
}
