package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electcli/internal/config"
	apperrors "electcli/internal/errors"
	"electcli/internal/exporter"
	"electcli/internal/operations/testutil"
	"electcli/pkg/contracts/domain"
)

const interchangeHeader = "Constituency,Country,Electorate,Turnout,Total votes," +
	"Conservative,Labour,Lib. Dem.,Brexit,Green,SNP,Plaid Cymru,DUP,Sinn Fein,SDLP,UUP,Alliance,Other\n"

func writeInterchange(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "constituencies.csv")
	require.NoError(t, os.WriteFile(path, []byte(interchangeHeader+strings.Join(rows, "\n")+"\n"), 0644))
	return path
}

func TestInterchangeHeaderMatchesExporter(t *testing.T) {
	assert.Equal(t, strings.TrimSuffix(interchangeHeader, "\n"), strings.Join(exporter.InterchangeHeaders(), ","))
}

func TestSeatTotals(t *testing.T) {
	path := writeInterchange(t,
		"Aldershot,England,1000,0.18,180,100,80,,,,,,,,,,,",
		"Bath,England,500,0.2,100,40,,60,,,,,,,,,,",
		"Cardiff,Wales,900,0.1,90,30,50,,,,,10,,,,,,",
	)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	out := filepath.Join(t.TempDir(), "seat_totals.csv")

	sheet, err := seatTotals(context.Background(), logger, path, out, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.SeatTotal{
		{Party: domain.PartyConservative, Seats: 1},
		{Party: domain.PartyLabour, Seats: 1},
		{Party: domain.PartyLibDem, Seats: 1},
	}, sheet.SeatTotals)

	testutil.AssertFileExists(t, out)
	for _, name := range []string{config.ConstituenciesFile, config.OutcomesFile, config.DiagnosticsFile} {
		testutil.AssertNoFile(t, filepath.Join(filepath.Dir(out), name))
	}
}

func TestSeatTotals_ZeroTotalIsReported(t *testing.T) {
	path := writeInterchange(t,
		"Aldershot,England,1000,0.18,180,100,80,,,,,,,,,,,",
		"Zetland,England,100,0,0"+strings.Repeat(",", 13),
	)
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	sheet, err := seatTotals(context.Background(), logger, path, filepath.Join(t.TempDir(), "seats.csv"), 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.SeatTotal{{Party: domain.PartyConservative, Seats: 1}}, sheet.SeatTotals)

	require.Len(t, sheet.Report.Entries, 1)
	assert.Equal(t, "Zetland", sheet.Report.Entries[0].Constituency)
	assert.True(t, sheet.Report.Entries[0].Excluded)
	assert.Contains(t, logs.String(), `"constituency":"Zetland"`)
}

func TestSeatTotals_DuplicateConstituency(t *testing.T) {
	path := writeInterchange(t,
		"Aldershot,England,1000,0.18,180,100,80,,,,,,,,,,,",
		"Aldershot,England,1000,0.18,180,100,80,,,,,,,,,,,",
	)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	out := filepath.Join(t.TempDir(), "seat_totals.csv")

	_, err := seatTotals(context.Background(), logger, path, out, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeAggregation))
	testutil.AssertFileExists(t, filepath.Join(filepath.Dir(out), config.DiagnosticsFile))
}

func TestRun(t *testing.T) {
	t.Setenv("ELECT_LOGGING_LEVEL", "error")

	in := writeInterchange(t,
		"Aldershot,England,1000,0.18,180,100,80,,,,,,,,,,,",
		"Bath,England,500,0.2,100,60,,40,,,,,,,,,,",
	)
	out := filepath.Join(t.TempDir(), "seat_totals.csv")

	var stdout bytes.Buffer
	require.Equal(t, 0, run([]string{"-in", in, "-out", out}, &stdout, &bytes.Buffer{}))

	assert.Equal(t, "Conservative\t2\n", stdout.String())
	assert.Equal(t, [][]string{{"Party", "Seats"}, {"Conservative", "2"}}, testutil.ReadCSV(t, out))
}

func TestRun_MissingInputFlag(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &bytes.Buffer{}, &stderr))
	assert.Contains(t, stderr.String(), "-in is required")
}
