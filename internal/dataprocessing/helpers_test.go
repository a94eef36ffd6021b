package dataprocessing

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"electcli/pkg/contracts/domain"
)

type sheetData struct {
	name string
	rows [][]interface{}
}

// writeWorkbook saves the given sheets into a new xlsx file under t.TempDir().
// nil cells are left empty.
func writeWorkbook(t *testing.T, sheets ...sheetData) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			for c, v := range row {
				if v == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(s.name, cell, v))
			}
		}
	}

	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// workbookPartyOrder is the column order DefaultWorkbookMapping expects.
var workbookPartyOrder = []domain.Party{
	domain.PartyConservative, domain.PartyLibDem, domain.PartyLabour, domain.PartyBrexit,
	domain.PartyGreen, domain.PartySNP, domain.PartyPlaidCymru, domain.PartyDUP,
	domain.PartySinnFein, domain.PartySDLP, domain.PartyUUP, domain.PartyAlliance, domain.PartyOther,
}

// preamble is the title block above the header in the published workbook.
func preamble() [][]interface{} {
	return [][]interface{}{
		{"General election results"},
		{"Source: House of Commons Library"},
		{nil, nil, nil, nil, "Conservative", nil, "Liberal Democrats"},
	}
}

func workbookHeader() []interface{} {
	h := []interface{}{"id", "Constituency", "Country", "Electorate"}
	for range workbookPartyOrder {
		h = append(h, "Votes")
	}
	return append(h, "Total votes", "Turnout")
}

func workbookRow(id int, name, country string, electorate int, votes map[domain.Party]int, total int, turnout float64) []interface{} {
	row := []interface{}{id, name, country, electorate}
	for _, p := range workbookPartyOrder {
		if v, ok := votes[p]; ok {
			row = append(row, v)
		} else {
			row = append(row, nil)
		}
	}
	if country == "" {
		row[2] = nil
	}
	return append(row, total, turnout)
}

// rawTable builds a table with the interchange header so tests can use InterchangeMapping.
func rawTable(rows ...[]string) *domain.RawTable {
	header := []string{ColConstituency, ColCountry, ColElectorate, ColTurnout, ColTotalVotes}
	for _, p := range domain.Parties() {
		header = append(header, string(p))
	}
	table := &domain.RawTable{Source: "test.csv", HeaderRow: 1, Header: header}
	for i, r := range rows {
		table.Records = append(table.Records, domain.RawRecord{Row: i + 2, Cells: r})
	}
	return table
}

// interchangeRow fills the five fixed columns followed by votes in interchange party order.
func interchangeRow(name, country, electorate, turnout, total string, votes map[domain.Party]string) []string {
	row := []string{name, country, electorate, turnout, total}
	for _, p := range domain.Parties() {
		row = append(row, votes[p])
	}
	return row
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
