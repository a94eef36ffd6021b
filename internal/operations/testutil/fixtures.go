package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"electcli/pkg/contracts/domain"
)

// PreambleRows is the number of title rows above the header in fixture sheets.
const PreambleRows = 2

// WorkbookPartyOrder is the order of the repeated Votes columns in fixture sheets.
var WorkbookPartyOrder = []domain.Party{
	domain.PartyConservative, domain.PartyLibDem, domain.PartyLabour, domain.PartyBrexit,
	domain.PartyGreen, domain.PartySNP, domain.PartyPlaidCymru, domain.PartyDUP,
	domain.PartySinnFein, domain.PartySDLP, domain.PartyUUP, domain.PartyAlliance, domain.PartyOther,
}

// Constituency is one data row of a fixture sheet. A missing party did not stand.
type Constituency struct {
	Name       string
	Country    string
	Electorate int
	Votes      map[domain.Party]int
	Total      int
	Turnout    float64
}

// Sheet is a fixture election sheet.
type Sheet struct {
	Name string
	Rows []Constituency
	// Footer adds a trailing note row with no country.
	Footer string
}

// WriteWorkbook saves the sheets as an xlsx laid out like the published results
// workbook and returns its path.
func WriteWorkbook(t *testing.T, sheets ...Sheet) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), s.Name))
		} else {
			_, err := f.NewSheet(s.Name)
			require.NoError(t, err)
		}

		rows := [][]interface{}{
			{"General election results " + s.Name},
			{"Source: House of Commons Library"},
			header(),
		}
		for i, c := range s.Rows {
			rows = append(rows, row(i+1, c))
		}
		if s.Footer != "" {
			rows = append(rows, []interface{}{nil, s.Footer})
		}

		for r, cells := range rows {
			for c, v := range cells {
				if v == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(s.Name, cell, v))
			}
		}
	}

	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func header() []interface{} {
	h := []interface{}{"id", "Constituency", "Country", "Electorate"}
	for range WorkbookPartyOrder {
		h = append(h, "Votes")
	}
	return append(h, "Total votes", "Turnout")
}

func row(id int, c Constituency) []interface{} {
	r := []interface{}{id, c.Name, c.Country, c.Electorate}
	for _, p := range WorkbookPartyOrder {
		if v, ok := c.Votes[p]; ok {
			r = append(r, v)
		} else {
			r = append(r, nil)
		}
	}
	return append(r, c.Total, c.Turnout)
}

// TwoSeatElection is a small consistent sheet: Conservative wins both seats.
func TwoSeatElection(name string) Sheet {
	return Sheet{
		Name: name,
		Rows: []Constituency{
			{
				Name: "Aldershot", Country: "England", Electorate: 1000,
				Votes: map[domain.Party]int{domain.PartyConservative: 100, domain.PartyLabour: 80},
				Total: 180, Turnout: 0.18,
			},
			{
				Name: "Bath", Country: "England", Electorate: 500,
				Votes: map[domain.Party]int{domain.PartyConservative: 60, domain.PartyLibDem: 40},
				Total: 100, Turnout: 0.2,
			},
		},
		Footer: "Note: figures are provisional",
	}
}
