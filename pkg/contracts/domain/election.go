package domain

// RawRecord is one unvalidated row read from the source sheet.
// Row is the 1-based row number in the source file so diagnostics can point back at it.
type RawRecord struct {
	Row   int      `json:"row"`
	Cells []string `json:"cells"`
}

// Cell returns the cell at position i, or "" when the row is short.
// Spreadsheet readers drop trailing empty cells, so short rows are normal.
func (r RawRecord) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// RawTable is the loader output: the header row as read (duplicate labels kept)
// and every record below it.
type RawTable struct {
	Source    string      `json:"source"`
	Sheet     string      `json:"sheet,omitempty"`
	HeaderRow int         `json:"header_row"`
	Header    []string    `json:"header"`
	Records   []RawRecord `json:"records"`
}

// ConstituencyResult is one cleaned constituency in wide form.
// A nil entry (or missing key) in Votes means the party did not stand there.
type ConstituencyResult struct {
	Constituency string           `json:"constituency" validate:"required"`
	Country      string           `json:"country" validate:"required"`
	Electorate   int64            `json:"electorate" validate:"min=0"`
	Turnout      float64          `json:"turnout" validate:"min=0,max=1"`
	TotalVotes   int64            `json:"total_votes" validate:"min=0"`
	Votes        map[Party]*int64 `json:"votes"`
	SourceRow    int              `json:"source_row,omitempty"`
}

// VotesFor returns the votes for p and whether the party stood.
func (c ConstituencyResult) VotesFor(p Party) (int64, bool) {
	v, ok := c.Votes[p]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// ExpectedVotes is electorate × turnout, used only as a consistency check.
func (c ConstituencyResult) ExpectedVotes() float64 {
	return float64(c.Electorate) * c.Turnout
}

// PartyResult is one (constituency, party) pair in long form.
// Share is a percentage of the constituency's total votes, unrounded.
type PartyResult struct {
	Constituency string  `json:"constituency"`
	Party        Party   `json:"party"`
	Votes        int64   `json:"votes"`
	Share        float64 `json:"share"`
	Rank         int     `json:"rank"`
}

// ConstituencyOutcome is the winner and margin of one constituency.
// Shares and Majority are percentage points rounded to two decimals.
type ConstituencyOutcome struct {
	Constituency  string  `json:"constituency"`
	Winner        Party   `json:"winner"`
	WinnerShare   float64 `json:"winner_share"`
	RunnerUp      Party   `json:"runner_up,omitempty"`
	RunnerUpShare float64 `json:"runner_up_share"`
	Majority      float64 `json:"majority"`
}

// Uncontested reports whether only one party stood.
func (o ConstituencyOutcome) Uncontested() bool {
	return o.RunnerUp == ""
}

// SeatTotal is the number of constituencies won by a party.
type SeatTotal struct {
	Party Party `json:"party"`
	Seats int   `json:"seats"`
}

// PartyTotal is a party's national vote count.
type PartyTotal struct {
	Party Party `json:"party"`
	Votes int64 `json:"votes"`
}

// Int64 returns a pointer to v. Handy for building Votes maps.
func Int64(v int64) *int64 {
	return &v
}
