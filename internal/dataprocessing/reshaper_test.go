package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electcli/pkg/contracts/domain"
)

const (
	partyA = domain.PartyConservative
	partyB = domain.PartyLabour
	partyC = domain.PartyLibDem
)

func constituency(name string, total int64, votes map[domain.Party]*int64) domain.ConstituencyResult {
	return domain.ConstituencyResult{
		Constituency: name,
		Country:      "England",
		Electorate:   total * 2,
		Turnout:      0.5,
		TotalVotes:   total,
		Votes:        votes,
	}
}

func TestReshapeExcludesPartiesThatDidNotStand(t *testing.T) {
	results := []domain.ConstituencyResult{
		constituency("Alpha", 180, map[domain.Party]*int64{
			partyA: domain.Int64(100),
			partyB: domain.Int64(80),
			partyC: nil,
		}),
	}

	out := Reshape(results, domain.Parties())
	assert.Empty(t, out.Diagnostics)
	require.Len(t, out.Rows, 2)

	for _, r := range out.Rows {
		assert.NotEqual(t, partyC, r.Party)
	}
	assert.Equal(t, partyA, out.Rows[0].Party)
	assert.InDelta(t, 55.5555, out.Rows[0].Share, 1e-3)
	assert.Equal(t, 1, out.Rows[0].Rank)
	assert.Equal(t, partyB, out.Rows[1].Party)
	assert.InDelta(t, 44.4444, out.Rows[1].Share, 1e-3)
	assert.Equal(t, 2, out.Rows[1].Rank)
}

func TestReshapeShareMatchesRecomputation(t *testing.T) {
	results := []domain.ConstituencyResult{
		constituency("Alpha", 31598, map[domain.Party]*int64{
			partyA: domain.Int64(6518), partyB: domain.Int64(17008), domain.PartyBrexit: domain.Int64(3108),
		}),
		constituency("Beta", 42445, map[domain.Party]*int64{
			domain.PartyDUP: domain.Int64(20874), domain.PartyAlliance: domain.Int64(19055),
		}),
		constituency("Gamma", 7, map[domain.Party]*int64{partyC: domain.Int64(7)}),
	}
	totals := make(map[string]int64)
	for _, r := range results {
		totals[r.Constituency] = r.TotalVotes
	}

	out := Reshape(results, domain.Parties())
	require.Len(t, out.Rows, 6)

	byKey := make(map[string]domain.ConstituencyResult)
	for _, r := range results {
		byKey[r.Constituency] = r
	}
	for _, row := range out.Rows {
		src := byKey[row.Constituency]
		votes, stood := src.VotesFor(row.Party)
		require.True(t, stood)
		assert.Equal(t, votes, row.Votes)
		assert.InDelta(t, float64(votes)/float64(src.TotalVotes)*100, row.Share, 1e-9)
	}

	recomputed := make([]domain.PartyResult, len(out.Rows))
	copy(recomputed, out.Rows)
	for i := range recomputed {
		recomputed[i].Share = 0
	}
	require.NoError(t, RecomputeShare(recomputed, totals))
	for i := range recomputed {
		assert.InDelta(t, out.Rows[i].Share, recomputed[i].Share, 1e-9)
	}
}

func TestReshapeZeroTotalVotes(t *testing.T) {
	results := []domain.ConstituencyResult{
		constituency("Alpha", 100, map[domain.Party]*int64{partyA: domain.Int64(60), partyB: domain.Int64(40)}),
		{Constituency: "Void", Country: "Scotland", TotalVotes: 0, SourceRow: 9,
			Votes: map[domain.Party]*int64{domain.PartySNP: domain.Int64(0)}},
		constituency("Gamma", 10, map[domain.Party]*int64{partyC: domain.Int64(10)}),
	}

	out := Reshape(results, domain.Parties())

	require.Len(t, out.Diagnostics, 1)
	d := out.Diagnostics[0]
	assert.Equal(t, StageReshape, d.Stage)
	assert.Equal(t, domain.DiagnosticDataQuality, d.Kind)
	assert.Equal(t, "Void", d.Constituency)
	assert.Equal(t, 9, d.Row)
	assert.True(t, d.Excluded)

	for _, r := range out.Rows {
		assert.NotEqual(t, "Void", r.Constituency)
	}
	assert.Len(t, out.Rows, 3, "the run continues past the bad constituency")
	assert.Equal(t, 1, out.ZeroTotal)
	assert.Zero(t, out.NoCandidates)
}

func TestReshapeNoCandidates(t *testing.T) {
	results := []domain.ConstituencyResult{
		{Constituency: "Empty", Country: "England", TotalVotes: 5, SourceRow: 4,
			Votes: map[domain.Party]*int64{}},
		constituency("Alpha", 100, map[domain.Party]*int64{partyA: domain.Int64(60), partyB: domain.Int64(40)}),
	}

	out := Reshape(results, domain.Parties())

	require.Len(t, out.Diagnostics, 1)
	d := out.Diagnostics[0]
	assert.Equal(t, StageReshape, d.Stage)
	assert.Equal(t, domain.DiagnosticDataQuality, d.Kind)
	assert.Equal(t, "Empty", d.Constituency)
	assert.Equal(t, 4, d.Row)
	assert.Equal(t, "5", d.Value)
	assert.True(t, d.Excluded)
	assert.Contains(t, d.Message, "no candidates")

	assert.Equal(t, 1, out.NoCandidates)
	assert.Zero(t, out.ZeroTotal)
	assert.Len(t, out.Rows, 2)
}

func TestReshapeRanksBreakTiesByPartyName(t *testing.T) {
	results := []domain.ConstituencyResult{
		constituency("Tied", 200, map[domain.Party]*int64{
			domain.PartyLabour:       domain.Int64(50),
			domain.PartyConservative: domain.Int64(50),
			domain.PartyGreen:        domain.Int64(100),
		}),
	}

	out := Reshape(results, domain.Parties())
	ranks := make(map[domain.Party]int)
	for _, r := range out.Rows {
		ranks[r.Party] = r.Rank
	}
	assert.Equal(t, 1, ranks[domain.PartyGreen])
	assert.Equal(t, 2, ranks[domain.PartyConservative])
	assert.Equal(t, 3, ranks[domain.PartyLabour])

	// Emission order follows the party list, not the rank.
	assert.Equal(t, domain.PartyConservative, out.Rows[0].Party)
}

func TestRecomputeShareRequiresTotals(t *testing.T) {
	rows := []domain.PartyResult{{Constituency: "Nowhere", Party: partyA, Votes: 5}}

	assert.Error(t, RecomputeShare(rows, map[string]int64{}))
	assert.Error(t, RecomputeShare(rows, map[string]int64{"Nowhere": 0}))
}

func TestNationalTotals(t *testing.T) {
	results := []domain.ConstituencyResult{
		constituency("Alpha", 180, map[domain.Party]*int64{partyA: domain.Int64(100), partyB: domain.Int64(80), partyC: nil}),
		constituency("Beta", 100, map[domain.Party]*int64{partyA: domain.Int64(30), partyC: domain.Int64(70)}),
		{Constituency: "Void", Country: "Wales", Votes: map[domain.Party]*int64{partyA: domain.Int64(5)}},
	}

	totals := NationalTotals(results, domain.Parties())
	require.Len(t, totals, len(domain.Parties()))

	got := make(map[domain.Party]int64)
	for i, pt := range totals {
		assert.Equal(t, domain.Parties()[i], pt.Party, "fixed party order")
		got[pt.Party] = pt.Votes
	}
	assert.Equal(t, int64(130), got[partyA], "zero-total constituency is left out")
	assert.Equal(t, int64(80), got[partyB])
	assert.Equal(t, int64(70), got[partyC])
	assert.Equal(t, int64(0), got[domain.PartySNP])
}
