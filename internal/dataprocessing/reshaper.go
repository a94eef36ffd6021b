package dataprocessing

import (
	"sort"
	"strconv"

	apperrors "electcli/internal/errors"
	"electcli/pkg/contracts/domain"
)

// ReshapeResult is the long-form table plus the constituencies it had to leave out.
type ReshapeResult struct {
	Rows         []domain.PartyResult
	Diagnostics  []domain.Diagnostic
	ZeroTotal    int
	NoCandidates int
}

// Reshape emits one PartyResult per party that stood in each constituency, with the
// party's share of the constituency's total votes and its rank by share.
// Constituencies come out in input order and parties in the order given.
//
// A constituency with zero total votes has no defined share, and one where no party
// stood has no winner. Both are left out with a DATA_QUALITY diagnostic.
func Reshape(results []domain.ConstituencyResult, parties []domain.Party) *ReshapeResult {
	out := &ReshapeResult{}
	for _, r := range results {
		if r.TotalVotes == 0 {
			out.Diagnostics = append(out.Diagnostics, zeroTotalDiagnostic(StageReshape, r))
			out.ZeroTotal++
			continue
		}

		rows := make([]domain.PartyResult, 0, len(parties))
		for _, p := range parties {
			votes, stood := r.VotesFor(p)
			if !stood {
				continue
			}
			rows = append(rows, domain.PartyResult{
				Constituency: r.Constituency,
				Party:        p,
				Votes:        votes,
				Share:        VoteShare(votes, r.TotalVotes),
			})
		}
		if len(rows) == 0 {
			out.Diagnostics = append(out.Diagnostics, noCandidatesDiagnostic(StageReshape, r))
			out.NoCandidates++
			continue
		}
		assignRanks(rows)
		out.Rows = append(out.Rows, rows...)
	}
	return out
}

// VoteShare is votes as a percentage of total. total must be positive.
func VoteShare(votes, total int64) float64 {
	return 100 * float64(votes) / float64(total)
}

// RecomputeShare recomputes Share from Votes for rows that were built or edited
// by hand, grouping by constituency and using each constituency's totals.
func RecomputeShare(rows []domain.PartyResult, totals map[string]int64) error {
	for i := range rows {
		total, ok := totals[rows[i].Constituency]
		if !ok || total <= 0 {
			return apperrors.NewDataQualityError("no positive total votes for constituency").
				WithContext(apperrors.CtxConstituency, rows[i].Constituency)
		}
		rows[i].Share = VoteShare(rows[i].Votes, total)
	}
	return nil
}

// ShareOrder reports whether a ranks above b: higher share first, then party
// name ascending so equal shares always order the same way.
func ShareOrder(a, b domain.PartyResult) bool {
	if a.Share != b.Share {
		return a.Share > b.Share
	}
	return a.Party < b.Party
}

// assignRanks sets Rank (1 = most votes) on the rows of one constituency without
// reordering them.
func assignRanks(rows []domain.PartyResult) {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return ShareOrder(rows[order[i]], rows[order[j]])
	})
	for rank, idx := range order {
		rows[idx].Rank = rank + 1
	}
}

// NationalTotals sums votes per party across constituencies, in the party order given.
// Parties with no votes anywhere are still listed with zero. Constituencies with zero
// total votes are left out, the same as in Reshape.
func NationalTotals(results []domain.ConstituencyResult, parties []domain.Party) []domain.PartyTotal {
	sums := make(map[domain.Party]int64, len(parties))
	for _, r := range results {
		if r.TotalVotes == 0 {
			continue
		}
		for _, p := range parties {
			if v, stood := r.VotesFor(p); stood {
				sums[p] += v
			}
		}
	}

	totals := make([]domain.PartyTotal, len(parties))
	for i, p := range parties {
		totals[i] = domain.PartyTotal{Party: p, Votes: sums[p]}
	}
	return totals
}

func zeroTotalDiagnostic(stage string, r domain.ConstituencyResult) domain.Diagnostic {
	appErr := apperrors.NewDataQualityError("total votes is zero, vote share is undefined").
		WithContext(apperrors.CtxRow, r.SourceRow).
		WithContext(apperrors.CtxConstituency, r.Constituency).
		WithContext(apperrors.CtxField, ColTotalVotes).
		WithContext(apperrors.CtxValue, "0")
	return toDiagnostic(stage, appErr, true)
}

func noCandidatesDiagnostic(stage string, r domain.ConstituencyResult) domain.Diagnostic {
	appErr := apperrors.NewDataQualityError("no candidates: every party vote cell is empty").
		WithContext(apperrors.CtxRow, r.SourceRow).
		WithContext(apperrors.CtxConstituency, r.Constituency).
		WithContext(apperrors.CtxField, ColTotalVotes).
		WithContext(apperrors.CtxValue, strconv.FormatInt(r.TotalVotes, 10))
	return toDiagnostic(stage, appErr, true)
}
