package dataprocessing

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	apperrors "electcli/internal/errors"
	"electcli/pkg/contracts/domain"
)

// SharePlaces is the number of decimals outcome shares and majorities are rounded to.
const SharePlaces = 2

// Summarizer picks the winner of every constituency and counts seats per party.
type Summarizer struct {
	logger *slog.Logger
}

// NewSummarizer creates a summarizer that logs through logger.
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger}
}

// Summarize reduces the long-form table to one outcome per constituency, ordered
// by first appearance. The winner is the top party by ShareOrder, the runner-up
// the next one. Shares are rounded half away from zero and the majority is the
// difference of the rounded shares, so the three columns always agree.
//
// A (constituency, party) pair seen twice is an AGGREGATION error.
func (s *Summarizer) Summarize(ctx context.Context, rows []domain.PartyResult) ([]domain.ConstituencyOutcome, error) {
	groups, order, err := groupByConstituency(rows)
	if err != nil {
		return nil, err
	}

	outcomes := make([]domain.ConstituencyOutcome, 0, len(order))
	uncontested := 0
	for _, name := range order {
		outcome := outcomeFor(name, groups[name])
		if outcome.Uncontested() {
			uncontested++
		}
		outcomes = append(outcomes, outcome)
	}

	s.logger.InfoContext(ctx, "Constituency outcomes computed",
		slog.Int("party_rows", len(rows)),
		slog.Int("constituencies", len(outcomes)),
		slog.Int("uncontested", uncontested))
	return outcomes, nil
}

// SeatTotals counts constituencies won per party, most seats first and then by
// party name. Parties that won nothing are not listed.
//
// A constituency appearing twice is an AGGREGATION error.
func (s *Summarizer) SeatTotals(ctx context.Context, outcomes []domain.ConstituencyOutcome) ([]domain.SeatTotal, error) {
	seen := make(map[string]bool, len(outcomes))
	seats := make(map[domain.Party]int)
	for _, o := range outcomes {
		if seen[o.Constituency] {
			return nil, apperrors.NewAggregationError("constituency has more than one outcome").
				WithContext(apperrors.CtxConstituency, o.Constituency)
		}
		seen[o.Constituency] = true
		seats[o.Winner]++
	}

	totals := make([]domain.SeatTotal, 0, len(seats))
	for p, n := range seats {
		totals = append(totals, domain.SeatTotal{Party: p, Seats: n})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Seats != totals[j].Seats {
			return totals[i].Seats > totals[j].Seats
		}
		return totals[i].Party < totals[j].Party
	})

	s.logger.InfoContext(ctx, "Seat totals computed",
		slog.Int("constituencies", len(outcomes)),
		slog.Int("parties_with_seats", len(totals)))
	return totals, nil
}

func groupByConstituency(rows []domain.PartyResult) (map[string][]domain.PartyResult, []string, error) {
	groups := make(map[string][]domain.PartyResult)
	var order []string
	type key struct {
		constituency string
		party        domain.Party
	}
	seen := make(map[key]bool, len(rows))

	for _, r := range rows {
		k := key{r.Constituency, r.Party}
		if seen[k] {
			return nil, nil, apperrors.NewAggregationError("party listed twice for constituency").
				WithContext(apperrors.CtxConstituency, r.Constituency).
				WithContext(apperrors.CtxField, string(r.Party))
		}
		seen[k] = true
		if _, ok := groups[r.Constituency]; !ok {
			order = append(order, r.Constituency)
		}
		groups[r.Constituency] = append(groups[r.Constituency], r)
	}
	return groups, order, nil
}

func outcomeFor(name string, rows []domain.PartyResult) domain.ConstituencyOutcome {
	ranked := make([]domain.PartyResult, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool { return ShareOrder(ranked[i], ranked[j]) })

	winner := roundShare(ranked[0].Share)
	outcome := domain.ConstituencyOutcome{
		Constituency: name,
		Winner:       ranked[0].Party,
		WinnerShare:  winner.InexactFloat64(),
	}
	runnerUp := decimal.Zero
	if len(ranked) > 1 {
		runnerUp = roundShare(ranked[1].Share)
		outcome.RunnerUp = ranked[1].Party
		outcome.RunnerUpShare = runnerUp.InexactFloat64()
	}
	outcome.Majority = winner.Sub(runnerUp).InexactFloat64()
	return outcome
}

func roundShare(share float64) decimal.Decimal {
	return decimal.NewFromFloat(share).Round(SharePlaces)
}
