package dataprocessing

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	apperrors "electcli/internal/errors"
	"electcli/pkg/contracts/domain"
)

// Interchange column labels for the non-party fields.
const (
	ColConstituency = "Constituency"
	ColCountry      = "Country"
	ColElectorate   = "Electorate"
	ColTurnout      = "Turnout"
	ColTotalVotes   = "Total votes"
)

// suffixedLabel matches pandas-style disambiguated labels such as "Votes.3".
var suffixedLabel = regexp.MustCompile(`^(.*)\.(\d+)$`)

// ColumnRef identifies a source column either by absolute position or by a label
// and its 0-based occurrence among identically labelled columns.
type ColumnRef struct {
	Label      string `yaml:"label,omitempty"`
	Occurrence int    `yaml:"occurrence,omitempty"`
	Position   *int   `yaml:"position,omitempty"`
}

// Label builds a reference to the first column with the given label.
func Label(label string) ColumnRef {
	return ColumnRef{Label: label}
}

// LabelAt builds a reference to the nth (0-based) column with the given label.
func LabelAt(label string, occurrence int) ColumnRef {
	return ColumnRef{Label: label, Occurrence: occurrence}
}

// Position builds a reference to a 0-based column index.
func Position(index int) ColumnRef {
	return ColumnRef{Position: &index}
}

func (c ColumnRef) String() string {
	if c.Position != nil {
		return fmt.Sprintf("position %d", *c.Position)
	}
	if c.Occurrence > 0 {
		return fmt.Sprintf("%q occurrence %d", c.Label, c.Occurrence)
	}
	return fmt.Sprintf("%q", c.Label)
}

// Resolve returns the column index this reference points at in header.
// Labels are compared trimmed and case-insensitively. A label written as
// "Votes.3" with no exact match resolves to occurrence 3 of "Votes".
func (c ColumnRef) Resolve(header []string) (int, error) {
	if c.Position != nil {
		if *c.Position < 0 || *c.Position >= len(header) {
			return -1, fmt.Errorf("%s is outside the %d header columns", c, len(header))
		}
		return *c.Position, nil
	}
	if strings.TrimSpace(c.Label) == "" {
		return -1, fmt.Errorf("column reference has neither label nor position")
	}

	if idx := findOccurrence(header, c.Label, c.Occurrence); idx >= 0 {
		return idx, nil
	}
	if m := suffixedLabel.FindStringSubmatch(strings.TrimSpace(c.Label)); m != nil && c.Occurrence == 0 {
		n, _ := strconv.Atoi(m[2])
		if idx := findOccurrence(header, m[1], n); idx >= 0 {
			return idx, nil
		}
	}
	return -1, fmt.Errorf("column %s not found in header", c)
}

func findOccurrence(header []string, label string, occurrence int) int {
	want := normalizeLabel(label)
	seen := 0
	for i, h := range header {
		if normalizeLabel(h) != want {
			continue
		}
		if seen == occurrence {
			return i
		}
		seen++
	}
	return -1
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// PartyColumn binds a party to the source column holding its votes.
type PartyColumn struct {
	Party  domain.Party `yaml:"party"`
	Column ColumnRef    `yaml:"column"`
}

// ColumnMapping maps every ConstituencyResult field to a source column.
// TurnoutPercent marks sources that store turnout as 0–100 instead of 0–1.
type ColumnMapping struct {
	Constituency   ColumnRef     `yaml:"constituency"`
	Country        ColumnRef     `yaml:"country"`
	Electorate     ColumnRef     `yaml:"electorate"`
	Turnout        ColumnRef     `yaml:"turnout"`
	TotalVotes     ColumnRef     `yaml:"total_votes"`
	Parties        []PartyColumn `yaml:"parties"`
	TurnoutPercent bool          `yaml:"turnout_percent"`
}

// PartyList returns the mapped parties in mapping order.
func (m ColumnMapping) PartyList() []domain.Party {
	parties := make([]domain.Party, len(m.Parties))
	for i, pc := range m.Parties {
		parties[i] = pc.Party
	}
	return parties
}

// Validate checks that every party is one of the fixed parties and appears once.
func (m ColumnMapping) Validate() error {
	if len(m.Parties) == 0 {
		return apperrors.NewConfigError("column mapping lists no parties", nil)
	}
	seen := make(map[domain.Party]bool, len(m.Parties))
	for _, pc := range m.Parties {
		if !pc.Party.IsKnown() {
			return apperrors.NewConfigError(fmt.Sprintf("unknown party %q in column mapping", pc.Party), nil)
		}
		if seen[pc.Party] {
			return apperrors.NewConfigError(fmt.Sprintf("party %q mapped twice", pc.Party), nil)
		}
		seen[pc.Party] = true
	}
	return nil
}

// ResolvedMapping is a ColumnMapping fixed against one header.
type ResolvedMapping struct {
	constituency   int
	country        int
	electorate     int
	turnout        int
	totalVotes     int
	parties        []resolvedParty
	turnoutPercent bool
}

type resolvedParty struct {
	party domain.Party
	index int
}

// Resolve fixes every reference against header once, so row processing never
// looks a label up again.
func (m ColumnMapping) Resolve(header []string) (*ResolvedMapping, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	r := &ResolvedMapping{turnoutPercent: m.TurnoutPercent}
	fields := []struct {
		name string
		ref  ColumnRef
		dst  *int
	}{
		{ColConstituency, m.Constituency, &r.constituency},
		{ColCountry, m.Country, &r.country},
		{ColElectorate, m.Electorate, &r.electorate},
		{ColTurnout, m.Turnout, &r.turnout},
		{ColTotalVotes, m.TotalVotes, &r.totalVotes},
	}
	// Each header column may back at most one field or party.
	claimed := make(map[int]string, len(fields)+len(m.Parties))
	claim := func(name string, idx int) error {
		if other, ok := claimed[idx]; ok {
			return apperrors.NewConfigError(
				fmt.Sprintf("column mapping maps %s and %s to the same column %d", other, name, idx), nil).
				WithContext(apperrors.CtxField, name)
		}
		claimed[idx] = name
		return nil
	}

	for _, f := range fields {
		idx, err := f.ref.Resolve(header)
		if err != nil {
			return nil, apperrors.NewFormatError("cannot resolve column mapping", err).
				WithContext(apperrors.CtxField, f.name)
		}
		if err := claim(f.name, idx); err != nil {
			return nil, err
		}
		*f.dst = idx
	}

	for _, pc := range m.Parties {
		idx, err := pc.Column.Resolve(header)
		if err != nil {
			return nil, apperrors.NewFormatError("cannot resolve column mapping", err).
				WithContext(apperrors.CtxField, string(pc.Party))
		}
		if err := claim(string(pc.Party), idx); err != nil {
			return nil, err
		}
		r.parties = append(r.parties, resolvedParty{party: pc.Party, index: idx})
	}
	return r, nil
}

// DefaultWorkbookMapping describes the historical results workbook: one sheet per
// election, party vote columns all labelled "Votes" in the fixed party order below.
func DefaultWorkbookMapping() ColumnMapping {
	order := []domain.Party{
		domain.PartyConservative,
		domain.PartyLibDem,
		domain.PartyLabour,
		domain.PartyBrexit,
		domain.PartyGreen,
		domain.PartySNP,
		domain.PartyPlaidCymru,
		domain.PartyDUP,
		domain.PartySinnFein,
		domain.PartySDLP,
		domain.PartyUUP,
		domain.PartyAlliance,
		domain.PartyOther,
	}
	parties := make([]PartyColumn, len(order))
	for i, p := range order {
		parties[i] = PartyColumn{Party: p, Column: LabelAt("Votes", i)}
	}
	return ColumnMapping{
		Constituency: Label(ColConstituency),
		Country:      Label(ColCountry),
		Electorate:   Label(ColElectorate),
		Turnout:      Label(ColTurnout),
		TotalVotes:   Label(ColTotalVotes),
		Parties:      parties,
	}
}

// InterchangeMapping reads the cleaned CSV written by the exporter.
func InterchangeMapping() ColumnMapping {
	parties := make([]PartyColumn, 0, len(domain.Parties()))
	for _, p := range domain.Parties() {
		parties = append(parties, PartyColumn{Party: p, Column: Label(string(p))})
	}
	return ColumnMapping{
		Constituency: Label(ColConstituency),
		Country:      Label(ColCountry),
		Electorate:   Label(ColElectorate),
		Turnout:      Label(ColTurnout),
		TotalVotes:   Label(ColTotalVotes),
		Parties:      parties,
	}
}

// LoadColumnMapping reads a YAML column mapping file.
func LoadColumnMapping(path string) (ColumnMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ColumnMapping{}, apperrors.NewConfigError("failed to read column mapping", err).
			WithContext(apperrors.CtxPath, path)
	}
	var m ColumnMapping
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return ColumnMapping{}, apperrors.NewConfigError("failed to parse column mapping", err).
			WithContext(apperrors.CtxPath, path)
	}
	if err := m.Validate(); err != nil {
		return ColumnMapping{}, err
	}
	return m, nil
}
