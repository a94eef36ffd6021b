package domain

// Party is the canonical name of a party column in the cleaned results table.
type Party string

const (
	PartyConservative Party = "Conservative"
	PartyLabour       Party = "Labour"
	PartyLibDem       Party = "Lib. Dem."
	PartyBrexit       Party = "Brexit"
	PartyGreen        Party = "Green"
	PartySNP          Party = "SNP"
	PartyPlaidCymru   Party = "Plaid Cymru"
	PartyDUP          Party = "DUP"
	PartySinnFein     Party = "Sinn Fein"
	PartySDLP         Party = "SDLP"
	PartyUUP          Party = "UUP"
	PartyAlliance     Party = "Alliance"
	PartyOther        Party = "Other"
)

// Parties returns the fixed party set in interchange column order.
// A fresh slice is returned on every call.
func Parties() []Party {
	return []Party{
		PartyConservative,
		PartyLabour,
		PartyLibDem,
		PartyBrexit,
		PartyGreen,
		PartySNP,
		PartyPlaidCymru,
		PartyDUP,
		PartySinnFein,
		PartySDLP,
		PartyUUP,
		PartyAlliance,
		PartyOther,
	}
}

// IsKnown reports whether p is one of the fixed parties.
func (p Party) IsKnown() bool {
	for _, known := range Parties() {
		if p == known {
			return true
		}
	}
	return false
}

func (p Party) String() string {
	return string(p)
}
