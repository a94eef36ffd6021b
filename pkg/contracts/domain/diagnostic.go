package domain

// DiagnosticKind mirrors the error taxonomy: which class of problem a row hit.
type DiagnosticKind string

const (
	DiagnosticFormat      DiagnosticKind = "FORMAT"
	DiagnosticDataQuality DiagnosticKind = "DATA_QUALITY"
	DiagnosticAggregation DiagnosticKind = "AGGREGATION"
	// DiagnosticWarning marks a surfaced discrepancy that did not exclude the row.
	DiagnosticWarning DiagnosticKind = "WARNING"
)

// Diagnostic records one problem found while cleaning or aggregating, with enough
// context (row, constituency, field, raw value) to fix the source file by hand.
type Diagnostic struct {
	Stage        string         `json:"stage"`
	Kind         DiagnosticKind `json:"kind"`
	Row          int            `json:"row,omitempty"`
	Constituency string         `json:"constituency,omitempty"`
	Field        string         `json:"field,omitempty"`
	Value        string         `json:"value,omitempty"`
	Message      string         `json:"message"`
	Excluded     bool           `json:"excluded"`
}

// DiagnosticReport accumulates diagnostics across stages.
type DiagnosticReport struct {
	Entries []Diagnostic `json:"entries"`
}

// Add appends diagnostics to the report.
func (r *DiagnosticReport) Add(d ...Diagnostic) {
	r.Entries = append(r.Entries, d...)
}

// Excluded counts the entries that removed a row or constituency.
func (r *DiagnosticReport) Excluded() int {
	n := 0
	for _, d := range r.Entries {
		if d.Excluded {
			n++
		}
	}
	return n
}

// ByKind counts entries per kind.
func (r *DiagnosticReport) ByKind() map[DiagnosticKind]int {
	counts := make(map[DiagnosticKind]int)
	for _, d := range r.Entries {
		counts[d.Kind]++
	}
	return counts
}
