package alert

import "sort"

// Severity grades how strongly an alert gates a transition
type Severity string

const (
	SeverityError   Severity = "ERROR"   // reject outright, correct and resubmit
	SeverityWarning Severity = "WARNING" // proceed only after acknowledgment (and note, when required)
	SeverityInfo    Severity = "INFO"    // advisory, never blocks
)

// Rank orders severities for sorting: ERROR < WARNING < INFO.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// Alert is one graded finding about a proposed transition.
type Alert struct {
	ID           string   `json:"id"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
	RequiresNote bool     `json:"requires_note"`
}

// ValidationResult aggregates every alert raised for one proposed
// transition. Alerts are sorted ERROR, WARNING, INFO; IsValid is always
// the negation of HasErrors.
type ValidationResult struct {
	IsValid     bool    `json:"is_valid"`
	Alerts      []Alert `json:"alerts"`
	HasErrors   bool    `json:"has_errors"`
	HasWarnings bool    `json:"has_warnings"`
	HasInfos    bool    `json:"has_infos"`
}

// NewValidationResult assembles a result from raw alerts: sorts by
// severity (stable, so rule evaluation order is kept within a grade)
// and derives the summary flags.
func NewValidationResult(alerts []Alert) ValidationResult {
	sorted := make([]Alert, len(alerts))
	copy(sorted, alerts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
	})

	res := ValidationResult{Alerts: sorted}
	for _, a := range sorted {
		switch a.Severity {
		case SeverityError:
			res.HasErrors = true
		case SeverityWarning:
			res.HasWarnings = true
		case SeverityInfo:
			res.HasInfos = true
		}
	}
	res.IsValid = !res.HasErrors
	return res
}

// AnyRequiresNote reports whether any alert in the result demands a note.
func (r ValidationResult) AnyRequiresNote() bool {
	for _, a := range r.Alerts {
		if a.RequiresNote {
			return true
		}
	}
	return false
}
