package triage

import "sync"

// ColumnCandidates defines possible header names for the reference table columns.
type ColumnCandidates struct {
	Description []string `json:"description"`
	Department  []string `json:"department"`
	Location    []string `json:"location"`
	PainType    []string `json:"painType"`
}

var (
	columnCandidatesMu  sync.RWMutex
	activeColumnOptions = defaultColumnCandidates()
)

func defaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		Description: []string{"Symptom Description", "symptom_description", "description", "symptom", "symptoms"},
		Department:  []string{"Department", "dept", "specialty", "speciality"},
		Location:    []string{"Location", "body_location", "body location", "body part"},
		PainType:    []string{"Pain Type", "pain_type", "paintype"},
	}
}

// DefaultColumnCandidates returns the built-in column detection candidates.
func DefaultColumnCandidates() ColumnCandidates {
	return defaultColumnCandidates().clone()
}

// SetColumnCandidates updates the column detection candidates used during auto-detection.
// Fields left nil fall back to the built-in defaults.
func SetColumnCandidates(candidates ColumnCandidates) {
	columnCandidatesMu.Lock()
	defer columnCandidatesMu.Unlock()
	activeColumnOptions = candidates.withDefaults()
}

func getColumnCandidates() ColumnCandidates {
	columnCandidatesMu.RLock()
	defer columnCandidatesMu.RUnlock()
	return activeColumnOptions.clone()
}

func (c ColumnCandidates) withDefaults() ColumnCandidates {
	defaults := defaultColumnCandidates()
	return ColumnCandidates{
		Description: pickStrings(c.Description, defaults.Description),
		Department:  pickStrings(c.Department, defaults.Department),
		Location:    pickStrings(c.Location, defaults.Location),
		PainType:    pickStrings(c.PainType, defaults.PainType),
	}
}

func (c ColumnCandidates) clone() ColumnCandidates {
	return ColumnCandidates{
		Description: cloneStrings(c.Description),
		Department:  cloneStrings(c.Department),
		Location:    cloneStrings(c.Location),
		PainType:    cloneStrings(c.PainType),
	}
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
