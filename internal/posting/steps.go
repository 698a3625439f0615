package posting

import "fmt"

// StepID identifies a wizard step.
type StepID string

const (
	StepBasics     StepID = "basics"
	StepLocation   StepID = "location"
	StepContract   StepID = "contract"
	StepSalary     StepID = "salary"
	StepSkills     StepID = "skills"
	StepLanguages  StepID = "languages"
	StepCompany    StepID = "company"
	StepAdditional StepID = "additional"
	StepPreview    StepID = "preview"
)

// StepDefinition is one entry of the static step catalog.
type StepDefinition struct {
	ID    StepID `json:"id"`
	Title string `json:"title"`
}

var steps = []StepDefinition{
	{ID: StepBasics, Title: "Grunddaten"},
	{ID: StepLocation, Title: "Arbeitsort"},
	{ID: StepContract, Title: "Arbeitszeit & Vertrag"},
	{ID: StepSalary, Title: "Vergütung"},
	{ID: StepSkills, Title: "Aufgaben & Anforderungen"},
	{ID: StepLanguages, Title: "Sprachen"},
	{ID: StepCompany, Title: "Unternehmen & Kontakt"},
	{ID: StepAdditional, Title: "Zusätzliches"},
	{ID: StepPreview, Title: "Vorschau"},
}

// Steps returns the ordered step catalog.
func Steps() []StepDefinition {
	out := make([]StepDefinition, len(steps))
	copy(out, steps)
	return out
}

// StepIndex returns the 0-based position of id in the catalog.
func StepIndex(id StepID) (int, bool) {
	for i, s := range steps {
		if s.ID == id {
			return i, true
		}
	}
	return 0, false
}

// ParseStep converts a raw string to a StepID.
func ParseStep(s string) (StepID, error) {
	if _, ok := StepIndex(StepID(s)); !ok {
		return "", fmt.Errorf("unknown wizard step %q", s)
	}
	return StepID(s), nil
}
