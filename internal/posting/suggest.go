package posting

import "strings"

// AssistRequest is what the content assistant gets to work with.
type AssistRequest struct {
	Title       string   `json:"title"`
	Location    string   `json:"location"`
	JobType     string   `json:"jobType"`
	Category    Category `json:"category"`
	Industry    string   `json:"industry"`
	CompanyName string   `json:"companyName"`
}

// Suggestion is the assistant's proposal. List fields are plain lines.
type Suggestion struct {
	Description  string          `json:"description"`
	Tasks        []string        `json:"tasks"`
	Requirements []string        `json:"requirements"`
	Benefits     []string        `json:"benefits"`
	Skills       []string        `json:"skills"`
	Languages    []string        `json:"languages"`
	Details      CategoryDetails `json:"-"`
}

const (
	suggestedSkillLevel    = 3
	suggestedLanguageLevel = "B2"
)

func assistRequest(d JobDraft, c Company) AssistRequest {
	loc := d.Location.Address.City
	if d.Location.WorkMode == WorkModeRemote {
		loc = "Remote"
	}
	return AssistRequest{
		Title:       d.Basics.Title,
		Location:    loc,
		JobType:     string(d.Contract.EmploymentType),
		Category:    d.Basics.Category,
		Industry:    c.Industry,
		CompanyName: c.Name,
	}
}

// ApplySuggestion merges s into d. Without overwrite only empty fields are
// filled. Details of another category than the draft's are ignored.
func ApplySuggestion(d JobDraft, s Suggestion, overwrite bool) JobDraft {
	d = d.Clone()
	fill := func(dst *string, v string) {
		if v == "" {
			return
		}
		if overwrite || strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}

	fill(&d.Basics.Description, s.Description)
	fill(&d.Qualifications.Tasks, bulletList(s.Tasks))
	fill(&d.Qualifications.Requirements, bulletList(s.Requirements))
	fill(&d.Qualifications.Benefits, bulletList(s.Benefits))

	if len(s.Skills) > 0 && (overwrite || len(d.Qualifications.Skills) == 0) {
		skills := make([]Skill, 0, len(s.Skills))
		for _, name := range s.Skills {
			skills = append(skills, Skill{Name: name, Level: suggestedSkillLevel})
		}
		d.Qualifications.Skills = skills
	}
	if len(s.Languages) > 0 && (overwrite || len(d.Languages) == 0) {
		langs := make([]Language, 0, len(s.Languages))
		for _, name := range s.Languages {
			langs = append(langs, Language{Name: name, Level: suggestedLanguageLevel})
		}
		d.Languages = langs
	}
	if s.Details != nil && s.Details.Category() == d.Basics.Category &&
		(overwrite || d.Basics.Details == nil) {
		d.Basics.Details = s.Details.clone()
	}
	return d
}

func bulletList(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(l)
	}
	return b.String()
}
