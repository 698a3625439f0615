package assist

import (
	"fmt"

	"jobmate/posting-service/internal/posting"
)

const promptTemplate = `
You are an HR copywriter for German employers. Write the content of a job posting.

### POSTING:
- Title: %s
- Category: %s
- Location: %s
- Employment type: %s
- Industry: %s
- Company: %s

### INSTRUCTIONS:
1. Write in German, addressing candidates informally ("du").
2. Each list holds 3 to 6 short lines without bullet characters.
3. Format the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "description": "2-3 sentence summary of the role",
    "tasks": ["..."],
    "requirements": ["..."],
    "benefits": ["..."],
    "skills": ["skill names only"],
    "languages": ["language names only"],
    "details": %s
}

### CONSTRAINT:
Use only what the posting data implies. Do not invent salary figures.
`

var detailsSchema = map[posting.Category]string{
	posting.CategoryInternship:     `{"durationMonths": 6, "mandatory": false, "studyFields": ["..."]}`,
	posting.CategoryApprenticeship: `{"profession": "...", "durationMonths": 36, "schoolCertificate": "...", "vocationalSchool": "..."}`,
	posting.CategoryProfessional:   `{"experienceYears": 3, "careerLevel": "...", "leadsTeam": false}`,
}

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(req posting.AssistRequest) string {
	schema, ok := detailsSchema[req.Category]
	if !ok {
		schema = "null"
	}
	return fmt.Sprintf(promptTemplate,
		orUnknown(req.Title),
		orUnknown(string(req.Category)),
		orUnknown(req.Location),
		orUnknown(req.JobType),
		orUnknown(req.Industry),
		orUnknown(req.CompanyName),
		schema,
	)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
