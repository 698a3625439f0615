package assist_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/posting-service/internal/assist"
	"jobmate/posting-service/internal/posting"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

const fencedReply = "Here you go:\n```json\n" + `{
  "description": "Du entwickelst <b>Backend-Services</b> für R&D.",
  "tasks": ["APIs bauen", "  ", "<script>alert(1)</script>Reviews"],
  "requirements": ["Go"],
  "benefits": ["Homeoffice"],
  "skills": ["Go", "PostgreSQL"],
  "languages": ["Deutsch"],
  "details": {"experienceYears": 3, "careerLevel": "<i>Senior</i>", "leadsTeam": true}
}` + "\n```"

func TestSuggestParsesFencedReply(t *testing.T) {
	gen := &fakeGenerator{reply: fencedReply}
	c := assist.NewClient(gen)

	s, err := c.Suggest(context.Background(), posting.AssistRequest{
		Title:       "Backend Engineer",
		Location:    "Berlin",
		Category:    posting.CategoryProfessional,
		CompanyName: "Acme",
	})
	require.NoError(t, err)

	assert.Equal(t, "Du entwickelst Backend-Services für R&D.", s.Description)
	assert.Equal(t, []string{"APIs bauen", "Reviews"}, s.Tasks)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, s.Skills)
	assert.Equal(t, posting.ProfessionalDetails{ExperienceYears: 3, CareerLevel: "Senior", LeadsTeam: true}, s.Details)

	assert.Contains(t, gen.prompt, "Backend Engineer")
	assert.Contains(t, gen.prompt, "Berlin")
	assert.Contains(t, gen.prompt, "Acme")
}

func TestParseDetailsFollowCategory(t *testing.T) {
	c := assist.NewClient(&fakeGenerator{})
	raw := `{"description":"x","details":{"durationMonths":6,"mandatory":true,"studyFields":["Informatik"]}}`

	s, err := c.Parse(raw, posting.CategoryInternship)
	require.NoError(t, err)
	assert.Equal(t, posting.InternshipDetails{DurationMonths: 6, Mandatory: true, StudyFields: []string{"Informatik"}}, s.Details)

	s, err = c.Parse(`{"description":"x","details":null}`, posting.CategoryInternship)
	require.NoError(t, err)
	assert.Nil(t, s.Details)
}

func TestParseRejectsGarbage(t *testing.T) {
	c := assist.NewClient(&fakeGenerator{})

	_, err := c.Parse("sorry, I cannot help", posting.CategoryProfessional)
	assert.ErrorIs(t, err, assist.ErrEmptyReply)

	_, err = c.Parse("{not json}", posting.CategoryProfessional)
	assert.Error(t, err)
}

func TestSuggestPropagatesGeneratorError(t *testing.T) {
	boom := errors.New("quota exceeded")
	c := assist.NewClient(&fakeGenerator{err: boom})

	_, err := c.Suggest(context.Background(), posting.AssistRequest{Title: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestBuildPromptFillsUnknowns(t *testing.T) {
	p := assist.BuildPrompt(posting.AssistRequest{Title: "Koch", Category: posting.CategoryApprenticeship})
	assert.Contains(t, p, "- Title: Koch")
	assert.Contains(t, p, "- Industry: unknown")
	assert.True(t, strings.Contains(p, `"profession"`))
}
