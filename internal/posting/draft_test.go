package posting_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/posting-service/internal/posting"
)

func TestNewDraftDefaultsToProfessional(t *testing.T) {
	assert.Equal(t, posting.CategoryProfessional, posting.NewDraft().Basics.Category)
}

func TestMergeReplacesOnlyGivenGroups(t *testing.T) {
	d := completeDraft()
	loc := posting.Location{WorkMode: posting.WorkModeRemote}

	got := d.Merge(posting.Patch{Location: &loc})

	assert.Equal(t, loc, got.Location)
	assert.Equal(t, d.Basics.Title, got.Basics.Title)
	assert.Equal(t, d.Salary, got.Salary)
	assert.Equal(t, posting.WorkModeHybrid, d.Location.WorkMode, "receiver must not change")
}

func TestMergeNeverValidates(t *testing.T) {
	d := posting.NewDraft().Merge(posting.Patch{
		Salary: &posting.SalaryRange{Min: ptr[int64](5000), Max: ptr[int64](100)},
	})
	assert.Equal(t, int64(5000), *d.Salary.Min)
}

func TestMergeDropsMismatchedDetails(t *testing.T) {
	b := posting.Basics{
		Title:    "Praktikum Marketing",
		Category: posting.CategoryInternship,
		Details:  posting.ApprenticeshipDetails{Profession: "Koch"},
	}
	d := posting.NewDraft().Merge(posting.Patch{Basics: &b})
	assert.Nil(t, d.Basics.Details)

	b.Details = posting.InternshipDetails{DurationMonths: 6}
	d = d.Merge(posting.Patch{Basics: &b})
	assert.Equal(t, posting.InternshipDetails{DurationMonths: 6}, d.Basics.Details)
}

func TestMergeDefaultsEmptyCategory(t *testing.T) {
	d := posting.NewDraft().Merge(posting.Patch{Basics: &posting.Basics{Title: "x"}})
	assert.Equal(t, posting.CategoryProfessional, d.Basics.Category)
}

func TestMergeDoesNotAliasPatch(t *testing.T) {
	langs := []posting.Language{{Name: "Deutsch", Level: "B2"}}
	d := posting.NewDraft().Merge(posting.Patch{Languages: &langs})
	langs[0].Name = "Englisch"
	assert.Equal(t, "Deutsch", d.Languages[0].Name)
}

func TestCloneIsDeep(t *testing.T) {
	d := completeDraft()
	d.Basics.Details = posting.InternshipDetails{StudyFields: []string{"BWL"}}
	c := d.Clone()

	*c.Salary.Min = 1
	c.Qualifications.Skills[0].Name = "Rust"
	c.Basics.Details.(posting.InternshipDetails).StudyFields[0] = "Jura"

	assert.Equal(t, int64(2500), *d.Salary.Min)
	assert.Equal(t, "Go", d.Qualifications.Skills[0].Name)
	assert.Equal(t, "BWL", d.Basics.Details.(posting.InternshipDetails).StudyFields[0])
}

func TestDetailsJSONCarriesKind(t *testing.T) {
	d := completeDraft()
	d.Basics.Category = posting.CategoryApprenticeship
	d.Basics.Details = posting.ApprenticeshipDetails{Profession: "Mechatroniker", DurationMonths: 42}

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"details":{"kind":"apprenticeship","data":{"profession":"Mechatroniker"`)

	var back posting.JobDraft
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d.Basics.Details, back.Basics.Details)
	assert.Equal(t, d.Basics.Title, back.Basics.Title)
}

func TestDetailsJSONRejectsUnknownKind(t *testing.T) {
	var b posting.Basics
	err := json.Unmarshal([]byte(`{"title":"x","details":{"kind":"freelance","data":{}}}`), &b)
	assert.Error(t, err)
}
