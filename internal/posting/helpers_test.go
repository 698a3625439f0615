package posting_test

import (
	"strings"
	"time"

	"jobmate/posting-service/internal/posting"
)

func ptr[T any](v T) *T { return &v }

var longText = strings.Repeat("Lorem ipsum ", 5) // 60 characters

// completeDraft passes every step validator.
func completeDraft() posting.JobDraft {
	d := posting.NewDraft()
	d.Basics = posting.Basics{
		Title:       "Backend Engineer (m/w/d)",
		Category:    posting.CategoryProfessional,
		Department:  "Engineering",
		RoleFamily:  "Software",
		Description: "Du baust unsere Plattform.",
		Details:     posting.ProfessionalDetails{ExperienceYears: 3},
	}
	d.Location = posting.Location{
		WorkMode: posting.WorkModeHybrid,
		Address: posting.Address{
			Street:     "Hauptstraße",
			Number:     "5",
			PostalCode: "10115",
			City:       "Berlin",
			State:      "Berlin",
			Country:    "Deutschland",
		},
	}
	d.Contract = posting.Contract{
		EmploymentType:   posting.EmploymentFullTime,
		StartImmediately: true,
		Hours:            posting.HoursRange{Min: ptr(38.0), Max: ptr(40.0)},
	}
	d.Salary = posting.SalaryRange{Min: ptr[int64](2500), Max: ptr[int64](3500), Currency: "EUR", Interval: posting.PayPerMonth}
	d.Qualifications = posting.Qualifications{
		Tasks:        longText,
		Requirements: longText,
		Benefits:     longText,
		Skills:       []posting.Skill{{Name: "Go", Level: 4, Required: true}},
	}
	d.Languages = []posting.Language{{Name: "Deutsch", Level: "C1", Required: true}}
	d.Company = posting.CompanyInfo{
		Blurb:   "Wir sind Acme.",
		Contact: posting.ContactPerson{Name: "Erika Muster", Role: "Recruiting", Email: "jobs@acme.example"},
	}
	return d
}

func mustDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}
