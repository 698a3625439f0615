package posting_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jobmate/posting-service/internal/posting"
)

func TestFormatSalary(t *testing.T) {
	cases := []struct {
		name     string
		min, max *int64
		currency string
		interval posting.PayInterval
		want     string
	}{
		{"range", ptr[int64](2500), ptr[int64](3500), "EUR", posting.PayPerMonth, "2.500 € - 3.500 € pro Monat"},
		{"min only", ptr[int64](2500), nil, "EUR", posting.PayPerMonth, "ab 2.500 € pro Monat"},
		{"max only", nil, ptr[int64](3500), "EUR", posting.PayPerMonth, "bis 3.500 € pro Monat"},
		{"neither", nil, nil, "EUR", posting.PayPerMonth, "Vergütung nach Vereinbarung"},
		{"neither without currency", nil, nil, "", "", "Vergütung nach Vereinbarung"},
		{"hourly", ptr[int64](15), ptr[int64](18), "EUR", posting.PayPerHour, "15 € - 18 € pro Stunde"},
		{"yearly large", ptr[int64](65000), ptr[int64](1250000), "EUR", posting.PayPerYear, "65.000 € - 1.250.000 € pro Jahr"},
		{"default interval and currency", ptr[int64](2000), nil, "", "", "ab 2.000 € pro Monat"},
		{"lowercase currency", ptr[int64](4000), nil, "usd", posting.PayPerMonth, "ab 4.000 $ pro Monat"},
		{"unknown symbol falls back to code", ptr[int64](4000), nil, "SEK", posting.PayPerMonth, "ab 4.000 SEK pro Monat"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, posting.FormatSalary(c.min, c.max, c.currency, c.interval))
		})
	}
}

func TestFormatAddress(t *testing.T) {
	a := posting.Address{Street: "Hauptstraße", Number: "5", PostalCode: "10115", City: "Berlin", State: "Berlin", Country: "Deutschland"}
	assert.Equal(t, "Hauptstraße 5, 10115 Berlin, Berlin, Deutschland", posting.FormatAddress(a))
	assert.Equal(t, "München", posting.FormatAddress(posting.Address{City: "München"}))
	assert.Equal(t, "", posting.FormatAddress(posting.Address{}))
}

func TestRender(t *testing.T) {
	d := completeDraft()
	d.Contract.StartImmediately = false
	d.Contract.StartDate = ptr(mustDate("2026-03-01"))
	d.Languages = append(d.Languages, posting.Language{Name: "Türkisch", Level: "native"})
	d.Extras = posting.Extras{Urgent: true, TravelPercentage: 20}

	vm := posting.Render(d, posting.Company{Name: "Acme GmbH"})

	assert.Equal(t, "Backend Engineer (m/w/d)", vm.Title)
	assert.Equal(t, "Berufserfahrene", vm.Category)
	assert.Equal(t, "Vollzeit", vm.EmploymentType)
	assert.Equal(t, "Hybrid", vm.WorkMode)
	assert.Equal(t, "Hauptstraße 5, 10115 Berlin, Berlin, Deutschland", vm.Address)
	assert.Equal(t, "ab 01.03.2026", vm.Start)
	assert.Equal(t, "38 - 40 Std./Woche", vm.Hours)
	assert.Equal(t, "2.500 € - 3.500 € pro Monat", vm.Salary)
	assert.Equal(t, []string{"Go (4/5) (erforderlich)"}, vm.Skills)
	assert.Equal(t, []string{"Deutsch (C1) (erforderlich)", "Türkisch (Muttersprache)"}, vm.Languages)
	assert.Equal(t, []string{"Dringend gesucht", "Reisetätigkeit 20%"}, vm.Highlights)
	assert.Equal(t, "Acme GmbH", vm.CompanyName)
	assert.Equal(t, "Erika Muster", vm.ContactName)
}

func TestRender_RemoteHidesAddress(t *testing.T) {
	d := completeDraft()
	d.Location.WorkMode = posting.WorkModeRemote
	vm := posting.Render(d, posting.Company{})
	assert.Empty(t, vm.Address)
	assert.Equal(t, "Remote", vm.WorkMode)
}

func TestRender_AcceptsEmptyDraft(t *testing.T) {
	vm := posting.Render(posting.JobDraft{}, posting.Company{})
	assert.Equal(t, "Vergütung nach Vereinbarung", vm.Salary)
	assert.Empty(t, vm.Start)
	assert.Empty(t, vm.Hours)
}

func TestRender_FeaturedHighlightExpires(t *testing.T) {
	d := completeDraft()
	d.Extras.Featured = true
	d.Extras.FeaturedUntil = ptr(time.Now().Add(-time.Hour))
	assert.NotContains(t, posting.Render(d, posting.Company{}).Highlights, "Top-Job")

	d.Extras.FeaturedUntil = ptr(time.Now().Add(time.Hour))
	assert.Contains(t, posting.Render(d, posting.Company{}).Highlights, "Top-Job")
}
