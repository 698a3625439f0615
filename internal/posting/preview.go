package posting

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Company is the employer profile shown next to a posting.
type Company struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Industry string `json:"industry,omitempty"`
	Website  string `json:"website,omitempty"`
	LogoURL  string `json:"logoUrl,omitempty"`
}

// ViewModel is the candidate-facing projection of a draft.
type ViewModel struct {
	Title           string   `json:"title"`
	Category        string   `json:"category"`
	Department      string   `json:"department,omitempty"`
	RoleFamily      string   `json:"roleFamily,omitempty"`
	Description     string   `json:"description"`
	EmploymentType  string   `json:"employmentType,omitempty"`
	WorkMode        string   `json:"workMode,omitempty"`
	Address         string   `json:"address,omitempty"`
	Start           string   `json:"start,omitempty"`
	End             string   `json:"end,omitempty"`
	Hours           string   `json:"hours,omitempty"`
	Salary          string   `json:"salary"`
	Tasks           string   `json:"tasks"`
	Requirements    string   `json:"requirements"`
	Benefits        string   `json:"benefits"`
	Skills          []string `json:"skills,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
	DrivingLicenses []string `json:"drivingLicenses,omitempty"`
	Highlights      []string `json:"highlights,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	CompanyName     string   `json:"companyName,omitempty"`
	CompanyBlurb    string   `json:"companyBlurb,omitempty"`
	ContactName     string   `json:"contactName,omitempty"`
	ContactRole     string   `json:"contactRole,omitempty"`
	ContactEmail    string   `json:"contactEmail,omitempty"`
	ContactPhone    string   `json:"contactPhone,omitempty"`
}

var (
	categoryLabels = map[Category]string{
		CategoryInternship:     "Praktikum",
		CategoryApprenticeship: "Ausbildung",
		CategoryProfessional:   "Berufserfahrene",
	}
	employmentLabels = map[EmploymentType]string{
		EmploymentFullTime:    "Vollzeit",
		EmploymentPartTime:    "Teilzeit",
		EmploymentMiniJob:     "Minijob",
		EmploymentWerkstudent: "Werkstudent",
		EmploymentTemporary:   "Befristet",
		EmploymentPermanent:   "Unbefristet",
	}
	workModeLabels = map[WorkMode]string{
		WorkModeOnsite: "Vor Ort",
		WorkModeHybrid: "Hybrid",
		WorkModeRemote: "Remote",
	}
	intervalLabels = map[PayInterval]string{
		PayPerHour:  "pro Stunde",
		PayPerMonth: "pro Monat",
		PayPerYear:  "pro Jahr",
	}
	currencySymbols = map[string]string{
		"EUR": "€",
		"USD": "$",
		"GBP": "£",
		"CHF": "CHF",
	}
)

const (
	salaryByAgreement = "Vergütung nach Vereinbarung"
	defaultCurrency   = "EUR"
	dateLayout        = "02.01.2006"
)

var printer = message.NewPrinter(language.German)

// Render projects d for candidates. It never validates and accepts
// incomplete drafts.
func Render(d JobDraft, c Company) ViewModel {
	vm := ViewModel{
		Title:          d.Basics.Title,
		Category:       categoryLabels[d.Basics.Category],
		Department:     d.Basics.Department,
		RoleFamily:     d.Basics.RoleFamily,
		Description:    d.Basics.Description,
		EmploymentType: employmentLabels[d.Contract.EmploymentType],
		WorkMode:       workModeLabels[d.Location.WorkMode],
		Salary:         FormatSalary(d.Salary.Min, d.Salary.Max, d.Salary.Currency, d.Salary.Interval),
		Tasks:          d.Qualifications.Tasks,
		Requirements:   d.Qualifications.Requirements,
		Benefits:       d.Qualifications.Benefits,
		Tags:           append([]string(nil), d.Extras.Tags...),
		CompanyName:    c.Name,
		CompanyBlurb:   d.Company.Blurb,
		ContactName:    d.Company.Contact.Name,
		ContactRole:    d.Company.Contact.Role,
		ContactEmail:   d.Company.Contact.Email,
		ContactPhone:   d.Company.Contact.Phone,
	}

	if d.Location.WorkMode != WorkModeRemote {
		vm.Address = FormatAddress(d.Location.Address)
	}

	switch {
	case d.Contract.StartImmediately:
		vm.Start = "ab sofort"
	case d.Contract.StartDate != nil:
		vm.Start = "ab " + d.Contract.StartDate.Format(dateLayout)
	}
	if d.Contract.EndDate != nil {
		vm.End = "bis " + d.Contract.EndDate.Format(dateLayout)
	}
	vm.Hours = formatHours(d.Contract.Hours)

	for _, s := range d.Qualifications.Skills {
		vm.Skills = append(vm.Skills, withRequired(fmt.Sprintf("%s (%d/5)", s.Name, s.Level), s.Required))
	}
	for _, l := range d.Languages {
		level := l.Level
		if level == "native" {
			level = "Muttersprache"
		}
		vm.Languages = append(vm.Languages, withRequired(fmt.Sprintf("%s (%s)", l.Name, level), l.Required))
	}
	for _, c := range d.Qualifications.Certifications {
		label := c.Name
		if c.Issuer != "" {
			label += ", " + c.Issuer
		}
		vm.Certifications = append(vm.Certifications, withRequired(label, c.Required))
	}
	for _, dl := range d.Qualifications.DrivingLicenses {
		vm.DrivingLicenses = append(vm.DrivingLicenses, withRequired("Klasse "+dl.Class, dl.Required))
	}

	vm.Highlights = highlights(d.Extras, time.Now())
	return vm
}

// FormatSalary renders a salary range the way the preview shows it, e.g.
// "2.500 € - 3.500 € pro Monat". Unset interval means per month.
func FormatSalary(min, max *int64, cur string, interval PayInterval) string {
	if min == nil && max == nil {
		return salaryByAgreement
	}
	per, ok := intervalLabels[interval]
	if !ok {
		per = intervalLabels[PayPerMonth]
	}
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%s - %s %s", formatAmount(*min, cur), formatAmount(*max, cur), per)
	case min != nil:
		return fmt.Sprintf("ab %s %s", formatAmount(*min, cur), per)
	default:
		return fmt.Sprintf("bis %s %s", formatAmount(*max, cur), per)
	}
}

// formatAmount uses German digit grouping, no fraction digits and the
// currency symbol after the number.
func formatAmount(v int64, cur string) string {
	code := strings.ToUpper(strings.TrimSpace(cur))
	if code == "" {
		code = defaultCurrency
	}
	if unit, err := currency.ParseISO(code); err == nil {
		code = unit.String()
	}
	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = code
	}
	return printer.Sprintf("%d", v) + " " + symbol
}

// FormatAddress joins the non-empty address parts:
// "Hauptstraße 5, 10115 Berlin, Berlin, Deutschland".
func FormatAddress(a Address) string {
	street := strings.TrimSpace(strings.Join(nonEmpty(a.Street, a.Number), " "))
	city := strings.TrimSpace(strings.Join(nonEmpty(a.PostalCode, a.City), " "))
	return strings.Join(nonEmpty(street, city, a.State, a.Country), ", ")
}

func formatHours(h HoursRange) string {
	f := func(v float64) string { return printer.Sprintf("%v", v) }
	switch {
	case h.Min != nil && h.Max != nil:
		return fmt.Sprintf("%s - %s Std./Woche", f(*h.Min), f(*h.Max))
	case h.Min != nil:
		return fmt.Sprintf("ab %s Std./Woche", f(*h.Min))
	case h.Max != nil:
		return fmt.Sprintf("bis %s Std./Woche", f(*h.Max))
	}
	return ""
}

func highlights(e Extras, now time.Time) []string {
	var out []string
	if e.Urgent {
		out = append(out, "Dringend gesucht")
	}
	if e.IsFeatured(now) {
		out = append(out, "Top-Job")
	}
	if e.VisaSponsorship {
		out = append(out, "Visa-Sponsoring")
	}
	if e.RelocationSupport {
		out = append(out, "Umzugsunterstützung")
	}
	if e.TravelPercentage > 0 {
		out = append(out, fmt.Sprintf("Reisetätigkeit %d%%", e.TravelPercentage))
	}
	return out
}

func withRequired(label string, required bool) string {
	if required {
		return label + " (erforderlich)"
	}
	return label
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
