// Package search keeps published postings in Elasticsearch and answers
// candidate searches against that index.
package search

import (
	"time"

	"jobmate/posting-service/internal/posting"
)

// Document is the indexed, candidate-facing form of a published posting.
type Document struct {
	ID             string     `json:"id"`
	CompanyID      string     `json:"companyId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	WorkMode       string     `json:"workMode"`
	EmploymentType string     `json:"employmentType,omitempty"`
	City           string     `json:"city,omitempty"`
	PostalCode     string     `json:"postalCode,omitempty"`
	Country        string     `json:"country,omitempty"`
	Location       *GeoPoint  `json:"location,omitempty"`
	SalaryMin      *int64     `json:"salaryMin,omitempty"`
	SalaryMax      *int64     `json:"salaryMax,omitempty"`
	Currency       string     `json:"currency,omitempty"`
	Interval       string     `json:"interval,omitempty"`
	Salary         string     `json:"salary"`
	Skills         []string   `json:"skills,omitempty"`
	Languages      []string   `json:"languages,omitempty"`
	BenefitTags    []string   `json:"benefitTags,omitempty"`
	Shifts         []string   `json:"shifts,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	Featured       bool       `json:"featured"`
	Urgent         bool       `json:"urgent"`
	PublishedAt    *time.Time `json:"publishedAt,omitempty"`
}

// GeoPoint uses the Elasticsearch geo_point object form.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ToDocument projects a posting for the index. Remote postings carry no
// address and therefore never match a radius filter.
func ToDocument(p posting.Posting) Document {
	d := p.Draft
	doc := Document{
		ID:             p.ID,
		CompanyID:      p.CompanyID,
		Title:          d.Basics.Title,
		Description:    d.Basics.Description,
		Category:       string(d.Basics.Category),
		WorkMode:       string(d.Location.WorkMode),
		EmploymentType: string(d.Contract.EmploymentType),
		SalaryMin:      d.Salary.Min,
		SalaryMax:      d.Salary.Max,
		Currency:       d.Salary.Currency,
		Interval:       string(d.Salary.Interval),
		Salary:         posting.FormatSalary(d.Salary.Min, d.Salary.Max, d.Salary.Currency, d.Salary.Interval),
		BenefitTags:    d.Extras.BenefitTags,
		Shifts:         d.Contract.Shifts,
		Tags:           d.Extras.Tags,
		Featured:       d.Extras.IsFeatured(time.Now()),
		Urgent:         d.Extras.Urgent,
		PublishedAt:    p.PublishedAt,
	}
	if d.Location.WorkMode != posting.WorkModeRemote {
		a := d.Location.Address
		doc.City, doc.PostalCode, doc.Country = a.City, a.PostalCode, a.Country
		if a.Coordinates != nil {
			doc.Location = &GeoPoint{Lat: a.Coordinates.Lat, Lon: a.Coordinates.Lon}
		}
	}
	for _, s := range d.Qualifications.Skills {
		doc.Skills = append(doc.Skills, s.Name)
	}
	for _, l := range d.Languages {
		doc.Languages = append(doc.Languages, l.Name)
	}
	return doc
}
