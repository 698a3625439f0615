// Package posting holds the job-posting domain: the draft aggregate edited by
// the creation wizard, the per-step validator, the preview projection and the
// post-creation lifecycle.
package posting

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Category selects which category-specific details a posting carries.
type Category string

const (
	CategoryInternship     Category = "internship"
	CategoryApprenticeship Category = "apprenticeship"
	CategoryProfessional   Category = "professional"
)

// WorkMode values. Remote postings carry no mandatory address.
type WorkMode string

const (
	WorkModeOnsite WorkMode = "onsite"
	WorkModeHybrid WorkMode = "hybrid"
	WorkModeRemote WorkMode = "remote"
)

// EmploymentType values mirror the employment_type column.
type EmploymentType string

const (
	EmploymentFullTime    EmploymentType = "fulltime"
	EmploymentPartTime    EmploymentType = "parttime"
	EmploymentMiniJob     EmploymentType = "minijob"
	EmploymentWerkstudent EmploymentType = "werkstudent"
	EmploymentTemporary   EmploymentType = "temporary"
	EmploymentPermanent   EmploymentType = "permanent"
)

// PayInterval is the period a salary figure refers to.
type PayInterval string

const (
	PayPerHour  PayInterval = "hour"
	PayPerMonth PayInterval = "month"
	PayPerYear  PayInterval = "year"
)

// MinLongTextLength is the trimmed length tasks, requirements and benefits
// need before a posting can be published.
const MinLongTextLength = 50

// ─── Field groups ────────────────────────────────────────────────────────────

// Basics is edited on the first wizard step.
type Basics struct {
	Title       string          `json:"title"`
	Category    Category        `json:"category" validate:"omitempty,oneof=internship apprenticeship professional"`
	Department  string          `json:"department"`
	RoleFamily  string          `json:"roleFamily"`
	Description string          `json:"description"`
	Details     CategoryDetails `json:"-"`
}

// GeoPoint is optional and only used for radius search.
type GeoPoint struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}

// Address is the postal address of the workplace.
type Address struct {
	Street      string    `json:"street"`
	Number      string    `json:"number"`
	PostalCode  string    `json:"postalCode"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	Coordinates *GeoPoint `json:"coordinates,omitempty"`
}

// Location is edited on the location step.
type Location struct {
	WorkMode WorkMode `json:"workMode" validate:"omitempty,oneof=onsite hybrid remote"`
	Address  Address  `json:"address"`
}

// HoursRange is weekly working hours; either bound may be unset.
type HoursRange struct {
	Min *float64 `json:"min,omitempty" validate:"omitempty,min=0,max=168"`
	Max *float64 `json:"max,omitempty" validate:"omitempty,min=0,max=168"`
}

// Contract is edited on the time/contract step.
type Contract struct {
	EmploymentType   EmploymentType `json:"employmentType" validate:"omitempty,oneof=fulltime parttime minijob werkstudent temporary permanent"`
	StartDate        *time.Time     `json:"startDate,omitempty"`
	StartImmediately bool           `json:"startImmediately"`
	EndDate          *time.Time     `json:"endDate,omitempty"`
	Hours            HoursRange     `json:"hours"`
	Shifts           []string       `json:"shifts,omitempty"`
}

// SalaryRange amounts are whole currency units.
type SalaryRange struct {
	Min      *int64      `json:"min,omitempty" validate:"omitempty,min=0"`
	Max      *int64      `json:"max,omitempty" validate:"omitempty,min=0"`
	Currency string      `json:"currency,omitempty" validate:"omitempty,iso4217"`
	Interval PayInterval `json:"interval,omitempty" validate:"omitempty,oneof=hour month year"`
}

type Skill struct {
	Name     string `json:"name" validate:"required"`
	Level    int    `json:"level" validate:"min=1,max=5"`
	Required bool   `json:"required"`
}

// Language level is a CEFR level or "native".
type Language struct {
	Name     string `json:"name" validate:"required"`
	Level    string `json:"level" validate:"oneof=A1 A2 B1 B2 C1 C2 native"`
	Required bool   `json:"required"`
}

type Certification struct {
	Name     string `json:"name" validate:"required"`
	Issuer   string `json:"issuer"`
	Required bool   `json:"required"`
}

type DrivingLicense struct {
	Class    string `json:"class" validate:"required"`
	Required bool   `json:"required"`
}

// Qualifications is edited on the skills step, which also owns the three
// long-form text blocks.
type Qualifications struct {
	Tasks           string           `json:"tasks"`
	Requirements    string           `json:"requirements"`
	Benefits        string           `json:"benefits"`
	Skills          []Skill          `json:"skills,omitempty" validate:"dive"`
	Certifications  []Certification  `json:"certifications,omitempty" validate:"dive"`
	DrivingLicenses []DrivingLicense `json:"drivingLicenses,omitempty" validate:"dive"`
}

type ContactPerson struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

// CompanyInfo is edited on the company step.
type CompanyInfo struct {
	Blurb   string        `json:"blurb"`
	Contact ContactPerson `json:"contact"`
}

// Extras is edited on the additional step.
type Extras struct {
	Urgent            bool       `json:"urgent"`
	Featured          bool       `json:"featured"`
	FeaturedUntil     *time.Time `json:"featuredUntil,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	BenefitTags       []string   `json:"benefitTags,omitempty"`
	ExternalSourceID  string     `json:"externalSourceId,omitempty"`
	VisaSponsorship   bool       `json:"visaSponsorship"`
	RelocationSupport bool       `json:"relocationSupport"`
	TravelPercentage  int        `json:"travelPercentage" validate:"min=0,max=100"`
}

// IsFeatured reports whether the featured flag is still in effect at now.
// An expired flag stays stored until the sweep clears it.
func (e Extras) IsFeatured(now time.Time) bool {
	return e.Featured && (e.FeaturedUntil == nil || e.FeaturedUntil.After(now))
}

// ─── Aggregate ───────────────────────────────────────────────────────────────

// JobDraft is the aggregate edited across all wizard steps. Each step owns
// exactly one field group.
type JobDraft struct {
	Basics         Basics         `json:"basics"`
	Location       Location       `json:"location"`
	Contract       Contract       `json:"contract"`
	Salary         SalaryRange    `json:"salary"`
	Qualifications Qualifications `json:"qualifications"`
	Languages      []Language     `json:"languages,omitempty" validate:"dive"`
	Company        CompanyInfo    `json:"company"`
	Extras         Extras         `json:"extras"`
}

// NewDraft returns an empty draft with the category defaulted to professional.
func NewDraft() JobDraft {
	return JobDraft{Basics: Basics{Category: CategoryProfessional}}
}

// Patch carries whole field groups. Nil groups are left untouched.
type Patch struct {
	Basics         *Basics
	Location       *Location
	Contract       *Contract
	Salary         *SalaryRange
	Qualifications *Qualifications
	Languages      *[]Language
	Company        *CompanyInfo
	Extras         *Extras
}

// Merge returns d with every group present in p replaced. It never
// validates. Category details that do not match the category are dropped.
func (d JobDraft) Merge(p Patch) JobDraft {
	if p.Basics != nil {
		d.Basics = *p.Basics
		if d.Basics.Category == "" {
			d.Basics.Category = CategoryProfessional
		}
		if d.Basics.Details != nil && d.Basics.Details.Category() != d.Basics.Category {
			d.Basics.Details = nil
		}
	}
	if p.Location != nil {
		d.Location = *p.Location
	}
	if p.Contract != nil {
		d.Contract = *p.Contract
	}
	if p.Salary != nil {
		d.Salary = *p.Salary
	}
	if p.Qualifications != nil {
		d.Qualifications = *p.Qualifications
	}
	if p.Languages != nil {
		d.Languages = *p.Languages
	}
	if p.Company != nil {
		d.Company = *p.Company
	}
	if p.Extras != nil {
		d.Extras = *p.Extras
	}
	return d.Clone()
}

// Clone returns a copy sharing no slices or pointers with d.
func (d JobDraft) Clone() JobDraft {
	out := d
	out.Location.Address.Coordinates = clonePtr(d.Location.Address.Coordinates)
	out.Contract.StartDate = clonePtr(d.Contract.StartDate)
	out.Contract.EndDate = clonePtr(d.Contract.EndDate)
	out.Contract.Hours.Min = clonePtr(d.Contract.Hours.Min)
	out.Contract.Hours.Max = clonePtr(d.Contract.Hours.Max)
	out.Contract.Shifts = slices.Clone(d.Contract.Shifts)
	out.Salary.Min = clonePtr(d.Salary.Min)
	out.Salary.Max = clonePtr(d.Salary.Max)
	out.Qualifications.Skills = slices.Clone(d.Qualifications.Skills)
	out.Qualifications.Certifications = slices.Clone(d.Qualifications.Certifications)
	out.Qualifications.DrivingLicenses = slices.Clone(d.Qualifications.DrivingLicenses)
	out.Languages = slices.Clone(d.Languages)
	out.Extras.FeaturedUntil = clonePtr(d.Extras.FeaturedUntil)
	out.Extras.Tags = slices.Clone(d.Extras.Tags)
	out.Extras.BenefitTags = slices.Clone(d.Extras.BenefitTags)
	if d.Basics.Details != nil {
		out.Basics.Details = d.Basics.Details.clone()
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ─── Category details (closed sum type) ──────────────────────────────────────

// CategoryDetails is implemented only by InternshipDetails,
// ApprenticeshipDetails and ProfessionalDetails.
type CategoryDetails interface {
	Category() Category
	clone() CategoryDetails
}

type InternshipDetails struct {
	DurationMonths int      `json:"durationMonths"`
	Mandatory      bool     `json:"mandatory"`
	StudyFields    []string `json:"studyFields,omitempty"`
}

type ApprenticeshipDetails struct {
	Profession        string `json:"profession"`
	DurationMonths    int    `json:"durationMonths"`
	SchoolCertificate string `json:"schoolCertificate,omitempty"`
	VocationalSchool  string `json:"vocationalSchool,omitempty"`
}

type ProfessionalDetails struct {
	ExperienceYears int    `json:"experienceYears"`
	CareerLevel     string `json:"careerLevel,omitempty"`
	LeadsTeam       bool   `json:"leadsTeam"`
}

func (InternshipDetails) Category() Category     { return CategoryInternship }
func (ApprenticeshipDetails) Category() Category { return CategoryApprenticeship }
func (ProfessionalDetails) Category() Category   { return CategoryProfessional }

func (d InternshipDetails) clone() CategoryDetails {
	d.StudyFields = slices.Clone(d.StudyFields)
	return d
}
func (d ApprenticeshipDetails) clone() CategoryDetails { return d }
func (d ProfessionalDetails) clone() CategoryDetails   { return d }

type detailsEnvelope struct {
	Kind Category        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON writes the details variant as {"kind": …, "data": …}.
func (b Basics) MarshalJSON() ([]byte, error) {
	type plain Basics
	out := struct {
		plain
		Details *detailsEnvelope `json:"details,omitempty"`
	}{plain: plain(b)}
	if b.Details != nil {
		data, err := json.Marshal(b.Details)
		if err != nil {
			return nil, fmt.Errorf("marshal details: %w", err)
		}
		out.Details = &detailsEnvelope{Kind: b.Details.Category(), Data: data}
	}
	return json.Marshal(out)
}

func (b *Basics) UnmarshalJSON(data []byte) error {
	type plain Basics
	aux := struct {
		*plain
		Details *detailsEnvelope `json:"details"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.Details = nil
	if aux.Details == nil {
		return nil
	}
	details, err := decodeDetails(*aux.Details)
	if err != nil {
		return err
	}
	b.Details = details
	return nil
}

func decodeDetails(env detailsEnvelope) (CategoryDetails, error) {
	switch env.Kind {
	case CategoryInternship:
		var d InternshipDetails
		err := json.Unmarshal(env.Data, &d)
		return d, err
	case CategoryApprenticeship:
		var d ApprenticeshipDetails
		err := json.Unmarshal(env.Data, &d)
		return d, err
	case CategoryProfessional:
		var d ProfessionalDetails
		err := json.Unmarshal(env.Data, &d)
		return d, err
	}
	return nil, fmt.Errorf("unknown details kind %q", env.Kind)
}
