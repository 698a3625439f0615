package posting

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	msgHoursOrder  = "min hours must not exceed max hours"
	msgSalaryOrder = "min salary must not exceed max salary"
)

// Validate returns every rule of step that d violates. An empty result means
// the step may be left forward. It has no side effects.
func Validate(d JobDraft, step StepID) []string {
	var errs []string
	switch step {
	case StepBasics:
		errs = requireAll(errs,
			field{d.Basics.Title, "title is required"},
			field{d.Basics.Department, "department is required"},
			field{d.Basics.RoleFamily, "role family is required"},
			field{d.Basics.Description, "description is required"},
		)

	case StepLocation:
		if d.Location.WorkMode == "" {
			errs = append(errs, "work mode is required")
		}
		if d.Location.WorkMode != WorkModeRemote {
			a := d.Location.Address
			errs = requireAll(errs,
				field{a.Country, "country is required"},
				field{a.State, "state is required"},
				field{a.City, "city is required"},
				field{a.PostalCode, "postal code is required"},
				field{a.Street, "street is required"},
			)
		}

	case StepContract:
		if d.Contract.EmploymentType == "" {
			errs = append(errs, "employment type is required")
		}
		h := d.Contract.Hours
		if h.Min != nil && h.Max != nil && *h.Min > *h.Max {
			errs = append(errs, msgHoursOrder)
		}

	case StepSalary:
		s := d.Salary
		if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
			errs = append(errs, msgSalaryOrder)
		}

	case StepSkills:
		q := d.Qualifications
		errs = minLength(errs, q.Tasks, "tasks")
		errs = minLength(errs, q.Requirements, "requirements")
		errs = minLength(errs, q.Benefits, "benefits")

	case StepCompany:
		c := d.Company.Contact
		errs = requireAll(errs,
			field{c.Name, "contact name is required"},
			field{c.Role, "contact role is required"},
			field{c.Email, "contact email is required"},
		)

	case StepPreview:
		errs = requireAll(errs,
			field{d.Basics.Title, "title is required"},
			field{d.Company.Contact.Name, "contact name is required"},
			field{d.Company.Contact.Role, "contact role is required"},
			field{d.Company.Contact.Email, "contact email is required"},
		)
		if d.Location.WorkMode != WorkModeRemote {
			errs = requireAll(errs,
				field{d.Location.Address.City, "city is required"},
				field{d.Location.Address.PostalCode, "postal code is required"},
			)
		}

	case StepLanguages, StepAdditional:
		// nothing required
	}
	return errs
}

// ValidateAll runs every step in catalog order and returns the combined
// list. Duplicate messages from the preview cross-check are folded.
func ValidateAll(d JobDraft) []string {
	var all []string
	seen := make(map[string]bool)
	for _, s := range steps {
		for _, msg := range Validate(d, s.ID) {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			all = append(all, msg)
		}
	}
	return all
}

type field struct {
	value string
	msg   string
}

func requireAll(errs []string, fields ...field) []string {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, f.msg)
		}
	}
	return errs
}

func minLength(errs []string, text, name string) []string {
	if len([]rune(strings.TrimSpace(text))) < MinLongTextLength {
		errs = append(errs, fmt.Sprintf("%s must be at least %d characters", name, MinLongTextLength))
	}
	return errs
}

// ─── Structural constraints ──────────────────────────────────────────────────

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// CheckConstraints reports shape errors that no step validator covers:
// enum vocabularies, skill levels, CEFR levels, e-mail format, currency code,
// travel percentage. Drafts may be incomplete; empty fields pass.
func CheckConstraints(d JobDraft) error {
	var msgs []string

	if err := structValidator.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate draft: %w", err)
		}
		for _, fe := range verrs {
			msgs = append(msgs, describeFieldError(fe))
		}
	}

	if det := d.Basics.Details; det != nil && det.Category() != d.Basics.Category {
		msgs = append(msgs, fmt.Sprintf("details of kind %s do not match category %s", det.Category(), d.Basics.Category))
	}
	c := d.Contract
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		msgs = append(msgs, "end date must not be before start date")
	}

	if len(msgs) > 0 {
		return &ValidationError{Msg: "draft violates field constraints", Details: msgs}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	name := strings.TrimPrefix(fe.Namespace(), "JobDraft.")
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min", "max":
		return fmt.Sprintf("%s is out of range (%s %s)", name, fe.Tag(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	case "email":
		return name + " must be a valid e-mail address"
	case "iso4217":
		return name + " must be an ISO 4217 currency code"
	}
	return fmt.Sprintf("%s failed %s", name, fe.Tag())
}
