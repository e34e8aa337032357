// Package fields is the per-field rule table for the application wizard.
package fields

import (
	"regexp"
	"strings"
	"time"

	"social-support-intake/internal/common/validation"
	"social-support-intake/internal/models"
	"social-support-intake/pkg/registry"
)

// Bounds
const (
	MinAge          = 16
	MaxAge          = 120
	MaxDependents   = 20
	MaxIncome       = 1000000
	NarrativeMinLen = 20
	NarrativeMaxLen = 1000
	DateLayout      = "2006-01-02"
)

var (
	lettersAndSpaces = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	alphanumeric     = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	phonePattern     = regexp.MustCompile(`^[\+]?[1-9][\d]{0,15}$`)
	emailPattern     = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)
	digit            = regexp.MustCompile(`\d`)
)

// Table maps each wizard field to its ordered rule set.
type Table struct {
	now      func() time.Time
	registry *registry.StepRegistry
	rules    map[string]validation.RuleSet
}

type Option func(*Table)

// WithClock replaces the clock used for the age rule.
func WithClock(now func() time.Time) Option {
	return func(t *Table) { t.now = now }
}

// WithRegistry replaces the step layout used by ForStep.
func WithRegistry(reg *registry.StepRegistry) Option {
	return func(t *Table) { t.registry = reg }
}

func New(opts ...Option) *Table {
	t := &Table{now: time.Now, registry: registry.Default()}
	for _, opt := range opts {
		opt(t)
	}
	t.rules = t.build()
	return t
}

var defaultTable = New()

// Check validates one field with the default table.
func Check(field, raw string) (string, bool) { return defaultTable.Check(field, raw) }

// ForStep lists the fields of a step with the default table.
func ForStep(step int) []string { return defaultTable.ForStep(step) }

// Has reports whether field has a rule set.
func (t *Table) Has(field string) bool {
	_, ok := t.rules[field]
	return ok
}

// Check validates a single field. Fields without rules always pass.
func (t *Table) Check(field, raw string) (string, bool) {
	rs, ok := t.rules[field]
	if !ok {
		return "", true
	}
	return rs.Check(raw)
}

func (t *Table) ForStep(step int) []string {
	return t.registry.FieldIDs(step)
}

// ValidateStep checks every field of step and returns the failing fields' first messages.
func (t *Table) ValidateStep(step int, values map[string]string) map[string]string {
	rules := make(map[string]validation.RuleSet)
	for _, f := range t.ForStep(step) {
		if rs, ok := t.rules[f]; ok {
			rules[f] = rs
		}
	}
	return validation.Validate(values, rules)
}

func (t *Table) build() map[string]validation.RuleSet {
	letters := func(label string) validation.RuleSet {
		return validation.RuleSet{
			validation.Required(label + " is required"),
			validation.Pattern(lettersAndSpaces, label+" should contain only letters and spaces"),
		}
	}
	narrative := func(label, purpose string) validation.RuleSet {
		return validation.RuleSet{
			validation.Required(label + " description is required"),
			validation.MinLength(NarrativeMinLen, "Please provide at least 20 characters "+purpose),
			validation.MaxLength(NarrativeMaxLen, "Description cannot exceed 1000 characters"),
			validation.Predicate(func(s string) bool { return !digit.MatchString(s) },
				"Please describe in words rather than using numbers"),
		}
	}

	return map[string]validation.RuleSet{
		models.FieldName: {
			validation.Required("Name is required"),
			validation.Pattern(lettersAndSpaces, "Name should contain only letters and spaces"),
			validation.MinLength(2, "Name must be at least 2 characters"),
		},
		models.FieldNationalID: {
			validation.Required("National ID is required"),
			validation.Pattern(alphanumeric, "National ID should contain only letters and numbers"),
			validation.MinLength(5, "National ID must be at least 5 characters"),
		},
		models.FieldDateOfBirth: {
			validation.Required("Date of birth is required"),
			validation.Predicate(func(s string) bool { _, ok := t.age(s); return ok }, "Please enter a valid date"),
			validation.Predicate(func(s string) bool { a, ok := t.age(s); return !ok || a >= MinAge }, "Must be at least 16 years old"),
			validation.Predicate(func(s string) bool { a, ok := t.age(s); return !ok || a <= MaxAge }, "Please enter a valid date"),
		},
		models.FieldGender: {
			validation.Required("Gender is required"),
			validation.Pattern(lettersAndSpaces, "Gender should contain only letters"),
		},
		models.FieldAddress: {
			validation.Required("Address is required"),
			validation.MinLength(10, "Address must be at least 10 characters"),
		},
		models.FieldCity:    letters("City"),
		models.FieldState:   letters("State"),
		models.FieldCountry: letters("Country"),
		models.FieldPhone: {
			validation.Required("Phone number is required"),
			validation.Pattern(phonePattern, "Please enter a valid phone number"),
			validation.MinLength(10, "Phone number must be at least 10 digits"),
		},
		models.FieldEmail: {
			validation.Required("Email is required"),
			validation.Pattern(emailPattern, "Please enter a valid email address"),
		},

		models.FieldMaritalStatus:    letters("Marital status"),
		models.FieldEmploymentStatus: letters("Employment status"),
		models.FieldHousingStatus:    letters("Housing status"),
		models.FieldDependents: {
			validation.Required("Number of dependents is required"),
			validation.Integer("Dependents must be a whole number"),
			validation.Min(0, "Dependents cannot be negative"),
			validation.Max(MaxDependents, "Please enter a reasonable number of dependents"),
		},
		models.FieldMonthlyIncome: {
			validation.Required("Monthly income is required"),
			validation.Numeric("Please enter a valid income amount"),
			validation.Min(0, "Income cannot be negative"),
			validation.Max(MaxIncome, "Please enter a reasonable income amount"),
		},

		models.FieldFinancialSituation:      narrative("Financial situation", "describing your financial situation"),
		models.FieldEmploymentCircumstances: narrative("Employment circumstances", "describing your employment circumstances"),
		models.FieldReasonForApplying:       narrative("Reason for applying", "explaining your reason for applying"),
	}
}

// age is the current year minus the birth year. Month and day are ignored, so someone
// born late in the year counts as one year older until their birthday.
func (t *Table) age(raw string) (int, bool) {
	dob, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return t.now().Year() - dob.Year(), true
}
