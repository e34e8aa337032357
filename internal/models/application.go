// internal/models/application.go
package models

import (
	"strconv"

	"social-support-intake/internal/common/validation"
)

// SectionName identifies one of the three sections of an application record.
type SectionName string

const (
	SectionPersonal   SectionName = "personal"
	SectionFamily     SectionName = "family"
	SectionSituations SectionName = "situations"
)

// Field identifiers, shared by validation, the step registry and the HTTP API.
const (
	FieldName        = "name"
	FieldNationalID  = "nationalId"
	FieldDateOfBirth = "dateOfBirth"
	FieldGender      = "gender"
	FieldAddress     = "address"
	FieldCity        = "city"
	FieldState       = "state"
	FieldCountry     = "country"
	FieldPhone       = "phone"
	FieldEmail       = "email"

	FieldMaritalStatus    = "maritalStatus"
	FieldDependents       = "dependents"
	FieldEmploymentStatus = "employmentStatus"
	FieldMonthlyIncome    = "monthlyIncome"
	FieldHousingStatus    = "housingStatus"

	FieldFinancialSituation      = "financialSituation"
	FieldEmploymentCircumstances = "employmentCircumstances"
	FieldReasonForApplying       = "reasonForApplying"
)

// ApplicationRecord is the full applicant dossier assembled across the wizard steps.
// The JSON layout is also the persisted layout.
type ApplicationRecord struct {
	Personal   PersonalInfo    `json:"personal"`
	Family     FamilyFinancial `json:"family"`
	Situations Situations      `json:"situations"`
}

type PersonalInfo struct {
	Name        string `json:"name"`
	NationalID  string `json:"nationalId"`
	DateOfBirth string `json:"dateOfBirth"` // YYYY-MM-DD
	Gender      string `json:"gender"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

type FamilyFinancial struct {
	MaritalStatus    string  `json:"maritalStatus"`
	Dependents       int     `json:"dependents"`
	EmploymentStatus string  `json:"employmentStatus"`
	MonthlyIncome    float64 `json:"monthlyIncome"`
	HousingStatus    string  `json:"housingStatus"`
}

type Situations struct {
	FinancialSituation      string `json:"financialSituation"`
	EmploymentCircumstances string `json:"employmentCircumstances"`
	ReasonForApplying       string `json:"reasonForApplying"`
}

// Sections is a partial update: nil sections are left untouched, non-nil ones replace
// the stored section wholesale.
type Sections struct {
	Personal   *PersonalInfo    `json:"personal,omitempty"`
	Family     *FamilyFinancial `json:"family,omitempty"`
	Situations *Situations      `json:"situations,omitempty"`
}

// DefaultRecord returns the empty record a new applicant starts from.
func DefaultRecord() ApplicationRecord {
	return ApplicationRecord{}
}

// Merge returns a copy of r with every non-nil section of s replacing its counterpart.
func (r ApplicationRecord) Merge(s Sections) ApplicationRecord {
	if s.Personal != nil {
		r.Personal = *s.Personal
	}
	if s.Family != nil {
		r.Family = *s.Family
	}
	if s.Situations != nil {
		r.Situations = *s.Situations
	}
	return r
}

// Values renders the section as raw form values keyed by field id.
func (p PersonalInfo) Values() map[string]string {
	return map[string]string{
		FieldName:        p.Name,
		FieldNationalID:  p.NationalID,
		FieldDateOfBirth: p.DateOfBirth,
		FieldGender:      p.Gender,
		FieldAddress:     p.Address,
		FieldCity:        p.City,
		FieldState:       p.State,
		FieldCountry:     p.Country,
		FieldPhone:       p.Phone,
		FieldEmail:       p.Email,
	}
}

func (f FamilyFinancial) Values() map[string]string {
	return map[string]string{
		FieldMaritalStatus:    f.MaritalStatus,
		FieldDependents:       strconv.Itoa(f.Dependents),
		FieldEmploymentStatus: f.EmploymentStatus,
		FieldMonthlyIncome:    strconv.FormatFloat(f.MonthlyIncome, 'f', -1, 64),
		FieldHousingStatus:    f.HousingStatus,
	}
}

func (s Situations) Values() map[string]string {
	return map[string]string{
		FieldFinancialSituation:      s.FinancialSituation,
		FieldEmploymentCircumstances: s.EmploymentCircumstances,
		FieldReasonForApplying:       s.ReasonForApplying,
	}
}

// SectionValues renders one section of the record as raw form values.
func (r ApplicationRecord) SectionValues(name SectionName) map[string]string {
	switch name {
	case SectionPersonal:
		return r.Personal.Values()
	case SectionFamily:
		return r.Family.Values()
	case SectionSituations:
		return r.Situations.Values()
	default:
		return map[string]string{}
	}
}

// PersonalFromValues builds the personal section from raw values.
func PersonalFromValues(v map[string]string) PersonalInfo {
	return PersonalInfo{
		Name:        v[FieldName],
		NationalID:  v[FieldNationalID],
		DateOfBirth: v[FieldDateOfBirth],
		Gender:      v[FieldGender],
		Address:     v[FieldAddress],
		City:        v[FieldCity],
		State:       v[FieldState],
		Country:     v[FieldCountry],
		Phone:       v[FieldPhone],
		Email:       v[FieldEmail],
	}
}

// FamilyFromValues builds the family section from raw values that already passed validation.
func FamilyFromValues(v map[string]string) (FamilyFinancial, error) {
	dependents, err := validation.ParseInteger(v[FieldDependents])
	if err != nil {
		return FamilyFinancial{}, err
	}
	income, err := validation.ParseNumber(v[FieldMonthlyIncome])
	if err != nil {
		return FamilyFinancial{}, err
	}
	return FamilyFinancial{
		MaritalStatus:    v[FieldMaritalStatus],
		Dependents:       dependents,
		EmploymentStatus: v[FieldEmploymentStatus],
		MonthlyIncome:    income,
		HousingStatus:    v[FieldHousingStatus],
	}, nil
}

func SituationsFromValues(v map[string]string) Situations {
	return Situations{
		FinancialSituation:      v[FieldFinancialSituation],
		EmploymentCircumstances: v[FieldEmploymentCircumstances],
		ReasonForApplying:       v[FieldReasonForApplying],
	}
}

// Receipt acknowledges an accepted submission.
type Receipt struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Reference   string `json:"reference,omitempty"`
	SubmittedAt string `json:"submittedAt"`
}

// Receipt statuses
const (
	ReceiptStatusAccepted = "accepted"
	ReceiptStatusStarted  = "workflow_started"
)
