// internal/workers/application/index-application/models.go
package indexapplication

import "social-support-intake/internal/models"

type Input struct {
	ApplicationID string                   `json:"applicationId"`
	Application   models.ApplicationRecord `json:"application"`
	Locale        string                   `json:"locale"`
	SubmittedAt   string                   `json:"submittedAt"`
}

type Output struct {
	Indexed bool   `json:"indexed"`
	Index   string `json:"searchIndex"`
}

// Document is the searchable summary of an application. Contact details stay out of the index.
type Document struct {
	ApplicationID    string  `json:"applicationId"`
	Name             string  `json:"name"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	Country          string  `json:"country"`
	MaritalStatus    string  `json:"maritalStatus"`
	EmploymentStatus string  `json:"employmentStatus"`
	HousingStatus    string  `json:"housingStatus"`
	Dependents       int     `json:"dependents"`
	MonthlyIncome    float64 `json:"monthlyIncome"`
	Narrative        string  `json:"narrative"`
	Locale           string  `json:"locale"`
	SubmittedAt      string  `json:"submittedAt"`
}
