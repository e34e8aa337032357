// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"social-support-intake/internal/models"
)

// StepCount is the number of wizard steps.
const StepCount = 3

func LoadRegistry(path string) (*StepRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg StepRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return &reg, nil
}

// Default returns the built-in three-step registry.
func Default() *StepRegistry {
	return &StepRegistry{
		Version: "1.0.0",
		Steps: []Step{
			{
				Index:    0,
				ID:       "personal-information",
				Section:  string(models.SectionPersonal),
				TitleKey: "steps.step1",
				Fields: []Field{
					{ID: models.FieldName, LabelKey: "step1.name", Input: InputText},
					{ID: models.FieldNationalID, LabelKey: "step1.nationalId", Input: InputText},
					{ID: models.FieldDateOfBirth, LabelKey: "step1.dob", Input: InputDate},
					{ID: models.FieldGender, LabelKey: "step1.gender", Input: InputText},
					{ID: models.FieldAddress, LabelKey: "step1.address", Input: InputText},
					{ID: models.FieldCity, LabelKey: "step1.city", Input: InputText},
					{ID: models.FieldState, LabelKey: "step1.state", Input: InputText},
					{ID: models.FieldCountry, LabelKey: "step1.country", Input: InputText},
					{ID: models.FieldPhone, LabelKey: "step1.phone", Input: InputTel},
					{ID: models.FieldEmail, LabelKey: "step1.email", Input: InputEmail},
				},
			},
			{
				Index:    1,
				ID:       "family-financial",
				Section:  string(models.SectionFamily),
				TitleKey: "steps.step2",
				Fields: []Field{
					{ID: models.FieldMaritalStatus, LabelKey: "step2.maritalStatus", Input: InputText},
					{ID: models.FieldDependents, LabelKey: "step2.dependents", Input: InputNumber},
					{ID: models.FieldEmploymentStatus, LabelKey: "step2.employmentStatus", Input: InputText},
					{ID: models.FieldMonthlyIncome, LabelKey: "step2.monthlyIncome", Input: InputNumber},
					{ID: models.FieldHousingStatus, LabelKey: "step2.housingStatus", Input: InputText},
				},
			},
			{
				Index:    2,
				ID:       "situation-descriptions",
				Section:  string(models.SectionSituations),
				TitleKey: "steps.step3",
				Fields: []Field{
					{ID: models.FieldFinancialSituation, LabelKey: "step3.financialSituation", Input: InputTextarea},
					{ID: models.FieldEmploymentCircumstances, LabelKey: "step3.employmentCircumstances", Input: InputTextarea},
					{ID: models.FieldReasonForApplying, LabelKey: "step3.reasonForApplying", Input: InputTextarea},
				},
				AssistFields: []string{
					models.FieldFinancialSituation,
					models.FieldEmploymentCircumstances,
					models.FieldReasonForApplying,
				},
			},
		},
	}
}

// Validate checks the registry's structure. When hasRules is non-nil every field must
// also be known to it.
func (r *StepRegistry) Validate(hasRules func(field string) bool) error {
	if len(r.Steps) != StepCount {
		return fmt.Errorf("registry must define %d steps, found %d", StepCount, len(r.Steps))
	}

	seen := make(map[string]bool)
	for i, step := range r.Steps {
		if step.Index != i {
			return fmt.Errorf("step %s has index %d, expected %d", step.ID, step.Index, i)
		}
		if step.ID == "" {
			return fmt.Errorf("step %d missing required field: ID", i)
		}
		if len(step.Fields) == 0 {
			return fmt.Errorf("step %s has no fields", step.ID)
		}

		inStep := make(map[string]bool, len(step.Fields))
		for _, f := range step.Fields {
			if f.ID == "" {
				return fmt.Errorf("step %s has a field without ID", step.ID)
			}
			if seen[f.ID] {
				return fmt.Errorf("duplicate field ID: %s", f.ID)
			}
			seen[f.ID] = true
			inStep[f.ID] = true

			if hasRules != nil && !hasRules(f.ID) {
				return fmt.Errorf("field %s has no validation rules", f.ID)
			}
		}
		for _, a := range step.AssistFields {
			if !inStep[a] {
				return fmt.Errorf("assist field %s is not a field of step %s", a, step.ID)
			}
		}
	}
	return nil
}

// StepAt returns the step with the given index.
func (r *StepRegistry) StepAt(index int) (Step, bool) {
	if index < 0 || index >= len(r.Steps) {
		return Step{}, false
	}
	return r.Steps[index], true
}

// FieldIDs lists the field ids of a step in display order.
func (r *StepRegistry) FieldIDs(index int) []string {
	step, ok := r.StepAt(index)
	if !ok {
		return nil
	}
	ids := make([]string, len(step.Fields))
	for i, f := range step.Fields {
		ids[i] = f.ID
	}
	return ids
}

// StepOf returns the index of the step that owns field.
func (r *StepRegistry) StepOf(field string) (int, bool) {
	for _, step := range r.Steps {
		for _, f := range step.Fields {
			if f.ID == field {
				return step.Index, true
			}
		}
	}
	return 0, false
}

// IsAssistField reports whether field offers writing help.
func (r *StepRegistry) IsAssistField(field string) bool {
	for _, step := range r.Steps {
		for _, a := range step.AssistFields {
			if a == field {
				return true
			}
		}
	}
	return false
}
