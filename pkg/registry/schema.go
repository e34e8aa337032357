// pkg/registry/schema.go
package registry

// StepRegistry describes the wizard: its steps, their fields and which fields offer writing help.
type StepRegistry struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated,omitempty"`
	Steps       []Step `json:"steps"`
}

type Step struct {
	Index        int      `json:"index"`
	ID           string   `json:"id"`
	Section      string   `json:"section"`
	TitleKey     string   `json:"titleKey"`
	Fields       []Field  `json:"fields"`
	AssistFields []string `json:"assistFields,omitempty"`
}

type Field struct {
	ID       string `json:"id"`
	LabelKey string `json:"labelKey"`
	Input    string `json:"input"` // text, date, number, email, tel, textarea
}

// Input kinds
const (
	InputText     = "text"
	InputDate     = "date"
	InputNumber   = "number"
	InputEmail    = "email"
	InputTel      = "tel"
	InputTextarea = "textarea"
)
