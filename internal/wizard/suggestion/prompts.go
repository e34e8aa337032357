// internal/wizard/suggestion/prompts.go
package suggestion

import "social-support-intake/internal/models"

const systemPrompt = "You help citizens describe their financial and employment situations clearly and respectfully."

const defaultPrompt = "Help me write this description clearly."

var prompts = map[string]string{
	models.FieldFinancialSituation:      "Help me describe my current financial situation in a respectful, clear way.",
	models.FieldEmploymentCircumstances: "Help me describe my current employment circumstances in a respectful, clear way.",
	models.FieldReasonForApplying:       "Help me explain my reason for applying for financial assistance.",
}

const defaultFallback = "This is a mock suggestion to help you get started. Please replace this with your actual description. " +
	"The AI assistance feature requires an OpenAI API key to be configured in your .env file."

var fallbacks = map[string]string{
	models.FieldFinancialSituation: "I am currently experiencing financial difficulties due to unexpected circumstances. " +
		"My monthly expenses exceed my available income, making it challenging to meet basic needs such as housing, utilities, and food. " +
		"I am seeking assistance to help bridge this gap and stabilize my financial situation.",
	models.FieldEmploymentCircumstances: "I am currently unemployed and actively seeking employment opportunities. " +
		"I have been applying to various positions but have not yet secured a job that matches my skills and experience. " +
		"The job search process has been challenging due to the competitive market and my need for flexible arrangements.",
	models.FieldReasonForApplying: "I am applying for financial assistance because I am facing temporary financial hardship " +
		"that affects my ability to meet essential living expenses. " +
		"This support would help me maintain stability while I work to improve my financial situation through employment or other means.",
}

// Supports reports whether field offers writing help.
func Supports(field string) bool {
	_, ok := prompts[field]
	return ok
}

// BuildPrompt returns the user prompt for field.
func BuildPrompt(field string) string {
	if p, ok := prompts[field]; ok {
		return p
	}
	return defaultPrompt
}

// FallbackText is the deterministic text offered when the remote model is unavailable.
func FallbackText(field string) string {
	if t, ok := fallbacks[field]; ok {
		return t
	}
	return defaultFallback
}
