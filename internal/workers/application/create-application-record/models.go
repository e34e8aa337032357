// internal/workers/application/create-application-record/models.go
package createapplicationrecord

import "social-support-intake/internal/models"

// Input mirrors the variables the intake server starts the workflow with.
type Input struct {
	ApplicationID string                   `json:"applicationId"`
	Application   models.ApplicationRecord `json:"application"`
	Locale        string                   `json:"locale"`
	SubmittedAt   string                   `json:"submittedAt"` // RFC 3339
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	CreatedAt         string `json:"createdAt"` // RFC 3339
}

var inputSchema = `{
  "type": "object",
  "required": ["applicationId", "application"],
  "properties": {
    "applicationId": {"type": "string", "minLength": 1},
    "locale":        {"type": "string"},
    "submittedAt":   {"type": "string"},
    "application": {
      "type": "object",
      "required": ["personal"],
      "properties": {
        "personal": {
          "type": "object",
          "required": ["nationalId"],
          "properties": {
            "nationalId": {"type": "string", "minLength": 1}
          }
        }
      }
    }
  }
}`
