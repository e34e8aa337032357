// internal/wizard/store/schema.go
package store

import "social-support-intake/internal/common/validation"

var recordSchema = validation.MustCompileSchema(`{
  "type": "object",
  "required": ["personal", "family", "situations"],
  "properties": {
    "personal": {
      "type": "object",
      "properties": {
        "name":        {"type": "string"},
        "nationalId":  {"type": "string"},
        "dateOfBirth": {"type": "string"},
        "gender":      {"type": "string"},
        "address":     {"type": "string"},
        "city":        {"type": "string"},
        "state":       {"type": "string"},
        "country":     {"type": "string"},
        "phone":       {"type": "string"},
        "email":       {"type": "string"}
      }
    },
    "family": {
      "type": "object",
      "properties": {
        "maritalStatus":    {"type": "string"},
        "dependents":       {"type": "integer"},
        "employmentStatus": {"type": "string"},
        "monthlyIncome":    {"type": "number"},
        "housingStatus":    {"type": "string"}
      }
    },
    "situations": {
      "type": "object",
      "properties": {
        "financialSituation":      {"type": "string"},
        "employmentCircumstances": {"type": "string"},
        "reasonForApplying":       {"type": "string"}
      }
    }
  }
}`)
