// internal/wizard/controller/state.go
package controller

import (
	"time"

	"social-support-intake/internal/models"
	"social-support-intake/internal/wizard/suggestion"
)

// NotificationTTL is how long a transient notification stays visible.
const NotificationTTL = 4 * time.Second

// Suggestion staging states
const (
	StateIdle       = "idle"
	StateRequesting = "requesting"
	StateStaged     = "staged"
)

// Suggestion staging events
const (
	EventRequest = "request"
	EventDeliver = "deliver"
	EventFail    = "fail"
	EventAccept  = "accept"
	EventDiscard = "discard"
)

// StagedSuggestion is the candidate text shown in the single shared suggestion dialog.
type StagedSuggestion struct {
	Field   string          `json:"field"`
	Text    string          `json:"text"`
	Kind    suggestion.Kind `json:"kind"`
	Visible bool            `json:"visible"`
}

// Snapshot is a read-only copy of the wizard's ephemeral state.
type Snapshot struct {
	Step             int                  `json:"step"`
	StepID           string               `json:"stepId"`
	Values           map[string]string    `json:"values"`
	Errors           map[string]string    `json:"errors"`
	Staged           *StagedSuggestion    `json:"staged,omitempty"`
	SuggestionStates map[string]string    `json:"suggestionStates"`
	InFlight         map[string]bool      `json:"inFlight"`
	Notification     *models.Notification `json:"notification,omitempty"`
	Receipt          *models.Receipt      `json:"receipt,omitempty"`
	Submitting       bool                 `json:"submitting"`
}
