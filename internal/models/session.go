// internal/models/session.go
package models

import "time"

// SessionInfo describes one applicant session driving a wizard.
type SessionInfo struct {
	ID           string    `json:"id"`
	Locale       string    `json:"locale"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// IsIdle reports whether the session saw no activity for longer than timeout.
func (s *SessionInfo) IsIdle(now time.Time, timeout time.Duration) bool {
	return timeout > 0 && now.Sub(s.LastActivity) > timeout
}

// Touch records activity at now.
func (s *SessionInfo) Touch(now time.Time) {
	s.LastActivity = now
}
