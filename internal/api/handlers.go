// Package api exposes wizard sessions over HTTP.
package api

import (
	"net/http"

	"social-support-intake/internal/common/i18n"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/models"
	"social-support-intake/internal/wizard/controller"
	"social-support-intake/internal/wizard/session"
	"social-support-intake/internal/wizard/submission"
	"social-support-intake/pkg/registry"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	sessions *session.Manager
	registry *registry.StepRegistry
	logger   logger.Logger
}

func NewHandler(sessions *session.Manager, reg *registry.StepRegistry, log logger.Logger) *Handler {
	if reg == nil {
		reg = registry.Default()
	}
	return &Handler{
		sessions: sessions,
		registry: reg,
		logger:   logger.Component(log, "api"),
	}
}

// sessionView is the wizard as the UI renders it.
type sessionView struct {
	ID        string            `json:"id"`
	Locale    string            `json:"locale"`
	Direction string            `json:"direction"`
	Labels    map[string]string `json:"labels"`
	controller.Snapshot
	Record models.ApplicationRecord `json:"record"`
}

func newSessionView(s *session.Session) sessionView {
	loc := s.Locale()
	snap := s.Controller.Snapshot()
	if snap.Notification != nil {
		snap.Notification.Message = loc.Label(snap.Notification.MessageKey)
	}
	return sessionView{
		ID:        s.ID(),
		Locale:    string(loc),
		Direction: loc.Direction(),
		Labels:    loc.Labels(),
		Snapshot:  snap,
		Record:    s.Controller.Record(),
	}
}

type valuesRequest struct {
	Values map[string]string `json:"values"`
}

type createSessionRequest struct {
	Locale string `json:"locale"`
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) respond(w http.ResponseWriter, s *session.Session, err error) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(s))
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	locale := req.Locale
	if locale == "" {
		locale = string(i18n.Match(r.Header.Get("Accept-Language")))
	}

	s := h.sessions.Create(r.Context(), locale)
	writeJSON(w, http.StatusCreated, newSessionView(s))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(s))
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req valuesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respond(w, s, s.Controller.GoNext(r.Context(), req.Values))
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.Controller.GoBack())
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req valuesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	ctx := submission.WithLocale(r.Context(), string(s.Locale()))
	_, err := s.Controller.Submit(ctx, req.Values)
	h.respond(w, s, err)
}

type validateFieldRequest struct {
	Value string `json:"value"`
}

type validateFieldResponse struct {
	Field   string `json:"field"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ValidateField is the blur path: one field, no navigation.
func (h *Handler) ValidateField(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req validateFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	field := chi.URLParam(r, "field")
	msg, err := s.Controller.ValidateField(field, req.Value)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, validateFieldResponse{Field: field, Valid: msg == "", Message: msg})
}

// RequestSuggestion blocks until the suggestion is staged or dropped. Failures surface as a
// notification in the returned view rather than as an error status.
func (h *Handler) RequestSuggestion(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.Controller.RequestSuggestion(r.Context(), chi.URLParam(r, "field")))
}

type editSuggestionRequest struct {
	Text string `json:"text"`
}

func (h *Handler) EditSuggestion(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req editSuggestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respond(w, s, s.Controller.EditSuggestion(req.Text))
}

func (h *Handler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.Controller.AcceptSuggestion(r.Context()))
}

func (h *Handler) DiscardSuggestion(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.Controller.DiscardSuggestion())
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.Controller.Reset(r.Context()))
}

func (h *Handler) ToggleLocale(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.ToggleLocale()
	h.respond(w, s, nil)
}

func (h *Handler) Registry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry)
}
