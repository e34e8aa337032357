// Package session keeps one wizard controller per applicant session.
package session

import (
	"context"
	"sync"
	"time"

	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/i18n"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/common/metrics"
	"social-support-intake/internal/common/observability"
	"social-support-intake/internal/models"
	"social-support-intake/internal/wizard/controller"
	"social-support-intake/internal/wizard/store"
	"social-support-intake/internal/wizard/submission"
	"social-support-intake/internal/wizard/suggestion"
	"social-support-intake/pkg/registry"

	"github.com/google/uuid"
)

// Session pairs an applicant's controller with presentation settings.
type Session struct {
	mu         sync.Mutex
	info       models.SessionInfo
	Controller *controller.Controller
}

func (s *Session) ID() string {
	return s.info.ID
}

func (s *Session) Info() models.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

func (s *Session) Locale() i18n.Locale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return i18n.Locale(s.info.Locale)
}

// ToggleLocale flips between English and Arabic. The application record is untouched.
func (s *Session) ToggleLocale() i18n.Locale {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := i18n.Locale(s.info.Locale).Toggle()
	s.info.Locale = string(next)
	return next
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.info.Touch(now)
	s.mu.Unlock()
}

func (s *Session) idle(now time.Time, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info.IsIdle(now, timeout)
}

type Config struct {
	KV            store.KV
	KeyPrefix     string
	IdleTimeout   time.Duration
	DefaultLocale i18n.Locale
	Registry      *registry.StepRegistry
}

// Manager owns the live sessions. Evicting a session drops only its ephemeral wizard state;
// the persisted record stays in the KV and is picked up again by Get.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	config      Config
	suggestions suggestion.Gateway
	submitter   submission.Gateway
	obs         *observability.Observability
	logger      logger.Logger
	now         func() time.Time
	ctrlOpts    []controller.Option
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithControllerOptions passes opts to every controller the manager creates.
func WithControllerOptions(opts ...controller.Option) Option {
	return func(m *Manager) { m.ctrlOpts = append(m.ctrlOpts, opts...) }
}

func NewManager(cfg Config, suggestions suggestion.Gateway, submitter submission.Gateway, obs *observability.Observability, log logger.Logger, opts ...Option) *Manager {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = store.DefaultKeyPrefix
	}
	if !cfg.DefaultLocale.Valid() {
		cfg.DefaultLocale = i18n.Default
	}
	if cfg.Registry == nil {
		cfg.Registry = registry.Default()
	}

	m := &Manager{
		sessions:    make(map[string]*Session),
		config:      cfg,
		suggestions: suggestions,
		submitter:   submitter,
		obs:         obs,
		logger:      logger.Component(log, "session-manager"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a session with a fresh default record. An empty or unsupported locale
// falls back to the configured default.
func (m *Manager) Create(ctx context.Context, locale string) *Session {
	id := uuid.New().String()
	loc := i18n.Locale(locale)
	if !loc.Valid() {
		loc = m.config.DefaultLocale
	}

	s := m.build(ctx, id, loc, false)
	m.logger.Info("session created", map[string]interface{}{
		"sessionId": id,
		"locale":    string(loc),
	})
	return s
}

// Get returns a live session, re-attaching to a persisted record when the session was
// evicted or the process restarted.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch(m.now())
		return s, nil
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.NewSessionNotFoundError(id)
	}
	_, found, err := m.config.KV.Get(ctx, store.Key(m.config.KeyPrefix, id))
	if err != nil || !found {
		return nil, errors.NewSessionNotFoundError(id)
	}

	s = m.build(ctx, id, m.config.DefaultLocale, true)
	m.logger.Info("session re-attached", map[string]interface{}{"sessionId": id})
	return s, nil
}

func (m *Manager) build(ctx context.Context, id string, locale i18n.Locale, load bool) *Session {
	st := store.New(m.config.KV, store.Key(m.config.KeyPrefix, id), m.logger)
	if load {
		st.Load(ctx)
	} else {
		st.Reset(ctx)
	}

	opts := append([]controller.Option{
		controller.WithRegistry(m.config.Registry),
		controller.WithObservability(m.obs),
		controller.WithClock(m.now),
	}, m.ctrlOpts...)
	ctrl := controller.New(st, m.suggestions, m.submitter, m.logger.WithFields(map[string]interface{}{"sessionId": id}), opts...)

	now := m.now()
	s := &Session{
		info: models.SessionInfo{
			ID:           id,
			Locale:       string(locale),
			CreatedAt:    now,
			LastActivity: now,
		},
		Controller: ctrl,
	}

	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return existing
	}
	m.sessions[id] = s
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()
	return s
}

// Sweep evicts sessions idle for longer than the idle timeout and returns how many went.
// A session with a submission or suggestion in flight is kept and its idle clock restarts.
func (m *Manager) Sweep() int {
	if m.config.IdleTimeout <= 0 {
		return 0
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if !s.idle(now, m.config.IdleTimeout) {
			continue
		}
		if s.Controller.Busy() {
			s.touch(now)
			continue
		}
		delete(m.sessions, id)
		evicted++
	}
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	if evicted > 0 {
		m.logger.Info("evicted idle sessions", map[string]interface{}{
			"evicted":   evicted,
			"remaining": len(m.sessions),
		})
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
