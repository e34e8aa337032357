// Package controller drives the three-step application wizard: it gates navigation on
// field validation, merges validated steps into the record store, stages writing-help
// suggestions and submits the finished application.
package controller

import (
	"context"
	"strconv"
	"sync"
	"time"

	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/common/metrics"
	"social-support-intake/internal/common/observability"
	"social-support-intake/internal/models"
	"social-support-intake/internal/wizard/fields"
	"social-support-intake/internal/wizard/store"
	"social-support-intake/internal/wizard/submission"
	"social-support-intake/internal/wizard/suggestion"
	"social-support-intake/pkg/registry"

	"github.com/looplab/fsm"
	"go.opentelemetry.io/otel/attribute"
)

// Controller is safe for concurrent use. Gateway calls run without the lock held, so a
// slow suggestion does not block navigation or suggestions for other fields.
type Controller struct {
	mu sync.Mutex

	store       *store.Store
	rules       *fields.Table
	registry    *registry.StepRegistry
	suggestions suggestion.Gateway
	submitter   submission.Gateway
	obs         *observability.Observability
	logger      logger.Logger
	now         func() time.Time

	step         int
	errors       map[int]map[string]string
	working      map[int]map[string]string
	staged       *StagedSuggestion
	machines     map[string]*fsm.FSM
	generations  map[string]uint64
	notification *models.Notification
	receipt      *models.Receipt
	submitting   bool
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithRules(rules *fields.Table) Option {
	return func(c *Controller) { c.rules = rules }
}

func WithRegistry(reg *registry.StepRegistry) Option {
	return func(c *Controller) { c.registry = reg }
}

func WithObservability(obs *observability.Observability) Option {
	return func(c *Controller) { c.obs = obs }
}

// New returns a controller on step 0. The store should already be loaded.
func New(st *store.Store, suggestions suggestion.Gateway, submitter submission.Gateway, log logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:       st,
		suggestions: suggestions,
		submitter:   submitter,
		logger:      logger.Component(log, "controller"),
		now:         time.Now,
		registry:    registry.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rules == nil {
		c.rules = fields.New(fields.WithClock(c.now), fields.WithRegistry(c.registry))
	}
	c.resetState()
	return c
}

func (c *Controller) resetState() {
	c.step = 0
	c.errors = make(map[int]map[string]string)
	c.working = make(map[int]map[string]string)
	c.staged = nil
	c.notification = nil
	c.receipt = nil

	if c.generations == nil {
		c.generations = make(map[string]uint64)
	}
	c.machines = make(map[string]*fsm.FSM)
	for _, step := range c.registry.Steps {
		for _, field := range step.AssistFields {
			c.machines[field] = newSuggestionFSM()
			c.generations[field]++
		}
	}
}

// Step returns the active step index.
func (c *Controller) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Values returns the working values of a step: the stored section overlaid by unsaved input.
func (c *Controller) Values(step int) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values(step)
}

func (c *Controller) values(step int) map[string]string {
	out := make(map[string]string)
	s, ok := c.registry.StepAt(step)
	if !ok {
		return out
	}
	stored := c.store.Current().SectionValues(models.SectionName(s.Section))
	for _, f := range s.Fields {
		out[f.ID] = stored[f.ID]
	}
	for k, v := range c.working[step] {
		out[k] = v
	}
	return out
}

// stepInput overlays raw onto the step's working values, ignoring fields of other steps.
func (c *Controller) stepInput(step int, raw map[string]string) map[string]string {
	values := c.values(step)
	for _, f := range c.registry.FieldIDs(step) {
		if v, ok := raw[f]; ok {
			values[f] = v
		}
	}
	return values
}

// ValidateField checks a single field as the user leaves it and records the outcome.
// It returns the failure message, or "" when the value is valid.
func (c *Controller) ValidateField(field, raw string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	step, ok := c.registry.StepOf(field)
	if !ok {
		return "", errors.NewUnknownFieldError(field)
	}

	if c.working[step] == nil {
		c.working[step] = make(map[string]string)
	}
	c.working[step][field] = raw

	msg, valid := c.rules.Check(field, raw)
	c.setFieldError(step, field, msg, valid)
	return msg, nil
}

func (c *Controller) setFieldError(step int, field, msg string, valid bool) {
	if valid {
		delete(c.errors[step], field)
		return
	}
	if c.errors[step] == nil {
		c.errors[step] = make(map[string]string)
	}
	c.errors[step][field] = msg
	metrics.ValidationFailures.WithLabelValues(strconv.Itoa(step), field).Inc()
}

// validateStep records the step's errors and returns a validation error when any field fails.
func (c *Controller) validateStep(step int, values map[string]string) error {
	failures := c.rules.ValidateStep(step, values)
	if len(failures) == 0 {
		delete(c.errors, step)
		return nil
	}

	c.working[step] = values
	c.errors[step] = failures
	for field := range failures {
		metrics.ValidationFailures.WithLabelValues(strconv.Itoa(step), field).Inc()
	}
	return errors.NewValidationFailedError(step, copyMap(failures))
}

// sectionsFor parses validated step values into the matching record section.
func (c *Controller) sectionsFor(step int, values map[string]string) (models.Sections, error) {
	s, _ := c.registry.StepAt(step)
	switch models.SectionName(s.Section) {
	case models.SectionPersonal:
		p := models.PersonalFromValues(values)
		return models.Sections{Personal: &p}, nil
	case models.SectionFamily:
		f, err := models.FamilyFromValues(values)
		if err != nil {
			return models.Sections{}, errors.NewValidationFailedError(step, map[string]string{"section": err.Error()})
		}
		return models.Sections{Family: &f}, nil
	default:
		sit := models.SituationsFromValues(values)
		return models.Sections{Situations: &sit}, nil
	}
}

// GoNext validates the active step with raw layered over its working values. On success the
// step's section is merged into the store and the wizard advances.
func (c *Controller) GoNext(ctx context.Context, raw map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	last := len(c.registry.Steps) - 1
	if c.step >= last {
		return errors.NewInvalidStepTransitionError("the last step is completed by submitting")
	}

	values := c.stepInput(c.step, raw)
	if err := c.validateStep(c.step, values); err != nil {
		return err
	}

	sections, err := c.sectionsFor(c.step, values)
	if err != nil {
		return err
	}
	c.store.Update(ctx, sections)
	delete(c.working, c.step)

	from := c.step
	c.step++
	c.recordTransition(from, c.step, "forward")
	return nil
}

// GoBack returns to the previous step without validating or discarding anything.
func (c *Controller) GoBack() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return errSubmitting()
	}
	if c.step == 0 {
		return errors.NewInvalidStepTransitionError("already on the first step")
	}

	from := c.step
	c.leaveStep(from)
	c.step--
	c.recordTransition(from, c.step, "back")
	return nil
}

// leaveStep abandons writing help owned by step: in-flight results are dropped and any
// staged suggestion is hidden.
func (c *Controller) leaveStep(step int) {
	s, ok := c.registry.StepAt(step)
	if !ok {
		return
	}
	for _, field := range s.AssistFields {
		c.generations[field]++
		if m := c.machines[field]; m != nil {
			m.SetState(StateIdle)
		}
		if c.staged != nil && c.staged.Field == field {
			c.staged = nil
		}
	}
}

func (c *Controller) recordTransition(from, to int, direction string) {
	metrics.StepTransitions.WithLabelValues(strconv.Itoa(from), strconv.Itoa(to), direction).Inc()
	c.logger.Debug("step changed", map[string]interface{}{
		"from":      from,
		"to":        to,
		"direction": direction,
	})
}

// Submit validates the last step, merges it and hands the full record to the submission
// gateway. A failure leaves the wizard on the last step with all data intact; retrying is
// up to the caller.
func (c *Controller) Submit(ctx context.Context, raw map[string]string) (models.Receipt, error) {
	c.mu.Lock()
	last := len(c.registry.Steps) - 1
	if c.step != last {
		c.mu.Unlock()
		return models.Receipt{}, errors.NewInvalidStepTransitionError("submit is only available on the last step")
	}
	if c.submitting {
		c.mu.Unlock()
		return models.Receipt{}, errSubmitting()
	}

	values := c.stepInput(last, raw)
	if err := c.validateStep(last, values); err != nil {
		c.mu.Unlock()
		return models.Receipt{}, err
	}
	sections, err := c.sectionsFor(last, values)
	if err != nil {
		c.mu.Unlock()
		return models.Receipt{}, err
	}
	record := c.store.Update(ctx, sections)
	delete(c.working, last)
	c.submitting = true
	c.mu.Unlock()

	ctx, span := c.obs.StartSpan(ctx, "wizard.submit", attribute.Int("dependents", record.Family.Dependents))
	receipt, err := c.submitter.Submit(ctx, record)
	observability.EndSpan(span, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if err != nil {
		c.notify(models.NotificationSubmitFailed, "error", "submission.error")
		return models.Receipt{}, err
	}

	c.receipt = &receipt
	c.notify(models.NotificationSubmitted, "success", "submission.success")
	return receipt, nil
}

func (c *Controller) notify(kind, severity, messageKey string) {
	c.notification = &models.Notification{
		Kind:       kind,
		Severity:   severity,
		MessageKey: messageKey,
		ExpiresAt:  c.now().Add(NotificationTTL),
	}
}

// Reset clears the stored record and all wizard state. In-flight suggestions are dropped.
// It is rejected while a submission is in flight.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return errSubmitting()
	}
	c.store.Reset(ctx)
	c.resetState()
	return nil
}

func errSubmitting() error {
	return errors.NewInvalidStepTransitionError("a submission is already in progress")
}

// Busy reports whether a submission or any suggestion request is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return true
	}
	for _, m := range c.machines {
		if m.Current() == StateRequesting {
			return true
		}
	}
	return false
}

// Snapshot copies the wizard state for display. Expired notifications are left out.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Step:             c.step,
		Values:           c.values(c.step),
		Errors:           copyMap(c.errors[c.step]),
		SuggestionStates: make(map[string]string, len(c.machines)),
		InFlight:         make(map[string]bool, len(c.machines)),
		Submitting:       c.submitting,
	}
	if s, ok := c.registry.StepAt(c.step); ok {
		snap.StepID = s.ID
	}
	for field, m := range c.machines {
		snap.SuggestionStates[field] = m.Current()
		snap.InFlight[field] = m.Current() == StateRequesting
	}
	if c.staged != nil {
		staged := *c.staged
		snap.Staged = &staged
	}
	if c.notification != nil && !c.notification.Expired(c.now()) {
		n := *c.notification
		snap.Notification = &n
	}
	if c.receipt != nil {
		r := *c.receipt
		snap.Receipt = &r
	}
	return snap
}

// Record returns the stored application record.
func (c *Controller) Record() models.ApplicationRecord {
	return c.store.Current()
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
