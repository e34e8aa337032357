// internal/wizard/controller/staging.go
package controller

import (
	"context"

	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/models"
	"social-support-intake/internal/wizard/suggestion"

	"github.com/looplab/fsm"
)

// newSuggestionFSM tracks one narrative field's writing help:
// idle -> requesting -> staged -> (accept | discard) -> idle, with fail returning to idle.
func newSuggestionFSM() *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: EventRequest, Src: []string{StateIdle, StateStaged}, Dst: StateRequesting},
			{Name: EventDeliver, Src: []string{StateRequesting}, Dst: StateStaged},
			{Name: EventFail, Src: []string{StateRequesting}, Dst: StateIdle},
			{Name: EventAccept, Src: []string{StateStaged}, Dst: StateIdle},
			{Name: EventDiscard, Src: []string{StateStaged}, Dst: StateIdle},
		},
		fsm.Callbacks{},
	)
}

// RequestSuggestion asks the suggestion gateway for draft text for field and stages it.
// Gateway failures never surface here: they set a transient notification instead. Results
// that arrive after the request was superseded are dropped.
func (c *Controller) RequestSuggestion(ctx context.Context, field string) error {
	c.mu.Lock()
	m, ok := c.machines[field]
	if !ok {
		c.mu.Unlock()
		return errors.NewUnknownFieldError(field)
	}
	if c.submitting {
		c.mu.Unlock()
		return errSubmitting()
	}
	if owner, _ := c.registry.StepOf(field); owner != c.step {
		c.mu.Unlock()
		return errors.NewInvalidStepTransitionError("writing help for " + field + " is not available on this step")
	}
	if err := m.Event(context.Background(), EventRequest); err != nil {
		c.mu.Unlock()
		return errors.NewInvalidStepTransitionError("a suggestion for " + field + " is already being requested")
	}
	if c.staged != nil && c.staged.Field == field {
		c.staged = nil
	}
	c.generations[field]++
	gen := c.generations[field]
	c.mu.Unlock()

	result := c.suggestions.RequestSuggestion(ctx, field)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[field] != gen {
		c.logger.Debug("dropping stale suggestion", map[string]interface{}{
			"field":      field,
			"generation": gen,
		})
		return nil
	}

	// The FSM may have been replaced by a reset; use the current one.
	m = c.machines[field]
	if result.Kind == suggestion.Failed {
		_ = m.Event(context.Background(), EventFail)
		c.notify(models.NotificationSuggestionFailed, "error", "step3.aiError")
		c.logger.Warn("suggestion failed", map[string]interface{}{
			"field": field,
			"error": errString(result.Err),
		})
		return nil
	}

	// One dialog: staging this field hides any other staged suggestion.
	if c.staged != nil && c.staged.Field != field {
		if other := c.machines[c.staged.Field]; other != nil {
			other.SetState(StateIdle)
		}
	}
	_ = m.Event(context.Background(), EventDeliver)
	c.staged = &StagedSuggestion{
		Field:   field,
		Text:    result.Text,
		Kind:    result.Kind,
		Visible: true,
	}
	return nil
}

// EditSuggestion replaces the staged text with the user's edit.
func (c *Controller) EditSuggestion(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.staged == nil || !c.staged.Visible {
		return errors.NewNoStagedSuggestionError()
	}
	c.staged.Text = text
	return nil
}

// AcceptSuggestion writes the staged text into its field and immediately merges the whole
// situations section, using the working values of the other narrative fields.
func (c *Controller) AcceptSuggestion(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.staged == nil || !c.staged.Visible {
		return errors.NewNoStagedSuggestionError()
	}
	if c.submitting {
		return errSubmitting()
	}
	staged := *c.staged
	step, _ := c.registry.StepOf(staged.Field)

	values := c.values(step)
	values[staged.Field] = staged.Text
	situations := models.SituationsFromValues(values)
	c.store.Update(ctx, models.Sections{Situations: &situations})
	delete(c.working, step)

	msg, valid := c.rules.Check(staged.Field, staged.Text)
	c.setFieldError(step, staged.Field, msg, valid)

	_ = c.machines[staged.Field].Event(context.Background(), EventAccept)
	c.staged = nil
	return nil
}

// DiscardSuggestion drops the staged text and leaves the field unchanged.
func (c *Controller) DiscardSuggestion() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.staged == nil || !c.staged.Visible {
		return errors.NewNoStagedSuggestionError()
	}
	_ = c.machines[c.staged.Field].Event(context.Background(), EventDiscard)
	c.staged = nil
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
