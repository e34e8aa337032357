// internal/wizard/submission/camunda.go
package submission

import (
	"context"
	"strconv"
	"time"

	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/models"

	"github.com/google/uuid"
)

// ProcessStarter starts BPMN process instances. *camunda.Client implements it.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error)
}

// ProcessVariables is the payload handed to the post-submission workflow.
type ProcessVariables struct {
	ApplicationID string                   `json:"applicationId"`
	Application   models.ApplicationRecord `json:"application"`
	Locale        string                   `json:"locale"`
	SubmittedAt   string                   `json:"submittedAt"`
}

// Camunda hands the application to a BPMN process; workflow workers do the rest.
type Camunda struct {
	starter   ProcessStarter
	processID string
	logger    logger.Logger
}

func NewCamunda(starter ProcessStarter, processID string, log logger.Logger) *Camunda {
	return &Camunda{starter: starter, processID: processID, logger: logger.Component(log, "camunda-submission")}
}

func (c *Camunda) Submit(ctx context.Context, record models.ApplicationRecord) (models.Receipt, error) {
	now := time.Now()
	vars := ProcessVariables{
		ApplicationID: uuid.New().String(),
		Application:   record,
		Locale:        LocaleFrom(ctx),
		SubmittedAt:   now.UTC().Format(time.RFC3339),
	}

	key, err := c.starter.StartProcess(ctx, c.processID, vars)
	if err != nil {
		return models.Receipt{}, errors.NewSubmissionFailedError(err, errors.IsRetryable(err))
	}

	c.logger.Info("application workflow started", map[string]interface{}{
		"applicationId":      vars.ApplicationID,
		"processId":          c.processID,
		"processInstanceKey": key,
	})
	return newReceipt(vars.ApplicationID, models.ReceiptStatusStarted, strconv.FormatInt(key, 10), now), nil
}
