// internal/wizard/submission/simulated.go
package submission

import (
	"context"
	"time"

	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/models"

	"github.com/google/uuid"
)

// Simulated acknowledges every application after a fixed latency without storing it.
type Simulated struct {
	latency time.Duration
	logger  logger.Logger
}

func NewSimulated(latency time.Duration, log logger.Logger) *Simulated {
	return &Simulated{latency: latency, logger: logger.Component(log, "simulated-submission")}
}

func (s *Simulated) Submit(ctx context.Context, record models.ApplicationRecord) (models.Receipt, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return models.Receipt{}, errors.NewSubmissionTimeoutError(ctx.Err())
		}
	}

	receipt := newReceipt(uuid.New().String(), models.ReceiptStatusAccepted, "", time.Now())
	s.logger.Info("submitted application", map[string]interface{}{
		"applicationId":    receipt.ID,
		"nationalId":       record.Personal.NationalID,
		"dependents":       record.Family.Dependents,
		"employmentStatus": record.Family.EmploymentStatus,
	})
	return receipt, nil
}
