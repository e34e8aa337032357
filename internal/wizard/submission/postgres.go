// internal/wizard/submission/postgres.go
package submission

import (
	"context"
	"encoding/json"
	"time"

	"social-support-intake/internal/common/database"
	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/models"

	"github.com/google/uuid"
)

// Postgres stores submitted applications in the applications table.
type Postgres struct {
	db     *database.PostgresClient
	logger logger.Logger
	now    func() time.Time
}

func NewPostgres(db *database.PostgresClient, log logger.Logger) *Postgres {
	return &Postgres{db: db, logger: logger.Component(log, "postgres-submission"), now: time.Now}
}

func (p *Postgres) Submit(ctx context.Context, record models.ApplicationRecord) (models.Receipt, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return models.Receipt{}, errors.NewSubmissionFailedError(err, false)
	}

	now := p.now().UTC()
	row := database.ApplicationRow{
		ID:         uuid.New().String(),
		NationalID: record.Personal.NationalID,
		Status:     database.ApplicationStatusSubmitted,
		Source:     "wizard",
		Data:       data,
		CreatedAt:  now,
	}
	if err := p.db.InsertApplication(ctx, row); err != nil {
		return models.Receipt{}, errors.NewSubmissionFailedError(err, database.IsTransient(err))
	}

	p.logger.Info("application record created", map[string]interface{}{
		"applicationId": row.ID,
	})
	return newReceipt(row.ID, models.ReceiptStatusAccepted, "", now), nil
}
