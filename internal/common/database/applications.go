// internal/common/database/applications.go
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/lib/pq"
)

// Application statuses
const (
	ApplicationStatusSubmitted = "submitted"
)

// ApplicationRow is one row of the applications table.
type ApplicationRow struct {
	ID         string
	NationalID string
	Status     string
	Source     string // "wizard" or "workflow"
	Data       []byte // JSON encoded ApplicationRecord
	CreatedAt  time.Time
}

// InsertApplication writes the application and its audit entry in one transaction.
func (c *PostgresClient) InsertApplication(ctx context.Context, row ApplicationRow) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO applications (
			id, application_data, national_id, status, source, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		row.ID,
		row.Data,
		row.NationalID,
		row.Status,
		row.Source,
		row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"nationalId": row.NationalID,
		"source":     row.Source,
	})
	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"application_created",
		"application",
		row.ID,
		details,
		row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// IsTransient reports whether a database error is worth retrying: lost connections,
// resource exhaustion and serialization conflicts. Constraint violations are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return true
		}
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded)
}

// IsUniqueViolation reports whether err is a primary key or unique constraint conflict.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
