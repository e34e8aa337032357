package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"social-support-intake/internal/common/config"
	"social-support-intake/internal/common/database"
	commonerrors "social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func createTestRecord() models.ApplicationRecord {
	return models.ApplicationRecord{
		Personal: models.PersonalInfo{
			Name:        "Amal Haddad",
			NationalID:  "AB12345",
			DateOfBirth: "1990-04-12",
			Gender:      "Female",
			Address:     "12 Palm Street, Block 4",
			City:        "Dubai",
			State:       "Dubai",
			Country:     "United Arab Emirates",
			Phone:       "+971501234567",
			Email:       "amal@example.com",
		},
		Family: models.FamilyFinancial{
			MaritalStatus:    "Married",
			Dependents:       2,
			EmploymentStatus: "Unemployed",
			MonthlyIncome:    3000,
			HousingStatus:    "Rented",
		},
		Situations: models.Situations{
			FinancialSituation:      "Expenses exceed what we earn each month",
			EmploymentCircumstances: "I lost my job when the shop closed",
			ReasonForApplying:       "We need help covering rent until I find work",
		},
	}
}

type fakeStarter struct {
	key       int64
	err       error
	processID string
	vars      interface{}
}

func (f *fakeStarter) StartProcess(_ context.Context, processID string, variables interface{}) (int64, error) {
	f.processID = processID
	f.vars = variables
	return f.key, f.err
}

type slowGateway struct{}

func (slowGateway) Submit(ctx context.Context, _ models.ApplicationRecord) (models.Receipt, error) {
	<-ctx.Done()
	return models.Receipt{}, ctx.Err()
}

// ==========================
// Simulated Driver Tests
// ==========================

func TestSimulated_Submit(t *testing.T) {
	s := NewSimulated(5*time.Millisecond, logger.NewTestLogger(t))

	start := time.Now()
	receipt, err := s.Submit(context.Background(), createTestRecord())

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, models.ReceiptStatusAccepted, receipt.Status)
}

func TestSimulated_Cancelled(t *testing.T) {
	s := NewSimulated(time.Second, logger.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Submit(ctx, createTestRecord())
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeSubmissionTimeout))
	assert.True(t, commonerrors.IsRetryable(err))
}

// ==========================
// Postgres Driver Tests
// ==========================

func TestPostgres_Submit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "AB12345", "submitted", "wizard", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	p := NewPostgres(database.NewPostgresFromDB(db), logger.NewTestLogger(t))
	receipt, err := p.Submit(context.Background(), createTestRecord())

	require.NoError(t, err)
	assert.NotEmpty(t, receipt.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SubmitErrors(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantRetryable bool
	}{
		{"connection lost is retryable", &pq.Error{Code: "08006", Message: "connection failure"}, true},
		{"constraint violation is permanent", &pq.Error{Code: "23505", Message: "duplicate key"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO applications`).WillReturnError(tt.err)
			mock.ExpectRollback()

			p := NewPostgres(database.NewPostgresFromDB(db), logger.NewTestLogger(t))
			_, err = p.Submit(context.Background(), createTestRecord())

			require.Error(t, err)
			assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeSubmissionFailed))
			assert.Equal(t, tt.wantRetryable, commonerrors.IsRetryable(err))
		})
	}
}

// ==========================
// Camunda Driver Tests
// ==========================

func TestCamunda_Submit(t *testing.T) {
	starter := &fakeStarter{key: 2251799813685249}
	c := NewCamunda(starter, "social-support-application", logger.NewTestLogger(t))

	ctx := WithLocale(context.Background(), "ar")
	receipt, err := c.Submit(ctx, createTestRecord())

	require.NoError(t, err)
	assert.Equal(t, "social-support-application", starter.processID)
	assert.Equal(t, models.ReceiptStatusStarted, receipt.Status)
	assert.Equal(t, "2251799813685249", receipt.Reference)

	vars, ok := starter.vars.(ProcessVariables)
	require.True(t, ok)
	assert.Equal(t, receipt.ID, vars.ApplicationID)
	assert.Equal(t, "ar", vars.Locale)
	assert.Equal(t, createTestRecord(), vars.Application)
}

func TestCamunda_SubmitKeepsRetryability(t *testing.T) {
	starter := &fakeStarter{err: commonerrors.NewTimeoutError("zeebe", errors.New("deadline exceeded"))}
	_, err := NewCamunda(starter, "p", logger.NewTestLogger(t)).Submit(context.Background(), createTestRecord())

	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeSubmissionFailed))
	assert.True(t, commonerrors.IsRetryable(err))

	starter.err = commonerrors.NewResourceNotFoundError("zeebe", "process not found")
	_, err = NewCamunda(starter, "p", logger.NewTestLogger(t)).Submit(context.Background(), createTestRecord())
	assert.False(t, commonerrors.IsRetryable(err))
}

// ==========================
// Factory & Instrumentation Tests
// ==========================

func TestNew(t *testing.T) {
	log := logger.NewTestLogger(t)

	g, err := New(config.SubmissionConfig{Driver: config.SubmissionDriverSimulated}, Deps{}, nil, log)
	require.NoError(t, err)
	assert.IsType(t, &Simulated{}, g.(*instrumented).next)

	_, err = New(config.SubmissionConfig{Driver: config.SubmissionDriverPostgres}, Deps{}, nil, log)
	assert.Error(t, err)

	_, err = New(config.SubmissionConfig{Driver: config.SubmissionDriverCamunda}, Deps{}, nil, log)
	assert.Error(t, err)

	g, err = New(config.SubmissionConfig{Driver: config.SubmissionDriverCamunda, ProcessID: "p"}, Deps{Camunda: &fakeStarter{}}, nil, log)
	require.NoError(t, err)
	assert.IsType(t, &Camunda{}, g.(*instrumented).next)

	_, err = New(config.SubmissionConfig{Driver: "fax"}, Deps{}, nil, log)
	assert.Error(t, err)
}

func TestInstrument_Timeout(t *testing.T) {
	g := Instrument(slowGateway{}, "test", 10*time.Millisecond, nil, logger.NewTestLogger(t))

	_, err := g.Submit(context.Background(), createTestRecord())
	require.Error(t, err)
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeSubmissionTimeout))
	assert.True(t, commonerrors.IsRetryable(err))
}

func TestLocaleFrom(t *testing.T) {
	assert.Equal(t, "en", LocaleFrom(context.Background()))
	assert.Equal(t, "ar", LocaleFrom(WithLocale(context.Background(), "ar")))
}
