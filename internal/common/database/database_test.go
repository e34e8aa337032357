package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social-support-intake/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS applications`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_applications_national_id`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS audit_log`).WillReturnResult(sqlmock.NewResult(0, 0))

	pg := NewPostgresFromDB(db)
	assert.NoError(t, pg.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EnsureSchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS applications`).WillReturnError(errors.New("permission denied"))

	err = NewPostgresFromDB(db).EnsureSchema(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestRedis_Ping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
}

func TestRedis_EmptyAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestElasticsearch_IndexDocument(t *testing.T) {
	var gotPath string
	var gotDoc map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotDoc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	defer server.Close()

	client, err := NewElasticsearch(config.ElasticsearchConfig{URL: server.URL})
	require.NoError(t, err)

	err = client.IndexDocument(context.Background(), "applications", "app-1", map[string]string{"city": "Dubai"})
	require.NoError(t, err)
	assert.Equal(t, "/applications/_doc/app-1", gotPath)
	assert.Equal(t, "Dubai", gotDoc["city"])
}

func TestElasticsearch_IndexDocumentError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	}))
	defer server.Close()

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
	require.NoError(t, err)

	err = client.IndexDocument(context.Background(), "applications", "app-2", map[string]int{"dependents": 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestPostgres_InsertApplication(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)
	row := ApplicationRow{
		ID:         "9b2f6c1e-4d1a-4a57-8a43-2d0f5b1f7e10",
		NationalID: "AB12345",
		Status:     ApplicationStatusSubmitted,
		Source:     "wizard",
		Data:       []byte(`{"personal":{"name":"Amal Haddad"}}`),
		CreatedAt:  createdAt,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(row.ID, row.Data, row.NationalID, row.Status, row.Source, createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("application_created", "application", row.ID, sqlmock.AnyArg(), createdAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgresFromDB(db).InsertApplication(context.Background(), row))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertApplicationRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO applications`).WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})
	mock.ExpectRollback()

	err = NewPostgresFromDB(db).InsertApplication(context.Background(), ApplicationRow{ID: "x", CreatedAt: time.Now()})
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"too many connections", &pq.Error{Code: "53300"}, true},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"serialization", &pq.Error{Code: "40001"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"bad conn", driver.ErrBadConn, true},
		{"wrapped conn done", fmt.Errorf("insert: %w", sql.ErrConnDone), true},
		{"plain", errors.New("syntax error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert application: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23502"}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key")))
	assert.False(t, IsUniqueViolation(nil))
}
