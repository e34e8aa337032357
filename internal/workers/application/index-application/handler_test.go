// internal/workers/application/index-application/handler_test.go
package indexapplication

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"social-support-intake/internal/common/config"
	"social-support-intake/internal/common/database"
	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type mockIndexer struct {
	mu    sync.Mutex
	index string
	id    string
	doc   interface{}
	err   error
}

func (m *mockIndexer) IndexDocument(_ context.Context, index, id string, doc interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index, m.id, m.doc = index, id, doc
	return m.err
}

// ==========================
// Test Helper Functions
// ==========================

func createTestInput() *Input {
	return &Input{
		ApplicationID: "4b2c1a10-0d9e-4f7a-8e11-2c3d4e5f6a7b",
		Application: models.ApplicationRecord{
			Personal: models.PersonalInfo{
				Name:    "Yousef Rahman",
				City:    "Al Ain",
				State:   "Abu Dhabi",
				Country: "UAE",
				Email:   "yousef@example.com",
				Phone:   "+971509998877",
			},
			Family: models.FamilyFinancial{
				MaritalStatus:    "single",
				Dependents:       1,
				EmploymentStatus: "part time",
				MonthlyIncome:    3200,
				HousingStatus:    "shared",
			},
			Situations: models.Situations{
				FinancialSituation:      "Income covers rent but little else.",
				EmploymentCircumstances: "  ",
				ReasonForApplying:       "Support for my younger brother's schooling.",
			},
		},
		Locale:      "ar",
		SubmittedAt: "2025-04-02T10:00:00Z",
	}
}

func createTestHandler(t *testing.T, indexer Indexer) *Handler {
	t.Helper()
	cfg := LoadConfig(config.WorkerConfig{}, config.ElasticsearchConfig{})
	return NewHandler(cfg, indexer, nil, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	indexer := &mockIndexer{}
	h := createTestHandler(t, indexer)
	input := createTestInput()

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, output.Indexed)
	assert.Equal(t, DefaultIndex, output.Index)

	assert.Equal(t, "applications", indexer.index)
	assert.Equal(t, input.ApplicationID, indexer.id)
	doc, ok := indexer.doc.(Document)
	require.True(t, ok)
	assert.Equal(t, "Yousef Rahman", doc.Name)
	assert.Equal(t, 3200.0, doc.MonthlyIncome)
}

func TestHandler_Execute_IndexFailure(t *testing.T) {
	h := createTestHandler(t, &mockIndexer{err: stderrors.New("cluster unavailable")})

	output, err := h.Execute(context.Background(), createTestInput())
	assert.Nil(t, output)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexFailed))
	assert.True(t, errors.IsRetryable(err))
}

func TestHandler_Execute_MissingApplicationID(t *testing.T) {
	indexer := &mockIndexer{}
	h := createTestHandler(t, indexer)
	input := createTestInput()
	input.ApplicationID = ""

	_, err := h.Execute(context.Background(), input)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidJobInput))
	assert.Nil(t, indexer.doc)
}

func TestBuildDocument(t *testing.T) {
	doc := BuildDocument(createTestInput())

	assert.Equal(t, "Income covers rent but little else.\n\nSupport for my younger brother's schooling.", doc.Narrative)
	assert.Equal(t, "part time", doc.EmploymentStatus)
	assert.Equal(t, "ar", doc.Locale)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "yousef@example.com")
	assert.NotContains(t, string(raw), "+971509998877")
}

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(config.WorkerConfig{Timeout: 1500}, config.ElasticsearchConfig{Index: "intake-applications"})
	assert.Equal(t, "intake-applications", cfg.Index)
	assert.Equal(t, int64(1500), cfg.Timeout.Milliseconds())
}

// ==========================
// Elasticsearch integration
// ==========================

func TestHandler_Execute_Elasticsearch(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body map[string]interface{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPut || r.Method == http.MethodPost {
			raw, _ := io.ReadAll(r.Body)
			mu.Lock()
			path = r.URL.Path
			_ = json.Unmarshal(raw, &body)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"result":"created"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	es, err := database.NewElasticsearch(config.ElasticsearchConfig{URL: server.URL})
	require.NoError(t, err)

	h := createTestHandler(t, es)
	input := createTestInput()
	_, err = h.Execute(context.Background(), input)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/applications/_doc/"+input.ApplicationID, path)
	assert.Equal(t, "Al Ain", body["city"])
}

func TestHandler_Execute_ElasticsearchRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"mapper_parsing_exception"}}`))
	}))
	defer server.Close()

	es, err := database.NewElasticsearch(config.ElasticsearchConfig{URL: server.URL})
	require.NoError(t, err)

	_, err = createTestHandler(t, es).Execute(context.Background(), createTestInput())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexFailed))
	assert.Contains(t, err.Error(), "Search indexing failed")
}
