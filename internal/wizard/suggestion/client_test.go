package suggestion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func createTestConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		APIKey:      "sk-test",
		Model:       "gpt-3.5-turbo",
		Timeout:     2 * time.Second,
		Temperature: 0.5,
		MaxTokens:   250,
	}
}

func completionServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

// ==========================
// Gateway Tests
// ==========================

func TestRequestSuggestion_NoKeyUsesFallback(t *testing.T) {
	cfg := createTestConfig("http://127.0.0.1:1")
	cfg.APIKey = ""
	c := NewClient(cfg, nil, logger.NewTestLogger(t))

	for _, field := range []string{"financialSituation", "employmentCircumstances", "reasonForApplying"} {
		result := c.RequestSuggestion(context.Background(), field)
		assert.Equal(t, Fallback, result.Kind)
		assert.Equal(t, FallbackText(field), result.Text)
		assert.NoError(t, result.Err)
	}
}

func TestRequestSuggestion_Fetched(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  I lost my job last spring.  "}}]}`))
	}))
	defer server.Close()

	c := NewClient(createTestConfig(server.URL+"/"), nil, logger.NewTestLogger(t))
	result := c.RequestSuggestion(context.Background(), "employmentCircumstances")

	assert.Equal(t, Fetched, result.Kind)
	assert.Equal(t, "I lost my job last spring.", result.Text)

	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	assert.Equal(t, 0.5, got.Temperature)
	assert.Equal(t, 250, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, systemPrompt, got.Messages[0].Content)
	assert.Equal(t, "Help me describe my current employment circumstances in a respectful, clear way.", got.Messages[1].Content)
}

func TestRequestSuggestion_RemoteProblemsFallBack(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
		wantErr bool
	}{
		{"server error", http.StatusInternalServerError, "", true},
		{"unauthorized", http.StatusUnauthorized, "", true},
		{"empty content", http.StatusOK, "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := completionServer(t, tt.status, tt.content)
			c := NewClient(createTestConfig(server.URL), nil, logger.NewTestLogger(t))

			result := c.RequestSuggestion(context.Background(), "financialSituation")
			assert.Equal(t, Fallback, result.Kind)
			assert.Equal(t, FallbackText("financialSituation"), result.Text)
			assert.Equal(t, tt.wantErr, result.Err != nil)
		})
	}
}

func TestRequestSuggestion_TimeoutFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	cfg := createTestConfig(server.URL)
	cfg.Timeout = 20 * time.Millisecond
	result := NewClient(cfg, nil, logger.NewTestLogger(t)).RequestSuggestion(context.Background(), "reasonForApplying")

	assert.Equal(t, Fallback, result.Kind)
	assert.Equal(t, FallbackText("reasonForApplying"), result.Text)
}

func TestRequestSuggestion_UnknownFieldFails(t *testing.T) {
	c := NewClient(createTestConfig("http://127.0.0.1:1"), nil, logger.NewTestLogger(t))
	result := c.RequestSuggestion(context.Background(), "name")

	assert.Equal(t, Failed, result.Kind)
	assert.Empty(t, result.Text)
	assert.True(t, errors.IsCode(result.Err, errors.ErrCodeUnknownField))
}

func TestRequestSuggestion_CancelledContextFails(t *testing.T) {
	cfg := createTestConfig("")
	cfg.APIKey = ""
	cfg.FallbackDelay = time.Second
	c := NewClient(cfg, nil, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := c.RequestSuggestion(ctx, "financialSituation")
	assert.Equal(t, Failed, result.Kind)
	assert.True(t, errors.IsCode(result.Err, errors.ErrCodeSuggestionFailed))
}

func TestPrompts(t *testing.T) {
	assert.Equal(t, "Help me explain my reason for applying for financial assistance.", BuildPrompt("reasonForApplying"))
	assert.Equal(t, defaultPrompt, BuildPrompt("other"))
	assert.Equal(t, defaultFallback, FallbackText("other"))
	assert.True(t, Supports("financialSituation"))
	assert.False(t, Supports("email"))
}
