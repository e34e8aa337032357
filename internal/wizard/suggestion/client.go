// Package suggestion produces draft text for the wizard's narrative fields, either from an
// OpenAI-compatible chat completion endpoint or from built-in fallback text.
package suggestion

import (
	"context"
	"strings"
	"time"

	"social-support-intake/internal/common/errors"
	commonhttp "social-support-intake/internal/common/http"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/common/metrics"
	"social-support-intake/internal/common/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Gateway is implemented by anything that can draft text for a narrative field.
type Gateway interface {
	RequestSuggestion(ctx context.Context, field string) Result
}

type Client struct {
	config Config
	http   *commonhttp.Client
	obs    *observability.Observability
	logger logger.Logger
}

func NewClient(cfg Config, obs *observability.Observability, log logger.Logger) *Client {
	return &Client{
		config: cfg,
		http:   commonhttp.NewClient(cfg.Timeout),
		obs:    obs,
		logger: logger.Component(log, "suggestion"),
	}
}

// RequestSuggestion never returns an error: remote problems turn into Fallback results.
// Failed is returned only for fields without writing help or when ctx ends first.
func (c *Client) RequestSuggestion(ctx context.Context, field string) Result {
	ctx, span := c.obs.StartSpan(ctx, "suggestion.request", attribute.String("field", field))
	result := c.request(ctx, field)
	observability.EndSpan(span, result.failure())

	metrics.Suggestions.WithLabelValues(field, string(result.Kind)).Inc()
	c.obs.RecordSuggestion(ctx, field, string(result.Kind))
	return result
}

func (c *Client) request(ctx context.Context, field string) Result {
	if !Supports(field) {
		return Result{Kind: Failed, Err: errors.NewUnknownFieldError(field)}
	}

	if c.config.APIKey == "" {
		return c.fallback(ctx, field, nil)
	}

	text, err := c.complete(ctx, BuildPrompt(field))
	if err != nil {
		if ctx.Err() != nil {
			return Result{Kind: Failed, Err: errors.NewSuggestionFailedError(field, ctx.Err())}
		}
		c.logger.Warn("suggestion request failed, using fallback text", map[string]interface{}{
			"field": field,
			"error": err.Error(),
		})
		return c.fallback(ctx, field, err)
	}
	if text == "" {
		c.logger.Warn("suggestion response was empty, using fallback text", map[string]interface{}{
			"field": field,
		})
		return c.fallback(ctx, field, nil)
	}

	return Result{Kind: Fetched, Text: text}
}

func (c *Client) fallback(ctx context.Context, field string, cause error) Result {
	if c.config.FallbackDelay > 0 {
		timer := time.NewTimer(c.config.FallbackDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Result{Kind: Failed, Err: errors.NewSuggestionFailedError(field, ctx.Err())}
		}
	}
	return Result{Kind: Fallback, Text: FallbackText(field), Err: cause}
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}

	var resp chatResponse
	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.config.APIKey}
	if err := c.http.PostJSON(ctx, url, headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (r Result) failure() error {
	if r.Kind == Failed {
		return r.Err
	}
	return nil
}
