// Package submission delivers completed applications to a backend.
package submission

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"social-support-intake/internal/common/config"
	"social-support-intake/internal/common/database"
	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/common/metrics"
	"social-support-intake/internal/common/observability"
	"social-support-intake/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// Gateway accepts a complete ApplicationRecord. Failures are *errors.StandardError values
// whose Retryable flag says whether trying again may help.
type Gateway interface {
	Submit(ctx context.Context, record models.ApplicationRecord) (models.Receipt, error)
}

type localeKey struct{}

// WithLocale attaches the applicant's display locale to ctx for drivers that forward it.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// LocaleFrom returns the locale set by WithLocale, or "en".
func LocaleFrom(ctx context.Context) string {
	if l, ok := ctx.Value(localeKey{}).(string); ok && l != "" {
		return l
	}
	return "en"
}

// Deps carries the optional backends the drivers need.
type Deps struct {
	Postgres *database.PostgresClient
	Camunda  ProcessStarter
}

// New builds the driver selected in cfg and wraps it with metrics, tracing and the
// configured timeout.
func New(cfg config.SubmissionConfig, deps Deps, obs *observability.Observability, log logger.Logger) (Gateway, error) {
	var g Gateway
	switch cfg.Driver {
	case "", config.SubmissionDriverSimulated:
		g = NewSimulated(config.GetDuration(cfg.SimulatedLatency), log)
	case config.SubmissionDriverPostgres:
		if deps.Postgres == nil {
			return nil, fmt.Errorf("submission driver %q requires postgres", cfg.Driver)
		}
		g = NewPostgres(deps.Postgres, log)
	case config.SubmissionDriverCamunda:
		if deps.Camunda == nil {
			return nil, fmt.Errorf("submission driver %q requires a camunda client", cfg.Driver)
		}
		g = NewCamunda(deps.Camunda, cfg.ProcessID, log)
	default:
		return nil, fmt.Errorf("unknown submission driver: %s", cfg.Driver)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = config.SubmissionDriverSimulated
	}
	return Instrument(g, driver, config.GetDuration(cfg.Timeout), obs, log), nil
}

type instrumented struct {
	next    Gateway
	driver  string
	timeout time.Duration
	obs     *observability.Observability
	logger  logger.Logger
}

// Instrument bounds every Submit call by timeout (when positive) and records its outcome.
func Instrument(next Gateway, driver string, timeout time.Duration, obs *observability.Observability, log logger.Logger) Gateway {
	return &instrumented{
		next:    next,
		driver:  driver,
		timeout: timeout,
		obs:     obs,
		logger:  logger.Component(log, "submission").WithFields(map[string]interface{}{"driver": driver}),
	}
}

func (i *instrumented) Submit(ctx context.Context, record models.ApplicationRecord) (models.Receipt, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	ctx, span := i.obs.StartSpan(ctx, "submission.submit", attribute.String("driver", i.driver))
	start := time.Now()

	receipt, err := i.next.Submit(ctx, record)
	if err != nil && stderrors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.IsCode(err, errors.ErrCodeSubmissionTimeout) {
		err = errors.NewSubmissionTimeoutError(err)
	}
	err = normalize(err)

	duration := time.Since(start)
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.Submissions.WithLabelValues(i.driver, status).Inc()
	metrics.SubmissionDuration.WithLabelValues(i.driver).Observe(duration.Seconds())
	i.obs.RecordSubmission(ctx, i.driver, status, duration)
	observability.EndSpan(span, err)

	if err != nil {
		i.logger.Error("application submission failed", map[string]interface{}{
			"error":      err.Error(),
			"retryable":  errors.IsRetryable(err),
			"durationMs": duration.Milliseconds(),
		})
		return models.Receipt{}, err
	}

	i.logger.Info("application submitted", map[string]interface{}{
		"applicationId": receipt.ID,
		"status":        receipt.Status,
		"durationMs":    duration.Milliseconds(),
	})
	return receipt, nil
}

// normalize makes sure callers only see StandardErrors.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsStandard(err); ok {
		return err
	}
	return errors.NewSubmissionFailedError(err, false)
}

func newReceipt(id, status, reference string, now time.Time) models.Receipt {
	return models.Receipt{
		ID:          id,
		Status:      status,
		Reference:   reference,
		SubmittedAt: now.UTC().Format(time.RFC3339),
	}
}
