// internal/workers/application/create-application-record/handler.go
package createapplicationrecord

import (
	"context"
	"encoding/json"
	"time"

	"social-support-intake/internal/common/config"
	"social-support-intake/internal/common/database"
	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/common/metrics"
	"social-support-intake/internal/common/observability"
	"social-support-intake/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const TaskType = config.WorkerCreateApplicationRecord

const sourceWorkflow = "workflow"

var schema = validation.MustCompileSchema(inputSchema)

type Handler struct {
	config     *Config
	db         *database.PostgresClient
	errHandler *errors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(cfg *Config, db *database.PostgresClient, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     cfg,
		db:         db,
		errHandler: errors.NewErrorHandler(l),
		obs:        obs,
		logger:     l,
		now:        time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.GetKey(),
		"workflowKey": job.GetProcessInstanceKey(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.Int64("jobKey", job.GetKey()))

	input, err := ParseInput(job.GetVariables())
	if err == nil {
		var output *Output
		if output, err = h.Execute(ctx, input); err == nil {
			observability.EndSpan(span, nil)
			h.completeJob(context.Background(), client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
			h.obs.RecordJobProcessed(ctx, TaskType, "completed")
			return
		}
	}

	observability.EndSpan(span, err)
	h.failJob(context.Background(), client, job, err)
}

// ParseInput validates the job variables against the input schema and decodes them.
func ParseInput(variables string) (*Input, error) {
	if err := schema.ValidateBytes([]byte(variables)); err != nil {
		return nil, errors.NewInvalidJobInputError(err)
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidJobInputError(err)
	}
	return &input, nil
}

// Execute inserts the application. A replayed job whose row already exists completes
// without writing again.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	data, err := json.Marshal(input.Application)
	if err != nil {
		return nil, errors.NewInvalidJobInputError(err)
	}

	createdAt := h.now().UTC()
	if t, err := time.Parse(time.RFC3339, input.SubmittedAt); err == nil {
		createdAt = t.UTC()
	}

	row := database.ApplicationRow{
		ID:         input.ApplicationID,
		NationalID: input.Application.Personal.NationalID,
		Status:     database.ApplicationStatusSubmitted,
		Source:     sourceWorkflow,
		Data:       data,
		CreatedAt:  createdAt,
	}
	if err := h.db.InsertApplication(ctx, row); err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, errors.NewDatabaseInsertFailedError(err)
		}
		h.logger.Warn("application already recorded", map[string]interface{}{
			"applicationId": input.ApplicationID,
		})
	} else {
		h.logger.Info("application record created", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"locale":        input.Locale,
		})
	}

	return &Output{
		ApplicationID:     input.ApplicationID,
		ApplicationStatus: database.ApplicationStatusSubmitted,
		CreatedAt:         createdAt.Format(time.RFC3339),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.GetKey(),
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	code := string(errors.Normalize(err).Code)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.errHandler.HandleJobError(ctx, client, job, err)
}
