// internal/workers/application/index-application/handler.go
package indexapplication

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"social-support-intake/internal/common/config"
	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/common/metrics"
	"social-support-intake/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = config.WorkerIndexApplication

// Indexer stores a document under id. *database.ElasticsearchClient implements it.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

type Handler struct {
	config     *Config
	indexer    Indexer
	errHandler *errors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

func NewHandler(cfg *Config, indexer Indexer, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     cfg,
		indexer:    indexer,
		errHandler: errors.NewErrorHandler(l),
		obs:        obs,
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		h.failJob(client, job, errors.NewInvalidJobInputError(err))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == "" {
		return nil, errors.NewInvalidJobInputError(fmt.Errorf("applicationId is required"))
	}

	doc := BuildDocument(input)
	if err := h.indexer.IndexDocument(ctx, h.config.Index, input.ApplicationID, doc); err != nil {
		return nil, errors.NewIndexFailedError(h.config.Index, err)
	}

	h.logger.Info("application indexed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"index":         h.config.Index,
	})
	return &Output{Indexed: true, Index: h.config.Index}, nil
}

// BuildDocument flattens an application into its search summary.
func BuildDocument(input *Input) Document {
	rec := input.Application
	var parts []string
	for _, s := range []string{
		rec.Situations.FinancialSituation,
		rec.Situations.EmploymentCircumstances,
		rec.Situations.ReasonForApplying,
	} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	return Document{
		ApplicationID:    input.ApplicationID,
		Name:             rec.Personal.Name,
		City:             rec.Personal.City,
		State:            rec.Personal.State,
		Country:          rec.Personal.Country,
		MaritalStatus:    rec.Family.MaritalStatus,
		EmploymentStatus: rec.Family.EmploymentStatus,
		HousingStatus:    rec.Family.HousingStatus,
		Dependents:       rec.Family.Dependents,
		MonthlyIncome:    rec.Family.MonthlyIncome,
		Narrative:        strings.Join(parts, "\n\n"),
		Locale:           input.Locale,
		SubmittedAt:      input.SubmittedAt,
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.obs.RecordJobProcessed(context.Background(), TaskType, "failed")
	h.errHandler.HandleJobError(context.Background(), client, job, err)
}
