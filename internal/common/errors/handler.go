// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler fails or throws Zeebe jobs from a StandardError.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decision describes what HandleJobError will do with a job, without sending anything.
type Decision struct {
	Throw   bool
	Retries int
	BPMN    *BPMNError
}

// Decide normalizes err and picks between failing with retries and throwing a BPMN error.
func (h *ErrorHandler) Decide(job entities.Job, err error) Decision {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	retries := bpmnErr.Retries
	if retries > 0 && job.Retries > 0 {
		if int(job.Retries) < retries {
			retries = int(job.Retries)
		}
		return Decision{Throw: false, Retries: retries, BPMN: bpmnErr}
	}
	return Decision{Throw: true, BPMN: bpmnErr}
}

// HandleJobError reports err for job to the broker.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	d := h.Decide(job, err)
	h.logError(job, Normalize(err), d)

	if d.Throw {
		h.throwBPMNError(ctx, client, job, d.BPMN)
		return
	}
	h.failJobWithRetries(ctx, client, job, d.BPMN, d.Retries)
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return newError("INTERNAL_ERROR", "Unexpected error", errDetails(err), false)
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, retries int) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(retries)).
		ErrorMessage(bpmnErr.Message)

	if vars, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(vars)); err == nil {
			_, _ = withVars.Send(ctx)
			return
		}
	}
	_, _ = cmd.Send(ctx)
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if vars, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(vars)); err == nil {
			_, _ = withVars.Send(ctx)
			return
		}
	}
	_, _ = cmd.Send(ctx)
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, d Decision) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    d.BPMN.Code,
		"message":          d.BPMN.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retries":          d.Retries,
		"thrown":           d.Throw,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
