package validateapplicationdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"subsidy-wizard/internal/common/errors"
	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/common/metrics"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/steps"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	json "github.com/goccy/go-json"
)

const (
	TaskType = "validate-application-data"
)

type Handler struct {
	config       *Config
	validator    *steps.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config.Now == nil {
		config.Now = time.Now
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		validator:    steps.NewValidator(config.Now),
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute hydrates the submitted wizard state and runs every step's presence and format checks.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(input.WizardState) == 0 || string(input.WizardState) == "null" {
		return nil, errors.NewInvalidInputError("wizardState is required")
	}

	s, err := state.Hydrate(input.WizardState, h.config.Now())
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("wizardState: %v", err))
	}

	appID := s.AppID()
	switch {
	case appID == "" && input.ApplicationID == "":
		return nil, errors.NewInvalidInputError("applicationId is required")
	case appID == "":
		appID = input.ApplicationID
	case input.ApplicationID != "" && input.ApplicationID != appID:
		return nil, errors.NewInvalidInputError(fmt.Sprintf("applicationId %s does not match wizard state %s", input.ApplicationID, appID))
	}

	fieldErrors, incomplete := h.validator.ValidateAll(s)

	h.logger.Info("validation completed", map[string]interface{}{
		"applicationId":   appID,
		"isValid":         len(incomplete) == 0,
		"errorCount":      len(fieldErrors),
		"incompleteSteps": incomplete,
	})

	if len(incomplete) > 0 {
		stepNames := make([]string, len(incomplete))
		for i, k := range incomplete {
			stepNames[i] = string(k)
		}
		return nil, errors.NewApplicationValidationFailedError(describe(stepNames, fieldErrors)).
			WithMetadata("applicationId", appID).
			WithMetadata("incompleteSteps", stepNames).
			WithMetadata("validationErrors", fieldErrors)
	}

	return &Output{
		IsValid:         true,
		ApplicationID:   appID,
		Bedrijfsnaam:    s.Bedrijfsnaam,
		KvkNummer:       s.KvkNummer,
		ContactEmail:    s.Email,
		OndernemingType: string(s.OndernemingType),
		DeMinimisType:   string(s.DeMinimisType),
	}, nil
}

// describe renders "steps: a, b; fields: x (msg), y (msg)" with fields sorted for stable output.
func describe(stepNames []string, fieldErrors map[string]string) string {
	out := "steps: " + strings.Join(stepNames, ", ")
	if len(fieldErrors) == 0 {
		return out
	}
	fields := make([]string, 0, len(fieldErrors))
	for f := range fieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for i, f := range fields {
		fields[i] = fmt.Sprintf("%s (%s)", f, fieldErrors[f])
	}
	return out + "; fields: " + strings.Join(fields, ", ")
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// fail reports on a fresh context so an expired job deadline still reaches the broker.
func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}
