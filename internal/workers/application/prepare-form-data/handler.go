package prepareformdata

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"subsidy-wizard/internal/common/errors"
	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/common/metrics"
	"subsidy-wizard/internal/wizard/export"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/tenant"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	json "github.com/goccy/go-json"
)

const TaskType = "prepare-form-data"

type Handler struct {
	config       *Config
	tenants      tenant.Registry
	now          func() time.Time
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, tenants tenant.Registry, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		tenants:      tenants,
		now:          time.Now,
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

// Execute builds the structured export and the PDF field map with the tenant's representative.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(input.WizardState) == 0 {
		return nil, errors.NewInvalidInputError("wizardState is required")
	}

	cfg, err := h.tenants.Lookup(input.TenantID)
	if stderrors.Is(err, tenant.ErrUnknownTenant) {
		return nil, errors.NewTenantNotFoundError(input.TenantID)
	}

	now := h.now()
	s, err := state.Hydrate(input.WizardState, now)
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("wizardState: %v", err))
	}

	appID := s.AppID()
	if appID == "" {
		appID = input.ApplicationID
	}

	form := export.PrepareFormData(s, cfg.Authorization)

	h.logger.Info("form data prepared", map[string]interface{}{
		"applicationId": appID,
		"tenantId":      string(cfg.ID),
		"pdfFieldCount": len(form.PDFFields),
	})

	return &Output{
		ApplicationID: appID,
		TenantID:      string(cfg.ID),
		FormData:      form.Structured,
		PDFFields:     form.PDFFields,
		PreparedAt:    now.UTC().Format(time.RFC3339),
	}, nil
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

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}
