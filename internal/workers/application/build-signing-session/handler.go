package buildsigningsession

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"subsidy-wizard/internal/common/errors"
	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/common/metrics"
	"subsidy-wizard/internal/wizard/signing"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/tenant"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

const TaskType = "build-signing-session"

// SigningBackend opens template signing sessions at the document backend.
type SigningBackend interface {
	CreateSigningSession(ctx context.Context, req signing.Request) (*signing.Response, error)
}

type Handler struct {
	config       *Config
	tenants      tenant.Registry
	backend      SigningBackend
	db           *sql.DB
	now          func() time.Time
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler wires the worker. db may be nil, in which case the envelope is not archived.
func NewHandler(config *Config, tenants tenant.Registry, backend SigningBackend, db *sql.DB, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		tenants:      tenants,
		backend:      backend,
		db:           db,
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

// Execute builds the tenant's signing session from the wizard state, checks it against the
// provider contract and submits it.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.WizardState) == 0 {
		return nil, errors.NewInvalidInputError("wizardState is required")
	}

	cfg, err := h.tenants.Lookup(input.TenantID)
	if stderrors.Is(err, tenant.ErrUnknownTenant) {
		return nil, errors.NewTenantNotFoundError(input.TenantID)
	}

	s, err := state.Hydrate(input.WizardState, h.now())
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("wizardState: %v", err))
	}
	appID := s.AppID()
	if appID == "" {
		appID = input.ApplicationID
	}
	if appID == "" {
		return nil, errors.NewInvalidInputError("applicationId is required")
	}

	returnBase := cfg.PublicBaseURL
	if returnBase == "" {
		returnBase = h.config.PublicBaseURL
	}
	builder := signing.Builder{ReturnBaseURL: returnBase, Now: h.now}
	session := builder.Build(s, cfg.TemplateID)

	if violations, err := signing.Validate(session); err != nil {
		h.logger.Warn("signing session rejected before submission", map[string]interface{}{
			"applicationId": appID,
			"violations":    violations,
		})
		return nil, errors.NewSigningSessionInvalidError(violations).
			WithMetadata("applicationId", appID)
	}

	resp, err := h.backend.CreateSigningSession(ctx, signing.Request{
		Session:       session,
		TenantID:      string(cfg.ID),
		ApplicationID: appID,
	})
	if err != nil || resp == nil || !resp.Success {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.NewTimeoutError("signing backend", ctxErr)
		}
		detail := signing.FailureDetail(resp, err)
		h.logger.Error("signing submission failed", map[string]interface{}{
			"applicationId": appID,
			"detail":        detail,
		})
		return nil, errors.NewSigningSubmissionFailedError(detail).
			WithMetadata("applicationId", appID)
	}

	h.recordEnvelope(ctx, appID, resp.EnvelopeID)

	h.logger.Info("signing session created", map[string]interface{}{
		"applicationId": appID,
		"envelopeId":    resp.EnvelopeID,
		"signers":       len(session.Signers),
	})

	return &Output{
		ApplicationID: appID,
		EnvelopeID:    resp.EnvelopeID,
		SigningURL:    resp.SigningURL,
		SignerCount:   len(session.Signers),
		RequestedAt:   h.now().UTC().Format(time.RFC3339),
	}, nil
}

// recordEnvelope stores the envelope on the archived application. Failures are logged only;
// the signing session already exists at the provider.
func (h *Handler) recordEnvelope(ctx context.Context, appID, envelopeID string) {
	if h.db == nil {
		return
	}

	now := h.now().UTC()
	if _, err := h.db.ExecContext(ctx,
		`UPDATE subsidy_applications SET envelope_id = $1, status = $2, updated_at = $3 WHERE application_id = $4`,
		envelopeID, "signing", now, appID,
	); err != nil {
		h.logger.Warn("failed to record envelope", map[string]interface{}{
			"applicationId": appID,
			"error":         err.Error(),
		})
		return
	}

	payload, _ := json.Marshal(map[string]string{"envelopeId": envelopeID})
	if _, err := h.db.ExecContext(ctx,
		`INSERT INTO application_events (id, application_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), appID, EventSigningRequested, payload, now,
	); err != nil {
		h.logger.Warn("failed to record signing event", map[string]interface{}{
			"applicationId": appID,
			"error":         err.Error(),
		})
	}
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
