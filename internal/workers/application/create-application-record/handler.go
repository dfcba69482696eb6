package createapplicationrecord

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"subsidy-wizard/internal/common/errors"
	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/common/metrics"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/tenant"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	TaskType = "create-application-record"

	uniqueViolation = "23505"
)

type Handler struct {
	config       *Config
	db           *sql.DB
	now          func() time.Time
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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

// Execute archives the submitted wizard state and its submission event in one transaction.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.WizardState) == 0 {
		return nil, errors.NewInvalidInputError("wizardState is required")
	}

	now := h.now().UTC()
	s, err := state.Hydrate(input.WizardState, now)
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
	tenantID := string(tenant.Coerce(input.TenantID))

	var exists bool
	err = h.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM subsidy_applications WHERE application_id = $1)`,
		appID,
	).Scan(&exists)
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(fmt.Errorf("duplicate check failed: %w", err))
	}
	if exists {
		return nil, errors.NewDuplicateApplicationError(appID)
	}

	formData, err := state.Snapshot(s)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("encode wizard state: %w", err))
	}
	eventPayload, err := json.Marshal(map[string]interface{}{
		"tenantId":        tenantID,
		"kvkNummer":       s.KvkNummer,
		"ondernemingType": string(s.OndernemingType),
		"deMinimisType":   string(s.DeMinimisType),
	})
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("encode event payload: %w", err))
	}

	recordID := uuid.New().String()

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO subsidy_applications (
			id, application_id, tenant_id, kvk_nummer, bedrijfsnaam,
			ondernemingstype, folder_id, status, form_data, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		recordID,
		appID,
		tenantID,
		s.KvkNummer,
		s.Bedrijfsnaam,
		string(s.OndernemingType),
		s.FolderID,
		StatusSubmitted,
		formData,
		now,
	)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, errors.NewDuplicateApplicationError(appID)
		}
		return nil, errors.NewDatabaseInsertFailedError(fmt.Errorf("insert application: %w", err))
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO application_events (id, application_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(),
		appID,
		EventSubmitted,
		eventPayload,
		now,
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(fmt.Errorf("insert event: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(fmt.Errorf("commit: %w", err))
	}

	h.logger.Info("application record created", map[string]interface{}{
		"recordId":        recordID,
		"applicationId":   appID,
		"tenantId":        tenantID,
		"ondernemingType": string(s.OndernemingType),
	})

	return &Output{
		RecordID:          recordID,
		ApplicationID:     appID,
		ApplicationStatus: StatusSubmitted,
		CreatedAt:         now.Format(time.RFC3339),
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
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}
