// internal/workers/application/send-notification/handler.go
package sendnotification

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	awsx "subsidy-wizard/internal/common/aws"
	"subsidy-wizard/internal/common/errors"
	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/common/mailer"
	"subsidy-wizard/internal/common/metrics"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/tenant"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

// EmailSender delivers applicant email through SES.
type EmailSender interface {
	SendEmail(ctx context.Context, email awsx.Email) (string, error)
}

// MailSender delivers applicant email over SMTP.
type MailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// StaffNotifier reaches staff by text message and topic.
type StaffNotifier interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
	PublishTopic(ctx context.Context, topicARN, subject, message string) (string, error)
}

// Senders holds the delivery channels. A nil field disables the channel; SMTP is used when
// SES is absent or fails.
type Senders struct {
	SES   EmailSender
	SMTP  MailSender
	Staff StaffNotifier
}

type Handler struct {
	config       *Config
	db           *sql.DB
	tenants      tenant.Registry
	senders      Senders
	now          func() time.Time
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler wires the worker. db may be nil, in which case deliveries are not archived.
func NewHandler(config *Config, tenants tenant.Registry, senders Senders, db *sql.DB, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		tenants:      tenants,
		senders:      senders,
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute mails the applicant and notifies staff. A failed applicant email fails the job so it
// is retried; failed staff channels are only reported in the output.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	tmpl, ok := templates[input.NotificationType]
	if !ok {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown notification type: %q", input.NotificationType))
	}
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

	data := map[string]interface{}{
		"applicationId":   appID,
		"tenantId":        string(cfg.ID),
		"bedrijfsnaam":    s.Bedrijfsnaam,
		"kvkNummer":       s.KvkNummer,
		"contactNaam":     s.ContactNaam,
		"ondernemingType": string(s.OndernemingType),
		"signerName":      s.Bestuurder1.SignerName(),
		"signingUrl":      input.SigningURL,
		"envelopeId":      input.EnvelopeID,
		"organisatie":     cfg.Authorization.Organisatie,
	}
	subject := renderTemplate(tmpl.Subject, data)
	body := renderTemplate(tmpl.Body, data)
	staffText := renderTemplate(tmpl.Staff, data)

	output := &Output{
		NotificationID: uuid.New().String(),
		Channels:       []string{},
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}
	attempted := 0

	if h.config.EmailEnabled && (h.senders.SES != nil || h.senders.SMTP != nil) {
		to := h.recipient(input.NotificationType, s)
		if to == "" {
			h.logger.Warn("no applicant email address, skipping email", map[string]interface{}{
				"applicationId": appID,
			})
		} else {
			attempted++
			channel, err := h.sendEmail(ctx, to, subject, body)
			if err != nil {
				return nil, errors.NewNotificationSendFailedError(input.NotificationType, err).
					WithMetadata("applicationId", appID)
			}
			output.Channels = append(output.Channels, channel)
		}
	}

	if h.config.SMSEnabled && h.config.StaffPhone != "" && h.senders.Staff != nil {
		attempted++
		if _, err := h.senders.Staff.SendSMS(ctx, h.config.StaffPhone, staffText); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"applicationId": appID,
				"error":         err.Error(),
			})
			output.FailedChannels = append(output.FailedChannels, ChannelSMS)
		} else {
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	if h.config.StaffTopicARN != "" && h.senders.Staff != nil {
		attempted++
		if _, err := h.senders.Staff.PublishTopic(ctx, h.config.StaffTopicARN, subject, staffText); err != nil {
			h.logger.Error("topic publish failed", map[string]interface{}{
				"applicationId": appID,
				"error":         err.Error(),
			})
			output.FailedChannels = append(output.FailedChannels, ChannelTopic)
		} else {
			output.Channels = append(output.Channels, ChannelTopic)
		}
	}

	switch {
	case attempted == 0:
		output.Status = StatusDisabled
	case len(output.Channels) == 0:
		output.Status = StatusFailed
	default:
		output.Status = StatusSent
	}

	h.recordDelivery(ctx, appID, input.NotificationType, output)

	h.logger.Info("notification processed", map[string]interface{}{
		"applicationId":    appID,
		"notificationType": input.NotificationType,
		"status":           output.Status,
		"channels":         strings.Join(output.Channels, ","),
	})
	return output, nil
}

// recipient is the company address for receipts and the signer's address for signing requests.
func (h *Handler) recipient(notificationType string, s state.WizardState) string {
	if notificationType == TypeSigningRequested && s.Bestuurder1.Email != "" {
		return strings.TrimSpace(s.Bestuurder1.Email)
	}
	return strings.TrimSpace(s.Email)
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) (string, error) {
	var sesErr error
	if h.senders.SES != nil {
		_, sesErr = h.senders.SES.SendEmail(ctx, awsx.Email{To: []string{to}, Subject: subject, Text: body})
		if sesErr == nil {
			return ChannelEmailSES, nil
		}
		h.logger.Warn("SES send failed", map[string]interface{}{
			"error":        sesErr.Error(),
			"smtpFallback": h.senders.SMTP != nil,
		})
	}

	if h.senders.SMTP == nil {
		return "", sesErr
	}
	if err := h.senders.SMTP.Send(ctx, mailer.Message{To: []string{to}, Subject: subject, Text: body}); err != nil {
		if sesErr != nil {
			return "", fmt.Errorf("ses: %v; smtp: %w", sesErr, err)
		}
		return "", err
	}
	return ChannelEmailSMTP, nil
}

func (h *Handler) recordDelivery(ctx context.Context, appID, notificationType string, output *Output) {
	if h.db == nil || appID == "" || output.Status == StatusDisabled {
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"notificationId":   output.NotificationID,
		"notificationType": notificationType,
		"status":           output.Status,
		"channels":         output.Channels,
	})
	if _, err := h.db.ExecContext(ctx,
		`INSERT INTO application_events (id, application_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), appID, EventNotificationSent, payload, h.now().UTC(),
	); err != nil {
		h.logger.Warn("failed to record notification", map[string]interface{}{
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
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}
