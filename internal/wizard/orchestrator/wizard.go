// Package orchestrator drives a wizard session: it gates step transitions, fires the side
// effects tied to leaving a step and submits the finished application for signing.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/common/metrics"
	"subsidy-wizard/internal/common/observability"
	"subsidy-wizard/internal/wizard/backend"
	"subsidy-wizard/internal/wizard/export"
	"subsidy-wizard/internal/wizard/signing"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/steps"
	"subsidy-wizard/internal/wizard/tenant"
)

const companyInfoWarning = "Bedrijfsgegevens konden niet worden verzonden. U kunt gewoon verder gaan."

// Backend is the document and signing backend as seen by the wizard.
type Backend interface {
	SubmitCompanyInfo(ctx context.Context, info export.CompanyInfo) (*export.CompanyInfoResponse, error)
	UploadBankStatement(ctx context.Context, file *state.FileHandle, meta backend.UploadMetadata) (bool, error)
	CreateSigningSession(ctx context.Context, req signing.Request) (*signing.Response, error)
}

type Options struct {
	Validator *steps.Validator
	Builder   signing.Builder
	Logger    logger.Logger
	Tracer    trace.Tracer
	Now       func() time.Time
}

// Wizard is one applicant's session. It is safe for concurrent use; operations are serialized.
type Wizard struct {
	mu sync.Mutex

	store     *state.Store
	backend   Backend
	tenant    tenant.Config
	validator *steps.Validator
	builder   signing.Builder
	log       logger.Logger
	tracer    trace.Tracer

	index           int
	furthest        int
	companyInfoSent bool
	warning         string
}

func New(store *state.Store, b Backend, t tenant.Config, opts Options) *Wizard {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Validator == nil {
		opts.Validator = steps.NewValidator(opts.Now)
	}
	if opts.Builder.Now == nil {
		opts.Builder.Now = opts.Now
	}
	if opts.Builder.ReturnBaseURL == "" {
		opts.Builder.ReturnBaseURL = t.PublicBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("subsidy-wizard/orchestrator")
	}

	return &Wizard{
		store:     store,
		backend:   b,
		tenant:    t,
		validator: opts.Validator,
		builder:   opts.Builder,
		log:       opts.Logger.WithFields(map[string]interface{}{"tenantId": string(t.ID)}),
		tracer:    opts.Tracer,
	}
}

func (w *Wizard) Store() *state.Store { return w.store }

func (w *Wizard) Tenant() tenant.Config { return w.tenant }

func (w *Wizard) Index() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

func (w *Wizard) Step() steps.Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return steps.All()[w.index]
}

// Warning is the last non-blocking problem, such as a failed company info submission.
func (w *Wizard) Warning() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.warning
}

// Next leaves the current step. Leaving companyDetails pins the application id and sends the
// company info once; leaving bankStatement uploads the file unless it was uploaded before.
func (w *Wizard) Next(ctx context.Context) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key, _ := steps.KeyAt(w.index)
	ctx, span := w.tracer.Start(ctx, "wizard.next", trace.WithAttributes(attribute.String("step", string(key))))
	defer func() { observability.EndSpan(span, err) }()

	if w.store.Closed() {
		return state.ErrClosed
	}
	if w.index >= steps.Last() {
		return ErrNoNextStep
	}
	if err := w.checkStep(w.index, key); err != nil {
		return err
	}

	switch key {
	case steps.CompanyDetails:
		w.store.EnsureApplicationID()
		if !w.companyInfoSent && w.store.State().FolderID == nil {
			w.companyInfoSent = true
			w.submitCompanyInfo(ctx)
		}
	case steps.BankStatement:
		if err := w.uploadBankStatement(ctx); err != nil {
			return err
		}
	}

	w.index++
	if w.index > w.furthest {
		w.furthest = w.index
	}
	metrics.WizardStepTransitions.WithLabelValues(string(key), "forward").Inc()
	return nil
}

// Back moves one step back and never below the first step.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.index == 0 {
		return
	}
	key, _ := steps.KeyAt(w.index)
	w.index--
	metrics.WizardStepTransitions.WithLabelValues(string(key), "back").Inc()
}

// GoTo jumps to a step the applicant has already reached. Jumping forward requires every step
// before the target to be complete again.
func (w *Wizard) GoTo(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if index < 0 || index > w.furthest {
		return fmt.Errorf("%w: %d", ErrStepUnreachable, index)
	}
	if index > w.index {
		if err := w.checkPath(index); err != nil {
			return err
		}
	}
	w.index = index
	return nil
}

// Sign submits the signing session. On success the session state is cleared, application id
// included, and the wizard returns to the first step. On failure the wizard stays put.
func (w *Wizard) Sign(ctx context.Context) (resp *signing.Response, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, span := w.tracer.Start(ctx, "wizard.sign")
	defer func() { observability.EndSpan(span, err) }()

	if w.store.Closed() {
		return nil, state.ErrClosed
	}
	last := steps.Last()
	if w.index != last {
		return nil, fmt.Errorf("%w: signing from step %d", ErrStepUnreachable, w.index)
	}
	if err := w.checkPath(last); err != nil {
		return nil, err
	}
	if err := w.checkStep(last, steps.Authorization); err != nil {
		return nil, err
	}

	appID := w.store.EnsureApplicationID()
	span.SetAttributes(attribute.String("applicationId", appID))

	session := w.builder.Build(w.store.State(), w.tenant.TemplateID)
	if violations, err := signing.Validate(session); err != nil {
		metrics.WizardSubmissions.WithLabelValues("signing", "invalid").Inc()
		w.log.Warn("signing session rejected before submission", map[string]interface{}{
			"applicationId": appID,
			"violations":    violations,
		})
		return nil, &SubmissionError{Detail: joinViolations(violations), ValidationErrors: violations, Err: err}
	}

	resp, err = w.backend.CreateSigningSession(ctx, signing.Request{
		Session:       session,
		TenantID:      string(w.tenant.ID),
		ApplicationID: appID,
	})
	if err != nil || resp == nil || !resp.Success {
		metrics.WizardSubmissions.WithLabelValues("signing", "error").Inc()
		subErr := newSubmissionError(resp, err)
		w.log.Error("signing submission failed", map[string]interface{}{
			"applicationId": appID,
			"detail":        subErr.Detail,
		})
		return resp, subErr
	}

	metrics.WizardSubmissions.WithLabelValues("signing", "success").Inc()
	w.log.Info("signing session created", map[string]interface{}{
		"applicationId": appID,
		"envelopeId":    resp.EnvelopeID,
	})

	if err := w.store.Clear(ctx); err != nil {
		w.log.Warn("failed to clear draft after signing", map[string]interface{}{"error": err.Error()})
	}
	w.index, w.furthest = 0, 0
	w.companyInfoSent = false
	w.warning = ""
	return resp, nil
}

// Export renders both export views with the tenant's authorization details.
func (w *Wizard) Export() export.FormExport {
	return export.PrepareFormData(w.store.State(), w.tenant.Authorization)
}

// checkStep must be called with mu held.
func (w *Wizard) checkStep(index int, key steps.Key) error {
	s := w.store.State()
	if w.validator.IsStepValid(index, s) {
		return nil
	}
	metrics.WizardStepRejections.WithLabelValues(string(key)).Inc()
	return &StepError{Step: key, Errors: w.validator.ValidateStep(key, s)}
}

// checkPath verifies every step before target, including the completed bank statement upload.
// It must be called with mu held.
func (w *Wizard) checkPath(target int) error {
	for i := 0; i < target; i++ {
		key, _ := steps.KeyAt(i)
		if err := w.checkStep(i, key); err != nil {
			return err
		}
		if key == steps.BankStatement && !w.store.State().BankStatementUploaded {
			metrics.WizardStepRejections.WithLabelValues(string(key)).Inc()
			return &StepError{Step: key, Errors: map[string]string{}}
		}
	}
	return nil
}

func (w *Wizard) submitCompanyInfo(ctx context.Context) {
	info := export.BuildCompanyInfo(w.store.State(), string(w.tenant.ID))

	resp, err := w.backend.SubmitCompanyInfo(ctx, info)
	if err == nil && resp != nil && !resp.Success {
		err = fmt.Errorf("backend reported failure: %s", firstNonEmpty(resp.Error, resp.Message))
	}
	if err != nil {
		metrics.WizardSubmissions.WithLabelValues("company_info", "error").Inc()
		w.warning = companyInfoWarning
		w.log.Warn("company info submission failed", map[string]interface{}{
			"applicationId": info.ApplicationID,
			"error":         err.Error(),
		})
		return
	}

	metrics.WizardSubmissions.WithLabelValues("company_info", "success").Inc()
	w.warning = ""
	if resp.FolderID != "" {
		w.store.SetFolderID(resp.FolderID)
	}
}

func (w *Wizard) uploadBankStatement(ctx context.Context) error {
	s := w.store.State()
	if s.BankStatementUploaded {
		return nil
	}

	meta := backend.UploadMetadata{
		KvkNummer:     s.KvkNummer,
		Bedrijfsnaam:  s.Bedrijfsnaam,
		ApplicationID: w.store.EnsureApplicationID(),
	}
	if s.FolderID != nil {
		meta.FolderID = *s.FolderID
	}

	ok, err := w.backend.UploadBankStatement(ctx, s.BankStatement, meta)
	if err != nil || !ok {
		metrics.WizardSubmissions.WithLabelValues("bank_statement", "error").Inc()
		fields := map[string]interface{}{"applicationId": meta.ApplicationID}
		if err != nil {
			fields["error"] = err.Error()
			w.log.Error("bank statement upload failed", fields)
			return fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		w.log.Error("bank statement upload rejected", fields)
		return ErrUploadFailed
	}

	metrics.WizardSubmissions.WithLabelValues("bank_statement", "success").Inc()
	w.store.MarkBankStatementUploaded()
	return nil
}

func joinViolations(v []string) string {
	if len(v) == 0 {
		return "Ongeldige ondertekeningsgegevens"
	}
	return strings.Join(v, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "no detail"
}
