package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/wizard/classification"
	"subsidy-wizard/internal/wizard/format"
	"subsidy-wizard/internal/wizard/orchestrator"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/steps"
	"subsidy-wizard/internal/wizard/tenant"
)

const (
	multipartOverhead     = 1 << 20
	representativeTimeout = 5 * time.Second
)

type handlers struct {
	sessions  *Sessions
	tokens    *TokenIssuer
	tenants   TenantSettings
	reps      RepresentativeSource
	maxUpload int64
	validator *steps.Validator
	log       logger.Logger
}

type stepView struct {
	steps.Step
	Index    int  `json:"index"`
	Complete bool `json:"complete"`
}

type sessionView struct {
	SessionID      string                         `json:"sessionId"`
	TenantID       tenant.ID                      `json:"tenantId"`
	Revision       uint64                         `json:"revision"`
	CurrentStep    int                            `json:"currentStep"`
	Step           steps.Step                     `json:"step"`
	Steps          []stepView                     `json:"steps"`
	Errors         map[string]string              `json:"errors,omitempty"`
	Warning        string                         `json:"warning,omitempty"`
	Classification *classification.Classification `json:"classification,omitempty"`
	State          json.RawMessage                `json:"state"`
}

type fieldUpdate struct {
	Parent string `json:"parent"`
	Field  string `json:"field" binding:"required"`
	Value  any    `json:"value"`
}

type stepRequest struct {
	Index *int `json:"index" binding:"required"`
}

func (h *handlers) view(sessionID string, w *orchestrator.Wizard) (sessionView, error) {
	s := w.Store().State()
	snapshot, err := state.Snapshot(s)
	if err != nil {
		return sessionView{}, fmt.Errorf("snapshot session %s: %w", sessionID, err)
	}

	index := w.Index()
	all := steps.All()
	views := make([]stepView, len(all))
	for i, st := range all {
		views[i] = stepView{Step: st, Index: i, Complete: steps.Presence(i, s)}
	}

	v := sessionView{
		SessionID:   sessionID,
		TenantID:    w.Tenant().ID,
		Revision:    w.Store().Revision(),
		CurrentStep: index,
		Step:        all[index],
		Steps:       views,
		Errors:      h.validator.ValidateStep(all[index].Key, s),
		Warning:     w.Warning(),
		State:       snapshot,
	}
	if c, ok := classification.Describe(
		format.ParseAmount(s.AantalFte), format.ParseAmount(s.Jaaromzet), format.ParseAmount(s.Balanstotaal),
	); ok {
		v.Classification = &c
	}
	return v, nil
}

func (h *handlers) respond(c *gin.Context, status int, w *orchestrator.Wizard) {
	v, err := h.view(currentClaims(c).SessionID, w)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, v)
}

// open loads the wizard of the session named in claims. A tenant that is no longer configured
// falls back to the default entry.
func (h *handlers) open(c *gin.Context, claims *SessionClaims) (*orchestrator.Wizard, error) {
	cfg, err := h.tenants.Registry.Lookup(claims.TenantID)
	if err != nil {
		cfg, _ = h.tenants.Registry.Lookup(string(tenant.Default))
	}
	return h.sessions.Open(c.Request.Context(), claims.SessionID, cfg)
}

func (h *handlers) resolveTenant(c *gin.Context) tenant.Config {
	return tenant.Resolve(tenant.Request{
		Host:             c.Request.Host,
		QueryTenant:      c.Query("tenant"),
		ConfiguredTenant: h.tenants.Configured,
		AllowOverride:    h.tenants.AllowOverride,
		Development:      h.tenants.Development,
	}, h.tenants.Registry)
}

// createSession resumes the session of a still valid bearer token or starts a new one. Either way
// a fresh token is returned.
func (h *handlers) createSession(c *gin.Context) {
	status := http.StatusOK
	var claims *SessionClaims
	if raw, ok := bearer(c); ok {
		if parsed, err := h.tokens.Parse(raw); err == nil {
			claims = parsed
		}
	}
	if claims == nil {
		cfg := h.resolveTenant(c)
		claims = &SessionClaims{SessionID: uuid.NewString(), TenantID: string(cfg.ID)}
		status = http.StatusCreated
	}

	w, err := h.open(c, claims)
	if err != nil {
		writeError(c, err)
		return
	}
	token, expires, err := h.tokens.Issue(claims.SessionID, w.Tenant().ID)
	if err != nil {
		writeError(c, err)
		return
	}
	v, err := h.view(claims.SessionID, w)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(status, gin.H{
		"token":     token,
		"expiresAt": expires.UTC(),
		"session":   v,
	})
}

func (h *handlers) getSession(c *gin.Context) {
	h.respond(c, http.StatusOK, currentWizard(c))
}

// resetSession discards the draft. The next request starts the session over at the first step.
func (h *handlers) resetSession(c *gin.Context) {
	claims := currentClaims(c)
	if err := currentWizard(c).Store().Clear(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	h.sessions.Drop(claims.SessionID)
	c.Status(http.StatusNoContent)
}

func (h *handlers) setField(c *gin.Context) {
	var req fieldUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w := currentWizard(c)
	var err error
	if req.Parent != "" {
		err = w.Store().SetNestedField(req.Parent, req.Field, req.Value)
	} else {
		err = w.Store().SetField(req.Field, req.Value)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, http.StatusOK, w)
}

// uploadBankStatement holds the file in the session until the applicant leaves the bank step.
func (h *handlers) uploadBankStatement(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Het bestand mag niet groter zijn dan 10MB"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bestand ontbreekt", "field": "file"})
		return
	}

	file := &state.FileHandle{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}
	if msg := steps.CheckFile(file); msg != "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg, "field": "bankStatement"})
		return
	}

	f, err := header.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()
	if file.Data, err = io.ReadAll(f); err != nil {
		writeError(c, err)
		return
	}

	var consent *bool
	if raw := c.PostForm("consent"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "consent must be a boolean", "field": "consent"})
			return
		}
		consent = &v
	}

	w := currentWizard(c)
	w.Store().SetBankStatement(file)
	if consent != nil {
		if err := w.Store().SetField("bankStatementConsent", *consent); err != nil {
			writeError(c, err)
			return
		}
	}
	h.respond(c, http.StatusOK, w)
}

func (h *handlers) removeBankStatement(c *gin.Context) {
	w := currentWizard(c)
	w.Store().SetBankStatement(nil)
	h.respond(c, http.StatusOK, w)
}

func (h *handlers) goToStep(c *gin.Context) {
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w := currentWizard(c)
	if err := w.GoTo(*req.Index); err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, http.StatusOK, w)
}

func (h *handlers) next(c *gin.Context) {
	w := currentWizard(c)
	if err := w.Next(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, http.StatusOK, w)
}

func (h *handlers) back(c *gin.Context) {
	w := currentWizard(c)
	w.Back()
	h.respond(c, http.StatusOK, w)
}

func (h *handlers) sign(c *gin.Context) {
	w := currentWizard(c)
	resp, err := w.Sign(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	v, err := h.view(currentClaims(c).SessionID, w)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"envelopeId": resp.EnvelopeID,
		"signingUrl": resp.SigningURL,
		"session":    v,
	})
}

func (h *handlers) export(c *gin.Context) {
	c.JSON(http.StatusOK, currentWizard(c).Export())
}

func (h *handlers) classify(c *gin.Context) {
	result, ok := classification.Describe(
		format.ParseAmount(c.Query("fte")),
		format.ParseAmount(c.Query("omzet")),
		format.ParseAmount(c.Query("balans")),
	)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"type": classification.TierNone})
		return
	}
	c.JSON(http.StatusOK, result)
}

// tenantInfo prefers the representative registered at the backend and falls back to configuration.
func (h *handlers) tenantInfo(c *gin.Context) {
	cfg := h.resolveTenant(c)
	info := tenant.InfoFor(cfg, c.Query("tenant"))
	if h.reps == nil {
		c.JSON(http.StatusOK, info)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), representativeTimeout)
	defer cancel()
	remote, err := h.reps.GetAuthorizedRepresentative(ctx, cfg.ID)
	switch {
	case err != nil:
		h.log.Warn("representative lookup failed, using configured tenant", map[string]interface{}{
			"tenantId": string(cfg.ID),
			"error":    err.Error(),
		})
	case remote.Gemachtigde != "":
		cfg.Authorization = remote.Authorization()
		info = tenant.InfoFor(cfg, c.Query("tenant"))
	}
	c.JSON(http.StatusOK, info)
}

func bearer(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	raw := strings.TrimPrefix(authHeader, "Bearer ")
	return raw, raw != "" && raw != authHeader
}

func writeError(c *gin.Context, err error) {
	var stepErr *orchestrator.StepError
	var subErr *orchestrator.SubmissionError

	switch {
	case errors.As(err, &stepErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Niet alle verplichte velden zijn correct ingevuld",
			"step":   stepErr.Step,
			"errors": stepErr.Errors,
		})
	case errors.As(err, &subErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":            "De ondertekening kon niet worden gestart",
			"detail":           subErr.Detail,
			"validationErrors": subErr.ValidationErrors,
		})
	case errors.Is(err, orchestrator.ErrUploadFailed):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "Het bankafschrift kon niet worden geüpload",
			"detail": err.Error(),
		})
	case errors.Is(err, state.ErrUnknownField),
		errors.Is(err, state.ErrReadOnlyField),
		errors.Is(err, state.ErrInvalidValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, orchestrator.ErrNoNextStep),
		errors.Is(err, orchestrator.ErrStepUnreachable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, state.ErrClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "De sessie is verlopen, probeer het opnieuw"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
