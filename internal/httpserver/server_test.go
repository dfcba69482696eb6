package httpserver

import (
	"bytes"
	"context"
	stderrors "errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/wizard/backend"
	"subsidy-wizard/internal/wizard/drafts"
	"subsidy-wizard/internal/wizard/export"
	"subsidy-wizard/internal/wizard/signing"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/tenant"
	"subsidy-wizard/internal/wizard/wizardtest"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) SubmitCompanyInfo(ctx context.Context, info export.CompanyInfo) (*export.CompanyInfoResponse, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.CompanyInfoResponse), args.Error(1)
}

func (m *MockBackend) UploadBankStatement(ctx context.Context, file *state.FileHandle, meta backend.UploadMetadata) (bool, error) {
	args := m.Called(ctx, file, meta)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) CreateSigningSession(ctx context.Context, req signing.Request) (*signing.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signing.Response), args.Error(1)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var registry = tenant.Registry{
	tenant.Default: {TemplateID: "tpl-1", PublicBaseURL: "https://aanvraag.mistersubsidie.nl"},
	tenant.Ignite: {
		TemplateID:    "tpl-ignite",
		PublicBaseURL: "https://aanvraag.ignitesubsidies.nl",
		Authorization: tenant.Authorization{Organisatie: "Ignite Subsidies BV", KvkNummer: "87654321"},
	},
}

type testEnv struct {
	router   *gin.Engine
	mr       *miniredis.Miniredis
	backend  *MockBackend
	tokens   *TokenIssuer
	sessions *Sessions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	b := new(MockBackend)
	sessions := NewSessions(drafts.NewStore(client, "", time.Hour), SessionOptions{
		Backend:  b,
		Debounce: time.Hour,
		Now:      wizardtest.Clock,
		Logger:   logger.NewTestLogger(t),
	})
	t.Cleanup(sessions.Close)

	tokens := NewTokenIssuer(testSecret, "subsidy-wizard", time.Hour)
	router := NewRouter(Deps{
		Sessions: sessions,
		Tokens:   tokens,
		Tenants:  TenantSettings{Registry: registry, Development: true},
		Redis: pingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}),
		Now:    wizardtest.Clock,
		Logger: logger.NewTestLogger(t),
	})

	return &testEnv{router: router, mr: mr, backend: b, tokens: tokens, sessions: sessions}
}

// seed stores s as the draft of session id and returns a token for it.
func (e *testEnv) seed(t *testing.T, id string, s state.WizardState) string {
	t.Helper()
	require.NoError(t, e.mr.Set("wizard:draft:"+id, string(wizardtest.Snapshot(t, s))))
	token, _, err := e.tokens.Issue(id, tenant.Default)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) upload(t *testing.T, token, filename, contentType string, data []byte, consent string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part := make(textproto.MIMEHeader)
	part.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	part.Set("Content-Type", contentType)
	w, err := mw.CreatePart(part)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	if consent != "" {
		require.NoError(t, mw.WriteField("consent", consent))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/current/bank-statement", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type viewBody struct {
	SessionID   string            `json:"sessionId"`
	TenantID    string            `json:"tenantId"`
	Revision    uint64            `json:"revision"`
	CurrentStep int               `json:"currentStep"`
	Errors      map[string]string `json:"errors"`
	Warning     string            `json:"warning"`
	Steps       []struct {
		Key      string `json:"key"`
		Complete bool   `json:"complete"`
	} `json:"steps"`
	Classification *struct {
		Type string `json:"type"`
	} `json:"classification"`
	State state.WizardState `json:"state"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// pendingUpload is a finished application whose bank statement has not been sent yet.
func pendingUpload() state.WizardState {
	s := wizardtest.CompleteState()
	s.FolderID = nil
	s.BankStatementUploaded = false
	s.BankStatementName = ""
	s.BankStatementSize = 0
	return s
}

func TestHealthAndReadiness(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.mr.Close()
	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis not reachable")
}

func TestReadiness_NoRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(Deps{Tenants: TenantSettings{Registry: registry}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wizard_active_sessions")
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode[struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
		Session   viewBody  `json:"session"`
	}](t, rec)
	assert.NotEmpty(t, body.Token)
	assert.NotEmpty(t, body.Session.SessionID)
	assert.Equal(t, "default", body.Session.TenantID)
	assert.Equal(t, 0, body.Session.CurrentStep)
	assert.Len(t, body.Session.Steps, 6)
	assert.Equal(t, "companyDetails", body.Session.Steps[0].Key)
	assert.Nil(t, body.Session.Classification)
	assert.Equal(t, 1, env.sessions.Len())

	claims, err := env.tokens.Parse(body.Token)
	require.NoError(t, err)
	assert.Equal(t, body.Session.SessionID, claims.SessionID)

	// A valid token resumes the same session.
	rec = env.do(t, http.MethodPost, "/api/v1/sessions", body.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resumed := decode[struct {
		Session viewBody `json:"session"`
	}](t, rec)
	assert.Equal(t, body.Session.SessionID, resumed.Session.SessionID)
	assert.Equal(t, 1, env.sessions.Len())
}

func TestCreateSession_TenantFromQuery(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/sessions?tenant=Ignite", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode[struct {
		Token   string   `json:"token"`
		Session viewBody `json:"session"`
	}](t, rec)
	assert.Equal(t, "ignite", body.Session.TenantID)

	claims, err := env.tokens.Parse(body.Token)
	require.NoError(t, err)
	assert.Equal(t, "ignite", claims.TenantID)
}

func TestCurrentSession_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/current", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestGetSession_HydratesDraft(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", wizardtest.CompleteState())

	rec := env.do(t, http.MethodGet, "/api/v1/sessions/current", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	v := decode[viewBody](t, rec)
	assert.Equal(t, "s-1", v.SessionID)
	assert.Equal(t, "Acme BV", v.State.Bedrijfsnaam)
	assert.Equal(t, wizardtest.ApplicationID, v.State.AppID())
	assert.Empty(t, v.Errors)
	for _, st := range v.Steps {
		assert.True(t, st.Complete, st.Key)
	}
	require.NotNil(t, v.Classification)
	assert.Equal(t, "klein", v.Classification.Type)
}

func TestSetField(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", state.Defaults(wizardtest.Clock()))

	rec := env.do(t, http.MethodPatch, "/api/v1/sessions/current/fields", token,
		map[string]any{"field": "bedrijfsnaam", "value": "Acme BV"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decode[viewBody](t, rec)
	assert.Equal(t, "Acme BV", v.State.Bedrijfsnaam)
	assert.Equal(t, uint64(1), v.Revision)

	rec = env.do(t, http.MethodPatch, "/api/v1/sessions/current/fields", token,
		map[string]any{"field": "bedrijfsnaam", "value": "Acme BV"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(1), decode[viewBody](t, rec).Revision, "same value is not a change")

	rec = env.do(t, http.MethodPatch, "/api/v1/sessions/current/fields", token,
		map[string]any{"parent": "bestuurder1", "field": "email", "value": "jan@acme.nl"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "jan@acme.nl", decode[viewBody](t, rec).State.Bestuurder1.Email)

	rec = env.do(t, http.MethodPatch, "/api/v1/sessions/current/fields", token,
		map[string]any{"field": "kvkNummer", "value": "123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[viewBody](t, rec).Errors, "kvkNummer")
}

func TestSetField_Rejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", state.Defaults(wizardtest.Clock()))

	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown field", map[string]any{"field": "favorieteKleur", "value": "blauw"}},
		{"read-only field", map[string]any{"field": "applicationId", "value": "x"}},
		{"invalid enum", map[string]any{"field": "deMinimisType", "value": "veel"}},
		{"wrong type", map[string]any{"field": "akkoordWaarheid", "value": []int{1}}},
		{"unknown director", map[string]any{"parent": "bestuurder3", "field": "email", "value": "a@b.nl"}},
		{"missing field name", map[string]any{"value": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPatch, "/api/v1/sessions/current/fields", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestNext_IncompleteStep(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", state.Defaults(wizardtest.Clock()))

	rec := env.do(t, http.MethodPost, "/api/v1/sessions/current/next", token, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decode[struct {
		Step   string            `json:"step"`
		Errors map[string]string `json:"errors"`
	}](t, rec)
	assert.Equal(t, "companyDetails", body.Step)
	env.backend.AssertNotCalled(t, "SubmitCompanyInfo", mock.Anything, mock.Anything)
}

func TestWizardFlow_UploadAndSign(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", pendingUpload())
	pdf := []byte("%PDF-1.4 test")

	env.backend.On("SubmitCompanyInfo", mock.Anything, mock.MatchedBy(func(info export.CompanyInfo) bool {
		return info.ApplicationID == wizardtest.ApplicationID
	})).Return(&export.CompanyInfoResponse{Success: true, FolderID: "folder-9"}, nil).Once()
	env.backend.On("UploadBankStatement", mock.Anything,
		mock.MatchedBy(func(f *state.FileHandle) bool {
			return f.Name == "afschrift.pdf" && bytes.Equal(f.Data, pdf)
		}),
		mock.MatchedBy(func(meta backend.UploadMetadata) bool {
			return meta.FolderID == "folder-9" && meta.ApplicationID == wizardtest.ApplicationID
		}),
	).Return(true, nil).Once()
	env.backend.On("CreateSigningSession", mock.Anything, mock.MatchedBy(func(req signing.Request) bool {
		return req.TemplateID == "tpl-1" &&
			req.ApplicationID == wizardtest.ApplicationID &&
			req.ReturnURL == "https://aanvraag.mistersubsidie.nl/bedankt"
	})).Return(&signing.Response{Success: true, EnvelopeID: "env-1", SigningURL: "https://sign.example/env-1"}, nil).Once()

	next := func() *httptest.ResponseRecorder {
		return env.do(t, http.MethodPost, "/api/v1/sessions/current/next", token, nil)
	}

	rec := next()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[viewBody](t, rec).CurrentStep)

	rec = next()
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "no statement yet")

	rec = env.upload(t, token, "afschrift.pdf", "application/pdf", pdf, "true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decode[viewBody](t, rec)
	assert.True(t, v.Steps[1].Complete)
	assert.Equal(t, "afschrift.pdf", v.State.BankStatementName)

	for want := 2; want <= 5; want++ {
		rec = next()
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, want, decode[viewBody](t, rec).CurrentStep)
	}
	assert.Equal(t, http.StatusConflict, next().Code)

	rec = env.do(t, http.MethodPut, "/api/v1/sessions/current/step", token, map[string]any{"index": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[viewBody](t, rec).State.BankStatementUploaded)
	rec = env.do(t, http.MethodPut, "/api/v1/sessions/current/step", token, map[string]any{"index": 5})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/current/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"structured"`)
	assert.Contains(t, rec.Body.String(), "Acme BV")

	rec = env.do(t, http.MethodPost, "/api/v1/sessions/current/sign", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	signed := decode[struct {
		EnvelopeID string   `json:"envelopeId"`
		SigningURL string   `json:"signingUrl"`
		Session    viewBody `json:"session"`
	}](t, rec)
	assert.Equal(t, "env-1", signed.EnvelopeID)
	assert.Equal(t, "https://sign.example/env-1", signed.SigningURL)
	assert.Equal(t, 0, signed.Session.CurrentStep)
	assert.Empty(t, signed.Session.State.Bedrijfsnaam)
	assert.False(t, env.mr.Exists("wizard:draft:s-1"), "signing removes the draft")

	env.backend.AssertExpectations(t)
}

func TestNext_UploadFailure(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", pendingUpload())

	env.backend.On("SubmitCompanyInfo", mock.Anything, mock.Anything).
		Return(nil, stderrors.New("connection refused")).Once()
	env.backend.On("UploadBankStatement", mock.Anything, mock.Anything, mock.Anything).
		Return(false, stderrors.New("status 503")).Once()

	rec := env.do(t, http.MethodPost, "/api/v1/sessions/current/next", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[viewBody](t, rec).Warning, "company info failure is only a warning")

	rec = env.upload(t, token, "afschrift.pdf", "application/pdf", []byte("%PDF"), "true")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/sessions/current/next", token, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "status 503")

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/current", token, nil)
	v := decode[viewBody](t, rec)
	assert.Equal(t, 1, v.CurrentStep)
	assert.False(t, v.State.BankStatementUploaded)
}

func TestSign_Failure(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", wizardtest.CompleteState())

	env.backend.On("CreateSigningSession", mock.Anything, mock.Anything).
		Return(&signing.Response{Success: false, Message: "ignored", ValidationErrors: []string{"email ongeldig"}}, nil).Once()

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/sessions/current/next", token, nil).Code)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/sessions/current/sign", token, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode[struct {
		Detail           string   `json:"detail"`
		ValidationErrors []string `json:"validationErrors"`
	}](t, rec)
	assert.Equal(t, "email ongeldig", body.Detail)
	assert.Equal(t, []string{"email ongeldig"}, body.ValidationErrors)
	assert.True(t, env.mr.Exists("wizard:draft:s-1"))

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/current", token, nil)
	assert.Equal(t, 5, decode[viewBody](t, rec).CurrentStep)
}

func TestSign_IncompleteAuthorization(t *testing.T) {
	env := newTestEnv(t)
	s := wizardtest.CompleteState()
	s.AkkoordWaarheid = false
	token := env.seed(t, "s-1", s)

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/sessions/current/next", token, nil).Code)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/sessions/current/sign", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "authorization", decode[struct {
		Step string `json:"step"`
	}](t, rec).Step)
	env.backend.AssertNotCalled(t, "CreateSigningSession", mock.Anything, mock.Anything)
}

func TestSign_BeforeLastStep(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", wizardtest.CompleteState())

	rec := env.do(t, http.MethodPost, "/api/v1/sessions/current/sign", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	env.backend.AssertNotCalled(t, "CreateSigningSession", mock.Anything, mock.Anything)
	env.backend.AssertNotCalled(t, "SubmitCompanyInfo", mock.Anything, mock.Anything)
}

func TestNext_HydratedDraftDoesNotResendCompanyInfo(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", wizardtest.CompleteState())

	rec := env.do(t, http.MethodPost, "/api/v1/sessions/current/next", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[viewBody](t, rec).CurrentStep)
	env.backend.AssertNotCalled(t, "SubmitCompanyInfo", mock.Anything, mock.Anything)
}

func TestBackAndGoTo(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", wizardtest.CompleteState())

	rec := env.do(t, http.MethodPut, "/api/v1/sessions/current/step", token, map[string]any{"index": 2})
	assert.Equal(t, http.StatusConflict, rec.Code, "not reached yet")

	rec = env.do(t, http.MethodPut, "/api/v1/sessions/current/step", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/sessions/current/next", token, nil).Code)
	rec = env.do(t, http.MethodPost, "/api/v1/sessions/current/back", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[viewBody](t, rec).CurrentStep)

	rec = env.do(t, http.MethodPost, "/api/v1/sessions/current/back", token, nil)
	assert.Equal(t, 0, decode[viewBody](t, rec).CurrentStep, "never below the first step")
}

func TestUploadBankStatement_Rejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", pendingUpload())

	rec := env.upload(t, token, "afschrift.png", "image/png", []byte("png"), "true")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alleen PDF-bestanden zijn toegestaan")

	rec = env.upload(t, token, "afschrift.pdf", "application/pdf", []byte("%PDF"), "misschien")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/current/bank-statement", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveBankStatement(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", pendingUpload())

	require.Equal(t, http.StatusOK, env.upload(t, token, "afschrift.pdf", "application/pdf", []byte("%PDF"), "true").Code)

	rec := env.do(t, http.MethodDelete, "/api/v1/sessions/current/bank-statement", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[viewBody](t, rec)
	assert.False(t, v.Steps[1].Complete)
	assert.False(t, v.State.BankStatementConsent)
	assert.Empty(t, v.State.BankStatementName)
}

func TestResetSession(t *testing.T) {
	env := newTestEnv(t)
	token := env.seed(t, "s-1", wizardtest.CompleteState())

	rec := env.do(t, http.MethodDelete, "/api/v1/sessions/current", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, env.mr.Exists("wizard:draft:s-1"))
	assert.Equal(t, 0, env.sessions.Len())

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/current", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[viewBody](t, rec).State.Bedrijfsnaam)
}

func TestClassification(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		query string
		want  string
	}{
		{"fte=300", "groot"},
		{"fte=10&omzet=5.000.000&balans=5.000.000", "klein"},
		{"fte=10&omzet=15000000&balans=15000000", "middelgroot"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/classification?"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			body := decode[struct {
				Type string `json:"type"`
			}](t, rec)
			assert.Equal(t, tt.want, body.Type)
		})
	}
}

func TestTenantInfo(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/tenant?tenant=ignite", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[tenant.Info](t, rec)
	assert.Equal(t, "Ignite Subsidies BV", info.Gemachtigde)
	assert.Equal(t, "87654321", info.GemachtigdeKvk)
	require.NotNil(t, info.Meta)
	assert.Equal(t, "ignite", info.Meta.TenantID)
	require.NotNil(t, info.Meta.RequestedID)
	assert.Equal(t, "ignite", *info.Meta.RequestedID)

	rec = env.do(t, http.MethodGet, "/api/v1/tenant", "", nil)
	info = decode[tenant.Info](t, rec)
	assert.Equal(t, tenant.DefaultAuthorization().Organisatie, info.Gemachtigde)
	assert.Nil(t, info.Meta.RequestedID)
}

type representativeFunc func(ctx context.Context, id tenant.ID) (*tenant.Info, error)

func (f representativeFunc) GetAuthorizedRepresentative(ctx context.Context, id tenant.ID) (*tenant.Info, error) {
	return f(ctx, id)
}

func TestTenantInfo_Representatives(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		lookup   representativeFunc
		expected string
	}{
		{
			name: "backend representative wins",
			lookup: func(_ context.Context, id tenant.ID) (*tenant.Info, error) {
				assert.Equal(t, tenant.Ignite, id)
				return &tenant.Info{Gemachtigde: "Ignite Backoffice BV", GemachtigdeKvk: "11223344"}, nil
			},
			expected: "Ignite Backoffice BV",
		},
		{
			name: "backend error falls back to configuration",
			lookup: func(context.Context, tenant.ID) (*tenant.Info, error) {
				return nil, stderrors.New("connection refused")
			},
			expected: "Ignite Subsidies BV",
		},
		{
			name: "empty representative falls back to configuration",
			lookup: func(context.Context, tenant.ID) (*tenant.Info, error) {
				return &tenant.Info{}, nil
			},
			expected: "Ignite Subsidies BV",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(Deps{
				Tenants:         TenantSettings{Registry: registry, Development: true},
				Representatives: tt.lookup,
				Logger:          logger.NewTestLogger(t),
			})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tenant?tenant=ignite", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			info := decode[tenant.Info](t, rec)
			assert.Equal(t, tt.expected, info.Gemachtigde)
			require.NotNil(t, info.Meta)
			assert.Equal(t, "ignite", info.Meta.TenantID)
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(Deps{
		AllowedOrigins: []string{"https://aanvraag.mistersubsidie.nl"},
		Tenants:        TenantSettings{Registry: registry},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "https://aanvraag.mistersubsidie.nl")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "https://aanvraag.mistersubsidie.nl", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
