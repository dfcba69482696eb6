package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsidy-wizard/internal/common/config"
	httpclient "subsidy-wizard/internal/common/http"
	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/wizard/export"
	"subsidy-wizard/internal/wizard/signing"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/tenant"
)

func newTestClient(t *testing.T, code string, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.BackendConfig{
		BaseURL:       server.URL + "/",
		FunctionCode:  code,
		Timeout:       2000,
		UploadTimeout: 2000,
	}, logger.NewTestLogger(t))
}

func TestSubmitCompanyInfo(t *testing.T) {
	client := newTestClient(t, `"secret"`, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/submitClientInfo", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("code"), "quotes are stripped from the key")

		var body export.CompanyInfo
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme B.V.", body.Bedrijfsnaam)
		assert.Equal(t, "ignite", body.TenantID)

		_, _ = w.Write([]byte(`{"success":true,"folderId":"f-1"}`))
	})

	resp, err := client.SubmitCompanyInfo(context.Background(), export.CompanyInfo{Bedrijfsnaam: "Acme B.V.", TenantID: "ignite"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "f-1", resp.FolderID)
}

func TestSubmitCompanyInfo_HTTPError(t *testing.T) {
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery, "no code parameter without a function key")
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.SubmitCompanyInfo(context.Background(), export.CompanyInfo{})
	require.Error(t, err)

	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestUploadBankStatement(t *testing.T) {
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/uploadBankStatement", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "12345678", r.FormValue("kvkNummer"))
		assert.Equal(t, "Acme-15-06-2025", r.FormValue("applicationId"))
		assert.Empty(t, r.FormValue("folderId"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "afschrift.pdf", header.Filename)
		assert.Equal(t, "%PDF", string(data))
	})

	ok, err := client.UploadBankStatement(context.Background(),
		&state.FileHandle{Name: "afschrift.pdf", ContentType: "application/pdf", Size: 4, Data: []byte("%PDF")},
		UploadMetadata{KvkNummer: "12345678", Bedrijfsnaam: "Acme", ApplicationID: "Acme-15-06-2025"},
	)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadBankStatement_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantOK  bool
		wantErr bool
	}{
		{"server error", http.StatusBadGateway, "", false, true},
		{"explicit failure with reason", http.StatusOK, `{"success":false,"error":"virus"}`, false, true},
		{"explicit failure", http.StatusOK, `{"success":false}`, false, false},
		{"explicit success", http.StatusOK, `{"success":true}`, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			ok, err := client.UploadBankStatement(context.Background(),
				&state.FileHandle{Name: "a.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}, UploadMetadata{})
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUploadBankStatement_NoFile(t *testing.T) {
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.UploadBankStatement(context.Background(), nil, UploadMetadata{})
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestCreateSigningSession(t *testing.T) {
	client := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/createTemplateSigningSession", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tpl", body["templateId"], "session fields are flattened into the request")
		assert.Equal(t, "mistersubsidie", body["tenantId"])

		_, _ = w.Write([]byte(`{"success":true,"envelopeId":"env-1","signingUrl":"https://sign/1"}`))
	})

	resp, err := client.CreateSigningSession(context.Background(), signing.Request{
		Session:  signing.Session{TemplateID: "tpl", ReturnURL: "https://x/bedankt"},
		TenantID: "mistersubsidie",
	})
	require.NoError(t, err)
	assert.Equal(t, "env-1", resp.EnvelopeID)
	assert.Equal(t, "https://sign/1", resp.SigningURL)
}

func TestCreateSigningSession_Failures(t *testing.T) {
	t.Run("validation errors on 400 are returned with the error", func(t *testing.T) {
		client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"validationErrors":["email ontbreekt"]}`))
		})

		resp, err := client.CreateSigningSession(context.Background(), signing.Request{})
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, []string{"email ontbreekt"}, resp.ValidationErrors)
	})

	t.Run("non json error body", func(t *testing.T) {
		client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gateway down", http.StatusBadGateway)
		})

		resp, err := client.CreateSigningSession(context.Background(), signing.Request{})
		require.Error(t, err)
		assert.Nil(t, resp)
	})

	t.Run("success false on 200", func(t *testing.T) {
		client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"message":"template niet gevonden"}`))
		})

		resp, err := client.CreateSigningSession(context.Background(), signing.Request{})
		require.Error(t, err)
		assert.Equal(t, "template niet gevonden", resp.Message)
	})

	t.Run("missing envelope", func(t *testing.T) {
		client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true}`))
		})

		_, err := client.CreateSigningSession(context.Background(), signing.Request{})
		assert.ErrorIs(t, err, ErrMissingEnvelope)
	})
}

func TestGetAuthorizedRepresentative(t *testing.T) {
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ignite", body["id"])
		_, _ = w.Write([]byte(`{"gemachtigde":"Ignite B.V.","gemachtigde_kvk":"87654321","meta":{"requestedId":"ignite","tenantId":"ignite","resolvedFromDefault":false}}`))
	})

	info, err := client.GetAuthorizedRepresentative(context.Background(), tenant.Ignite)
	require.NoError(t, err)
	assert.Equal(t, "Ignite B.V.", info.Gemachtigde)
	assert.Equal(t, "ignite", info.Meta.TenantID)

	auth := info.Authorization()
	assert.Equal(t, "87654321", auth.KvkNummer)
	assert.Equal(t, tenant.DefaultAuthorization().Email, auth.Email, "missing fields fall back to defaults")
}
