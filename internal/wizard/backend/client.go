// Package backend talks to the document and signing backend that stores company details,
// receives bank statements and opens signing sessions.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"subsidy-wizard/internal/common/config"
	httpclient "subsidy-wizard/internal/common/http"
	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/wizard/export"
	"subsidy-wizard/internal/wizard/signing"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/tenant"
)

const (
	pathCompanyInfo    = "/api/submitClientInfo"
	pathBankStatement  = "/api/uploadBankStatement"
	pathSigningSession = "/api/createTemplateSigningSession"
	pathRepresentative = "/api/getAuthorizedRepresentativeInfo"
)

var (
	ErrNoFile          = errors.New("backend: no file to upload")
	ErrMissingEnvelope = errors.New("backend: signing response carries no envelope id")
)

// UploadMetadata travels with the bank statement as form fields.
type UploadMetadata struct {
	KvkNummer     string
	Bedrijfsnaam  string
	ApplicationID string
	FolderID      string
}

type Client struct {
	baseURL      string
	functionCode string
	api          *httpclient.Client
	uploads      *httpclient.Client
	log          logger.Logger
}

func NewClient(cfg config.BackendConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		functionCode: strings.Trim(cfg.FunctionCode, `"`),
		api:          httpclient.NewClient(config.GetDuration(cfg.Timeout)),
		uploads:      httpclient.NewClient(config.GetDuration(cfg.UploadTimeout)),
		log:          log.WithFields(map[string]interface{}{"component": "backend-client"}),
	}
}

// endpoint appends ?code=<function key> when one is configured.
func (c *Client) endpoint(path string) string {
	u := c.baseURL + path
	if c.functionCode == "" {
		return u
	}
	return u + "?code=" + url.QueryEscape(c.functionCode)
}

// SubmitCompanyInfo posts the first-step company details. Transport failures and non-2xx
// replies come back as errors; a reply with success=false is returned as is.
func (c *Client) SubmitCompanyInfo(ctx context.Context, info export.CompanyInfo) (*export.CompanyInfoResponse, error) {
	resp, err := c.api.PostJSON(ctx, c.endpoint(pathCompanyInfo), info)
	if err != nil {
		return nil, fmt.Errorf("submit company info: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("submit company info: %w", err)
	}

	var out export.CompanyInfoResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode company info response: %w", err)
	}
	return &out, nil
}

// UploadBankStatement sends the PDF as multipart field "file".
func (c *Client) UploadBankStatement(ctx context.Context, file *state.FileHandle, meta UploadMetadata) (bool, error) {
	if file == nil || len(file.Data) == 0 {
		return false, ErrNoFile
	}

	fields := map[string]string{
		"kvkNummer":     meta.KvkNummer,
		"bedrijfsnaam":  meta.Bedrijfsnaam,
		"applicationId": meta.ApplicationID,
	}
	if meta.FolderID != "" {
		fields["folderId"] = meta.FolderID
	}

	resp, err := c.uploads.PostMultipart(ctx, c.endpoint(pathBankStatement), fields, httpclient.FilePart{
		Field:       "file",
		Name:        file.Name,
		ContentType: file.ContentType,
		Data:        file.Data,
	})
	if err != nil {
		return false, fmt.Errorf("upload bank statement: %w", err)
	}
	if err := resp.Err(); err != nil {
		return false, fmt.Errorf("upload bank statement: %w", err)
	}

	// Older deployments answer with an empty 200.
	out := struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}{}
	if err := resp.Decode(&out); err != nil {
		return false, fmt.Errorf("decode upload response: %w", err)
	}
	if out.Success != nil && !*out.Success {
		if out.Error != "" {
			return false, fmt.Errorf("upload bank statement: %s", out.Error)
		}
		return false, nil
	}

	c.log.Info("bank statement uploaded", map[string]interface{}{
		"applicationId": meta.ApplicationID,
		"size":          len(file.Data),
	})
	return true, nil
}

// CreateSigningSession opens a template signing session. The decoded reply is returned
// together with the error whenever the backend sent one, so callers can surface its detail.
func (c *Client) CreateSigningSession(ctx context.Context, req signing.Request) (*signing.Response, error) {
	resp, err := c.api.PostJSON(ctx, c.endpoint(pathSigningSession), req)
	if err != nil {
		return nil, fmt.Errorf("create signing session: %w", err)
	}

	var out signing.Response
	decodeErr := resp.Decode(&out)

	if err := resp.Err(); err != nil {
		if decodeErr != nil {
			return nil, fmt.Errorf("create signing session: %w", err)
		}
		return &out, fmt.Errorf("create signing session: %w", err)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode signing response: %w", decodeErr)
	}
	if !out.Success {
		return &out, fmt.Errorf("create signing session: backend reported failure")
	}
	if out.EnvelopeID == "" {
		return &out, ErrMissingEnvelope
	}
	return &out, nil
}

// GetAuthorizedRepresentative fetches the representative view the backend holds for a tenant.
func (c *Client) GetAuthorizedRepresentative(ctx context.Context, id tenant.ID) (*tenant.Info, error) {
	resp, err := c.api.PostJSON(ctx, c.endpoint(pathRepresentative), map[string]string{"id": string(id)})
	if err != nil {
		return nil, fmt.Errorf("get authorized representative: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("get authorized representative: %w", err)
	}

	var info tenant.Info
	if err := resp.Decode(&info); err != nil {
		return nil, fmt.Errorf("decode representative response: %w", err)
	}
	return &info, nil
}
