// Package zoho is a small client for the Zoho CRM Contacts module.
package zoho

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	httpclient "subsidy-wizard/internal/common/http"
)

const DefaultBaseURL = "https://www.zohoapis.com/crm/v3"

var ErrContactRejected = errors.New("zoho: contact rejected")

type CRMClient struct {
	baseURL string
	api     *httpclient.Client
}

type Contact struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"Email"`
	FirstName   string `json:"First_Name,omitempty"`
	LastName    string `json:"Last_Name"`
	Phone       string `json:"Phone,omitempty"`
	AccountName string `json:"Account_Name,omitempty"`
	Title       string `json:"Title,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
	Description string `json:"Description,omitempty"`
}

type writeResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

// NewCRMClient builds a client for baseURL; an empty baseURL selects DefaultBaseURL.
func NewCRMClient(baseURL, oauthToken string, timeout time.Duration) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CRMClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		api:     httpclient.NewClient(timeout).WithHeader("Authorization", "Zoho-oauthtoken "+oauthToken),
	}
}

func (c *CRMClient) CreateContact(ctx context.Context, contact *Contact) (string, error) {
	resp, err := c.api.PostJSON(ctx, c.baseURL+"/Contacts", map[string]interface{}{
		"data": []Contact{*contact},
	})
	if err != nil {
		return "", err
	}
	return decodeWrite(resp, "create")
}

func (c *CRMClient) UpdateContact(ctx context.Context, contactID string, contact *Contact) error {
	resp, err := c.api.SendJSON(ctx, http.MethodPut, c.baseURL+"/Contacts/"+url.PathEscape(contactID), map[string]interface{}{
		"data": []Contact{*contact},
	})
	if err != nil {
		return err
	}
	_, err = decodeWrite(resp, "update")
	return err
}

// SearchContacts looks contacts up by email. Zoho answers 204 when nothing matches.
func (c *CRMClient) SearchContacts(ctx context.Context, email string) ([]Contact, error) {
	endpoint := c.baseURL + "/Contacts/search?email=" + url.QueryEscape(email)
	resp, err := c.api.SendJSON(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}

	var result struct {
		Data []Contact `json:"data"`
	}
	if err := resp.Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Data, nil
}

// UpsertContact updates the first contact with the same email, or creates one.
// The boolean reports whether a new contact was created.
func (c *CRMClient) UpsertContact(ctx context.Context, contact *Contact) (string, bool, error) {
	existing, err := c.SearchContacts(ctx, contact.Email)
	if err != nil {
		return "", false, err
	}
	if len(existing) > 0 && existing[0].ID != "" {
		id := existing[0].ID
		if err := c.UpdateContact(ctx, id, contact); err != nil {
			return "", false, err
		}
		return id, false, nil
	}
	id, err := c.CreateContact(ctx, contact)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func decodeWrite(resp *httpclient.Response, op string) (string, error) {
	if err := resp.Err(); err != nil {
		return "", fmt.Errorf("failed to %s contact: %w", op, err)
	}

	var out writeResponse
	if err := resp.Decode(&out); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(out.Data) == 0 {
		return "", fmt.Errorf("%w: no data in response", ErrContactRejected)
	}
	if out.Data[0].Status != "success" {
		return "", fmt.Errorf("%w: %s", ErrContactRejected, out.Data[0].Message)
	}
	return out.Data[0].Details.ID, nil
}
