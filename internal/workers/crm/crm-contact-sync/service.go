package crmcontactsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"subsidy-wizard/internal/common/errors"
	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/common/zoho"
	"subsidy-wizard/internal/wizard/export"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/tenant"
)

// ContactUpserter is the part of the CRM client the worker needs.
type ContactUpserter interface {
	UpsertContact(ctx context.Context, contact *zoho.Contact) (id string, created bool, err error)
}

type Service struct {
	config *Config
	logger logger.Logger
	crm    ContactUpserter
	now    func() time.Time
}

// NewService returns a service that reports StatusDisabled for every job when crm is nil.
func NewService(config *Config, crm ContactUpserter, log logger.Logger) *Service {
	return &Service{
		config: config,
		logger: log,
		crm:    crm,
		now:    time.Now,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.WizardState) == 0 {
		return nil, errors.NewInvalidInputError("wizardState is required")
	}

	ws, err := state.Hydrate(input.WizardState, s.now())
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("wizardState: %v", err))
	}

	info := export.BuildCompanyInfo(ws, string(tenant.Coerce(input.TenantID)))
	if info.ApplicationID == "" {
		info.ApplicationID = input.ApplicationID
	}
	if strings.TrimSpace(info.ContactEmail) == "" {
		return nil, errors.NewInvalidInputError("company email is required for the CRM contact")
	}

	syncedAt := s.now().UTC().Format(time.RFC3339)
	if s.crm == nil {
		s.logger.Info("CRM sync disabled, skipping contact", map[string]interface{}{
			"applicationId": info.ApplicationID,
		})
		return &Output{Status: StatusDisabled, SyncedAt: syncedAt}, nil
	}

	contact := s.contactFor(info, ws.Bestuurder1)
	id, created, err := s.crm.UpsertContact(ctx, contact)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.NewTimeoutError(providerZoho, ctxErr)
		}
		return nil, errors.NewCRMSyncFailedError(err).
			WithMetadata("applicationId", info.ApplicationID)
	}

	status := StatusUpdated
	if created {
		status = StatusCreated
	}
	s.logger.Info("CRM contact synced", map[string]interface{}{
		"applicationId": info.ApplicationID,
		"contactId":     id,
		"status":        status,
	})

	return &Output{
		Status:      status,
		ContactID:   id,
		CRMProvider: providerZoho,
		SyncedAt:    syncedAt,
	}, nil
}

// contactFor maps the company-info contact person onto a CRM contact. Without a contact name
// the first director is used; Zoho requires a last name.
func (s *Service) contactFor(info export.CompanyInfo, director state.Director) *zoho.Contact {
	first, last := splitName(info.ContactNaam)
	title := ""
	if last == "" {
		first, last = director.Voorletters, director.Achternaam
		title = director.Functie
	}
	if last == "" {
		last = info.Bedrijfsnaam
	}

	return &zoho.Contact{
		Email:       strings.TrimSpace(info.ContactEmail),
		FirstName:   first,
		LastName:    last,
		Phone:       info.ContactTelefoon,
		AccountName: info.Bedrijfsnaam,
		Title:       title,
		Source:      s.config.LeadSource,
		Description: fmt.Sprintf("KvK %s, aanvraag %s (%s)", info.KvkNummer, info.ApplicationID, info.TenantID),
	}
}

// splitName treats the last word as the last name, keeping tussenvoegsels with the first part.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}
