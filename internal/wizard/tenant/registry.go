package tenant

import (
	"errors"
	"fmt"
	"strings"

	"subsidy-wizard/internal/common/config"
)

var ErrUnknownTenant = errors.New("unknown tenant")

// RegistryFromConfig builds the registry from the tenants section. Unknown ids are skipped.
func RegistryFromConfig(cfg config.TenantsConfig) Registry {
	reg := make(Registry, len(cfg.Registry))
	for name, tc := range cfg.Registry {
		id := Coerce(name)
		if id == Default && !strings.EqualFold(strings.TrimSpace(name), string(Default)) {
			continue
		}
		reg[id] = Config{
			ID: id,
			Authorization: Authorization{
				Organisatie:    tc.Authorization.Organisatie,
				KvkNummer:      tc.Authorization.KvkNummer,
				Contactpersoon: tc.Authorization.Contactpersoon,
				Email:          tc.Authorization.Email,
				Telefoon:       tc.Authorization.Telefoon,
			},
			TemplateID:    tc.TemplateID,
			PublicBaseURL: tc.PublicBaseURL,
		}
	}
	return reg
}

// Lookup returns the tenant stored under raw. An empty raw means Default; a tenant without an
// entry inherits the default entry. Names that are not a known tenant are rejected.
func (r Registry) Lookup(raw string) (Config, error) {
	id := Coerce(raw)
	if trimmed := strings.TrimSpace(raw); trimmed != "" && id == Default && !strings.EqualFold(trimmed, string(Default)) {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownTenant, raw)
	}

	cfg, ok := r[id]
	if !ok {
		cfg = r[Default]
		cfg.FromDefault = true
	}
	cfg.ID = id
	cfg.Authorization = cfg.Authorization.WithDefaults()
	return cfg, nil
}
