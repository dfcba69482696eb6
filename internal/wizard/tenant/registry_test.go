package tenant

import (
	"testing"

	"subsidy-wizard/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryFromConfig(t *testing.T) {
	reg := RegistryFromConfig(config.TenantsConfig{
		Registry: map[string]config.TenantConfig{
			"Ignite": {
				TemplateID:    "tpl-ignite",
				PublicBaseURL: "https://aanvraag.ignite.nl",
				Authorization: config.AuthorizationConfig{Organisatie: "Ignite BV", Email: "info@ignite.nl"},
			},
			"default": {TemplateID: "tpl-default"},
			"acme":    {TemplateID: "tpl-acme"},
		},
	})

	require.Len(t, reg, 2)
	assert.Equal(t, "tpl-ignite", reg[Ignite].TemplateID)
	assert.Equal(t, "Ignite BV", reg[Ignite].Authorization.Organisatie)
	assert.Equal(t, "tpl-default", reg[Default].TemplateID)
}

func TestRegistry_Lookup(t *testing.T) {
	reg := Registry{
		Default: {TemplateID: "tpl-default"},
		Ignite:  {TemplateID: "tpl-ignite", Authorization: Authorization{Organisatie: "Ignite BV"}},
	}

	cfg, err := reg.Lookup("ignite")
	require.NoError(t, err)
	assert.Equal(t, Ignite, cfg.ID)
	assert.Equal(t, "Ignite BV", cfg.Authorization.Organisatie)
	assert.Equal(t, DefaultAuthorization().KvkNummer, cfg.Authorization.KvkNummer)

	cfg, err = reg.Lookup("mistersubsidie")
	require.NoError(t, err)
	assert.True(t, cfg.FromDefault)
	assert.Equal(t, "tpl-default", cfg.TemplateID)
	assert.Equal(t, MisterSubsidie, cfg.ID)

	cfg, err = reg.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, Default, cfg.ID)

	_, err = reg.Lookup("acme")
	assert.ErrorIs(t, err, ErrUnknownTenant)
}
