package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	assert.Equal(t, Ignite, Coerce(" IGNITE "))
	assert.Equal(t, MisterSubsidie, Coerce("mistersubsidie"))
	assert.Equal(t, Default, Coerce("acme"))
	assert.Equal(t, Default, Coerce(""))
}

func TestResolveID(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want ID
	}{
		{"configured tenant wins", Request{ConfiguredTenant: "ignite", Host: "aanvraag.mistersubsidie.nl", QueryTenant: "default"}, Ignite},
		{"configured default does not pin", Request{ConfiguredTenant: "default", Host: "ignite.nl"}, Ignite},
		{"query on localhost", Request{Host: "localhost:5173", QueryTenant: "ignite"}, Ignite},
		{"query on loopback v6", Request{Host: "[::1]:8080", QueryTenant: "mistersubsidie"}, MisterSubsidie},
		{"query ignored in production", Request{Host: "aanvraag.mistersubsidie.nl", QueryTenant: "ignite"}, MisterSubsidie},
		{"query allowed by flag", Request{Host: "form.example.com", QueryTenant: "ignite", AllowOverride: true}, Ignite},
		{"query allowed in development", Request{Host: "form.example.com", QueryTenant: "ignite", Development: true}, Ignite},
		{"unknown query falls back", Request{Host: "127.0.0.1", QueryTenant: "acme"}, Default},
		{"local host without query", Request{Host: "devbox.local"}, Default},
		{"host contains ignite", Request{Host: "subsidie.ignite-group.com"}, Ignite},
		{"host contains mistersubsidie", Request{Host: "www.mistersubsidie.nl"}, MisterSubsidie},
		{"subdomain mister", Request{Host: "mister-form.example.com"}, MisterSubsidie},
		{"subdomain ms", Request{Host: "ms.example.com"}, MisterSubsidie},
		{"nothing matches", Request{Host: "form.example.com"}, Default},
		{"no host", Request{}, Default},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveID(tt.req))
		})
	}
}

func TestResolve(t *testing.T) {
	reg := Registry{
		Default: {TemplateID: "tpl-default", PublicBaseURL: "https://form.example.com"},
		Ignite: {
			TemplateID:    "tpl-ignite",
			PublicBaseURL: "https://aanvraag.ignite.nl",
			Authorization: Authorization{Organisatie: "Ignite BV", Email: "info@ignite.nl"},
		},
	}

	cfg := Resolve(Request{Host: "aanvraag.ignite.nl"}, reg)
	assert.Equal(t, Ignite, cfg.ID)
	assert.Equal(t, "tpl-ignite", cfg.TemplateID)
	assert.Equal(t, "Ignite BV", cfg.Authorization.Organisatie)
	assert.Equal(t, "24353031", cfg.Authorization.KvkNummer, "missing fields come from the defaults")
	assert.False(t, cfg.FromDefault)

	cfg = Resolve(Request{Host: "www.mistersubsidie.nl"}, reg)
	assert.Equal(t, MisterSubsidie, cfg.ID)
	assert.Equal(t, "tpl-default", cfg.TemplateID)
	assert.True(t, cfg.FromDefault)
	assert.Equal(t, DefaultAuthorization(), cfg.Authorization)
}

func TestIsLocalHost(t *testing.T) {
	for _, h := range []string{"localhost", "127.0.0.1", "127.1.2.3", "[::1]", "::1", "mac.local"} {
		assert.True(t, IsLocalHost(h), h)
	}
	for _, h := range []string{"example.com", "10.0.0.1", "local.example.com"} {
		assert.False(t, IsLocalHost(h), h)
	}
}

func TestInfo(t *testing.T) {
	cfg := Config{ID: Ignite, Authorization: Authorization{Organisatie: "Ignite BV"}}

	info := InfoFor(cfg, "IGNITE")
	assert.Equal(t, "Ignite BV", info.Gemachtigde)
	assert.Equal(t, "Tim Otte", info.GemachtigdeNaam)
	require.NotNil(t, info.Meta)
	assert.Equal(t, "ignite", info.Meta.TenantID)
	assert.Equal(t, "IGNITE", *info.Meta.RequestedID)

	back := Info{Gemachtigde: "Ignite BV", GemachtigdeTelefoon: "010 123 45 67"}.Authorization()
	assert.Equal(t, "Ignite BV", back.Organisatie)
	assert.Equal(t, "010 123 45 67", back.Telefoon)
	assert.Equal(t, "Tim@mistersubsidie.nl", back.Email)
}
