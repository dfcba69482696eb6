// Package tenant resolves which organisation a wizard session runs for and carries that
// organisation's authorization details into the payload builders.
package tenant

import (
	"net"
	"strings"
)

type ID string

const (
	Default        ID = "default"
	MisterSubsidie ID = "mistersubsidie"
	Ignite         ID = "ignite"
)

var known = []ID{Default, MisterSubsidie, Ignite}

// Coerce maps a free-form tenant name onto a known tenant, falling back to Default.
func Coerce(candidate string) ID {
	normalized := ID(strings.ToLower(strings.TrimSpace(candidate)))
	for _, id := range known {
		if id == normalized {
			return id
		}
	}
	return Default
}

// Authorization describes the authorized representative (gemachtigde) acting for the applicant.
type Authorization struct {
	Organisatie    string `json:"organisatie"`
	KvkNummer      string `json:"kvkNummer"`
	Contactpersoon string `json:"contactpersoon"`
	Email          string `json:"email"`
	Telefoon       string `json:"telefoon"`
}

func DefaultAuthorization() Authorization {
	return Authorization{
		Organisatie:    "Tim Otte/NOT-Company bv h.o.d.n. Mistersubsidie",
		KvkNummer:      "24353031",
		Contactpersoon: "Tim Otte",
		Email:          "Tim@mistersubsidie.nl",
		Telefoon:       "06 11 24 13 60",
	}
}

// WithDefaults fills every empty field from DefaultAuthorization.
func (a Authorization) WithDefaults() Authorization {
	d := DefaultAuthorization()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&a.Organisatie, d.Organisatie)
	fill(&a.KvkNummer, d.KvkNummer)
	fill(&a.Contactpersoon, d.Contactpersoon)
	fill(&a.Email, d.Email)
	fill(&a.Telefoon, d.Telefoon)
	return a
}

// Config is everything the core needs to know about a tenant.
type Config struct {
	ID            ID            `json:"id"`
	Authorization Authorization `json:"authorization"`
	TemplateID    string        `json:"templateId"`
	PublicBaseURL string        `json:"publicBaseUrl"`
	// FromDefault is set when the resolved tenant had no registry entry of its own.
	FromDefault bool `json:"-"`
}

// Registry holds the configured tenants by id.
type Registry map[ID]Config

// Request carries the inputs of tenant resolution.
type Request struct {
	Host             string
	QueryTenant      string
	ConfiguredTenant string
	AllowOverride    bool
	Development      bool
}

// ResolveID picks the tenant: configured tenant, then query override when allowed, then host
// name, then subdomain, then Default.
func ResolveID(req Request) ID {
	if configured := Coerce(req.ConfiguredTenant); configured != Default {
		return configured
	}

	host := hostname(req.Host)

	if req.QueryTenant != "" && (req.Development || req.AllowOverride || IsLocalHost(host)) {
		return Coerce(req.QueryTenant)
	}

	if host == "" || IsLocalHost(host) {
		return Default
	}
	if strings.Contains(host, "ignite") {
		return Ignite
	}
	if strings.Contains(host, "mistersubsidie") {
		return MisterSubsidie
	}

	subdomain, _, _ := strings.Cut(host, ".")
	if strings.Contains(subdomain, "ignite") {
		return Ignite
	}
	if strings.Contains(subdomain, "mister") || strings.Contains(subdomain, "ms") {
		return MisterSubsidie
	}
	return Default
}

// Resolve returns the configuration of the tenant chosen by ResolveID. A tenant without its own
// registry entry inherits the default entry.
func Resolve(req Request, reg Registry) Config {
	id := ResolveID(req)

	cfg, ok := reg[id]
	if !ok {
		cfg = reg[Default]
		cfg.FromDefault = true
	}
	cfg.ID = id
	cfg.Authorization = cfg.Authorization.WithDefaults()
	return cfg
}

// IsLocalHost reports whether host names a development machine.
func IsLocalHost(host string) bool {
	host = strings.ToLower(host)
	return host == "localhost" ||
		strings.HasPrefix(host, "127.") ||
		host == "[::1]" || host == "::1" ||
		strings.HasSuffix(host, ".local")
}

func hostname(hostport string) string {
	hostport = strings.ToLower(strings.TrimSpace(hostport))
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return hostport
}
