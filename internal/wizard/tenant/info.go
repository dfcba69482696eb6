package tenant

// Info is the authorized representative view served to front ends and returned by the tenant
// info endpoint of the backend.
type Info struct {
	Gemachtigde         string `json:"gemachtigde"`
	GemachtigdeEmail    string `json:"gemachtigde_email"`
	GemachtigdeNaam     string `json:"gemachtigde_naam"`
	GemachtigdeTelefoon string `json:"gemachtigde_telefoon"`
	GemachtigdeKvk      string `json:"gemachtigde_kvk"`
	Meta                *Meta  `json:"meta,omitempty"`
}

type Meta struct {
	RequestedID         *string `json:"requestedId"`
	TenantID            string  `json:"tenantId"`
	ResolvedFromDefault bool    `json:"resolvedFromDefault"`
}

// InfoFor renders cfg as the tenant info view. requested is the raw tenant the caller asked for, if any.
func InfoFor(cfg Config, requested string) Info {
	a := cfg.Authorization.WithDefaults()
	meta := &Meta{TenantID: string(cfg.ID), ResolvedFromDefault: cfg.FromDefault}
	if requested != "" {
		meta.RequestedID = &requested
	}
	return Info{
		Gemachtigde:         a.Organisatie,
		GemachtigdeEmail:    a.Email,
		GemachtigdeNaam:     a.Contactpersoon,
		GemachtigdeTelefoon: a.Telefoon,
		GemachtigdeKvk:      a.KvkNummer,
		Meta:                meta,
	}
}

// Authorization maps the view back, keeping defaults for fields the sender left empty.
func (i Info) Authorization() Authorization {
	return Authorization{
		Organisatie:    i.Gemachtigde,
		KvkNummer:      i.GemachtigdeKvk,
		Contactpersoon: i.GemachtigdeNaam,
		Email:          i.GemachtigdeEmail,
		Telefoon:       i.GemachtigdeTelefoon,
	}.WithDefaults()
}
