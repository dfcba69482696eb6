// internal/workers/application/send-notification/templates.go
package sendnotification

import (
	"fmt"
	"strings"
)

type template struct {
	Subject string
	Body    string
	// Staff is the short text for the staff SMS and topic.
	Staff string
}

var templates = map[string]template{
	TypeApplicationReceived: {
		Subject: "Uw subsidieaanvraag {{applicationId}} is ontvangen",
		Body: "Beste {{contactNaam}},\n\n" +
			"Wij hebben de aanvraag voor {{bedrijfsnaam}} (KvK {{kvkNummer}}) in goede orde ontvangen. " +
			"U ontvangt binnenkort een verzoek om de documenten te ondertekenen.\n\n" +
			"Met vriendelijke groet,\n{{organisatie}}",
		Staff: "Nieuwe aanvraag {{bedrijfsnaam}} ({{ondernemingType}}) via {{tenantId}}: {{applicationId}}",
	},
	TypeSigningRequested: {
		Subject: "Onderteken uw subsidieaanvraag {{applicationId}}",
		Body: "Beste {{signerName}},\n\n" +
			"De documenten voor {{bedrijfsnaam}} staan klaar om te ondertekenen.\n{{signingUrl}}\n\n" +
			"Met vriendelijke groet,\n{{organisatie}}",
		Staff: "Ondertekening gestart voor {{bedrijfsnaam}}, envelope {{envelopeId}}",
	},
}

// renderTemplate replaces {{key}} placeholders and drops the ones without a value.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}
