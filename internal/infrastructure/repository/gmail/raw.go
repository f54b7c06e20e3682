package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// buildRawMessage assembles the minimal single-part plain-text RFC 2822
// message Gmail's raw endpoints accept.
func buildRawMessage(to, subject, body string) string {
	var b strings.Builder
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\n")
	b.WriteString("MIME-Version: 1.0\n")
	b.WriteString("Content-Transfer-Encoding: 7bit\n")
	fmt.Fprintf(&b, "To: %s\n", to)
	fmt.Fprintf(&b, "Subject: %s\n\n", subject)
	b.WriteString(body)
	return b.String()
}

// encodeRawMessage produces the unpadded base64url form the Raw field expects.
func encodeRawMessage(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// cleanDraftID strips the "s:" prefix that draft ids carry when surfaced to
// the client; the Drafts.Update endpoint rejects the prefixed form.
func cleanDraftID(draftID string) string {
	return strings.TrimPrefix(draftID, "s:")
}
