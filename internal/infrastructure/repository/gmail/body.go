package gmail

import (
	"encoding/base64"
	"strings"

	"google.golang.org/api/gmail/v1"
)

// decodeBody extracts renderable content from a message payload. For
// multipart messages the part tree is searched twice: a full depth-first
// pass for a text/html leaf with inline data, then a second full pass for
// text/plain. HTML anywhere in the tree wins over plain text anywhere,
// regardless of relative depth. Plain text has its newlines rewritten to
// <br> because the rendering surface expects HTML.
func decodeBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	if strings.HasPrefix(payload.MimeType, "multipart/") {
		if part := findPart(payload.Parts, "text/html"); part != nil {
			if html, err := decodeBase64URL(part.Body.Data); err == nil {
				return html
			}
		}
		if part := findPart(payload.Parts, "text/plain"); part != nil {
			if text, err := decodeBase64URL(part.Body.Data); err == nil {
				return strings.ReplaceAll(text, "\n", "<br>")
			}
		}
		return ""
	}

	if payload.Body != nil && payload.Body.Data != "" {
		switch payload.MimeType {
		case "text/html":
			if html, err := decodeBase64URL(payload.Body.Data); err == nil {
				return html
			}
		case "text/plain":
			if text, err := decodeBase64URL(payload.Body.Data); err == nil {
				return strings.ReplaceAll(text, "\n", "<br>")
			}
		}
	}

	return ""
}

// findPart returns the first part in depth-first order whose MIME type
// matches and which carries inline data.
func findPart(parts []*gmail.MessagePart, mimeType string) *gmail.MessagePart {
	for _, part := range parts {
		if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
			return part
		}
		if found := findPart(part.Parts, mimeType); found != nil {
			return found
		}
	}
	return nil
}

// decodeBase64URL decodes base64url data as Gmail emits it: URL-safe
// alphabet, padding usually stripped. Padding is restored before decoding so
// both padded and unpadded inputs are accepted.
func decodeBase64URL(data string) (string, error) {
	data = strings.ReplaceAll(data, "-", "+")
	data = strings.ReplaceAll(data, "_", "/")
	if rem := len(data) % 4; rem != 0 {
		data += strings.Repeat("=", 4-rem)
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
