package classification

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mailsift/mailsift/internal/domain/mailbox"
)

// maxPromptContent caps the body portion of a prompt. The cap is applied
// after normalization so stripped markup does not eat into the budget.
const maxPromptContent = 2000

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizedEmail is a message reduced to the fields the oracle prompt needs,
// with markup stripped and whitespace collapsed.
type NormalizedEmail struct {
	ID      string
	Subject string
	From    string
	Snippet string
	Body    string
	Date    string
}

// Prepare normalizes a message for classification: defaults are filled in,
// HTML tags are replaced with spaces, runs of whitespace collapse to one
// space, and the result is trimmed.
func Prepare(msg *mailbox.Message) NormalizedEmail {
	email := NormalizedEmail{
		ID:      msg.ID,
		Subject: msg.Subject,
		From:    msg.From,
		Snippet: msg.Snippet,
		Body:    msg.Body,
		Date:    msg.Date,
	}
	if email.Subject == "" {
		email.Subject = "(no subject)"
	}

	email.Body = htmlTagRe.ReplaceAllString(email.Body, " ")
	email.Body = whitespaceRe.ReplaceAllString(email.Body, " ")
	email.Body = strings.TrimSpace(email.Body)

	return email
}

// FormatForPrompt renders the fixed header-plus-content block the oracle
// prompt embeds, truncating the body to the token budget.
func FormatForPrompt(email NormalizedEmail) string {
	body := truncate(email.Body, maxPromptContent)
	return fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\nContent: %s",
		email.From, email.Subject, email.Date, body)
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune at the
// boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
