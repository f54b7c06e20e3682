package classification

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mailsift/mailsift/internal/domain/mailbox"
)

func TestPrepare(t *testing.T) {
	tests := []struct {
		name     string
		msg      *mailbox.Message
		wantBody string
		wantSubj string
	}{
		{
			name:     "strips html tags",
			msg:      &mailbox.Message{Subject: "s", Body: "<p>Hello <b>world</b></p>"},
			wantBody: "Hello world",
			wantSubj: "s",
		},
		{
			name:     "collapses whitespace",
			msg:      &mailbox.Message{Subject: "s", Body: "a  b\n\nc\t d"},
			wantBody: "a b c d",
			wantSubj: "s",
		},
		{
			name:     "trims edges",
			msg:      &mailbox.Message{Subject: "s", Body: "  <div>  x  </div>  "},
			wantBody: "x",
			wantSubj: "s",
		},
		{
			name:     "missing subject gets default",
			msg:      &mailbox.Message{Body: "x"},
			wantBody: "x",
			wantSubj: "(no subject)",
		},
		{
			name:     "empty body stays empty",
			msg:      &mailbox.Message{Subject: "s"},
			wantBody: "",
			wantSubj: "s",
		},
		{
			name:     "line breaks from decoder become spaces",
			msg:      &mailbox.Message{Subject: "s", Body: "line1<br>line2"},
			wantBody: "line1 line2",
			wantSubj: "s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Prepare(tt.msg)
			if got.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", got.Body, tt.wantBody)
			}
			if got.Subject != tt.wantSubj {
				t.Errorf("Subject = %q, want %q", got.Subject, tt.wantSubj)
			}
		})
	}
}

func TestFormatForPrompt(t *testing.T) {
	email := NormalizedEmail{
		From:    "bob@example.com",
		Subject: "Hello",
		Date:    "Mon, 2 Sep 2024 10:00:00 +0000",
		Body:    "short body",
	}

	got := FormatForPrompt(email)
	want := "From: bob@example.com\nSubject: Hello\nDate: Mon, 2 Sep 2024 10:00:00 +0000\nContent: short body"
	if got != want {
		t.Errorf("FormatForPrompt() = %q, want %q", got, want)
	}
}

func TestFormatForPromptTruncates(t *testing.T) {
	email := NormalizedEmail{
		From:    "a@b.c",
		Subject: "s",
		Body:    strings.Repeat("x", maxPromptContent+500),
	}

	got := FormatForPrompt(email)
	idx := strings.Index(got, "Content: ")
	if idx < 0 {
		t.Fatal("no Content section")
	}
	content := got[idx+len("Content: "):]
	if len(content) != maxPromptContent {
		t.Errorf("content length = %d, want %d", len(content), maxPromptContent)
	}
}

func TestFormatForPromptTruncatesOnRuneBoundary(t *testing.T) {
	// A two-byte rune straddling the cap must be dropped whole, not split
	// into an invalid trailing byte.
	email := NormalizedEmail{
		From:    "a@b.c",
		Subject: "s",
		Body:    strings.Repeat("x", maxPromptContent-1) + "éé",
	}

	got := FormatForPrompt(email)
	content := got[strings.Index(got, "Content: ")+len("Content: "):]

	if !utf8.ValidString(content) {
		t.Error("truncated content is not valid UTF-8")
	}
	if len(content) > maxPromptContent {
		t.Errorf("content length = %d, exceeds cap", len(content))
	}
	if want := strings.Repeat("x", maxPromptContent-1); content != want {
		t.Errorf("content = %q..., want the straddling rune dropped", content[len(content)-4:])
	}
}

func TestTruncationAppliesAfterNormalization(t *testing.T) {
	// Markup longer than the cap must not count against the budget.
	body := strings.Repeat("<span>", 1000) + "visible" + strings.Repeat("</span>", 1000)
	email := Prepare(&mailbox.Message{Subject: "s", Body: body})

	got := FormatForPrompt(email)
	if !strings.Contains(got, "visible") {
		t.Error("normalized content was truncated away")
	}
}
