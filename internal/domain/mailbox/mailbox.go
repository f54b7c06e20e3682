package mailbox

import "context"

// Label is the logical folder a message belongs to.
type Label string

const (
	LabelInbox Label = "inbox"
	LabelSent  Label = "sent"
	LabelDraft Label = "draft"
)

// ParseLabel maps a query-string label to a Label.
func ParseLabel(s string) (Label, bool) {
	switch Label(s) {
	case LabelInbox, LabelSent, LabelDraft:
		return Label(s), true
	case "":
		return LabelInbox, true
	}
	return "", false
}

// Message is the canonical message model exposed over the HTTP surface.
// Body is always set: decoded content, falling back to the provider snippet,
// falling back to the empty string.
type Message struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	Subject  string `json:"subject"`
	From     string `json:"from"`
	To       string `json:"to"`
	Date     string `json:"date"`
	Snippet  string `json:"snippet"`
	Body     string `json:"body"`
	Label    Label  `json:"label"`
	Unread   bool   `json:"unread"`
}

// Page is one page of a mailbox listing.
type Page struct {
	Messages           []*Message `json:"emails"`
	NextPageToken      string     `json:"nextPageToken,omitempty"`
	ResultSizeEstimate int64      `json:"resultSizeEstimate,omitempty"`
}

// ListOptions carries the optional listing parameters.
type ListOptions struct {
	PageToken  string
	Search     string
	MaxResults int64
}

// Repo is the single point of contact with the mail provider. The access
// token is supplied per call; implementations hold no per-user state.
type Repo interface {
	List(ctx context.Context, accessToken string, label Label, opts ListOptions) (*Page, error)
	ListDrafts(ctx context.Context, accessToken string) ([]*Message, error)
	Get(ctx context.Context, accessToken, messageID string) (*Message, error)
	ListUnreadInboxIDs(ctx context.Context, accessToken string, maxResults int64) ([]string, error)
	Send(ctx context.Context, accessToken, to, subject, body string) error
	SaveDraft(ctx context.Context, accessToken, to, subject, body string) (string, error)
	UpdateDraft(ctx context.Context, accessToken, draftID, to, subject, body string) (string, error)
	EnsureLabel(ctx context.Context, accessToken, labelID, labelName string) (string, error)
	ModifyLabels(ctx context.Context, accessToken, messageID string, add, remove []string) error
}
