package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mailsift/mailsift/internal/domain/mailbox"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	user            = "me"
	defaultPageSize = 20
)

// folderIDs maps logical labels to Gmail's system label ids.
var folderIDs = map[mailbox.Label]string{
	mailbox.LabelInbox: "INBOX",
	mailbox.LabelSent:  "SENT",
	mailbox.LabelDraft: "DRAFT",
}

type mailboxRepo struct{}

var _ mailbox.Repo = (*mailboxRepo)(nil)

// NewMailboxRepo returns the Gmail-backed mailbox repository. The repository
// holds no credentials; every call receives the caller's access token and
// builds a short-lived service around it.
func NewMailboxRepo() mailbox.Repo {
	return &mailboxRepo{}
}

// service creates a Gmail service authenticated with the given access token.
func (r *mailboxRepo) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	srv, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("unable to create gmail service: %w", err)
	}
	return srv, nil
}

func (r *mailboxRepo) List(ctx context.Context, accessToken string, label mailbox.Label, opts mailbox.ListOptions) (*mailbox.Page, error) {
	folder, ok := folderIDs[label]
	if !ok {
		return nil, fmt.Errorf("unknown label %q", label)
	}

	srv, err := r.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultPageSize
	}

	call := srv.Users.Messages.List(user).LabelIds(folder).MaxResults(maxResults)
	if opts.Search != "" {
		call = call.Q(opts.Search)
	}
	if opts.PageToken != "" {
		call = call.PageToken(opts.PageToken)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %w", err)
	}

	// Fetch every message concurrently. A failed fetch degrades that single
	// message to nil rather than failing the page.
	fetched := make([]*mailbox.Message, len(resp.Messages))
	var wg sync.WaitGroup
	for i, m := range resp.Messages {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			msg, err := r.fetch(ctx, srv, id, label)
			if err != nil {
				slog.Error("failed to fetch message", "message_id", id, "error", err)
				return
			}
			fetched[i] = msg
		}(i, m.Id)
	}
	wg.Wait()

	page := &mailbox.Page{
		Messages:           make([]*mailbox.Message, 0, len(fetched)),
		NextPageToken:      resp.NextPageToken,
		ResultSizeEstimate: resp.ResultSizeEstimate,
	}
	for _, msg := range fetched {
		if msg != nil {
			page.Messages = append(page.Messages, msg)
		}
	}
	return page, nil
}

func (r *mailboxRepo) ListDrafts(ctx context.Context, accessToken string) ([]*mailbox.Message, error) {
	srv, err := r.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Users.Drafts.List(user).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list drafts: %w", err)
	}

	fetched := make([]*mailbox.Message, len(resp.Drafts))
	var wg sync.WaitGroup
	for i, d := range resp.Drafts {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			draft, err := srv.Users.Drafts.Get(user, id).Format("full").Context(ctx).Do()
			if err != nil || draft.Message == nil {
				slog.Error("failed to fetch draft", "draft_id", id, "error", err)
				return
			}
			msg := messageFrom(draft.Message, mailbox.LabelDraft)
			// Surface the draft id, not the underlying message id, so the
			// client can address Drafts.Update with it.
			msg.ID = draft.Id
			fetched[i] = msg
		}(i, d.Id)
	}
	wg.Wait()

	drafts := make([]*mailbox.Message, 0, len(fetched))
	for _, msg := range fetched {
		if msg != nil {
			drafts = append(drafts, msg)
		}
	}
	return drafts, nil
}

func (r *mailboxRepo) Get(ctx context.Context, accessToken, messageID string) (*mailbox.Message, error) {
	srv, err := r.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return r.fetch(ctx, srv, messageID, "")
}

func (r *mailboxRepo) ListUnreadInboxIDs(ctx context.Context, accessToken string, maxResults int64) ([]string, error) {
	srv, err := r.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if maxResults <= 0 {
		maxResults = defaultPageSize
	}

	resp, err := srv.Users.Messages.List(user).Q("is:unread in:inbox").MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list unread messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

func (r *mailboxRepo) Send(ctx context.Context, accessToken, to, subject, body string) error {
	srv, err := r.service(ctx, accessToken)
	if err != nil {
		return err
	}

	msg := &gmail.Message{Raw: encodeRawMessage(buildRawMessage(to, subject, body))}
	if _, err := srv.Users.Messages.Send(user, msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to send message: %w", err)
	}
	return nil
}

func (r *mailboxRepo) SaveDraft(ctx context.Context, accessToken, to, subject, body string) (string, error) {
	srv, err := r.service(ctx, accessToken)
	if err != nil {
		return "", err
	}

	draft := &gmail.Draft{
		Message: &gmail.Message{Raw: encodeRawMessage(buildRawMessage(to, subject, body))},
	}
	created, err := srv.Users.Drafts.Create(user, draft).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create draft: %w", err)
	}
	return created.Id, nil
}

func (r *mailboxRepo) UpdateDraft(ctx context.Context, accessToken, draftID, to, subject, body string) (string, error) {
	srv, err := r.service(ctx, accessToken)
	if err != nil {
		return "", err
	}

	draft := &gmail.Draft{
		Message: &gmail.Message{Raw: encodeRawMessage(buildRawMessage(to, subject, body))},
	}
	updated, err := srv.Users.Drafts.Update(user, cleanDraftID(draftID), draft).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to update draft: %w", err)
	}
	return updated.Id, nil
}

func (r *mailboxRepo) EnsureLabel(ctx context.Context, accessToken, labelID, labelName string) (string, error) {
	srv, err := r.service(ctx, accessToken)
	if err != nil {
		return "", err
	}

	resp, err := srv.Users.Labels.List(user).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to list labels: %w", err)
	}
	for _, l := range resp.Labels {
		if l.Name == labelName || l.Id == labelID {
			return l.Id, nil
		}
	}

	created, err := srv.Users.Labels.Create(user, &gmail.Label{
		Name:                  labelName,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create label %q: %w", labelName, err)
	}
	return created.Id, nil
}

func (r *mailboxRepo) ModifyLabels(ctx context.Context, accessToken, messageID string, add, remove []string) error {
	srv, err := r.service(ctx, accessToken)
	if err != nil {
		return err
	}

	req := &gmail.ModifyMessageRequest{AddLabelIds: add, RemoveLabelIds: remove}
	if _, err := srv.Users.Messages.Modify(user, messageID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to modify labels on message %s: %w", messageID, err)
	}
	return nil
}

// fetch retrieves one message in full and maps it to the domain model. When
// label is empty it is derived from the message's own label set.
func (r *mailboxRepo) fetch(ctx context.Context, srv *gmail.Service, messageID string, label mailbox.Label) (*mailbox.Message, error) {
	msg, err := srv.Users.Messages.Get(user, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message: %w", err)
	}
	if label == "" {
		label = labelOf(msg.LabelIds)
	}
	return messageFrom(msg, label), nil
}

// labelOf derives the logical folder from a Gmail label id set.
func labelOf(labelIDs []string) mailbox.Label {
	for _, id := range labelIDs {
		switch id {
		case "DRAFT":
			return mailbox.LabelDraft
		case "SENT":
			return mailbox.LabelSent
		}
	}
	return mailbox.LabelInbox
}

// messageFrom maps a raw Gmail message to the domain model: header fields
// with their documented defaults, decoded body falling back to the snippet,
// unread derived from the label set.
func messageFrom(msg *gmail.Message, label mailbox.Label) *mailbox.Message {
	out := &mailbox.Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Subject:  "(no subject)",
		Snippet:  msg.Snippet,
		Label:    label,
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "Subject":
				if header.Value != "" {
					out.Subject = header.Value
				}
			case "From":
				out.From = header.Value
			case "To":
				out.To = header.Value
			case "Date":
				out.Date = header.Value
			}
		}
	}

	out.Body = decodeBody(msg.Payload)
	if out.Body == "" {
		out.Body = msg.Snippet
	}

	for _, id := range msg.LabelIds {
		if id == "UNREAD" {
			out.Unread = true
			break
		}
	}

	return out
}
