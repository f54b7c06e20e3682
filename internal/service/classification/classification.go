package classification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mailsift/mailsift/internal/domain/classification"
	"github.com/mailsift/mailsift/internal/domain/mailbox"
)

// defaultChunkSize bounds concurrent oracle calls. Chunks run strictly in
// sequence; this is the sole rate-limiting mechanism against the oracle.
const defaultChunkSize = 3

// AI-assigned Gmail labels, one per category.
const (
	labelIDNeedsReply = "NEEDS_REPLY"
	labelIDToRead     = "TO_READ"
	labelIDArchived   = "ARCHIVED_BY_AI"

	labelNameNeedsReply = "Needs Reply"
	labelNameToRead     = "To Read"
	labelNameArchived   = "Archived by AI"

	inboxLabelID = "INBOX"
)

// Service drives the classification pipeline: fetch and decode messages,
// format them for the oracle, classify in rate-limited chunks, and
// optionally apply the resulting labels. It is stateless; nothing is cached
// between calls.
type Service struct {
	mailbox   mailbox.Repo
	oracle    classification.Oracle
	chunkSize int
}

// NewService wires the pipeline. A chunkSize below 1 falls back to the
// default of 3.
func NewService(mailboxRepo mailbox.Repo, oracle classification.Oracle, chunkSize int) *Service {
	if chunkSize < 1 {
		chunkSize = defaultChunkSize
	}
	return &Service{
		mailbox:   mailboxRepo,
		oracle:    oracle,
		chunkSize: chunkSize,
	}
}

// promptItem pairs a message id with its formatted prompt content.
type promptItem struct {
	id      string
	content string
}

// ClassifyEmail classifies a single message and applies its label.
func (s *Service) ClassifyEmail(ctx context.Context, accessToken, emailID string) (classification.Result, error) {
	msg, err := s.mailbox.Get(ctx, accessToken, emailID)
	if err != nil {
		return classification.Result{}, fmt.Errorf("failed to fetch email %s: %w", emailID, err)
	}

	result := s.oracle.Classify(ctx, FormatForPrompt(Prepare(msg)))
	result.EmailID = emailID

	if err := s.apply(ctx, accessToken, result); err != nil {
		return classification.Result{}, err
	}
	return result, nil
}

// ClassifyBatch classifies the given messages. Fetch failures degrade the
// affected message to an excluded item instead of failing the batch. Labels
// are applied only when applyLabels is set; the read-only classified view
// re-runs this exact path with applyLabels false.
func (s *Service) ClassifyBatch(ctx context.Context, accessToken string, emailIDs []string, applyLabels bool) ([]classification.Result, error) {
	items := s.fetchContents(ctx, accessToken, emailIDs)

	valid := items[:0]
	for _, item := range items {
		if item.content != "" {
			valid = append(valid, item)
		}
	}

	results := s.classifyMany(ctx, valid)

	if applyLabels {
		if err := s.applyAll(ctx, accessToken, results); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ClassifyInbox classifies the current unread inbox messages and applies
// labels.
func (s *Service) ClassifyInbox(ctx context.Context, accessToken string, maxResults int64) ([]classification.Result, error) {
	ids, err := s.mailbox.ListUnreadInboxIDs(ctx, accessToken, maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread inbox messages: %w", err)
	}
	if len(ids) == 0 {
		return []classification.Result{}, nil
	}
	return s.ClassifyBatch(ctx, accessToken, ids, true)
}

// fetchContents fetches and formats every message concurrently. A failed
// fetch yields an item with empty content, which the scheduler excludes.
func (s *Service) fetchContents(ctx context.Context, accessToken string, emailIDs []string) []promptItem {
	items := make([]promptItem, len(emailIDs))
	var wg sync.WaitGroup
	for i, id := range emailIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			items[i] = promptItem{id: id}
			msg, err := s.mailbox.Get(ctx, accessToken, id)
			if err != nil {
				slog.Error("failed to fetch email for classification", "email_id", id, "error", err)
				return
			}
			items[i].content = FormatForPrompt(Prepare(msg))
		}(i, id)
	}
	wg.Wait()
	return items
}

// classifyMany runs the oracle over items in fixed-size chunks. A chunk's
// items are classified concurrently; the next chunk does not start until
// every call in the current one has resolved. Every input id appears exactly
// once in the output, stamped on its result.
func (s *Service) classifyMany(ctx context.Context, items []promptItem) []classification.Result {
	results := make([]classification.Result, 0, len(items))

	for start := 0; start < len(items); start += s.chunkSize {
		end := min(start+s.chunkSize, len(items))
		chunk := items[start:end]

		chunkResults := make([]classification.Result, len(chunk))
		var wg sync.WaitGroup
		for i, item := range chunk {
			wg.Add(1)
			go func(i int, item promptItem) {
				defer wg.Done()
				result := s.oracle.Classify(ctx, item.content)
				result.EmailID = item.id
				chunkResults[i] = result
			}(i, item)
		}
		wg.Wait()

		results = append(results, chunkResults...)
	}

	return results
}

// applyAll applies every classification concurrently and joins any errors.
func (s *Service) applyAll(ctx context.Context, accessToken string, results []classification.Result) error {
	errs := make([]error, len(results))
	var wg sync.WaitGroup
	for i, result := range results {
		wg.Add(1)
		go func(i int, result classification.Result) {
			defer wg.Done()
			errs[i] = s.apply(ctx, accessToken, result)
		}(i, result)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// apply maps a classification to its mailbox mutation: ensure the category
// label exists and attach it, additionally removing the inbox label for
// archived messages.
func (s *Service) apply(ctx context.Context, accessToken string, result classification.Result) error {
	switch result.Category {
	case classification.CategoryReply:
		return s.attachLabel(ctx, accessToken, result.EmailID, labelIDNeedsReply, labelNameNeedsReply, nil)
	case classification.CategoryRead:
		return s.attachLabel(ctx, accessToken, result.EmailID, labelIDToRead, labelNameToRead, nil)
	case classification.CategoryArchive:
		return s.attachLabel(ctx, accessToken, result.EmailID, labelIDArchived, labelNameArchived, []string{inboxLabelID})
	default:
		return fmt.Errorf("unknown category %q for email %s", result.Category, result.EmailID)
	}
}

func (s *Service) attachLabel(ctx context.Context, accessToken, emailID, labelID, labelName string, remove []string) error {
	id, err := s.mailbox.EnsureLabel(ctx, accessToken, labelID, labelName)
	if err != nil {
		return fmt.Errorf("failed to ensure label %q: %w", labelName, err)
	}
	if err := s.mailbox.ModifyLabels(ctx, accessToken, emailID, []string{id}, remove); err != nil {
		return fmt.Errorf("failed to apply label %q to email %s: %w", labelName, emailID, err)
	}
	return nil
}
