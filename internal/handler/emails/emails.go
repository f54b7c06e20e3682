package emails

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/mailsift/mailsift/internal/domain/mailbox"
	"github.com/mailsift/mailsift/internal/handler/middleware"
)

// Mailbox is the slice of the mailbox repository the email routes need.
type Mailbox interface {
	List(ctx context.Context, accessToken string, label mailbox.Label, opts mailbox.ListOptions) (*mailbox.Page, error)
	ListDrafts(ctx context.Context, accessToken string) ([]*mailbox.Message, error)
	Get(ctx context.Context, accessToken, messageID string) (*mailbox.Message, error)
	Send(ctx context.Context, accessToken, to, subject, body string) error
	SaveDraft(ctx context.Context, accessToken, to, subject, body string) (string, error)
	UpdateDraft(ctx context.Context, accessToken, draftID, to, subject, body string) (string, error)
}

type Handler struct {
	mailbox Mailbox
}

func NewHandler(mailbox Mailbox) *Handler {
	return &Handler{mailbox: mailbox}
}

// composeRequest is the shared body of send/draft requests.
type composeRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// HandleList serves GET /emails.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		middleware.Unauthorized(w)
		return
	}

	label, ok := mailbox.ParseLabel(r.URL.Query().Get("label"))
	if !ok {
		middleware.RespondError(w, http.StatusBadRequest, "Invalid label", nil)
		return
	}

	page, err := h.mailbox.List(r.Context(), token, label, mailbox.ListOptions{
		PageToken: r.URL.Query().Get("pageToken"),
		Search:    r.URL.Query().Get("search"),
	})
	if err != nil {
		slog.Error("failed to list emails", "label", label, "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "Failed to fetch emails", err)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, page)
}

// HandleListDrafts serves GET /emails/drafts.
func (h *Handler) HandleListDrafts(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		middleware.Unauthorized(w)
		return
	}

	drafts, err := h.mailbox.ListDrafts(r.Context(), token)
	if err != nil {
		slog.Error("failed to list drafts", "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "Failed to fetch drafts", err)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, drafts)
}

// HandleGet serves GET /emails/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		middleware.Unauthorized(w)
		return
	}

	msg, err := h.mailbox.Get(r.Context(), token, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to fetch email", "email_id", r.PathValue("id"), "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "Failed to fetch email", err)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, msg)
}

// HandleSend serves POST /emails/send.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		middleware.Unauthorized(w)
		return
	}

	req, ok := decodeCompose(w, r, true)
	if !ok {
		return
	}

	if err := h.mailbox.Send(r.Context(), token, req.To, req.Subject, req.Content); err != nil {
		slog.Error("failed to send email", "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "Failed to send email", err)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleSaveDraft serves POST /emails/draft.
func (h *Handler) HandleSaveDraft(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		middleware.Unauthorized(w)
		return
	}

	req, ok := decodeCompose(w, r, false)
	if !ok {
		return
	}

	draftID, err := h.mailbox.SaveDraft(r.Context(), token, req.To, req.Subject, req.Content)
	if err != nil {
		slog.Error("failed to save draft", "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "Failed to save draft", err)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, map[string]any{"success": true, "draftId": draftID})
}

// HandleUpdateDraft serves PUT /emails/draft/{id}.
func (h *Handler) HandleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		middleware.Unauthorized(w)
		return
	}

	req, ok := decodeCompose(w, r, false)
	if !ok {
		return
	}

	draftID, err := h.mailbox.UpdateDraft(r.Context(), token, r.PathValue("id"), req.To, req.Subject, req.Content)
	if err != nil {
		slog.Error("failed to update draft", "draft_id", r.PathValue("id"), "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "Failed to update draft", err)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, map[string]any{"success": true, "draftId": draftID})
}

// decodeCompose parses and validates a compose body, writing the 400 itself
// on failure. Validation happens before any provider call. Sending requires
// a well-formed recipient; drafts may be saved without one, so their routes
// validate the address only when it is set.
func decodeCompose(w http.ResponseWriter, r *http.Request, requireRecipient bool) (composeRequest, bool) {
	var req composeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.RespondError(w, http.StatusBadRequest, "Invalid request body", err)
		return composeRequest{}, false
	}
	if requireRecipient || req.To != "" {
		if _, err := mail.ParseAddress(req.To); err != nil {
			middleware.RespondError(w, http.StatusBadRequest, "Invalid recipient address", err)
			return composeRequest{}, false
		}
	}
	return req, true
}
