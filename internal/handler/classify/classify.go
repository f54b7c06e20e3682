package classify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mailsift/mailsift/internal/domain/classification"
	"github.com/mailsift/mailsift/internal/handler/middleware"
)

// defaultInboxResults bounds an inbox classification when the caller does
// not say how many messages to look at.
const defaultInboxResults = 10

// Classifier is the slice of the classification service the routes need.
type Classifier interface {
	ClassifyEmail(ctx context.Context, accessToken, emailID string) (classification.Result, error)
	ClassifyBatch(ctx context.Context, accessToken string, emailIDs []string, applyLabels bool) ([]classification.Result, error)
	ClassifyInbox(ctx context.Context, accessToken string, maxResults int64) ([]classification.Result, error)
}

type Handler struct {
	classifier Classifier
}

func NewHandler(classifier Classifier) *Handler {
	return &Handler{classifier: classifier}
}

// HandleEmail serves POST /classify/email/{id}.
func (h *Handler) HandleEmail(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		middleware.Unauthorized(w)
		return
	}

	emailID := r.PathValue("id")
	result, err := h.classifier.ClassifyEmail(r.Context(), token, emailID)
	if err != nil {
		slog.Error("failed to classify email", "email_id", emailID, "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "Failed to classify email", err)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"classification": result,
	})
}

// HandleBatch serves POST /classify/batch.
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		middleware.Unauthorized(w)
		return
	}

	var req struct {
		EmailIDs    []string `json:"emailIds"`
		ApplyLabels bool     `json:"applyLabels"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.RespondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.EmailIDs) == 0 {
		middleware.RespondError(w, http.StatusBadRequest, "Email IDs array is required", nil)
		return
	}

	results, err := h.classifier.ClassifyBatch(r.Context(), token, req.EmailIDs, req.ApplyLabels)
	if err != nil {
		slog.Error("failed to classify batch", "count", len(req.EmailIDs), "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "Failed to classify emails in batch", err)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"classifications": results,
	})
}

// HandleInbox serves POST /classify/inbox. The body is optional; an absent
// or empty body means the default maxResults.
func (h *Handler) HandleInbox(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		middleware.Unauthorized(w)
		return
	}

	req := struct {
		MaxResults int64 `json:"maxResults"`
	}{MaxResults: defaultInboxResults}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.RespondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.MaxResults <= 0 {
		req.MaxResults = defaultInboxResults
	}

	results, err := h.classifier.ClassifyInbox(r.Context(), token, req.MaxResults)
	if err != nil {
		slog.Error("failed to classify inbox", "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "Failed to classify inbox emails", err)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"classifications": results,
	})
}
