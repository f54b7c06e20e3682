package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// ErrNoToken is returned when the Authorization header is missing or is not
// a bearer token.
var ErrNoToken = errors.New("no token provided")

const bearerPrefix = "Bearer "

// BearerToken extracts the bearer access token from a request.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrNoToken
	}
	token := header[len(bearerPrefix):]
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// CORS wraps a handler with the cross-origin policy the browser client
// needs: a single allowed origin, credentialed requests, and short-circuited
// preflights.
func CORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// errorResponse is the wire shape for every failure.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RespondJSON writes v as a JSON response.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// RespondError writes the {error, details} failure shape. err may be nil for
// client-side validation failures.
func RespondError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	RespondJSON(w, status, resp)
}

// Unauthorized writes the 401 response for missing or malformed tokens.
func Unauthorized(w http.ResponseWriter) {
	RespondError(w, http.StatusUnauthorized, "No token provided", nil)
}
