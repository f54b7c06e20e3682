package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mailsift/mailsift/internal/di"
	"github.com/mailsift/mailsift/internal/handler/classify"
	"github.com/mailsift/mailsift/internal/handler/emails"
	"github.com/mailsift/mailsift/internal/handler/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found")
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	port := getEnv("PORT", "3001")
	clientURL := getEnv("CLIENT_URL", "http://localhost:5173")

	cfg := di.Config{
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  os.Getenv("OPENAI_MODEL"),
		ChunkSize:    getEnvInt("CLASSIFY_CHUNK_SIZE", 0),
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}

	emailsHandler := emails.NewHandler(container.MailboxRepo)
	classifyHandler := classify.NewHandler(container.ClassificationService)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /emails", emailsHandler.HandleList)
	mux.HandleFunc("GET /emails/drafts", emailsHandler.HandleListDrafts)
	mux.HandleFunc("GET /emails/{id}", emailsHandler.HandleGet)
	mux.HandleFunc("POST /emails/send", emailsHandler.HandleSend)
	mux.HandleFunc("POST /emails/draft", emailsHandler.HandleSaveDraft)
	mux.HandleFunc("PUT /emails/draft/{id}", emailsHandler.HandleUpdateDraft)
	mux.HandleFunc("POST /classify/email/{id}", classifyHandler.HandleEmail)
	mux.HandleFunc("POST /classify/batch", classifyHandler.HandleBatch)
	mux.HandleFunc("POST /classify/inbox", classifyHandler.HandleInbox)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      middleware.CORS(mux, clientURL),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	slog.Info("shutdown completed")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer environment value", "key", key, "value", value)
		return defaultValue
	}
	return n
}
