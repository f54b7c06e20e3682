package di

import (
	"fmt"

	classificationservice "github.com/mailsift/mailsift/internal/service/classification"

	"github.com/mailsift/mailsift/internal/domain/classification"
	"github.com/mailsift/mailsift/internal/domain/mailbox"
	gmailrepo "github.com/mailsift/mailsift/internal/infrastructure/repository/gmail"
	openairepo "github.com/mailsift/mailsift/internal/infrastructure/repository/openai"
)

type Container struct {
	MailboxRepo           mailbox.Repo
	Oracle                classification.Oracle
	ClassificationService *classificationservice.Service
}

type Config struct {
	OpenAIAPIKey string
	OpenAIModel  string
	ChunkSize    int
}

func NewContainer(cfg Config) (*Container, error) {
	mailboxRepo := gmailrepo.NewMailboxRepo()

	oracle, err := openairepo.NewOracle(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize classification oracle: %w", err)
	}

	classificationService := classificationservice.NewService(mailboxRepo, oracle, cfg.ChunkSize)

	return &Container{
		MailboxRepo:           mailboxRepo,
		Oracle:                oracle,
		ClassificationService: classificationService,
	}, nil
}
