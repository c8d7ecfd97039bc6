package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/orchestrator"
	"github.com/shaiso/postflow/internal/publication"
)

// PostReader — чтение постов.
type PostReader interface {
	GetByID(ctx context.Context, id string) (*domain.PostItem, error)
}

// PostStarter — запуск выполнений и обращение к ним.
type PostStarter interface {
	Start(ctx context.Context, req domain.PublicationRequest, source string) (orchestrator.Execution, error)
	Poke(ctx context.Context, postID string) error
	Progress(ctx context.Context, postID string) (publication.Progress, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	posts   PostReader
	starter PostStarter
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Posts   PostReader
	Starter PostStarter
	Logger  *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		posts:   cfg.Posts,
		starter: cfg.Starter,
		logger:  logger,
	}
}
