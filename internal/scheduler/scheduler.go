package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/mq"
	"github.com/shaiso/postflow/internal/orchestrator"
	"github.com/shaiso/postflow/internal/repo"
	"github.com/shaiso/postflow/internal/telemetry"
)

// Default configuration values.
const (
	defaultBatchSize = 100
	defaultLookahead = time.Minute
)

// PostSource — хранилище постов, ожидающих публикации.
type PostSource interface {
	ListDue(ctx context.Context, horizon time.Time, limit int) ([]domain.PostItem, error)
	MarkDispatched(ctx context.Context, id string, at time.Time) error
}

// DuePublisher публикует сообщения post.due.
type DuePublisher interface {
	PublishPostDue(ctx context.Context, payload mq.PostDuePayload) error
}

// WorkflowStarter запускает выполнение напрямую, без брокера.
type WorkflowStarter interface {
	Start(ctx context.Context, req domain.PublicationRequest, source string) (orchestrator.Execution, error)
}

// Scheduler — планировщик, передающий посты на публикацию.
type Scheduler struct {
	posts     PostSource
	publisher DuePublisher
	starter   WorkflowStarter
	logger    *slog.Logger
	batchSize int
	lookahead time.Duration
	now       func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Posts PostSource

	// Publisher — основной путь (опционально).
	Publisher DuePublisher

	// Starter — запуск напрямую, если брокер недоступен (опционально).
	Starter WorkflowStarter

	Logger    *slog.Logger
	BatchSize int           // количество постов за один тик (default: 100)
	Lookahead time.Duration // насколько заранее передавать пост (default: 1m)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	lookahead := cfg.Lookahead
	if lookahead < 0 {
		lookahead = 0
	} else if lookahead == 0 {
		lookahead = defaultLookahead
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		posts:     cfg.Posts,
		publisher: cfg.Publisher,
		starter:   cfg.Starter,
		logger:    logger,
		batchSize: batchSize,
		lookahead: lookahead,
		now:       time.Now,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Находит основные посты в QUEUE с publish_date <= now+lookahead
// 2. Для каждого публикует post.due (или запускает выполнение напрямую)
// 3. Отмечает пост как переданный
//
// Выполнение само ждёт даты публикации, поэтому передача заранее безопасна.
// Ошибки одного поста не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.now()

	posts, err := s.posts.ListDue(ctx, now.Add(s.lookahead), s.batchSize)
	if err != nil {
		return fmt.Errorf("list due posts: %w", err)
	}

	if len(posts) == 0 {
		return nil
	}

	s.logger.Debug("found due posts", "count", len(posts))

	var dispatched int
	for i := range posts {
		post := &posts[i]

		if err := s.dispatch(ctx, post, now); err != nil {
			s.logger.Error("failed to dispatch post",
				"post_id", post.ID,
				"provider", post.Integration.ProviderIdentifier,
				"error", err,
			)
			continue
		}
		dispatched++
	}

	s.logger.Info("scheduler tick completed",
		"due", len(posts),
		"dispatched", dispatched,
	)

	return nil
}

// dispatch передаёт один пост на публикацию.
func (s *Scheduler) dispatch(ctx context.Context, post *domain.PostItem, now time.Time) error {
	if err := s.handOff(ctx, post); err != nil {
		return err
	}

	if err := s.posts.MarkDispatched(ctx, post.ID, now); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			// Другой экземпляр успел раньше.
			s.logger.Debug("post already dispatched", "post_id", post.ID)
			return nil
		}
		return fmt.Errorf("mark dispatched: %w", err)
	}

	telemetry.SchedulerDispatched.Inc()
	return nil
}

func (s *Scheduler) handOff(ctx context.Context, post *domain.PostItem) error {
	if s.publisher != nil {
		err := s.publisher.PublishPostDue(ctx, mq.PostDuePayload{
			PostID:         post.ID,
			OrganizationID: post.OrganizationID,
			Provider:       post.Integration.ProviderIdentifier,
			PublishDate:    post.PublishDate,
		})
		if err == nil {
			return nil
		}
		if s.starter == nil {
			return fmt.Errorf("publish post.due: %w", err)
		}
		s.logger.Warn("failed to publish post.due, starting workflow directly",
			"post_id", post.ID,
			"error", err,
		)
	}

	if s.starter == nil {
		return ErrNoDispatcher
	}

	req := domain.PublicationRequest{
		TaskRoute:      post.Integration.ProviderIdentifier,
		PostID:         post.ID,
		OrganizationID: post.OrganizationID,
	}
	if _, err := s.starter.Start(ctx, req, orchestrator.SourceScheduler); err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	return nil
}
