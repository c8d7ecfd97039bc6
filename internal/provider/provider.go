package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/postflow/internal/domain"
)

// Provider — адаптер одной социальной сети.
//
// Ошибки публикации классифицируются через ErrRefreshNeeded и ErrBadBody
// (см. RejectionError). Прочие ошибки считаются временными.
type Provider interface {
	// Identifier возвращает идентификатор провайдера ("x", "linkedin", ...).
	Identifier() string

	// Commentable сообщает, поддерживает ли провайдер цепочку комментариев.
	Commentable() bool

	// Post публикует основной пост. Один пост может дать несколько результатов.
	Post(ctx context.Context, integ domain.Integration, items []domain.PostItem) ([]domain.PublishResult, error)

	// Comment публикует комментарий. parentID пуст для ответа на основной пост.
	Comment(ctx context.Context, anchorID, parentID string, integ domain.Integration, items []domain.PostItem) ([]domain.PublishResult, error)

	// RefreshToken обновляет credentials интеграции.
	RefreshToken(ctx context.Context, integ domain.Integration) (domain.Token, error)

	// SupportsInternalPlug сообщает, известна ли провайдеру функция internal plug.
	SupportsInternalPlug(function string) bool

	// RunInternalPlug выполняет internal plug для опубликованного поста.
	RunInternalPlug(ctx context.Context, integ domain.Integration, task domain.PlugTask, anchorID string) error

	// RunGlobalPlug выполняет global plug. true — условие plug выполнено,
	// остальные срабатывания этого plug больше не нужны.
	RunGlobalPlug(ctx context.Context, integ domain.Integration, task domain.PlugTask, anchorID string) (bool, error)
}

// Registry — реестр провайдеров по идентификатору.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry создаёт реестр и регистрирует переданные провайдеры.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register добавляет провайдер (повторная регистрация заменяет прежний).
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Identifier()] = p
}

// Get возвращает провайдер по идентификатору.
func (r *Registry) Get(identifier string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, identifier)
	}
	return p, nil
}

// Identifiers возвращает отсортированный список зарегистрированных провайдеров.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
