package activity

import (
	"context"
	"sync"
	"time"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/mq"
	"github.com/shaiso/postflow/internal/repo"
)

type fakePosts struct {
	mu        sync.Mutex
	group     []domain.PostItem
	published map[string]domain.PublishResult
	states    map[string]domain.PostState
	causes    map[string]string
}

func newFakePosts(group ...domain.PostItem) *fakePosts {
	return &fakePosts{
		group:     group,
		published: map[string]domain.PublishResult{},
		states:    map[string]domain.PostState{},
		causes:    map[string]string{},
	}
}

func (f *fakePosts) ListGroup(_ context.Context, _, _ string) ([]domain.PostItem, error) {
	return f.group, nil
}

func (f *fakePosts) MarkPublished(_ context.Context, id, releaseID, releaseURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[id] = domain.PublishResult{ItemID: id, ExternalID: releaseID, ReleaseURL: releaseURL}
	f.states[id] = domain.PostStatePublished
	return nil
}

func (f *fakePosts) ChangeState(_ context.Context, ids []string, state domain.PostState, cause string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.states[id] = state
		f.causes[id] = cause
	}
	return nil
}

type fakeIntegrations struct {
	mu            sync.Mutex
	byID          map[string]domain.Integration
	saved         map[string]domain.Token
	refreshNeeded map[string]bool
}

func newFakeIntegrations(integs ...domain.Integration) *fakeIntegrations {
	f := &fakeIntegrations{
		byID:          map[string]domain.Integration{},
		saved:         map[string]domain.Token{},
		refreshNeeded: map[string]bool{},
	}
	for _, i := range integs {
		f.byID[i.ID] = i
	}
	return f
}

func (f *fakeIntegrations) GetByID(_ context.Context, _, id string) (*domain.Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	integ, ok := f.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &integ, nil
}

func (f *fakeIntegrations) UpdateTokens(_ context.Context, id string, token domain.Token, _ *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[id] = token
	return nil
}

func (f *fakeIntegrations) SetRefreshNeeded(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshNeeded[id] = true
	return nil
}

type fakePlugs struct {
	global   []domain.GlobalPlug
	webhooks []domain.Webhook
}

func (f *fakePlugs) ListActive(_ context.Context, _ string) ([]domain.GlobalPlug, error) {
	return f.global, nil
}

func (f *fakePlugs) ListWebhooks(_ context.Context, _ string) ([]domain.Webhook, error) {
	return f.webhooks, nil
}

type fakeEvents struct {
	mu            sync.Mutex
	notifications []domain.Notification
	webhooks      []mq.WebhookPayload
	failWebhook   string
}

func (f *fakeEvents) PublishNotification(_ context.Context, n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeEvents) PublishWebhook(_ context.Context, payload mq.WebhookPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if payload.WebhookID == f.failWebhook {
		return errBrokerDown
	}
	f.webhooks = append(f.webhooks, payload)
	return nil
}

// fakeProvider — провайдер с настраиваемыми ответами.
type fakeProvider struct {
	id          string
	commentable bool
	plugs       map[string]bool

	postErr    error
	refresh    domain.Token
	refreshErr error
	plugErr    error
	satisfied  bool

	mu          sync.Mutex
	comments    []string
	plugCallsBy []string
}

func (p *fakeProvider) Identifier() string { return p.id }

func (p *fakeProvider) Commentable() bool { return p.commentable }

func (p *fakeProvider) SupportsInternalPlug(function string) bool { return p.plugs[function] }

func (p *fakeProvider) Post(_ context.Context, _ domain.Integration, items []domain.PostItem) ([]domain.PublishResult, error) {
	if p.postErr != nil {
		return nil, p.postErr
	}
	return []domain.PublishResult{{ItemID: items[0].ID, ExternalID: "ext-" + items[0].ID, ReleaseURL: "https://social/" + items[0].ID}}, nil
}

func (p *fakeProvider) Comment(_ context.Context, anchorID, parentID string, _ domain.Integration, items []domain.PostItem) ([]domain.PublishResult, error) {
	p.mu.Lock()
	p.comments = append(p.comments, anchorID+"/"+parentID)
	p.mu.Unlock()
	if p.postErr != nil {
		return nil, p.postErr
	}
	return []domain.PublishResult{{ItemID: items[0].ID, ExternalID: "ext-" + items[0].ID}}, nil
}

func (p *fakeProvider) RefreshToken(_ context.Context, _ domain.Integration) (domain.Token, error) {
	return p.refresh, p.refreshErr
}

func (p *fakeProvider) RunInternalPlug(_ context.Context, integ domain.Integration, _ domain.PlugTask, _ string) error {
	p.mu.Lock()
	p.plugCallsBy = append(p.plugCallsBy, integ.Token)
	p.mu.Unlock()
	return p.plugErr
}

func (p *fakeProvider) RunGlobalPlug(_ context.Context, _ domain.Integration, _ domain.PlugTask, _ string) (bool, error) {
	return p.satisfied, p.plugErr
}
