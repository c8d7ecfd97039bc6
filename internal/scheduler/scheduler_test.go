package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/mq"
	"github.com/shaiso/postflow/internal/orchestrator"
	"github.com/shaiso/postflow/internal/repo"
)

var tickNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakePosts struct {
	due        []domain.PostItem
	horizon    time.Time
	limit      int
	dispatched []string
	taken      map[string]bool
	listErr    error
}

func (f *fakePosts) ListDue(_ context.Context, horizon time.Time, limit int) ([]domain.PostItem, error) {
	f.horizon = horizon
	f.limit = limit
	return f.due, f.listErr
}

func (f *fakePosts) MarkDispatched(_ context.Context, id string, at time.Time) error {
	if f.taken[id] {
		return repo.ErrInvalidState
	}
	if !at.Equal(tickNow) {
		return errors.New("unexpected dispatch time")
	}
	f.dispatched = append(f.dispatched, id)
	return nil
}

type fakePublisher struct {
	payloads []mq.PostDuePayload
	err      error
}

func (f *fakePublisher) PublishPostDue(_ context.Context, payload mq.PostDuePayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeStarter struct {
	requests []domain.PublicationRequest
	err      error
}

func (f *fakeStarter) Start(_ context.Context, req domain.PublicationRequest, source string) (orchestrator.Execution, error) {
	if f.err != nil {
		return orchestrator.Execution{}, f.err
	}
	if source != orchestrator.SourceScheduler {
		return orchestrator.Execution{}, errors.New("unexpected source " + source)
	}
	f.requests = append(f.requests, req)
	return orchestrator.Execution{WorkflowID: "post_" + req.PostID}, nil
}

func duePost(id, provider string) domain.PostItem {
	return domain.PostItem{
		ID:             id,
		OrganizationID: "org1",
		Integration:    domain.Integration{ID: "i1", ProviderIdentifier: provider},
		State:          domain.PostStateQueue,
		PublishDate:    tickNow.Add(30 * time.Second),
	}
}

func newTestScheduler(cfg Config) *Scheduler {
	s := New(cfg)
	s.now = func() time.Time { return tickNow }
	return s
}

func TestTick_PublishesAndMarksDispatched(t *testing.T) {
	posts := &fakePosts{due: []domain.PostItem{duePost("p1", "x"), duePost("p2", "linkedin")}}
	pub := &fakePublisher{}

	s := newTestScheduler(Config{Posts: posts, Publisher: pub, Lookahead: 2 * time.Minute})
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !posts.horizon.Equal(tickNow.Add(2 * time.Minute)) {
		t.Errorf("unexpected horizon %v", posts.horizon)
	}
	if posts.limit != defaultBatchSize {
		t.Errorf("expected default batch size, got %d", posts.limit)
	}

	if len(pub.payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(pub.payloads))
	}
	if pub.payloads[1].PostID != "p2" || pub.payloads[1].Provider != "linkedin" || pub.payloads[1].OrganizationID != "org1" {
		t.Errorf("unexpected payload %+v", pub.payloads[1])
	}
	if len(posts.dispatched) != 2 {
		t.Errorf("expected 2 dispatched posts, got %v", posts.dispatched)
	}
}

func TestTick_FallsBackToStarter(t *testing.T) {
	posts := &fakePosts{due: []domain.PostItem{duePost("p1", "x")}}
	pub := &fakePublisher{err: mq.ErrNoChannel}
	starter := &fakeStarter{}

	s := newTestScheduler(Config{Posts: posts, Publisher: pub, Starter: starter})
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(starter.requests) != 1 {
		t.Fatalf("expected 1 direct start, got %d", len(starter.requests))
	}
	req := starter.requests[0]
	if req.TaskRoute != "x" || req.PostID != "p1" || req.PublishImmediately {
		t.Errorf("unexpected request %+v", req)
	}
	if len(posts.dispatched) != 1 {
		t.Errorf("expected post marked dispatched, got %v", posts.dispatched)
	}
}

func TestTick_PublishFailureWithoutStarterLeavesPostQueued(t *testing.T) {
	posts := &fakePosts{due: []domain.PostItem{duePost("p1", "x")}}
	pub := &fakePublisher{err: mq.ErrNoChannel}

	s := newTestScheduler(Config{Posts: posts, Publisher: pub})
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("tick must not fail on a single post: %v", err)
	}

	if len(posts.dispatched) != 0 {
		t.Errorf("post must stay undispatched, got %v", posts.dispatched)
	}
}

func TestTick_AlreadyDispatchedIsSkipped(t *testing.T) {
	posts := &fakePosts{
		due:   []domain.PostItem{duePost("p1", "x"), duePost("p2", "x")},
		taken: map[string]bool{"p1": true},
	}

	s := newTestScheduler(Config{Posts: posts, Publisher: &fakePublisher{}})
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(posts.dispatched) != 1 || posts.dispatched[0] != "p2" {
		t.Errorf("expected only p2 dispatched, got %v", posts.dispatched)
	}
}

func TestTick_ListError(t *testing.T) {
	posts := &fakePosts{listErr: errors.New("db down")}

	s := newTestScheduler(Config{Posts: posts, Publisher: &fakePublisher{}})
	if err := s.Tick(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestTick_NoDispatcher(t *testing.T) {
	posts := &fakePosts{due: []domain.PostItem{duePost("p1", "x")}}
	s := newTestScheduler(Config{Posts: posts})

	if err := s.dispatch(context.Background(), &posts.due[0], tickNow); !errors.Is(err, ErrNoDispatcher) {
		t.Fatalf("expected ErrNoDispatcher, got %v", err)
	}
}

func TestNew_Lookahead(t *testing.T) {
	if s := New(Config{}); s.lookahead != defaultLookahead {
		t.Errorf("expected default lookahead, got %v", s.lookahead)
	}
	if s := New(Config{Lookahead: -time.Second}); s.lookahead != 0 {
		t.Errorf("negative lookahead must clamp to 0, got %v", s.lookahead)
	}
}

type fakeLeader struct {
	leader   bool
	err      error
	released bool
}

func (f *fakeLeader) TryAcquire(context.Context) (bool, error) { return f.leader, f.err }
func (f *fakeLeader) Release(context.Context) { f.released = true }

func TestRunner_TicksOnlyAsLeader(t *testing.T) {
	posts := &fakePosts{due: []domain.PostItem{duePost("p1", "x")}}
	pub := &fakePublisher{}
	leader := &fakeLeader{}

	r, err := NewRunner(RunnerConfig{
		Scheduler: newTestScheduler(Config{Posts: posts, Publisher: pub}),
		Leader:    leader,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.runOnce(context.Background())
	if len(pub.payloads) != 0 {
		t.Fatal("follower must not tick")
	}

	leader.leader = true
	r.runOnce(context.Background())
	if len(pub.payloads) != 1 {
		t.Fatalf("leader must tick, got %d payloads", len(pub.payloads))
	}

	leader.err = errors.New("db down")
	r.runOnce(context.Background())
	if len(pub.payloads) != 1 {
		t.Error("election error must skip the tick")
	}
}

func TestRunner_StopReleasesLeadership(t *testing.T) {
	leader := &fakeLeader{}
	r, err := NewRunner(RunnerConfig{Scheduler: New(Config{}), Leader: leader, Spec: "@every 1h"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Stop()

	if !leader.released {
		t.Error("leadership must be released on stop")
	}
}

func TestValidateTickSpec(t *testing.T) {
	valid := []string{"@every 5s", "*/10 * * * * *", "0 * * * *"}
	for _, spec := range valid {
		if err := ValidateTickSpec(spec); err != nil {
			t.Errorf("%q: unexpected error %v", spec, err)
		}
	}

	if err := ValidateTickSpec("every five seconds"); err == nil {
		t.Error("expected error for invalid spec")
	}
	if _, err := NewRunner(RunnerConfig{Spec: "bogus"}); err == nil {
		t.Error("NewRunner must reject invalid spec")
	}
}
