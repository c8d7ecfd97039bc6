package publication

import (
	"testing"
	"time"

	"github.com/shaiso/postflow/internal/domain"
)

func TestBuildPlugQueue_SortsStable(t *testing.T) {
	internal := []domain.PlugTask{
		domain.NewInternalPlug("i2", "repost", 20, nil),
		domain.NewInternalPlug("i3", "repost", 10, nil),
	}
	global := []domain.GlobalPlug{{ID: "g1", Function: "likes", DelayMs: 10, TotalRuns: 3, Activated: true}}
	repeat := []domain.PlugTask{domain.NewRepeatPost(15 * time.Millisecond)}

	queue := buildPlugQueue(internal, global, repeat)

	want := []struct {
		kind  domain.PlugKind
		delay int64
	}{
		{domain.PlugKindInternal, 10},
		{domain.PlugKindGlobal, 10},
		{domain.PlugKindRepeat, 15},
		{domain.PlugKindInternal, 20},
		{domain.PlugKindGlobal, 20},
		{domain.PlugKindGlobal, 30},
	}
	if len(queue) != len(want) {
		t.Fatalf("expected %d tasks, got %d: %v", len(want), len(queue), queue)
	}
	for i, w := range want {
		if queue[i].Kind != w.kind || queue[i].DelayMs != w.delay {
			t.Errorf("task %d: expected %s+%d, got %s", i, w.kind, w.delay, queue[i])
		}
	}
}

func TestBuildPlugQueue_GlobalExpansionSharesPlugID(t *testing.T) {
	queue := buildPlugQueue(nil, []domain.GlobalPlug{{ID: "g1", DelayMs: 10, TotalRuns: 3, Activated: true}}, nil)

	if len(queue) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(queue))
	}
	for i, task := range queue {
		if task.PlugID != "g1" {
			t.Errorf("task %d: expected plug g1, got %s", i, task.PlugID)
		}
		if task.DelayMs != int64(10*(i+1)) {
			t.Errorf("task %d: expected delay %d, got %d", i, 10*(i+1), task.DelayMs)
		}
	}
}

func TestDropPlug(t *testing.T) {
	queue := []domain.PlugTask{
		domain.NewGlobalPlug("g1", "i1", "likes", 20, nil),
		domain.NewInternalPlug("i2", "repost", 25, nil),
		domain.NewGlobalPlug("g2", "i1", "likes", 30, nil),
		domain.NewGlobalPlug("g1", "i1", "likes", 30, nil),
	}

	kept := dropPlug(queue, "g1")

	if len(kept) != 2 {
		t.Fatalf("expected 2 tasks, got %d: %v", len(kept), kept)
	}
	if kept[0].Kind != domain.PlugKindInternal || kept[1].PlugID != "g2" {
		t.Errorf("unexpected remaining tasks %v", kept)
	}
}

func TestRepeatDelay(t *testing.T) {
	tests := []struct {
		name    string
		days    int
		elapsed time.Duration
		want    time.Duration
	}{
		{"fresh start", 1, 0, 24 * time.Hour},
		{"after sleep", 7, 2 * time.Hour, 7*24*time.Hour - 2*time.Hour},
		{"elapsed beyond interval", 1, 30 * time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repeatDelay(tt.days, tt.elapsed); got != tt.want {
				t.Errorf("repeatDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRandomID(t *testing.T) {
	id := randomID(repeatSuffixLen)
	if len(id) != repeatSuffixLen {
		t.Fatalf("expected length %d, got %d", repeatSuffixLen, len(id))
	}
	for _, c := range id {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			t.Errorf("unexpected character %q in %s", c, id)
		}
	}
}
