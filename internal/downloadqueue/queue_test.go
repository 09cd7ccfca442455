package downloadqueue

import (
	"testing"
	"time"

	"github.com/fastanime/fastanime-core/internal/config"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(config.DownloaderConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestDequeueReturnsHighestPriorityFirst(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	now := time.Now().UTC()
	items := []Item{
		{MediaID: 1, EpisodeNumber: 1, Priority: 1, AddedAt: now, MaxRetries: 3},
		{MediaID: 1, EpisodeNumber: 2, Priority: 5, AddedAt: now, MaxRetries: 3},
		{MediaID: 1, EpisodeNumber: 3, Priority: 3, AddedAt: now, MaxRetries: 3},
	}
	for _, it := range items {
		if err := q.Enqueue(it); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	got, ok, err := q.Dequeue()
	if err != nil || !ok {
		t.Fatalf("Dequeue: ok=%v err=%v", ok, err)
	}
	if got.EpisodeNumber != 2 {
		t.Errorf("expected episode 2 (priority 5) first, got %d", got.EpisodeNumber)
	}
}

func TestDequeueBreaksTiesByAddedAtAscending(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := base.Add(time.Minute)

	if err := q.Enqueue(Item{MediaID: 1, EpisodeNumber: 2, Priority: 1, AddedAt: later, MaxRetries: 3}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(Item{MediaID: 1, EpisodeNumber: 1, Priority: 1, AddedAt: base, MaxRetries: 3}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	got, ok, err := q.Dequeue()
	if err != nil || !ok {
		t.Fatalf("Dequeue: ok=%v err=%v", ok, err)
	}
	if got.EpisodeNumber != 1 {
		t.Errorf("expected earlier-added episode 1 first, got %d", got.EpisodeNumber)
	}
}

func TestDequeueSkipsItemsAtMaxRetries(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	now := time.Now().UTC()
	if err := q.Enqueue(Item{MediaID: 1, EpisodeNumber: 1, Priority: 10, AddedAt: now, RetryCount: 3, MaxRetries: 3}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(Item{MediaID: 1, EpisodeNumber: 2, Priority: 1, AddedAt: now, MaxRetries: 3}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	got, ok, err := q.Dequeue()
	if err != nil || !ok {
		t.Fatalf("Dequeue: ok=%v err=%v", ok, err)
	}
	if got.EpisodeNumber != 2 {
		t.Errorf("expected episode 2 (below max retries), got %d", got.EpisodeNumber)
	}
}

func TestDequeueOnEmptyQueueReturnsNotOK(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	_, ok, err := q.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if ok {
		t.Fatal("expected no item on an empty queue")
	}
}

func TestRemoveDeletesQueuedItem(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	if err := q.Enqueue(Item{MediaID: 1, EpisodeNumber: 1, Priority: 1, AddedAt: time.Now().UTC(), MaxRetries: 3}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Remove(1, 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	_, ok, err := q.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if ok {
		t.Fatal("expected queue to be empty after Remove")
	}
}

func TestListFiltersByMediaID(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t)

	now := time.Now().UTC()
	if err := q.Enqueue(Item{MediaID: 1, EpisodeNumber: 1, Priority: 1, AddedAt: now, MaxRetries: 3}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(Item{MediaID: 2, EpisodeNumber: 1, Priority: 1, AddedAt: now, MaxRetries: 3}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	mediaID := 1
	items, err := q.List(&mediaID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].MediaID != 1 {
		t.Errorf("List(1) = %+v, want exactly one item for media 1", items)
	}

	all, err := q.List(nil)
	if err != nil {
		t.Fatalf("List(nil): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(nil) returned %d items, want 2", len(all))
	}
}
