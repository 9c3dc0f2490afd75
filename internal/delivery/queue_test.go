package delivery

import (
	"strconv"
	"testing"
	"time"
)

func testItem(n int) queuedItem {
	return queuedItem{
		event: Event{ID: strconv.Itoa(n), Identity: "alice"},
	}
}

func TestRingQueueEmptyDrain(t *testing.T) {
	rq := newRingQueue(10)
	got := rq.drainAll()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingQueuePushAndDrain(t *testing.T) {
	rq := newRingQueue(10)
	for i := 0; i < 5; i++ {
		if _, evicted := rq.push(testItem(i)); evicted {
			t.Errorf("item %d: unexpected eviction", i)
		}
	}

	got := rq.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].event.ID != strconv.Itoa(i) {
			t.Errorf("item %d: expected id %d, got %s", i, i, got[i].event.ID)
		}
	}

	// Second drain should be empty
	got2 := rq.drainAll()
	if got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestRingQueueEvictsOldest(t *testing.T) {
	cap := 5
	rq := newRingQueue(cap)

	// Push cap+3 items (0..7); the oldest 3 are evicted in order.
	for i := 0; i < cap; i++ {
		rq.push(testItem(i))
	}
	for i := cap; i < cap+3; i++ {
		evicted, ok := rq.push(testItem(i))
		if !ok {
			t.Fatalf("push %d: expected eviction", i)
		}
		want := strconv.Itoa(i - cap)
		if evicted.event.ID != want {
			t.Errorf("push %d: evicted id %s, want %s", i, evicted.event.ID, want)
		}
	}

	got := rq.drainAll()
	if len(got) != cap {
		t.Fatalf("expected %d items, got %d", cap, len(got))
	}
	for i := 0; i < cap; i++ {
		want := strconv.Itoa(i + 3)
		if got[i].event.ID != want {
			t.Errorf("item %d: expected id %s, got %s", i, want, got[i].event.ID)
		}
	}
}

func TestRingQueueNeverExceedsCapacity(t *testing.T) {
	cap := 4
	rq := newRingQueue(cap)
	for i := 0; i < 20; i++ {
		rq.push(testItem(i))
		if rq.len() > cap {
			t.Fatalf("push %d: len %d exceeds capacity %d", i, rq.len(), cap)
		}
	}
}

func TestRingQueueOldest(t *testing.T) {
	rq := newRingQueue(5)
	if _, ok := rq.oldest(); ok {
		t.Error("expected no oldest item in empty queue")
	}

	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rq.push(queuedItem{event: Event{ID: "a"}, enqueuedAt: at})
	rq.push(queuedItem{event: Event{ID: "b"}, enqueuedAt: at.Add(time.Second)})

	it, ok := rq.oldest()
	if !ok || it.event.ID != "a" {
		t.Errorf("expected oldest id a, got %+v ok=%v", it, ok)
	}
	if rq.len() != 2 {
		t.Errorf("oldest should not remove: len %d, want 2", rq.len())
	}
}

func TestRingQueuePreservesFields(t *testing.T) {
	rq := newRingQueue(5)
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rq.push(queuedItem{
		event:      Event{ID: "x", Identity: "alice", Zone: "lounge"},
		enqueuedAt: at,
		retryCount: 2,
	})

	got := rq.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].event.Identity != "alice" || got[0].event.Zone != "lounge" {
		t.Errorf("event fields lost: %+v", got[0].event)
	}
	if !got[0].enqueuedAt.Equal(at) {
		t.Errorf("enqueuedAt: got %v, want %v", got[0].enqueuedAt, at)
	}
	if got[0].retryCount != 2 {
		t.Errorf("retryCount: got %d, want 2", got[0].retryCount)
	}
}
