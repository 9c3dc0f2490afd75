package delivery

import "time"

// queuedItem holds an undelivered event awaiting the background sweep.
type queuedItem struct {
	event      Event
	enqueuedAt time.Time
	retryCount int
}

// ringQueue is a fixed-capacity FIFO of undelivered events.
// Not safe for concurrent use — caller must synchronize.
type ringQueue struct {
	buf      []queuedItem
	capacity int
	head     int // next write position
	count    int
}

func newRingQueue(capacity int) *ringQueue {
	return &ringQueue{
		buf:      make([]queuedItem, capacity),
		capacity: capacity,
	}
}

// push appends an item, evicting the oldest when full. Recency is
// preferred over completeness: stale presence events are of diminishing
// value. Returns the evicted item if one was dropped.
func (r *ringQueue) push(it queuedItem) (queuedItem, bool) {
	if r.count == r.capacity {
		// Overwrite oldest: head is already pointing at it
		evicted := r.buf[r.head]
		r.buf[r.head] = it
		r.head = (r.head + 1) % r.capacity
		return evicted, true
	}
	r.buf[r.head] = it
	r.head = (r.head + 1) % r.capacity
	r.count++
	return queuedItem{}, false
}

func (r *ringQueue) drainAll() []queuedItem {
	if r.count == 0 {
		return nil
	}

	result := make([]queuedItem, r.count)
	// Oldest item is at (head - count) mod capacity
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}

	r.count = 0
	r.head = 0
	return result
}

// oldest returns the oldest queued item without removing it.
func (r *ringQueue) oldest() (queuedItem, bool) {
	if r.count == 0 {
		return queuedItem{}, false
	}
	start := (r.head - r.count + r.capacity) % r.capacity
	return r.buf[start], true
}

func (r *ringQueue) len() int {
	return r.count
}
