// Package status provides a thread-safe status tracker for the
// presenced daemon. It is read by HTTP handlers and updated from the
// ingestion and sweep paths.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/presence-engine/internal/delivery"
	"github.com/sweeney/presence-engine/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	HTTPAddr       string
	Broker         string
	Endpoint       string
	QueueCapacity  int
	SweepMs        int64
	AbsenceSweepMs int64
}

// Counts tracks the number of committed events since startup.
type Counts struct {
	CheckIns  int
	CheckOuts int
}

// Snapshot is a point-in-time view of daemon state. It is a value
// type, safe to use after the lock is released.
type Snapshot struct {
	TagsTracked   int
	InsideCount   int
	Counts        Counts
	Queue         delivery.Stats
	MQTTConnected bool
	StartTime     time.Time
	Now           time.Time
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex. Queue and MQTT
// state can be read live at snapshot time instead of pushed, so the
// status surface never lags the sweep cadence.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot

	queueStats    func() delivery.Stats
	mqttConnected func() bool
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// UpdateTags sets the tracked and inside tag counts.
func (t *Tracker) UpdateTags(tracked, inside int) {
	t.mu.Lock()
	t.snap.TagsTracked = tracked
	t.snap.InsideCount = inside
	t.mu.Unlock()
}

// CountEvent increments the counter for a committed event.
func (t *Tracker) CountEvent(kind logic.EventKind) {
	t.mu.Lock()
	switch kind {
	case logic.EventCheckIn:
		t.snap.Counts.CheckIns++
	case logic.EventCheckOut:
		t.snap.Counts.CheckOuts++
	}
	t.mu.Unlock()
}

// SetQueue sets the delivery queue statistics. Ignored once a live
// source is installed.
func (t *Tracker) SetQueue(stats delivery.Stats) {
	t.mu.Lock()
	t.snap.Queue = stats
	t.mu.Unlock()
}

// SetQueueSource installs a live provider for delivery queue
// statistics, read at snapshot time.
func (t *Tracker) SetQueueSource(fn func() delivery.Stats) {
	t.mu.Lock()
	t.queueStats = fn
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status. Ignored once a
// live source is installed.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetMQTTSource installs a live provider for the MQTT connection
// state, read at snapshot time.
func (t *Tracker) SetMQTTSource(fn func() bool) {
	t.mu.Lock()
	t.mqttConnected = fn
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	queueStats := t.queueStats
	mqttConnected := t.mqttConnected
	t.mu.RUnlock()

	// Live sources are called outside the lock.
	if queueStats != nil {
		s.Queue = queueStats()
	}
	if mqttConnected != nil {
		s.MQTTConnected = mqttConnected()
	}
	s.Now = time.Now()
	return s
}
