package pipeline

import (
	"sync"
	"time"

	"github.com/sweeney/presence-engine/internal/delivery"
)

// FakeStore is an in-memory TagStore and ReceiverDirectory for tests.
type FakeStore struct {
	mu sync.Mutex

	Tags  map[string]*Tag
	Zones map[string]string

	// Sightings records every RecordSighting call.
	Sightings []FakeSighting

	// TagErr, SightingErr and ZoneErr, if set, are returned by the
	// corresponding methods.
	TagErr      error
	SightingErr error
	ZoneErr     error

	// ZoneUpdates records UpdateTagZone calls as "tag=zone".
	ZoneUpdates []string
}

// FakeSighting is one recorded audit entry.
type FakeSighting struct {
	TagID      string
	ReceiverID string
	Strength   int
	At         time.Time
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		Tags:  make(map[string]*Tag),
		Zones: make(map[string]string),
	}
}

// Tag returns the configured record, or nil when absent.
func (f *FakeStore) Tag(id string) (*Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TagErr != nil {
		return nil, f.TagErr
	}
	return f.Tags[id], nil
}

// RecordSighting records the call.
func (f *FakeStore) RecordSighting(tagID, receiverID string, strength int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SightingErr != nil {
		return f.SightingErr
	}
	f.Sightings = append(f.Sightings, FakeSighting{tagID, receiverID, strength, at})
	return nil
}

// UpdateTagZone records the call.
func (f *FakeStore) UpdateTagZone(tagID, zone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ZoneUpdates = append(f.ZoneUpdates, tagID+"="+zone)
	return nil
}

// Zone returns the configured zone for the receiver.
func (f *FakeStore) Zone(receiverID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ZoneErr != nil {
		return "", f.ZoneErr
	}
	return f.Zones[receiverID], nil
}

// FakeIdentityService records check-in/check-out calls.
type FakeIdentityService struct {
	mu sync.Mutex

	// CheckIns and CheckOuts record identities in call order.
	CheckIns  []string
	CheckOuts []string

	// Err, if set, is returned by both operations.
	Err error
}

// NewFakeIdentityService creates a FakeIdentityService.
func NewFakeIdentityService() *FakeIdentityService {
	return &FakeIdentityService{}
}

// CheckIn records the call.
func (f *FakeIdentityService) CheckIn(identity, zone string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CheckIns = append(f.CheckIns, identity)
	return f.Err
}

// CheckOut records the call.
func (f *FakeIdentityService) CheckOut(identity, zone string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CheckOuts = append(f.CheckOuts, identity)
	return f.Err
}

// FakeSink collects delivered events.
type FakeSink struct {
	mu     sync.Mutex
	Events []delivery.Event
}

// NewFakeSink creates a FakeSink.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

// Deliver records the event.
func (f *FakeSink) Deliver(event delivery.Event) {
	f.mu.Lock()
	f.Events = append(f.Events, event)
	f.mu.Unlock()
}

// All returns a copy of the delivered events.
func (f *FakeSink) All() []delivery.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]delivery.Event, len(f.Events))
	copy(out, f.Events)
	return out
}
