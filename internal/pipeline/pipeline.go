package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/sweeney/presence-engine/internal/delivery"
	"github.com/sweeney/presence-engine/internal/logic"
)

// Result is the structured outcome of ingesting one sighting. Input
// problems are reported here, never as errors up the call stack.
type Result struct {
	Processed bool
	Reason    string // set when Processed is false

	// The remaining fields are meaningful only for claimed tags.
	Identity       string
	Zone           string // receiver's zone, empty when unassociated
	StateChanged   bool
	NewState       logic.Zone
	ShouldCheckIn  bool
	ShouldCheckOut bool
}

// Pipeline resolves raw sightings and drives per-tag state machines.
type Pipeline struct {
	store      TagStore
	receivers  ReceiverDirectory
	identities IdentityService
	sink       EventSink
	profiles   *Profiles
	registry   *Registry
	now        func() time.Time
}

// New creates a Pipeline with an empty registry.
func New(store TagStore, receivers ReceiverDirectory, identities IdentityService, sink EventSink, profiles *Profiles) *Pipeline {
	return &Pipeline{
		store:      store,
		receivers:  receivers,
		identities: identities,
		sink:       sink,
		profiles:   profiles,
		registry:   NewRegistry(),
		now:        time.Now,
	}
}

// Registry exposes the runtime state for status consumers.
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// Ingest processes one raw sighting. Unknown tags short-circuit with no
// side effects; unclaimed tags are audited but drive no machine. The
// returned error covers store failures only, never input problems.
func (p *Pipeline) Ingest(tagID, receiverID string, strength int) (Result, error) {
	now := p.now()

	tag, err := p.store.Tag(tagID)
	if err != nil {
		return Result{}, fmt.Errorf("resolve tag %s: %w", tagID, err)
	}
	if tag == nil {
		return Result{Reason: ReasonUnknownTag}, nil
	}

	zone := p.zoneFor(receiverID)

	if err := p.store.RecordSighting(tagID, receiverID, strength, now); err != nil {
		// Audit is best-effort; presence tracking continues.
		log.Printf("pipeline: record sighting for %s: %v", tagID, err)
	}

	if tag.Identity == "" {
		return Result{Processed: true, Zone: zone}, nil
	}

	e := p.registry.getOrCreate(tagID, p.profiles.Select(tag.Profile), tag.Identity)
	e.mu.Lock()
	res := e.machine.Process(logic.Reading{
		Strength: strength,
		Receiver: receiverID,
		Time:     now,
	})
	e.mu.Unlock()

	if res.StateChanged {
		if err := p.store.UpdateTagZone(tagID, string(res.NewState)); err != nil {
			log.Printf("pipeline: update zone for %s: %v", tagID, err)
		}
	}
	if res.ShouldCheckIn {
		p.commit(logic.EventCheckIn, tag.Identity, zone, now)
	}
	if res.ShouldCheckOut {
		p.commit(logic.EventCheckOut, tag.Identity, zone, now)
	}

	return Result{
		Processed:      true,
		Identity:       tag.Identity,
		Zone:           zone,
		StateChanged:   res.StateChanged,
		NewState:       res.NewState,
		ShouldCheckIn:  res.ShouldCheckIn,
		ShouldCheckOut: res.ShouldCheckOut,
	}, nil
}

// SweepAbsent applies the absence policy to every tracked tag. A tag
// inside whose silence has reached its profile's timeout is forced out
// through the same side-effect path as a confirmed sighting.
func (p *Pipeline) SweepAbsent() {
	now := p.now()
	for _, id := range p.registry.ids() {
		e, ok := p.registry.get(id)
		if !ok {
			continue
		}

		e.mu.Lock()
		res := e.machine.Absent(now)
		identity := e.identity
		var receiver string
		if last, ok := e.machine.LastReading(); ok {
			receiver = last.Receiver
		}
		e.mu.Unlock()

		if !res.ShouldCheckOut {
			continue
		}

		log.Printf("pipeline: %s silent past absence timeout, forcing check-out", id)
		if err := p.store.UpdateTagZone(id, string(res.NewState)); err != nil {
			log.Printf("pipeline: update zone for %s: %v", id, err)
		}
		p.commit(logic.EventCheckOut, identity, p.zoneFor(receiver), now)
	}
}

// commit notifies the identity service and hands the event to delivery.
// The physical fact already happened: a failing collaborator is logged
// and never rolls back the machine's committed transition.
func (p *Pipeline) commit(kind logic.EventKind, identity, zone string, at time.Time) {
	var err error
	switch kind {
	case logic.EventCheckIn:
		err = p.identities.CheckIn(identity, zone, at)
	case logic.EventCheckOut:
		err = p.identities.CheckOut(identity, zone, at)
	}
	if err != nil {
		log.Printf("pipeline: %s for %s: %v", kind, identity, err)
	}

	p.sink.Deliver(delivery.NewEvent(kind, identity, zone, at))
}

func (p *Pipeline) zoneFor(receiverID string) string {
	if receiverID == "" {
		return ""
	}
	zone, err := p.receivers.Zone(receiverID)
	if err != nil {
		log.Printf("pipeline: zone lookup for %s: %v", receiverID, err)
		return ""
	}
	return zone
}
