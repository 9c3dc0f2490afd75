// Package mqtt receives tag sightings published by receivers, with
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TopicPrefix is the topic receivers publish sightings under. The last
// topic level is the receiver identifier.
const TopicPrefix = "presence/sightings/"

// TopicFilter is the subscription filter covering all receivers.
const TopicFilter = TopicPrefix + "+"

// Sighting is one parsed inbound observation.
type Sighting struct {
	TagID      string
	ReceiverID string
	Strength   int
}

// Handler consumes parsed sightings. May be called concurrently.
type Handler func(s Sighting)

// Listener receives sightings from the broker.
type Listener interface {
	// Start subscribes and begins delivering sightings to the handler.
	Start() error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// sightingPayload is the JSON body receivers publish.
type sightingPayload struct {
	TagID string `json:"tag_id"`
	RSSI  *int   `json:"rssi"`
}

// ParseSighting parses a message topic and payload into a Sighting.
// Malformed messages are rejected here so the pipeline never sees them.
func ParseSighting(topic string, body []byte) (Sighting, error) {
	if !strings.HasPrefix(topic, TopicPrefix) {
		return Sighting{}, fmt.Errorf("unexpected topic %q", topic)
	}
	receiver := strings.TrimPrefix(topic, TopicPrefix)
	if receiver == "" || strings.Contains(receiver, "/") {
		return Sighting{}, fmt.Errorf("bad receiver id in topic %q", topic)
	}

	var p sightingPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Sighting{}, fmt.Errorf("parse payload: %w", err)
	}
	if p.TagID == "" {
		return Sighting{}, fmt.Errorf("tag_id required")
	}
	if p.RSSI == nil {
		return Sighting{}, fmt.Errorf("rssi required")
	}

	return Sighting{
		TagID:      p.TagID,
		ReceiverID: receiver,
		Strength:   *p.RSSI,
	}, nil
}
