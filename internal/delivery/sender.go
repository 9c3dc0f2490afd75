package delivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/presence-engine/internal/logic"
)

// Event is a confirmed check-in or check-out bound for the automation
// endpoint.
type Event struct {
	ID        string
	Kind      logic.EventKind
	Identity  string
	Zone      string // empty = unknown
	Timestamp time.Time
}

// NewEvent creates an Event with a fresh identifier.
func NewEvent(kind logic.EventKind, identity, zone string, at time.Time) Event {
	return Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		Identity:  identity,
		Zone:      zone,
		Timestamp: at,
	}
}

// Sender performs one delivery attempt for an event.
type Sender interface {
	// Send returns error if delivery fails; a timeout or non-2xx
	// response counts as a failure.
	Send(event Event) error
}

// envelope is the wire format posted to the automation endpoint.
type envelope struct {
	EventID           string  `json:"event_id"`
	EventKind         string  `json:"event_kind"`
	IdentityReference string  `json:"identity_reference"`
	Timestamp         string  `json:"timestamp"`
	Zone              *string `json:"zone"`
	Token             string  `json:"token"`
}

// FormatEnvelope creates the JSON payload for an event.
func FormatEnvelope(event Event, token string) ([]byte, error) {
	env := envelope{
		EventID:           event.ID,
		EventKind:         string(event.Kind),
		IdentityReference: event.Identity,
		Timestamp:         event.Timestamp.UTC().Format(time.RFC3339),
		Token:             token,
	}
	if event.Zone != "" {
		env.Zone = &event.Zone
	}
	return json.Marshal(env)
}

// WebhookSender posts events to an HTTP automation endpoint.
type WebhookSender struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewWebhookSender creates a sender with a bounded request timeout.
func NewWebhookSender(endpoint, token string, timeout time.Duration) *WebhookSender {
	return &WebhookSender{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// Send posts the event envelope. Fire-and-forget semantics: the
// response body is discarded, only the status class matters.
func (s *WebhookSender) Send(event Event) error {
	payload, err := FormatEnvelope(event, s.token)
	if err != nil {
		return fmt.Errorf("format envelope: %w", err)
	}

	resp, err := s.client.Post(s.endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint returned %s", resp.Status)
	}
	return nil
}
