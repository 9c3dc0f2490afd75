package mqtt

import (
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// RealListener subscribes to an actual MQTT broker.
type RealListener struct {
	client  paho.Client
	handler Handler
}

// NewRealListener creates a listener connected to the given broker.
func NewRealListener(broker string, handler Handler) (*RealListener, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("presenced").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &RealListener{
		client:  client,
		handler: handler,
	}, nil
}

// Start subscribes to the sighting topic. Malformed messages are
// dropped with a log line; they never reach the handler.
func (l *RealListener) Start() error {
	token := l.client.Subscribe(TopicFilter, 0, func(_ paho.Client, msg paho.Message) {
		s, err := ParseSighting(msg.Topic(), msg.Payload())
		if err != nil {
			log.Printf("mqtt: dropping message on %s: %v", msg.Topic(), err)
			return
		}
		l.handler(s)
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is active.
func (l *RealListener) IsConnected() bool {
	return l.client.IsConnected()
}

// Close disconnects from the broker.
func (l *RealListener) Close() error {
	l.client.Disconnect(1000) // 1 second timeout
	return nil
}
