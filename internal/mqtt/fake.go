package mqtt

// FakeListener delivers injected sightings for test assertions.
type FakeListener struct {
	handler Handler

	// StartError, if set, will be returned by Start.
	StartError error

	// Started and Closed track lifecycle calls.
	Started bool
	Closed  bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakeListener creates a FakeListener for testing.
func NewFakeListener(handler Handler) *FakeListener {
	return &FakeListener{handler: handler}
}

// Start marks the listener as started.
func (f *FakeListener) Start() error {
	if f.StartError != nil {
		return f.StartError
	}
	f.Started = true
	return nil
}

// Inject delivers a sighting to the handler as if it arrived from the
// broker.
func (f *FakeListener) Inject(s Sighting) {
	f.handler(s)
}

// IsConnected reports the configured connection state.
func (f *FakeListener) IsConnected() bool {
	return f.Connected
}

// Close marks the listener as closed.
func (f *FakeListener) Close() error {
	f.Closed = true
	return nil
}
