package delivery

import "sync"

// FakeSender records delivery attempts for test assertions.
type FakeSender struct {
	mu sync.Mutex

	// Sent contains every successfully delivered event.
	Sent []Event

	// Err, if set, is returned by every Send.
	Err error

	// FailFirst makes the first N attempts fail before succeeding.
	FailFirst int

	attempts int
}

// NewFakeSender creates a FakeSender for testing.
func NewFakeSender() *FakeSender {
	return &FakeSender{}
}

// Send records the attempt and succeeds unless configured otherwise.
func (f *FakeSender) Send(event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts++
	if f.Err != nil {
		return f.Err
	}
	if f.attempts <= f.FailFirst {
		return errSimulated
	}

	f.Sent = append(f.Sent, event)
	return nil
}

// Attempts returns the total number of Send calls.
func (f *FakeSender) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

// Delivered returns a copy of the successfully sent events.
func (f *FakeSender) Delivered() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.Sent))
	copy(out, f.Sent)
	return out
}

type simulatedError string

func (e simulatedError) Error() string { return string(e) }

var errSimulated = simulatedError("simulated send failure")
