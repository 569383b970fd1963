package progress

import "sync"

// Indicator shows that a long-running step is in flight
type Indicator interface {
	Start(message string) Handle
}

// Handle ends a step started on an Indicator
type Handle interface {
	Succeed()
	Fail(message string)
}

// Run wraps fn in a step of ind. failMessage replaces message on failure when
// set. The value and error of fn are returned unchanged.
func Run[T any](ind Indicator, message, failMessage string, fn func() (T, error)) (T, error) {
	handle := ind.Start(message)

	value, err := fn()
	if err != nil {
		if failMessage == "" {
			failMessage = message
		}
		handle.Fail(failMessage)
		return value, err
	}

	handle.Succeed()
	return value, nil
}

// Do is Run for steps without a result
func Do(ind Indicator, message, failMessage string, fn func() error) error {
	_, err := Run(ind, message, failMessage, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Silent discards all progress output
type Silent struct{}

func (Silent) Start(string) Handle { return silentHandle{} }

type silentHandle struct{}

func (silentHandle) Succeed()    {}
func (silentHandle) Fail(string) {}

// EventKind is what happened to a recorded step
type EventKind string

const (
	EventStart   EventKind = "start"
	EventSucceed EventKind = "succeed"
	EventFail    EventKind = "fail"
)

// Event is one recorded step transition
type Event struct {
	Kind    EventKind
	Message string
}

// Recorder keeps every step transition in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Start(message string) Handle {
	r.record(EventStart, message)
	return &recorderHandle{recorder: r, message: message}
}

// Events returns a copy of the recorded transitions
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) record(kind EventKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: kind, Message: message})
}

type recorderHandle struct {
	recorder *Recorder
	message  string
}

func (h *recorderHandle) Succeed() {
	h.recorder.record(EventSucceed, h.message)
}

func (h *recorderHandle) Fail(message string) {
	h.recorder.record(EventFail, message)
}
