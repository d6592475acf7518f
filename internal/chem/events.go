package chem

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// EventKind identifies what happened in the engine.
type EventKind string

const (
	EventBondCreated       EventKind = "bond_created"
	EventBondBroken        EventKind = "bond_broken"
	EventMoleculeFormed    EventKind = "molecule_formed"
	EventMoleculeBroken    EventKind = "molecule_broken"
	EventReactionStarted   EventKind = "reaction_started"
	EventReactionCompleted EventKind = "reaction_completed"
	EventEnergyAdded       EventKind = "energy_added"
)

// Event is the payload delivered to subscribers when the engine
// mutates observable state.
type Event struct {
	Kind      EventKind `json:"kind"`
	Tick      uint64    `json:"tick"`
	Timestamp int64     `json:"timestamp"`

	Bond            *Bond     `json:"bond,omitempty"`
	Molecule        *Molecule `json:"molecule,omitempty"`
	NewlyDiscovered bool      `json:"newly_discovered,omitempty"`
	Reaction        string    `json:"reaction,omitempty"`
	Amount          float64   `json:"amount,omitempty"`
}

// JSON returns the event as JSON bytes
func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Notifier is the interface that all event delivery channels must implement
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the type of notifier (e.g. "webhook", "websocket")
	Type() string

	// Notify delivers an event. Returns an error if delivery fails.
	// The context can be used for cancellation and timeout.
	Notify(ctx context.Context, event Event) error

	// Close closes the notifier and releases any resources
	Close() error
}

// EventCenter fans engine events out to all registered notifiers.
// Delivery is asynchronous and best-effort: a full queue drops events
// rather than stalling the simulation tick.
type EventCenter struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	jobs      chan Event
	closed    bool
	wg        sync.WaitGroup
	log       Logger
}

// NewEventCenter creates an event center with a no-op logger.
func NewEventCenter() *EventCenter {
	return NewEventCenterWithLogger(NewNoOpLogger())
}

// NewEventCenterWithLogger creates an event center logging through
// the given logger.
func NewEventCenterWithLogger(log Logger) *EventCenter {
	ec := &EventCenter{
		notifiers: make(map[string]Notifier),
		jobs:      make(chan Event, 1024),
		log:       log,
	}
	ec.startWorkers(1)
	return ec
}

// RegisterNotifier registers a notifier with the event center
func (ec *EventCenter) RegisterNotifier(notifier Notifier) error {
	if notifier == nil {
		return fmt.Errorf("notifier cannot be nil")
	}

	id := notifier.ID()
	if id == "" {
		return fmt.Errorf("notifier ID cannot be empty")
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()

	if _, exists := ec.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}

	ec.notifiers[id] = notifier
	return nil
}

// UnregisterNotifier removes a notifier from the event center
func (ec *EventCenter) UnregisterNotifier(id string) error {
	ec.mu.Lock()
	notifier, exists := ec.notifiers[id]
	ec.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}

	if err := notifier.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}

	ec.mu.Lock()
	delete(ec.notifiers, id)
	ec.mu.Unlock()

	return nil
}

// GetNotifier retrieves a notifier by ID
func (ec *EventCenter) GetNotifier(id string) (Notifier, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	notifier, exists := ec.notifiers[id]
	return notifier, exists
}

// ListNotifiers returns a list of all registered notifier IDs
func (ec *EventCenter) ListNotifiers() []string {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	ids := make([]string, 0, len(ec.notifiers))
	for id := range ec.notifiers {
		ids = append(ids, id)
	}
	return ids
}

// Publish enqueues an event for asynchronous delivery to every
// registered notifier. Non-blocking: if the queue is full the event
// is dropped and logged.
func (ec *EventCenter) Publish(event Event) {
	ec.mu.RLock()
	closed := ec.closed
	ec.mu.RUnlock()

	if closed {
		return
	}

	select {
	case ec.jobs <- event:
	default:
		ec.log.Warnf("event queue full, dropping event: kind=%s tick=%d", event.Kind, event.Tick)
	}
}

// startWorkers starts n worker goroutines to process event jobs
func (ec *EventCenter) startWorkers(n int) {
	for i := 0; i < n; i++ {
		ec.wg.Add(1)
		go ec.worker()
	}
}

func (ec *EventCenter) worker() {
	defer ec.wg.Done()
	for event := range ec.jobs {
		ec.dispatch(event)
	}
}

// dispatch delivers an event to all notifiers registered at dispatch time
func (ec *EventCenter) dispatch(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ec.mu.RLock()
	ids := make([]string, 0, len(ec.notifiers))
	for id := range ec.notifiers {
		ids = append(ids, id)
	}
	ec.mu.RUnlock()

	for _, id := range ids {
		ec.notifyWithRetry(ctx, id, event)
	}
}

// notifyWithRetry attempts delivery with exponential backoff retry
func (ec *EventCenter) notifyWithRetry(ctx context.Context, notifierID string, event Event) {
	ec.mu.RLock()
	notifier, ok := ec.notifiers[notifierID]
	ec.mu.RUnlock()

	if !ok {
		// Unregistered between dispatch and delivery
		return
	}

	const maxRetries = 3
	backoff := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := notifier.Notify(ctx, event)
		if err == nil {
			return
		}

		ec.log.Warnf("event delivery failed: notifier=%s attempt=%d error=%v", notifierID, attempt+1, err)

		if attempt == maxRetries {
			ec.log.Errorf("event delivery failed after %d attempts: notifier=%s", maxRetries+1, notifierID)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Close closes all registered notifiers and shuts down worker goroutines
func (ec *EventCenter) Close() error {
	ec.mu.Lock()
	if ec.closed {
		ec.mu.Unlock()
		return nil
	}
	ec.closed = true
	close(ec.jobs)
	ec.mu.Unlock()

	// Wait for in-flight deliveries to finish
	ec.wg.Wait()

	ec.mu.Lock()
	var errs []error
	for id, notifier := range ec.notifiers {
		if err := notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	ec.notifiers = make(map[string]Notifier)
	ec.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("errors closing notifiers: %v", errs)
	}

	return nil
}
