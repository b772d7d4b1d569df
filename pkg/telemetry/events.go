package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents an observability event emitted during mesh loading.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred, in UTC.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Level is the event severity level (DEBUG, INFO, WARN, ERROR).
	Level string `json:"level"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Context contains additional event-specific data.
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeLoadStarted     = "load.started"
	EventTypeLoadCompleted   = "load.completed"
	EventTypeLoadFailed      = "load.failed"
	EventTypeFallbackStarted = "load.fallback"
	EventTypeFormatMismatch  = "detect.mismatch"
	EventTypeWatchdogExpired = "bridge.watchdog"
	EventTypeBuffersReleased = "buffers.released"
)

// Event level constants.
const (
	EventLevelDebug = "DEBUG"
	EventLevelInfo  = "INFO"
	EventLevelWarn  = "WARN"
	EventLevelError = "ERROR"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// Channel is a synchronous publish/subscribe hub for loader events. It
// keeps a bounded ring of the most recent events and replays them to
// subscribers that attach after publishing started, so a UI panel opened
// mid-session still sees the history that led to the current state.
//
// Delivery is synchronous and ordered. A subscriber that panics is
// recovered and skipped for that event; the panic never blocks delivery
// to the remaining subscribers. Handlers must return promptly and must
// not call back into the channel.
type Channel struct {
	config EventsConfig

	mu          sync.Mutex
	ring        []Event
	head        int
	count       int
	subscribers map[uint64]EventSubscriber
	nextSubID   uint64
}

// NewChannel creates a new event channel with the given configuration.
func NewChannel(cfg EventsConfig) (*Channel, error) {
	if !cfg.Enabled {
		return &Channel{config: cfg}, nil
	}
	if cfg.RingCapacity <= 0 {
		return nil, fmt.Errorf("event ring capacity must be positive, got: %d", cfg.RingCapacity)
	}

	return &Channel{
		config:      cfg,
		ring:        make([]Event, cfg.RingCapacity),
		subscribers: make(map[uint64]EventSubscriber),
	}, nil
}

// Publish records an event in the ring and delivers it to all current
// subscribers in subscription order.
func (c *Channel) Publish(event Event) {
	if !c.config.Enabled {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	} else {
		event.Timestamp = event.Timestamp.UTC()
	}
	if event.Level == "" {
		event.Level = EventLevelInfo
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ring[(c.head+c.count)%len(c.ring)] = event
	if c.count < len(c.ring) {
		c.count++
	} else {
		c.head = (c.head + 1) % len(c.ring)
	}

	for _, id := range c.subscriberOrder() {
		deliver(c.subscribers[id], event)
	}
}

// Subscribe registers a subscriber, replays the ring of recent events to
// it, and returns a function that removes the subscription. The returned
// function is safe to call more than once.
func (c *Channel) Subscribe(subscriber EventSubscriber) (unsubscribe func()) {
	if !c.config.Enabled {
		return func() {}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < c.count; i++ {
		deliver(subscriber, c.ring[(c.head+i)%len(c.ring)])
	}

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = subscriber

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Snapshot returns a copy of the buffered events in chronological order.
func (c *Channel) Snapshot() []Event {
	if !c.config.Enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	events := make([]Event, c.count)
	for i := 0; i < c.count; i++ {
		events[i] = c.ring[(c.head+i)%len(c.ring)]
	}
	return events
}

// SubscriberCount returns the number of active subscriptions.
func (c *Channel) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscribers)
}

// subscriberOrder returns subscription ids sorted by registration order.
// The id counter is monotonic, so insertion order is ascending id order.
func (c *Channel) subscriberOrder() []uint64 {
	ids := make([]uint64, 0, len(c.subscribers))
	for id := range c.subscribers {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// deliver invokes a subscriber, recovering a panic so one misbehaving
// subscriber cannot stop delivery to the others.
func deliver(subscriber EventSubscriber, event Event) {
	defer func() {
		_ = recover()
	}()
	subscriber(event)
}

// PublishLoadStarted publishes a load started event.
func (c *Channel) PublishLoadStarted(assetID, fileName string, sizeBytes int64) {
	c.Publish(Event{
		Type:    EventTypeLoadStarted,
		Level:   EventLevelInfo,
		Message: fmt.Sprintf("Loading %s (%d bytes)", fileName, sizeBytes),
		Context: map[string]interface{}{
			"asset_id":   assetID,
			"file_name":  fileName,
			"size_bytes": sizeBytes,
		},
	})
}

// PublishLoadCompleted publishes a load completed event.
func (c *Channel) PublishLoadCompleted(assetID, format string, triangles int, duration time.Duration) {
	c.Publish(Event{
		Type:    EventTypeLoadCompleted,
		Level:   EventLevelInfo,
		Message: fmt.Sprintf("Loaded %s mesh with %d triangles", format, triangles),
		Context: map[string]interface{}{
			"asset_id":  assetID,
			"format":    format,
			"triangles": triangles,
			"duration":  duration.Seconds(),
		},
	})
}

// PublishLoadFailed publishes a load failed event.
func (c *Channel) PublishLoadFailed(assetID, code, reason string) {
	c.Publish(Event{
		Type:    EventTypeLoadFailed,
		Level:   EventLevelError,
		Message: fmt.Sprintf("Load failed: %s", reason),
		Context: map[string]interface{}{
			"asset_id": assetID,
			"code":     code,
			"reason":   reason,
		},
	})
}

// PublishFallbackStarted publishes an event for a fast-to-exact decode
// fallback.
func (c *Channel) PublishFallbackStarted(assetID, format, reason string) {
	c.Publish(Event{
		Type:    EventTypeFallbackStarted,
		Level:   EventLevelWarn,
		Message: fmt.Sprintf("Fast decode failed for %s mesh, retrying with exact decoder", format),
		Context: map[string]interface{}{
			"asset_id": assetID,
			"format":   format,
			"reason":   reason,
		},
	})
}

// PublishFormatMismatch publishes an event for a file whose content
// disagrees with its name or MIME type.
func (c *Channel) PublishFormatMismatch(fileName, detected, expected string) {
	c.Publish(Event{
		Type:    EventTypeFormatMismatch,
		Level:   EventLevelWarn,
		Message: fmt.Sprintf("File %s looks like %s but its name suggests %s", fileName, detected, expected),
		Context: map[string]interface{}{
			"file_name": fileName,
			"detected":  detected,
			"expected":  expected,
		},
	})
}

// PublishWatchdogExpired publishes a diagnostic event for a foreign
// decode call that exceeded the watchdog interval. The call itself keeps
// running.
func (c *Channel) PublishWatchdogExpired(assetID string, generation uint64, elapsed time.Duration) {
	c.Publish(Event{
		Type:    EventTypeWatchdogExpired,
		Level:   EventLevelWarn,
		Message: fmt.Sprintf("Foreign decode still running after %s", elapsed),
		Context: map[string]interface{}{
			"asset_id":   assetID,
			"generation": generation,
			"elapsed":    elapsed.Seconds(),
		},
	})
}

// PublishBuffersReleased publishes an event for a released buffer
// generation.
func (c *Channel) PublishBuffersReleased(generation uint64) {
	c.Publish(Event{
		Type:    EventTypeBuffersReleased,
		Level:   EventLevelDebug,
		Message: fmt.Sprintf("Released buffers for generation %d", generation),
		Context: map[string]interface{}{
			"generation": generation,
		},
	})
}
