package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventAnalysisStarted  EventType = "ANALYSIS_STARTED"
	EventAnalysisComplete EventType = "ANALYSIS_COMPLETE"
	EventBuySignal        EventType = "BUY_SIGNAL"
	EventWeightsUpdated   EventType = "WEIGHTS_UPDATED"
	EventError            EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	// Set timestamp if not provided
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Notify specific subscribers
	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	// Notify all-event subscribers
	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishAnalysisStarted publishes an analysis started event
func (eb *EventBus) PublishAnalysisStarted(runID string, bars int) {
	eb.Publish(Event{
		Type: EventAnalysisStarted,
		Data: map[string]interface{}{
			"run_id": runID,
			"bars":   bars,
		},
	})
}

// PublishAnalysisComplete publishes an analysis complete event
func (eb *EventBus) PublishAnalysisComplete(runID string, bars, events int, elapsed time.Duration) {
	eb.Publish(Event{
		Type: EventAnalysisComplete,
		Data: map[string]interface{}{
			"run_id":     runID,
			"bars":       bars,
			"buy_events": events,
			"elapsed_ms": elapsed.Milliseconds(),
		},
	})
}

// PublishBuySignal publishes a buy signal event
func (eb *EventBus) PublishBuySignal(runID string, timestamp int64, confidence float64) {
	eb.Publish(Event{
		Type: EventBuySignal,
		Data: map[string]interface{}{
			"run_id":     runID,
			"timestamp":  timestamp,
			"confidence": confidence,
		},
	})
}

// PublishWeightsUpdated publishes a scoring weights change event
func (eb *EventBus) PublishWeightsUpdated(source string) {
	eb.Publish(Event{
		Type: EventWeightsUpdated,
		Data: map[string]interface{}{
			"source": source,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
