package api

import (
	"encoding/json"
	"testing"
	"time"

	"confidence-engine/internal/events"
)

// TestWSHubBroadcast tests that a registered client receives broadcast events
func TestWSHubBroadcast(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()

	client := &WSClient{send: make(chan []byte, 4), hub: hub}
	hub.register <- client

	// Wait for the hub to pick up the registration
	deadline := time.Now().Add(time.Second)
	for hub.GetClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client was never registered")
		}
		time.Sleep(time.Millisecond)
	}

	hub.BroadcastEvent(events.Event{
		Type: events.EventBuySignal,
		Data: map[string]interface{}{"confidence": 99.9},
	})

	select {
	case msg := <-client.send:
		var ev events.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("bad broadcast payload: %v", err)
		}
		if ev.Type != events.EventBuySignal {
			t.Errorf("expected %s, got %s", events.EventBuySignal, ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never reached the client")
	}

	hub.unregister <- client
	deadline = time.Now().Add(time.Second)
	for hub.GetClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was never unregistered")
		}
		time.Sleep(time.Millisecond)
	}
}
