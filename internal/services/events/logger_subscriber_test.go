package events

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
)

// TestNewLoggerSubscriber verifies that the logger subscriber logs events
func TestNewLoggerSubscriber(t *testing.T) {
	logger := arbor.NewLogger()

	subscriber := NewLoggerSubscriber(logger)

	ctx := context.Background()
	event := interfaces.Event{
		Type: interfaces.EventJobStarted,
		Payload: map[string]interface{}{
			"job_id": "test-job-123",
			"type":   "discovery",
			"status": "running",
		},
	}

	err := subscriber(ctx, event)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	// Events without payloads still log.
	event2 := interfaces.Event{
		Type:    interfaces.EventJobProgress,
		Payload: nil,
	}

	err = subscriber(ctx, event2)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

// TestSubscribeLoggerToAllEvents verifies logger is subscribed to all event types
func TestSubscribeLoggerToAllEvents(t *testing.T) {
	logger := arbor.NewLogger()

	eventService := NewService(logger)
	defer eventService.Close()

	if err := SubscribeLoggerToAllEvents(eventService, logger); err != nil {
		t.Fatalf("SubscribeLoggerToAllEvents: %v", err)
	}

	ctx := context.Background()
	eventTypes := []interfaces.EventType{
		interfaces.EventJobQueued,
		interfaces.EventJobStarted,
		interfaces.EventJobProgress,
		interfaces.EventJobLog,
		interfaces.EventJobCompleted,
		interfaces.EventJobCancelled,
		interfaces.EventJobFailed,
	}

	for _, eventType := range eventTypes {
		event := interfaces.Event{
			Type:    eventType,
			Payload: map[string]interface{}{"job_id": "test-job"},
		}

		if err := eventService.PublishSync(ctx, event); err != nil {
			t.Errorf("Expected no error publishing %s event, got: %v", eventType, err)
		}
	}
}

// TestLoggerSubscriberDoesNotInterfere verifies logger subscriber doesn't interfere with other handlers
func TestLoggerSubscriberDoesNotInterfere(t *testing.T) {
	logger := arbor.NewLogger()

	eventService := NewService(logger)
	defer eventService.Close()

	if err := SubscribeLoggerToAllEvents(eventService, logger); err != nil {
		t.Fatalf("SubscribeLoggerToAllEvents: %v", err)
	}

	callCount := 0
	customHandler := func(ctx context.Context, event interfaces.Event) error {
		callCount++
		return nil
	}

	err := eventService.Subscribe(interfaces.EventJobStarted, customHandler)
	if err != nil {
		t.Fatalf("Failed to subscribe custom handler: %v", err)
	}

	ctx := context.Background()
	event := interfaces.Event{
		Type: interfaces.EventJobStarted,
		Payload: map[string]interface{}{
			"job_id": "test-job",
		},
	}

	err = eventService.PublishSync(ctx, event)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if callCount != 1 {
		t.Errorf("Expected custom handler to be called once, got: %d", callCount)
	}
}
