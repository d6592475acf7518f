package notifiers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daniacca/bondsim/internal/chem"
)

func TestWebhookNotifier(t *testing.T) {
	notifier := NewWebhookNotifier("test-webhook", "http://localhost:9999/webhook")

	if notifier.ID() != "test-webhook" {
		t.Errorf("Expected ID 'test-webhook', got '%s'", notifier.ID())
	}

	if notifier.Type() != "webhook" {
		t.Errorf("Expected type 'webhook', got '%s'", notifier.Type())
	}

	// No server is listening, so delivery must error
	err := notifier.Notify(context.Background(), testEvent())
	if err == nil {
		t.Error("Expected error when no server is listening")
	}

	if err := notifier.Close(); err != nil {
		t.Errorf("Close should not return error: %v", err)
	}
}

func TestWebhookNotifier_Delivery(t *testing.T) {
	var received chem.Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Token") != "secret" {
			t.Errorf("Expected custom header X-Token=secret, got %s", r.Header.Get("X-Token"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode event: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier("hook", server.URL)
	notifier.SetHeader("X-Token", "secret")

	event := testEvent()
	if err := notifier.Notify(context.Background(), event); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if received.Kind != event.Kind {
		t.Errorf("Expected kind %s, got %s", event.Kind, received.Kind)
	}
	if received.Bond == nil || received.Bond.ID != event.Bond.ID {
		t.Errorf("Expected bond %v, got %v", event.Bond, received.Bond)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier("hook", server.URL)
	if err := notifier.Notify(context.Background(), testEvent()); err == nil {
		t.Error("Expected error for 500 response")
	}
}
