package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabel-dev/tarchia/pkg/log"
	"github.com/mabel-dev/tarchia/pkg/models"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true})
}

// TestTriggerDelivers tests that a matching subscription receives the
// payload
func TestTriggerDelivers(t *testing.T) {
	received := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dispatcher := NewDispatcher()
	defer dispatcher.Stop()

	subscriptions := []models.Subscription{
		{User: "u1", Event: EventNewCommit, URL: server.URL},
		{User: "u2", Event: EventNewCommit, URL: "not a url"},
	}

	err := dispatcher.Trigger(TableEvents, subscriptions, EventNewCommit, map[string]any{
		"event": EventNewCommit,
		"table": "tester.t1",
	})
	require.NoError(t, err)

	select {
	case payload := <-received:
		assert.Equal(t, "tester.t1", payload["table"])
	case <-time.After(5 * time.Second):
		t.Fatal("notification was not delivered")
	}
}

// TestTriggerFiltersByEvent tests that non-matching subscriptions are not
// notified
func TestTriggerFiltersByEvent(t *testing.T) {
	hits := make(chan struct{}, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dispatcher := NewDispatcher()
	defer dispatcher.Stop()

	subscriptions := []models.Subscription{
		{User: "u1", Event: EventTableDeleted, URL: server.URL},
	}
	require.NoError(t, dispatcher.Trigger(OwnerEvents, subscriptions, EventTableCreated, map[string]any{}))

	select {
	case <-hits:
		t.Fatal("subscription for a different event must not fire")
	case <-time.After(200 * time.Millisecond):
	}
}

// TestTriggerUnknownKind tests that unsupported events are rejected at
// trigger time
func TestTriggerUnknownKind(t *testing.T) {
	dispatcher := NewDispatcher()
	defer dispatcher.Stop()

	err := dispatcher.Trigger(TableEvents, nil, "TABLE_EXPLODED", map[string]any{})
	assert.Error(t, err)

	// owner events are not valid on tables
	err = dispatcher.Trigger(TableEvents, nil, EventTableCreated, map[string]any{})
	assert.Error(t, err)
}

// TestValidateSubscription tests registration-time validation
func TestValidateSubscription(t *testing.T) {
	assert.NoError(t, ValidateSubscription(TableEvents, EventNewCommit, "http://example.com/hook"))
	assert.Error(t, ValidateSubscription(TableEvents, "UNDEFINED", "http://example.com/hook"))
	assert.Error(t, ValidateSubscription(TableEvents, EventNewCommit, "not a url"))
}

// TestDispatcherRecreatesAfterStop tests the lazy pool lifecycle
func TestDispatcherRecreatesAfterStop(t *testing.T) {
	received := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dispatcher := NewDispatcher()
	dispatcher.Stop() // stop before first use is a no-op

	subscriptions := []models.Subscription{{User: "u", Event: EventNewCommit, URL: server.URL}}
	require.NoError(t, dispatcher.Trigger(TableEvents, subscriptions, EventNewCommit, map[string]any{}))

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("notification was not delivered after restart")
	}
	dispatcher.Stop()
}
