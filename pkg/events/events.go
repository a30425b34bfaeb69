// Package events delivers webhook notifications for catalog changes.
// Delivery is best-effort, at-most-once, and strictly off the commit path.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mabel-dev/tarchia/pkg/log"
	"github.com/mabel-dev/tarchia/pkg/metrics"
	"github.com/mabel-dev/tarchia/pkg/models"
)

// Event kinds supported per entity type
const (
	EventNewCommit    = "NEW_COMMIT"
	EventTableCreated = "TABLE_CREATED"
	EventTableDeleted = "TABLE_DELETED"
	EventViewCreated  = "VIEW_CREATED"
	EventViewDeleted  = "VIEW_DELETED"
)

// TableEvents is the fixed set of events a table subscription may name
var TableEvents = map[string]bool{
	EventNewCommit: true,
}

// OwnerEvents is the fixed set of events an owner subscription may name
var OwnerEvents = map[string]bool{
	EventTableCreated: true,
	EventTableDeleted: true,
	EventViewCreated:  true,
	EventViewDeleted:  true,
}

const (
	workerCount    = 4
	queueDepth     = 100
	requestTimeout = 10 * time.Second
	initialBackoff = 5 * time.Second
	maxBackoff     = 60 * time.Second
	maxAttempts    = 3
)

type job struct {
	url     string
	payload []byte
}

// Dispatcher fans deliveries out over a shared worker pool. The pool is
// created lazily on first use and recreated after Stop.
type Dispatcher struct {
	mu      sync.Mutex
	jobs    chan job
	stop    chan struct{}
	running bool
	client  *http.Client
}

// NewDispatcher creates a dispatcher; no workers start until the first
// trigger
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		client: &http.Client{Timeout: requestTimeout},
	}
}

// IsValidURL reports whether url has a scheme and host
func IsValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

// ValidateSubscription rejects unknown event kinds and malformed URLs at
// registration time
func ValidateSubscription(allowed map[string]bool, event, rawURL string) error {
	if !allowed[event] {
		return fmt.Errorf("event '%s' is not supported", event)
	}
	if !IsValidURL(rawURL) {
		return fmt.Errorf("url does not appear to be valid")
	}
	return nil
}

// Trigger submits a POST for every subscription matching the event. The
// call returns as soon as the jobs are queued; a full queue drops the
// delivery.
func (d *Dispatcher) Trigger(allowed map[string]bool, subscriptions []models.Subscription, event string, payload map[string]any) error {
	if !allowed[event] {
		return fmt.Errorf("event '%s' is not supported", event)
	}

	content, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	d.ensureWorkers()
	for _, subscription := range subscriptions {
		if subscription.Event != event || !IsValidURL(subscription.URL) {
			continue
		}
		select {
		case d.jobs <- job{url: subscription.URL, payload: content}:
		default:
			logger := log.WithComponent("events")
			logger.Warn().
				Str("url", subscription.URL).
				Msg("event queue full, dropping delivery")
		}
	}
	return nil
}

// Stop drains the pool; the next trigger recreates it
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		close(d.stop)
		d.running = false
	}
}

func (d *Dispatcher) ensureWorkers() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.jobs = make(chan job, queueDepth)
	d.stop = make(chan struct{})
	for i := 0; i < workerCount; i++ {
		go d.worker()
	}
	d.running = true
}

func (d *Dispatcher) worker() {
	for {
		select {
		case next := <-d.jobs:
			d.deliver(next)
		case <-d.stop:
			return
		}
	}
}

// deliver POSTs the payload, retrying transport failures with exponential
// backoff. A non-2xx response is not retried; after the attempts are
// exhausted the failure is logged and dropped.
func (d *Dispatcher) deliver(next job) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialBackoff
	policy.Multiplier = 2
	policy.MaxInterval = maxBackoff
	policy.RandomizationFactor = 0

	attempt := func() error {
		response, err := d.client.Post(next.url, "application/json", bytes.NewReader(next.payload))
		if err != nil {
			return err // connection or timeout, retryable
		}
		defer response.Body.Close()
		if response.StatusCode < 200 || response.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("notification returned status %d", response.StatusCode))
		}
		return nil
	}

	err := backoff.Retry(attempt, backoff.WithMaxRetries(policy, maxAttempts-1))
	logger := log.WithComponent("events")
	if err != nil {
		metrics.EventDeliveries.WithLabelValues("failed").Inc()
		logger.Warn().
			Err(err).
			Str("url", next.url).
			Msg("failed to notify subscriber")
		return
	}
	metrics.EventDeliveries.WithLabelValues("delivered").Inc()
	logger.Debug().
		Str("url", next.url).
		Msg("notification sent")
}
