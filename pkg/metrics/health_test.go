package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestHealthReflectsComponents tests that component state drives the
// overall status
func TestHealthReflectsComponents(t *testing.T) {
	RegisterComponent("catalog", true, "")
	RegisterComponent("storage", true, "")

	health := GetHealth()
	assert.Equal(t, "healthy", health.Status)

	UpdateComponent("storage", false, "bucket unreachable")
	health = GetHealth()
	assert.Equal(t, "unhealthy", health.Status)
	assert.Contains(t, health.Components["storage"], "bucket unreachable")

	UpdateComponent("storage", true, "")
}

// TestReadinessRequiresCriticalComponents tests the readiness gate
func TestReadinessRequiresCriticalComponents(t *testing.T) {
	RegisterComponent("catalog", true, "")
	RegisterComponent("storage", true, "")
	RegisterComponent("api", true, "")

	readiness := GetReadiness()
	assert.Equal(t, "ready", readiness.Status)

	UpdateComponent("api", false, "listener down")
	readiness = GetReadiness()
	assert.Equal(t, "not_ready", readiness.Status)

	UpdateComponent("api", true, "")
}

// TestHealthHandlerStatusCodes tests the HTTP mapping of health state
func TestHealthHandlerStatusCodes(t *testing.T) {
	RegisterComponent("catalog", true, "")

	recorder := httptest.NewRecorder()
	HealthHandler()(recorder, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	UpdateComponent("catalog", false, "database closed")
	recorder = httptest.NewRecorder()
	HealthHandler()(recorder, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	UpdateComponent("catalog", true, "")
}

// TestTimer tests the duration helper
func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), 10*time.Millisecond)
}
