package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountBookingOutcomes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.BookingCreated()
	m.BookingCreated()
	m.BookingRejected("SLOT_CONFLICT")
	m.Transition("PENDING", "CANCELLED", "anonymous-customer")
	m.Notification("booking_created", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingRejections.WithLabelValues("SLOT_CONFLICT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("PENDING", "CANCELLED", "anonymous-customer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("booking_created", "failed")))
}

func TestMetricsHandlerExposesRequests(t *testing.T) {
	m := NewMetrics(nil)
	m.RecordRequest("/api/appointments", http.MethodPost, http.StatusCreated, 20*time.Millisecond)
	m.RecordError("/api/appointments", http.MethodPost, "SLOT_CONFLICT")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `appointments_http_requests_total{method="POST",path="/api/appointments",status="201"} 1`))
	assert.True(t, strings.Contains(body, `appointments_http_errors_total{code="SLOT_CONFLICT"`))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", http.MethodGet, http.StatusOK, time.Millisecond)
	m.RecordError("/", http.MethodGet, "INTERNAL_ERROR")
	m.BookingCreated()
	m.BookingRejected("NOT_FOUND")
	m.Transition("PENDING", "CONFIRMED", "admin")
	m.CodeAttempts(3)
	m.Notification("booking_status", nil)
	assert.Nil(t, m.Registry())
}
