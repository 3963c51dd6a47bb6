package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCheckoutCounter(t *testing.T) {
	m := New()
	m.Checkout("success")
	m.Checkout("success")
	m.Checkout("insufficient_stock")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("insufficient_stock")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.Requests.WithLabelValues("GET /products", "200").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_http_requests_total{handler="GET /products",status="200"} 1`)

	// Separate instances do not collide.
	assert.NotPanics(t, func() { New() })
}
