package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/questions/{question}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/questions/{question}", "418"))
	for _, id := range []string{"1", "2", "3"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/questions/"+id, nil))
		require.Equal(t, http.StatusTeapot, rr.Code)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/questions/{question}", "418"))

	assert.Equal(t, 3.0, after-before)
	assert.Equal(t, 0.0, testutil.ToFloat64(httpRequestsInFlight))
}

func TestMiddlewareUnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/known", func(w http.ResponseWriter, r *http.Request) {})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/some/random/path", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))

	assert.Equal(t, 1.0, after-before)
}

func TestAttachmentCounters(t *testing.T) {
	before := testutil.ToFloat64(attachmentUploads.WithLabelValues(ResultDecodeError))
	ObserveUpload(ResultDecodeError)
	assert.Equal(t, 1.0, testutil.ToFloat64(attachmentUploads.WithLabelValues(ResultDecodeError))-before)

	bytesBefore := testutil.ToFloat64(attachmentBytes.WithLabelValues("thumbnail"))
	AddUploadedBytes("thumbnail", 512)
	assert.Equal(t, 512.0, testutil.ToFloat64(attachmentBytes.WithLabelValues("thumbnail"))-bytesBefore)

	ObserveTranscode("full", 20*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(attachmentTranscode), 1)
}
