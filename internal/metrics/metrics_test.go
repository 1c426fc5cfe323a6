package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_IndependentInstances(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()

	a.RowsPulled.Add(3)
	a.RowsDropped.WithLabelValues("malformed_payload").Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(a.RowsPulled))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RowsPulled))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.RowsDropped.WithLabelValues("malformed_payload")))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.RowsLoaded.Add(9)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "catalog_etl_rows_loaded_total 9")
}
