package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	var c Counter
	c.Inc()
	c.Add(4)
	assert.Equal(t, uint64(5), c.Load())
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(time.Millisecond)
	assert.Greater(t, timer.Duration(), time.Duration(0))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Counter("gateway.calls").Inc()
		}()
	}
	wg.Wait()
	r.Counter("webhook.received").Add(2)

	snap := r.Snapshot()
	assert.Equal(t, uint64(50), snap["gateway.calls"])
	assert.Equal(t, uint64(2), snap["webhook.received"])
	assert.Equal(t, []string{"gateway.calls", "webhook.received"}, r.Names())
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.Counter("orders.created").Inc()

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]uint64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body["orders.created"])
}
