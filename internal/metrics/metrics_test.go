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

func TestCounter_Concurrent(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
			c.Add(2)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(150), c.Load())
}

func TestTimer(t *testing.T) {
	tm := StartTimer()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, tm.Duration(), time.Millisecond)
}

func TestCheckout_SnapshotAndHandler(t *testing.T) {
	var m Checkout
	m.OrdersCreated.Inc()
	m.DuplicateTriggers.Add(2)
	m.ObserveCreate(&Timer{start: time.Now().Add(-3 * time.Millisecond)})

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap["orders_created"])
	assert.Equal(t, uint64(2), snap["duplicate_triggers"])
	assert.GreaterOrEqual(t, snap["avg_create_micros"], uint64(3000))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]uint64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body["orders_created"])
}

func TestCheckout_NoAverageWithoutOrders(t *testing.T) {
	var m Checkout
	_, ok := m.Snapshot()["avg_create_micros"]
	assert.False(t, ok)
}
