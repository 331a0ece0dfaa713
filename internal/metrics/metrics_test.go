package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/ledger-dashboard/internal/model"
	"github.com/rickgao/ledger-dashboard/internal/router"
)

func TestObserveMarketPoll(t *testing.T) {
	m := New("")

	m.ObserveMarketPoll("", 20*time.Millisecond)
	m.ObserveMarketPoll(model.ReasonNotFound, 5*time.Millisecond)
	m.ObserveMarketPoll(model.ReasonNotFound, 5*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MarketPolls.WithLabelValues(model.StatusPopulated)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MarketPolls.WithLabelValues(model.ReasonNotFound)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.MarketPopulated))
	assert.Greater(t, testutil.ToFloat64(m.LastMarketPoll), 0.0)
}

func TestHandleUpdate(t *testing.T) {
	m := New("")

	require.NoError(t, m.HandleUpdate(model.MarketUpdate{
		Point: &model.PricePoint{Price: "2.5000", Volume: model.VolumeNotAvailable, Time: model.TimeLive},
	}))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MarketPopulated))
	assert.Equal(t, 2.5, testutil.ToFloat64(m.MarketPrice))

	require.NoError(t, m.HandleUpdate(model.MarketUpdate{Reason: model.ReasonZeroReserve}))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.MarketPopulated))
	assert.Equal(t, 2.5, testutil.ToFloat64(m.MarketPrice), "price keeps its last value")
}

func TestObserveChainPoll(t *testing.T) {
	m := New("")

	m.ObserveChainPoll(true, time.Millisecond)
	m.ObserveChainPoll(false, time.Millisecond)
	m.ObserveChainPoll(false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChainPolls.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChainPolls.WithLabelValues("error")))
}

func TestStreamClients(t *testing.T) {
	m := New("")

	m.SetStreamClients(3)
	m.StreamClientDropped()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.StreamClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamClientsDropped))
}

func TestObserveFlush(t *testing.T) {
	m := New("")

	m.ObserveFlush(8, 2, nil, 10*time.Millisecond)
	m.ObserveFlush(0, 0, errors.New("connection refused"), 10*time.Millisecond)

	assert.Equal(t, 8.0, testutil.ToFloat64(m.WriterRows.WithLabelValues("inserted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.WriterRows.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WriterFlushErrors))
}

func TestRegisterBuffer(t *testing.T) {
	m := New("")
	buf := router.NewRingBuffer[int](2)
	m.RegisterBuffer("ws", buf.Stats)

	buf.Send(1)
	buf.Send(2)
	buf.Send(3)

	n, err := testutil.GatherAndCount(m.Registry(),
		"ledger_dashboard_router_buffer_len", "ledger_dashboard_router_dropped_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	body := scrape(t, m)
	assert.Contains(t, body, `ledger_dashboard_router_buffer_len{subscriber="ws"} 2`)
	assert.Contains(t, body, `ledger_dashboard_router_dropped_total{subscriber="ws"} 1`)
}

func TestHandler(t *testing.T) {
	m := New("")
	m.SetBuildInfo("v1.2.3", "abc123")
	m.ObserveMarketPoll("", time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `ledger_dashboard_build_info{commit="abc123",version="v1.2.3"} 1`)
	assert.Contains(t, body, `ledger_dashboard_market_polls_total{outcome="populated"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestNew_Isolated(t *testing.T) {
	a := New("")
	b := New("")

	a.StreamClientDropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.StreamClientsDropped))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.StreamClientsDropped))
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}
