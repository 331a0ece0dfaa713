package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/ledger-dashboard/internal/config"
	"github.com/rickgao/ledger-dashboard/internal/connection"
	"github.com/rickgao/ledger-dashboard/internal/model"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev (unknown) built unknown\n", out)
}

func TestProbeCommand(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantPrice  string
		wantReason string
	}{
		{
			name: "populated",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/wuledger/wuledger/market/pool" {
					http.NotFound(w, r)
					return
				}
				w.Write([]byte(`{"pool":{"reserveOgc":"100","reserveQuote":"250"}}`))
			},
			wantPrice: "2.5000",
		},
		{
			name:       "not found",
			handler:    http.NotFound,
			wantReason: model.ReasonNotFound,
		},
		{
			name: "zero reserve",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"pool":{"reserveOgc":"0","reserveQuote":"250"}}`))
			},
			wantReason: model.ReasonZeroReserve,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			out, err := execute(t, "probe", "--rest-url", srv.URL, "--log-level", "error")
			require.NoError(t, err)

			var res probeResult
			require.NoError(t, json.Unmarshal([]byte(out), &res), out)
			assert.Equal(t, tt.wantReason, res.Reason)
			assert.NotNil(t, res.ObservedAt)
			if tt.wantPrice == "" {
				assert.Nil(t, res.Market)
				assert.Equal(t, "No active market", res.Display)
				return
			}
			require.NotNil(t, res.Market)
			assert.Equal(t, tt.wantPrice, res.Market.Price)
			assert.Equal(t, "2.5000 QUOTE", res.Display)
		})
	}
}

func TestProbeCommand_BadLogLevel(t *testing.T) {
	_, err := execute(t, "probe", "--log-level", "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestProbeCommand_MissingConfig(t *testing.T) {
	_, err := execute(t, "probe", "--config", "/nonexistent/dashboard.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestPrintMessage(t *testing.T) {
	received := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	observed := received.Add(-time.Second)

	tests := []struct {
		name    string
		msg     connection.StreamMessage
		verbose bool
		want    string
	}{
		{
			name: "before first poll",
			msg:  connection.StreamMessage{Type: connection.MessageTypeMarket},
			want: "[12:00:00.000] waiting for first poll\n",
		},
		{
			name: "absent",
			msg:  connection.StreamMessage{Type: connection.MessageTypeMarket, ObservedAt: &observed},
			want: "[12:00:00.000] No active market\n",
		},
		{
			name: "populated",
			msg: connection.StreamMessage{
				Type:       connection.MessageTypeMarket,
				Market:     &model.PricePoint{Price: "2.5000", Volume: "N/A", Time: "Live"},
				Display:    "2.5000 QUOTE",
				ObservedAt: &observed,
			},
			want: "[12:00:00.000] price=2.5000 QUOTE volume=N/A time=Live\n",
		},
		{
			name:    "verbose",
			msg:     connection.StreamMessage{Type: connection.MessageTypeMarket},
			verbose: true,
			want:    `[12:00:00.000] {"type":"market","market":null}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			printMessage(&buf, tt.msg, received, tt.verbose)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestChainPollerConfig(t *testing.T) {
	cfg, err := config.LoadAndValidate("")
	require.NoError(t, err)
	cfg.Network.Timeout = 8 * time.Second

	pc := chainPollerConfig(cfg)
	assert.Equal(t, cfg.Network.Interval, pc.Interval)
	assert.Equal(t, 8*time.Second, pc.Timeout, "cycle budget comes from network.timeout")
	assert.Equal(t, cfg.Network.StaleAfter, pc.StaleAfter)
	assert.Equal(t, cfg.Network.ValidatorSet, pc.ValidatorSet)
	assert.Equal(t, cfg.Network.TransferLimit, pc.TransferLimit)
}
