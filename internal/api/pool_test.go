package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestPoolPath(t *testing.T) {
	if got := PoolPath("wuledger", "wuledger"); got != "/wuledger/wuledger/market/pool" {
		t.Errorf("PoolPath() = %q, want %q", got, "/wuledger/wuledger/market/pool")
	}
}

func TestGetPool(t *testing.T) {
	t.Run("pool present", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/acme/ledger/market/pool" {
				t.Errorf("path = %q, want %q", r.URL.Path, "/acme/ledger/market/pool")
			}
			if r.Method != http.MethodGet {
				t.Errorf("method = %s, want GET", r.Method)
			}
			w.Write([]byte(`{"pool":{"reserveOgc":"100","reserveQuote":"250"}}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		pool, err := c.GetPool(context.Background(), "acme", "ledger")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pool == nil {
			t.Fatal("pool = nil, want value")
		}
		if pool.ReserveOgc != "100" || pool.ReserveQuote != "250" {
			t.Errorf("pool = %+v, want reserves 100/250", *pool)
		}
	})

	t.Run("null pool", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"pool":null}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		pool, err := c.GetPool(context.Background(), "acme", "ledger")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pool != nil {
			t.Errorf("pool = %+v, want nil", *pool)
		}
	})

	t.Run("missing pool key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"other":{}}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		pool, err := c.GetPool(context.Background(), "acme", "ledger")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pool != nil {
			t.Errorf("pool = %+v, want nil", *pool)
		}
	})

	t.Run("not found is not retried", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			http.NotFound(w, r)
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		_, err := c.GetPool(context.Background(), "acme", "ledger")
		if !IsNotFound(err) {
			t.Fatalf("IsNotFound(%v) = false, want true", err)
		}
		if got := attempts.Load(); got != 1 {
			t.Errorf("attempts = %d, want 1", got)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>gateway</html>`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		_, err := c.GetPool(context.Background(), "acme", "ledger")
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("expected *DecodeError, got %v", err)
		}
	})
}
