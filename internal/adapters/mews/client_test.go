package mews_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pms_bridge/internal/adapters/mews"
)

func TestClient_GetReservationDetails_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ReservationId": "res-1",
				"GuestId":       "g-1",
				"Status":        "confirmed",
			})
		}
	}))
	defer ts.Close()

	cl, err := mews.New(ts.URL, "test-key", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := cl.GetReservationDetails(ctx, "res-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got["GuestId"] != "g-1" || got["Status"] != "confirmed" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_GetGuestDetails_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, err := mews.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = cl.GetGuestDetails(ctx, "missing")
	if err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestClient_GetReservationsBetween_QueryParams(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("hotel") != "h-9" || q.Get("from") != "2026-08-26" || q.Get("to") != "2026-08-27" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.WriteHeader(200)
		_ = json.NewEncoder(w).Encode([]map[string]any{{"ReservationId": "r-1"}})
	}))
	defer ts.Close()

	cl, err := mews.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	from := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	out, err := cl.GetReservationsBetween(context.Background(), "h-9", from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(out) != 1 || out[0]["ReservationId"] != "r-1" {
		t.Fatalf("unexpected payload: %+v", out)
	}
}
