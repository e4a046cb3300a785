package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/lumera/portal/internal/analytics"
)

func TestLiveVisitorsWebsocket(t *testing.T) {
	handler, deps := newTestHandler(t)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + visitorsLivePath
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	// The handler subscribes after the handshake completes; wait for the
	// gauge so the broadcast below cannot outrun the subscription.
	deadline := time.Now().Add(5 * time.Second)
	for deps.Metrics.Snapshot().LiveFeedClients == 0 {
		if time.Now().After(deadline) {
			t.Fatal("live feed subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Post(srv.URL+visitorsPath, "application/json",
		strings.NewReader(`{"userAgent":"ua","timestamp":"2026-03-01T10:00:00Z","country":"NL"}`))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("ingest status = %d, want 201", resp.StatusCode)
	}

	var session analytics.VisitorSession
	if err := wsjson.Read(ctx, conn, &session); err != nil {
		t.Fatalf("read live session: %v", err)
	}
	if session.Country != "NL" {
		t.Fatalf("session country = %q, want NL", session.Country)
	}
	if session.ID == "" {
		t.Fatal("live session should carry the assigned id")
	}
}
