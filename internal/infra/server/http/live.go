package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/lumera/portal/internal/analytics"
	"github.com/lumera/portal/internal/observability"
)

const liveFeedBuffer = 16

// liveFeed fans freshly ingested sessions out to websocket subscribers.
// Slow subscribers lose events rather than stalling ingestion.
type liveFeed struct {
	mu      sync.Mutex
	subs    map[chan analytics.VisitorSession]struct{}
	metrics *observability.RuntimeMetrics
}

func newLiveFeed(metrics *observability.RuntimeMetrics) *liveFeed {
	return &liveFeed{
		subs:    make(map[chan analytics.VisitorSession]struct{}),
		metrics: metrics,
	}
}

func (f *liveFeed) subscribe() (chan analytics.VisitorSession, func()) {
	ch := make(chan analytics.VisitorSession, liveFeedBuffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	count := len(f.subs)
	f.mu.Unlock()
	f.recordClients(count)

	return ch, func() {
		f.mu.Lock()
		delete(f.subs, ch)
		count := len(f.subs)
		f.mu.Unlock()
		f.recordClients(count)
	}
}

func (f *liveFeed) broadcast(session analytics.VisitorSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- session:
		default:
		}
	}
}

func (f *liveFeed) recordClients(count int) {
	if f.metrics != nil {
		f.metrics.RecordLiveFeedClients(count)
	}
}

func (s *httpServer) liveVisitors(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ch, unsubscribe := s.feed.subscribe()
	defer unsubscribe()

	// CloseRead cancels the context when the client goes away; the feed
	// is write-only from the server side.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case session := <-ch:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, session)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
