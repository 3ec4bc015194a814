package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"warelay/internal/hooks"
)

// Feed fans delivery results out to connected activity-feed clients. The
// dispatcher pushes every hooks.Result through Publish.
type Feed struct {
	mu   sync.Mutex
	subs map[chan hooks.Result]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: map[chan hooks.Result]struct{}{}}
}

func (f *Feed) Subscribe() chan hooks.Result {
	ch := make(chan hooks.Result, 8)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *Feed) Unsubscribe(ch chan hooks.Result) {
	f.mu.Lock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
	f.mu.Unlock()
}

// Publish never blocks; a slow client drops results instead of stalling the
// dispatcher.
func (f *Feed) Publish(res hooks.Result) {
	f.mu.Lock()
	for ch := range f.subs {
		select {
		case ch <- res:
		default:
		}
	}
	f.mu.Unlock()
}

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// ActivityHandler handles /ws/activity, streaming delivery results as JSON
// frames to the dashboard.
func (s *Server) ActivityHandler(w http.ResponseWriter, r *http.Request) {
	if s.Feed == nil {
		http.Error(w, "activity feed disabled", http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	ch := s.Feed.Subscribe()
	defer s.Feed.Unsubscribe(ch)

	done := make(chan struct{})
	// Drain the client side; we never expect frames, but reads surface pongs
	// and disconnects.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case res, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(res); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
