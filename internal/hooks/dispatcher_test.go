package hooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"warelay/internal/model"
	"warelay/internal/source"
	"warelay/internal/store"
)

type hitRecorder struct {
	mu     sync.Mutex
	bodies []map[string]any
	heads  []http.Header
}

func (h *hitRecorder) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		h.mu.Lock()
		h.bodies = append(h.bodies, body)
		h.heads = append(h.heads, r.Header.Clone())
		h.mu.Unlock()
		w.WriteHeader(status)
	}
}

func (h *hitRecorder) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.bodies)
}

func mustInsert(t *testing.T, s store.Store, w model.Webhook) model.Webhook {
	t.Helper()
	out, err := s.InsertWebhook(context.Background(), w)
	if err != nil {
		t.Fatalf("InsertWebhook: %v", err)
	}
	return out
}

func TestDispatchBroadcastDropped(t *testing.T) {
	rec := &hitRecorder{}
	srv := httptest.NewServer(rec.handler(200))
	defer srv.Close()

	s := store.NewMemory()
	mustInsert(t, s, model.Webhook{EventCode: "message", PostURL: srv.URL})
	d := NewDispatcher(s)
	d.HTTP = srv.Client()

	d.Dispatch("message", &fakeMessage{from: source.BroadcastAddress, raw: "x"})
	d.Wait()
	if rec.count() != 0 {
		t.Fatalf("broadcast event produced %d deliveries, want 0", rec.count())
	}
}

func TestDispatchSenderFilter(t *testing.T) {
	rec := &hitRecorder{}
	srv := httptest.NewServer(rec.handler(200))
	defer srv.Close()

	s := store.NewMemory()
	mustInsert(t, s, model.Webhook{EventCode: "message", PostURL: srv.URL, Sender: "A"})
	mustInsert(t, s, model.Webhook{EventCode: "message", PostURL: srv.URL})
	d := NewDispatcher(s)
	d.HTTP = srv.Client()

	d.Dispatch("message", &fakeMessage{from: "A", raw: "hi"})
	d.Wait()
	if rec.count() != 2 {
		t.Fatalf("event from A: got %d deliveries, want 2", rec.count())
	}

	d.Dispatch("message", &fakeMessage{from: "B", raw: "hi"})
	d.Wait()
	if rec.count() != 3 {
		t.Fatalf("event from B: got %d total deliveries, want 3 (senderless only)", rec.count())
	}
}

func TestDispatchNoMessageEnvelope(t *testing.T) {
	rec := &hitRecorder{}
	srv := httptest.NewServer(rec.handler(200))
	defer srv.Close()

	s := store.NewMemory()
	mustInsert(t, s, model.Webhook{EventCode: "disconnected", PostURL: srv.URL, IncludeChat: true})
	d := NewDispatcher(s)
	d.HTTP = srv.Client()

	d.Dispatch("disconnected", nil)
	d.Wait()
	if rec.count() != 1 {
		t.Fatalf("got %d deliveries, want 1", rec.count())
	}
	body := rec.bodies[0]
	if body["eventCode"] != "disconnected" {
		t.Fatalf("bad eventCode: %v", body["eventCode"])
	}
	if len(body) != 1 {
		t.Fatalf("message-less envelope must degrade to eventCode only, got %v", body)
	}
}

func TestDispatchEnvelopeShape(t *testing.T) {
	rec := &hitRecorder{}
	srv := httptest.NewServer(rec.handler(200))
	defer srv.Close()

	s := store.NewMemory()
	mustInsert(t, s, model.Webhook{EventCode: "message", PostURL: srv.URL, IncludeChat: true})
	d := NewDispatcher(s)
	d.HTTP = srv.Client()

	msg := &fakeMessage{from: "A", raw: map[string]any{"body": "hi"}, parts: map[string]any{"chat": map[string]any{"name": "general"}}}
	d.Dispatch("message", msg)
	d.Wait()
	if rec.count() != 1 {
		t.Fatalf("got %d deliveries, want 1", rec.count())
	}
	body := rec.bodies[0]
	if body["eventCode"] != "message" {
		t.Fatalf("bad eventCode: %v", body["eventCode"])
	}
	if body["message"] == nil {
		t.Fatal("raw message missing from envelope")
	}
	if body["chat"] == nil {
		t.Fatal("enabled enrichment missing from envelope")
	}
	// Disabled enrichments are present but explicitly null.
	for _, k := range []string{"contact", "payment", "media"} {
		v, present := body[k]
		if !present {
			t.Fatalf("envelope key %s omitted; shape must be stable", k)
		}
		if v != nil {
			t.Fatalf("disabled field %s populated: %v", k, v)
		}
	}
}

func TestDispatchHeaders(t *testing.T) {
	rec := &hitRecorder{}
	srv := httptest.NewServer(rec.handler(200))
	defer srv.Close()

	s := store.NewMemory()
	mustInsert(t, s, model.Webhook{
		EventCode:  "message",
		PostURL:    srv.URL,
		AuthHeader: "Authorization Bearer tok,Content-Type text/custom",
	})
	d := NewDispatcher(s)
	d.HTTP = srv.Client()

	d.Dispatch("message", &fakeMessage{from: "A", raw: "hi"})
	d.Wait()
	if rec.count() != 1 {
		t.Fatalf("got %d deliveries, want 1", rec.count())
	}
	h := rec.heads[0]
	if got := h.Get("Authorization"); got != "Bearer tok" {
		t.Fatalf("Authorization: got %q", got)
	}
	// Webhook-supplied Content-Type overrides the default.
	if got := h.Get("Content-Type"); got != "text/custom" {
		t.Fatalf("Content-Type: got %q", got)
	}
}

func TestDispatchFailureIsolation(t *testing.T) {
	rec := &hitRecorder{}
	okSrv := httptest.NewServer(rec.handler(200))
	defer okSrv.Close()
	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_, _ = w.Write([]byte(`{"code":500,"message":"kaput","hint":"try later"}`))
	}))
	defer failSrv.Close()

	s := store.NewMemory()
	mustInsert(t, s, model.Webhook{EventCode: "message", PostURL: failSrv.URL})
	mustInsert(t, s, model.Webhook{EventCode: "message", PostURL: okSrv.URL})

	var mu sync.Mutex
	results := []Result{}
	d := NewDispatcher(s)
	d.OnResult = func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	d.Dispatch("message", &fakeMessage{from: "A", raw: "hi"})
	d.Wait()

	if rec.count() != 1 {
		t.Fatalf("healthy endpoint got %d deliveries, want 1", rec.count())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(results) != 2 {
		t.Fatalf("want 2 recorded outcomes, got %d", len(results))
	}
	var codes []int
	for _, r := range results {
		codes = append(codes, r.StatusCode)
	}
	if !((codes[0] == 200 && codes[1] == 500) || (codes[0] == 500 && codes[1] == 200)) {
		t.Fatalf("want one 200 and one 500 outcome, got %v", codes)
	}
}

func TestDispatchNoSubscribers(t *testing.T) {
	d := NewDispatcher(store.NewMemory())
	// Must be a quiet no-op, not an error.
	d.Dispatch("message", &fakeMessage{from: "A", raw: "hi"})
	d.Wait()
}
