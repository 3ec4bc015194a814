// Package hooks matches incoming messaging events against registered
// webhooks and delivers payloads to them.
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"warelay/internal/metrics"
	"warelay/internal/model"
	"warelay/internal/source"
	"warelay/internal/store"
)

// Result is the outcome of one delivery attempt, collected for logging,
// metrics, and the activity feed.
type Result struct {
	WebhookID  string `json:"webhookId"`
	EventCode  string `json:"eventCode"`
	URL        string `json:"url"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error,omitempty"`
	LatencyMs  int64  `json:"latencyMs"`
}

func (r Result) ok() bool { return r.Error == "" && r.StatusCode >= 200 && r.StatusCode < 300 }

// Dispatcher fans each incoming event out to its matching webhooks, one
// concurrent POST per subscription. Deliveries are fire-and-forget:
// Dispatch returns once every delivery goroutine has been spawned, and a
// failing endpoint never blocks, cancels, or retries another.
type Dispatcher struct {
	Store   store.Store
	HTTP    *http.Client
	Timeout time.Duration
	// Limiter optionally bounds outbound request bursts. Nil means no cap,
	// which is the documented default: a busy event with many subscribers
	// produces that many in-flight POSTs.
	Limiter *rate.Limiter
	// OnResult, when set, observes every delivery outcome.
	OnResult func(Result)

	wg sync.WaitGroup
}

func NewDispatcher(s store.Store) *Dispatcher {
	return &Dispatcher{
		Store:   s,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Timeout: 10 * time.Second,
	}
}

// Dispatch handles one incoming event. msg is nil for events that carry no
// message (lifecycle/status notifications).
func (d *Dispatcher) Dispatch(eventCode string, msg source.Message) {
	if msg != nil && msg.From() == source.BroadcastAddress {
		log.Printf("relay: %s broadcast dropped", eventCode)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	hooks, err := d.Store.ListWebhooksByEvent(ctx, eventCode)
	cancel()
	if err != nil {
		log.Printf("relay: webhook lookup for %s failed: %v", eventCode, err)
		return
	}
	if len(hooks) == 0 {
		log.Printf("relay: %s matched no webhooks", eventCode)
		return
	}
	log.Printf("relay: %s to %d endpoints", eventCode, len(hooks))
	for _, w := range hooks {
		if w.Sender != "" && (msg == nil || msg.From() != w.Sender) {
			continue
		}
		d.wg.Add(1)
		go func(w model.Webhook) {
			defer d.wg.Done()
			d.deliver(eventCode, w, msg)
		}(w)
	}
}

// Wait blocks until all spawned deliveries have finished. Used by tests
// and shutdown draining; the dispatch path never calls it.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) deliver(eventCode string, w model.Webhook, msg source.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	defer cancel()

	res := Result{WebhookID: w.ID, EventCode: eventCode, URL: w.PostURL}
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx); err != nil {
			res.Error = "rate limit wait: " + err.Error()
			d.finish(res)
			return
		}
	}

	body, err := json.Marshal(d.envelope(ctx, eventCode, w, msg))
	if err != nil {
		res.Error = "encode payload: " + err.Error()
		d.finish(res)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.PostURL, bytes.NewReader(body))
	if err != nil {
		res.Error = "build request: " + err.Error()
		d.finish(res)
		return
	}
	// Webhook-supplied headers win, Content-Type included.
	req.Header.Set("Content-Type", "application/json")
	for k, v := range ParseAuthHeaders(w.AuthHeader) {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := d.HTTP.Do(req)
	res.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		d.finish(res)
		return
	}
	defer resp.Body.Close()
	res.StatusCode = resp.StatusCode
	if !res.ok() {
		// Subscribers may explain themselves with a {code,message,hint}
		// error body; log it when parseable.
		var detail struct {
			Code    any    `json:"code"`
			Message string `json:"message"`
			Hint    string `json:"hint"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &detail) == nil && detail.Message != "" {
			log.Printf("relay: %s delivery to %s returned %d: code=%v message=%s hint=%s",
				eventCode, w.PostURL, resp.StatusCode, detail.Code, detail.Message, detail.Hint)
		} else {
			log.Printf("relay: %s delivery to %s returned %d", eventCode, w.PostURL, resp.StatusCode)
		}
	}
	d.finish(res)
}

// envelope builds the JSON payload for one subscription. Without a message
// it degrades to the bare event code; no enrichment is attempted.
func (d *Dispatcher) envelope(ctx context.Context, eventCode string, w model.Webhook, msg source.Message) map[string]any {
	if msg == nil {
		return map[string]any{"eventCode": eventCode}
	}
	env := map[string]any{"eventCode": eventCode, "message": msg.RawData()}
	var media any
	if msg.HasMedia() {
		var err error
		if media, err = msg.DownloadMedia(ctx); err != nil {
			log.Printf("relay: media download for %s failed: %v", eventCode, err)
			media = nil
		}
	}
	env["media"] = media
	fields, errs := Enrichments(ctx, msg, w)
	for _, err := range errs {
		log.Printf("relay: enrichment for %s (%s) failed: %v", eventCode, w.PostURL, err)
	}
	for k, v := range fields {
		env[k] = v
	}
	return env
}

func (d *Dispatcher) finish(res Result) {
	status := "success"
	if !res.ok() {
		status = "error"
		if res.Error != "" {
			log.Printf("relay: error posting webhook %s (%s): %s", res.WebhookID, res.URL, res.Error)
		}
	}
	metrics.WebhookDeliveries.WithLabelValues(res.EventCode, status).Inc()
	metrics.WebhookLatency.WithLabelValues(res.EventCode, status).Observe(float64(res.LatencyMs))
	if d.OnResult != nil {
		d.OnResult(res)
	}
}
