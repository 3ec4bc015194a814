package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	redis "github.com/redis/go-redis/v9"
	"warelay/internal/model"
)

// Bridge talks to the WhatsApp bridge process: lookup and send operations
// go over its HTTP API, incoming events arrive on a Redis pub/sub channel.
type Bridge struct {
	base    string
	apiKey  string
	http    *http.Client
	rdb     *redis.Client
	channel string
	session *Session
}

// NewBridge connects to the bridge at baseURL and the Redis instance at
// redisURL. channel is the pub/sub channel the bridge publishes events on.
func NewBridge(baseURL, apiKey, redisURL, channel string) (*Bridge, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Bridge{
		base:    baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		rdb:     redis.NewClient(opt),
		channel: channel,
		session: NewSession(),
	}, nil
}

// Session exposes the read-only pairing state machine.
func (b *Bridge) Session() *Session { return b.session }

// bridgeEvent is the wire format the bridge publishes per event.
type bridgeEvent struct {
	EventCode string          `json:"eventCode"`
	MessageID string          `json:"messageId"`
	From      string          `json:"from"`
	HasMedia  bool            `json:"hasMedia"`
	Message   json.RawMessage `json:"message"`
	// QR is only set on pairing lifecycle events.
	QR string `json:"qr,omitempty"`
}

// Listen consumes events from the pub/sub channel until ctx is cancelled,
// updating the session machine on lifecycle events and handing every event
// to h. Events without a message payload are delivered with a nil Message.
func (b *Bridge) Listen(ctx context.Context, h Handler) error {
	ps := b.rdb.Subscribe(ctx, b.channel)
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt bridgeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				log.Printf("source: dropping undecodable event: %v", err)
				continue
			}
			b.track(evt)
			if evt.Message == nil {
				h(evt.EventCode, nil)
				continue
			}
			h(evt.EventCode, &bridgeMessage{b: b, id: evt.MessageID, from: evt.From, hasMedia: evt.HasMedia, raw: evt.Message})
		}
	}
}

// track advances the session machine on lifecycle events.
func (b *Bridge) track(evt bridgeEvent) {
	switch evt.EventCode {
	case "qr":
		b.session.SetPairing(evt.QR)
	case "ready":
		b.session.SetReady()
	case "disconnected":
		b.session.SetDisconnected()
	}
}

func (b *Bridge) ContactByID(ctx context.Context, id string) (model.Contact, error) {
	var c model.Contact
	err := b.getJSON(ctx, "/api/contact/"+url.PathEscape(id), &c)
	return c, err
}

func (b *Bridge) Contacts(ctx context.Context) ([]model.Contact, error) {
	var cs []model.Contact
	err := b.getJSON(ctx, "/api/contact", &cs)
	return cs, err
}

func (b *Bridge) Groups(ctx context.Context) ([]model.Group, error) {
	var gs []model.Group
	err := b.getJSON(ctx, "/api/groups", &gs)
	return gs, err
}

func (b *Bridge) SendMessage(ctx context.Context, recipient, text string) error {
	body, _ := json.Marshal(model.SendRequest{Recipient: recipient, Message: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.base+"/api/message", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", b.apiKey)
	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send message: bridge returned %d", resp.StatusCode)
	}
	return nil
}

func (b *Bridge) Status(ctx context.Context) (model.ReadyStatus, error) {
	var st model.ReadyStatus
	if err := b.getJSON(ctx, "/api/status", &st); err != nil {
		return model.ReadyStatus{}, err
	}
	// Keep the local machine aligned when status is polled directly.
	switch {
	case st.Ready:
		b.session.SetReady()
	case st.QR != "":
		b.session.SetPairing(st.QR)
	}
	return st, nil
}

func (b *Bridge) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", b.apiKey)
	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s: bridge returned %d", path, resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(out)
}

// bridgeMessage resolves enrichments lazily against the bridge's message
// endpoints.
type bridgeMessage struct {
	b        *Bridge
	id       string
	from     string
	hasMedia bool
	raw      json.RawMessage
}

func (m *bridgeMessage) From() string   { return m.from }
func (m *bridgeMessage) RawData() any   { return m.raw }
func (m *bridgeMessage) HasMedia() bool { return m.hasMedia }

func (m *bridgeMessage) DownloadMedia(ctx context.Context) (any, error) { return m.part(ctx, "media") }
func (m *bridgeMessage) Info(ctx context.Context) (any, error)          { return m.part(ctx, "info") }
func (m *bridgeMessage) Chat(ctx context.Context) (any, error)          { return m.part(ctx, "chat") }
func (m *bridgeMessage) Contact(ctx context.Context) (any, error)       { return m.part(ctx, "contact") }
func (m *bridgeMessage) QuotedMessage(ctx context.Context) (any, error) {
	return m.part(ctx, "quoted-message")
}
func (m *bridgeMessage) Order(ctx context.Context) (any, error) { return m.part(ctx, "order") }
func (m *bridgeMessage) GroupMentions(ctx context.Context) (any, error) {
	return m.part(ctx, "group-mentions")
}
func (m *bridgeMessage) Mentions(ctx context.Context) (any, error)  { return m.part(ctx, "mentions") }
func (m *bridgeMessage) Payment(ctx context.Context) (any, error)   { return m.part(ctx, "payment") }
func (m *bridgeMessage) Reactions(ctx context.Context) (any, error) { return m.part(ctx, "reactions") }

func (m *bridgeMessage) part(ctx context.Context, name string) (any, error) {
	var out any
	if err := m.b.getJSON(ctx, "/api/message/"+url.PathEscape(m.id)+"/"+name, &out); err != nil {
		return nil, err
	}
	return out, nil
}
