package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"warelay/internal/model"
)

// Memory is an in-memory store used by tests and when no database is
// configured. Contents do not survive a restart.
type Memory struct {
	mu    sync.Mutex
	hooks map[string]model.Webhook
}

func NewMemory() *Memory {
	return &Memory{hooks: map[string]model.Webhook{}}
}

func (m *Memory) Init(ctx context.Context) error { return nil }

func (m *Memory) InsertWebhook(ctx context.Context, w model.Webhook) (model.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = uuid.New().String()
	m.hooks[w.ID] = w
	return w, nil
}

func (m *Memory) RemoveWebhook(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hooks, id)
	return nil
}

func (m *Memory) ListWebhooks(ctx context.Context) ([]model.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Webhook, 0, len(m.hooks))
	for _, w := range m.hooks {
		out = append(out, w)
	}
	return out, nil
}

func (m *Memory) ListWebhooksByEvent(ctx context.Context, eventCode string) ([]model.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Webhook{}
	for _, w := range m.hooks {
		if w.EventCode == eventCode {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
