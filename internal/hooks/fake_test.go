package hooks

import (
	"context"
	"fmt"
)

// fakeMessage is a scriptable source.Message for tests. parts maps
// enrichment key -> value; fail maps key -> forced error.
type fakeMessage struct {
	from     string
	raw      any
	hasMedia bool
	media    any
	parts    map[string]any
	fail     map[string]error
}

func (m *fakeMessage) From() string   { return m.from }
func (m *fakeMessage) RawData() any   { return m.raw }
func (m *fakeMessage) HasMedia() bool { return m.hasMedia }

func (m *fakeMessage) DownloadMedia(ctx context.Context) (any, error) { return m.media, nil }

func (m *fakeMessage) part(key string) (any, error) {
	if err, ok := m.fail[key]; ok {
		return nil, err
	}
	if v, ok := m.parts[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no %s scripted", key)
}

func (m *fakeMessage) Info(ctx context.Context) (any, error)          { return m.part("info") }
func (m *fakeMessage) Chat(ctx context.Context) (any, error)          { return m.part("chat") }
func (m *fakeMessage) Contact(ctx context.Context) (any, error)       { return m.part("contact") }
func (m *fakeMessage) QuotedMessage(ctx context.Context) (any, error) { return m.part("quotedMessage") }
func (m *fakeMessage) Order(ctx context.Context) (any, error)         { return m.part("order") }
func (m *fakeMessage) GroupMentions(ctx context.Context) (any, error) { return m.part("groupMentions") }
func (m *fakeMessage) Mentions(ctx context.Context) (any, error)      { return m.part("mentions") }
func (m *fakeMessage) Payment(ctx context.Context) (any, error)       { return m.part("payment") }
func (m *fakeMessage) Reactions(ctx context.Context) (any, error)     { return m.part("reactions") }
