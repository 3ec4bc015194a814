package store

import (
	"context"
	"testing"

	"warelay/internal/model"
)

func testHook(event string) model.Webhook {
	return model.Webhook{EventCode: event, PostURL: "https://example.invalid/hook", IncludeChat: true}
}

// conformance runs the property suite every Store implementation must
// pass, whatever its native boolean representation.
func conformance(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// Init must be idempotent across restarts.
	if err := s.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}

	in := model.Webhook{
		EventCode:            "message",
		Sender:               "123@c.us",
		PostURL:              "https://example.invalid/hook",
		AuthHeader:           "Authorization Bearer tok,X-Foo bar",
		IncludeChat:          true,
		IncludeQuotedMessage: true,
		IncludeReactions:     true,
	}
	created, err := s.InsertWebhook(ctx, in)
	if err != nil {
		t.Fatalf("InsertWebhook: %v", err)
	}
	if created.ID == "" {
		t.Fatal("store did not assign an id")
	}

	got, err := s.ListWebhooksByEvent(ctx, "message")
	if err != nil {
		t.Fatalf("ListWebhooksByEvent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 webhook, got %d", len(got))
	}
	in.ID = created.ID
	if got[0] != in {
		t.Fatalf("round-trip mismatch:\n  want %+v\n  got  %+v", in, got[0])
	}

	// Exact, case-sensitive event match.
	if hits, _ := s.ListWebhooksByEvent(ctx, "Message"); len(hits) != 0 {
		t.Fatalf("event_code match must be case-sensitive, got %d hits", len(hits))
	}
	if hits, _ := s.ListWebhooksByEvent(ctx, "message_ack"); len(hits) != 0 {
		t.Fatalf("event_code match must be exact, got %d hits", len(hits))
	}

	// Second record with every flag false must come back all false.
	bare, err := s.InsertWebhook(ctx, model.Webhook{EventCode: "message_ack", PostURL: "https://example.invalid/ack"})
	if err != nil {
		t.Fatalf("InsertWebhook bare: %v", err)
	}
	acks, err := s.ListWebhooksByEvent(ctx, "message_ack")
	if err != nil {
		t.Fatalf("ListWebhooksByEvent: %v", err)
	}
	if len(acks) != 1 {
		t.Fatalf("want 1 ack webhook, got %d", len(acks))
	}
	if acks[0].IncludeInfo || acks[0].IncludeChat || acks[0].IncludeContact ||
		acks[0].IncludeQuotedMessage || acks[0].IncludeOrder || acks[0].IncludeGroupMentions ||
		acks[0].IncludeMentions || acks[0].IncludePayment || acks[0].IncludeReactions {
		t.Fatalf("stored false flags read back true: %+v", acks[0])
	}

	all, err := s.ListWebhooks(ctx)
	if err != nil {
		t.Fatalf("ListWebhooks: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("want 2 webhooks, got %d", len(all))
	}

	// Removing an unknown id succeeds and changes nothing.
	if err := s.RemoveWebhook(ctx, "999999"); err != nil {
		t.Fatalf("RemoveWebhook unknown id: %v", err)
	}
	if all, _ = s.ListWebhooks(ctx); len(all) != 2 {
		t.Fatalf("no-op remove changed row count: %d", len(all))
	}

	if err := s.RemoveWebhook(ctx, bare.ID); err != nil {
		t.Fatalf("RemoveWebhook: %v", err)
	}
	if all, _ = s.ListWebhooks(ctx); len(all) != 1 {
		t.Fatalf("want 1 webhook after remove, got %d", len(all))
	}

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
