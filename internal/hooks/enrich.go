package hooks

import (
	"context"
	"fmt"

	"warelay/internal/model"
	"warelay/internal/source"
)

// enrichmentKeys is the fixed set of optional payload fields, in envelope
// order. Every delivery payload carries all of them; flags and fetch
// outcomes only decide their contents.
var enrichmentKeys = []string{
	"info", "chat", "contact", "quotedMessage", "order",
	"groupMentions", "mentions", "payment", "reactions",
}

// Enrichments resolves the optional payload fields for one delivery. A
// field is fetched only when its flag is set and a message is present;
// everything else is an explicit null so the payload shape is stable
// regardless of configuration. Fetches are independent: a failure nulls
// that field and is reported in the returned slice, the rest proceed
// (fail-open).
func Enrichments(ctx context.Context, msg source.Message, w model.Webhook) (map[string]any, []error) {
	fields := make(map[string]any, len(enrichmentKeys))
	for _, k := range enrichmentKeys {
		fields[k] = nil
	}
	if msg == nil {
		return fields, nil
	}

	type fetch struct {
		key     string
		enabled bool
		fn      func(context.Context) (any, error)
	}
	fetches := []fetch{
		{"info", w.IncludeInfo, msg.Info},
		{"chat", w.IncludeChat, msg.Chat},
		{"contact", w.IncludeContact, msg.Contact},
		{"quotedMessage", w.IncludeQuotedMessage, msg.QuotedMessage},
		{"order", w.IncludeOrder, msg.Order},
		{"groupMentions", w.IncludeGroupMentions, msg.GroupMentions},
		{"mentions", w.IncludeMentions, msg.Mentions},
		{"payment", w.IncludePayment, msg.Payment},
		{"reactions", w.IncludeReactions, msg.Reactions},
	}

	var errs []error
	for _, f := range fetches {
		if !f.enabled {
			continue
		}
		v, err := f.fn(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.key, err))
			continue
		}
		fields[f.key] = v
	}
	return fields, errs
}
