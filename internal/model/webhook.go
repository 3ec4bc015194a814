package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingEventCode = errors.New("event_code is a required parameter")
	ErrMissingPostURL   = errors.New("post_url is a required parameter")
)

// Webhook is a persisted subscription: which event to relay, where to POST
// it, and which optional enrichments to attach to the payload.
type Webhook struct {
	ID        string `json:"id"`
	EventCode string `json:"event_code"`
	// Sender restricts delivery to events originating from this chat id.
	// Empty matches any sender.
	Sender string `json:"sender"`
	PostURL string `json:"post_url"`
	// AuthHeader is a comma-separated list of "Key Value" pairs sent as
	// extra HTTP headers on delivery (e.g. "Authorization Bearer tok").
	AuthHeader string `json:"auth_header"`

	IncludeInfo          bool `json:"include_info"`
	IncludeChat          bool `json:"include_chat"`
	IncludeContact       bool `json:"include_contact"`
	IncludeQuotedMessage bool `json:"include_quoted_message"`
	IncludeOrder         bool `json:"include_order"`
	IncludeGroupMentions bool `json:"include_group_mentions"`
	IncludeMentions      bool `json:"include_mentions"`
	IncludePayment       bool `json:"include_payment"`
	IncludeReactions     bool `json:"include_reactions"`
}

// NewWebhook maps an untyped input bag (decoded JSON body or form values)
// to a Webhook, defaulting every boolean and rejecting missing required
// strings. Checkbox-style values ("on") and real booleans are both
// accepted for the include_* flags.
func NewWebhook(bag map[string]any) (Webhook, error) {
	w := Webhook{
		ID:         stringField(bag, "id"),
		EventCode:  stringField(bag, "event_code"),
		Sender:     stringField(bag, "sender"),
		PostURL:    stringField(bag, "post_url"),
		AuthHeader: stringField(bag, "auth_header"),

		IncludeInfo:          boolField(bag, "include_info"),
		IncludeChat:          boolField(bag, "include_chat"),
		IncludeContact:       boolField(bag, "include_contact"),
		IncludeQuotedMessage: boolField(bag, "include_quoted_message"),
		IncludeOrder:         boolField(bag, "include_order"),
		IncludeGroupMentions: boolField(bag, "include_group_mentions"),
		IncludeMentions:      boolField(bag, "include_mentions"),
		IncludePayment:       boolField(bag, "include_payment"),
		IncludeReactions:     boolField(bag, "include_reactions"),
	}
	if err := w.Validate(); err != nil {
		return Webhook{}, err
	}
	return w, nil
}

// Validate checks the required fields. The store relies on this having run
// before insert; it never re-validates.
func (w Webhook) Validate() error {
	if strings.TrimSpace(w.EventCode) == "" {
		return ErrMissingEventCode
	}
	if strings.TrimSpace(w.PostURL) == "" {
		return ErrMissingPostURL
	}
	return nil
}

func stringField(bag map[string]any, key string) string {
	if v, ok := bag[key]; ok {
		switch s := v.(type) {
		case string:
			return s
		case fmt.Stringer:
			return s.String()
		}
	}
	return ""
}

func boolField(bag map[string]any, key string) bool {
	switch v := bag[key].(type) {
	case bool:
		return v
	case string:
		return v == "on" || v == "true" || v == "1"
	case float64: // JSON numbers decode to float64
		return v != 0
	}
	return false
}
