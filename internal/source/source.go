// Package source defines the messaging-source contract the relay consumes:
// a client for lookups and outbound sends, and the per-event message object
// enrichments are fetched from. The client's session/auth machinery lives
// in the bridge process; only its observable state crosses this boundary.
package source

import (
	"context"

	"warelay/internal/model"
)

// BroadcastAddress is the reserved origin identifier for status broadcasts.
// Events from it are never relayed.
const BroadcastAddress = "status@broadcast"

// Message is one incoming notification. Status/lifecycle events carry no
// message, so dispatch paths must tolerate a nil Message.
type Message interface {
	// From returns the originating chat identifier.
	From() string
	// RawData returns the underlying notification object as received; it
	// is embedded verbatim in delivery payloads.
	RawData() any
	HasMedia() bool
	// DownloadMedia fetches the media attachment for the message.
	DownloadMedia(ctx context.Context) (any, error)

	// Enrichment lookups, one independent call each.
	Info(ctx context.Context) (any, error)
	Chat(ctx context.Context) (any, error)
	Contact(ctx context.Context) (any, error)
	QuotedMessage(ctx context.Context) (any, error)
	Order(ctx context.Context) (any, error)
	GroupMentions(ctx context.Context) (any, error)
	Mentions(ctx context.Context) (any, error)
	Payment(ctx context.Context) (any, error)
	Reactions(ctx context.Context) (any, error)
}

// Client answers lookup queries and relays outbound sends.
type Client interface {
	ContactByID(ctx context.Context, id string) (model.Contact, error)
	Contacts(ctx context.Context) ([]model.Contact, error)
	Groups(ctx context.Context) ([]model.Group, error)
	SendMessage(ctx context.Context, recipient, text string) error
	Status(ctx context.Context) (model.ReadyStatus, error)
}

// Handler receives each incoming event. msg is nil for events that carry
// no message.
type Handler func(eventCode string, msg Message)
