package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
	"warelay/internal/model"
)

// SQLite is the embedded, file-backed store. It keeps one long-lived
// connection for the process lifetime (SetMaxOpenConns(1)): sqlite has no
// server to pool against, and a single connection sidesteps SQLITE_BUSY
// under concurrent dispatch lookups. That serializes statements on the
// driver, which is a latency trade-off, not a correctness guarantee from
// the engine.
//
// sqlite has no boolean type; the include_* flags are stored as 0/1
// integers and normalized back to bool on every read.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &SQLite{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS webhooks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event_code TEXT NOT NULL,
    sender TEXT NOT NULL DEFAULT '',
    post_url TEXT NOT NULL,
    auth_header TEXT NOT NULL DEFAULT '',
    include_info INTEGER NOT NULL DEFAULT 0,
    include_chat INTEGER NOT NULL DEFAULT 0,
    include_contact INTEGER NOT NULL DEFAULT 0,
    include_quoted_message INTEGER NOT NULL DEFAULT 0,
    include_order INTEGER NOT NULL DEFAULT 0,
    include_group_mentions INTEGER NOT NULL DEFAULT 0,
    include_mentions INTEGER NOT NULL DEFAULT 0,
    include_payment INTEGER NOT NULL DEFAULT 0,
    include_reactions INTEGER NOT NULL DEFAULT 0
)`

func (s *SQLite) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create webhooks table: %w", err)
	}
	return nil
}

func (s *SQLite) InsertWebhook(ctx context.Context, w model.Webhook) (model.Webhook, error) {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO webhooks (
            event_code, sender, post_url, auth_header,
            include_info, include_chat, include_contact, include_quoted_message,
            include_order, include_group_mentions, include_mentions,
            include_payment, include_reactions
        ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		w.EventCode, w.Sender, w.PostURL, w.AuthHeader,
		b2i(w.IncludeInfo), b2i(w.IncludeChat), b2i(w.IncludeContact), b2i(w.IncludeQuotedMessage),
		b2i(w.IncludeOrder), b2i(w.IncludeGroupMentions), b2i(w.IncludeMentions),
		b2i(w.IncludePayment), b2i(w.IncludeReactions))
	if err != nil {
		return model.Webhook{}, fmt.Errorf("insert webhook: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Webhook{}, fmt.Errorf("insert webhook id: %w", err)
	}
	w.ID = strconv.FormatInt(id, 10)
	return w, nil
}

func (s *SQLite) RemoveWebhook(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove webhook %s: %w", id, err)
	}
	return nil
}

func (s *SQLite) ListWebhooks(ctx context.Context) ([]model.Webhook, error) {
	return s.query(ctx, `SELECT `+sqliteColumns+` FROM webhooks`)
}

func (s *SQLite) ListWebhooksByEvent(ctx context.Context, eventCode string) ([]model.Webhook, error) {
	return s.query(ctx, `SELECT `+sqliteColumns+` FROM webhooks WHERE event_code = ?`, eventCode)
}

const sqliteColumns = `id, event_code, sender, post_url, auth_header,
    include_info, include_chat, include_contact, include_quoted_message,
    include_order, include_group_mentions, include_mentions,
    include_payment, include_reactions`

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]model.Webhook, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()
	out := []model.Webhook{}
	for rows.Next() {
		var w model.Webhook
		var id int64
		// Scan the flags as integers: a stored 0 must come back as
		// false, never as a truthy non-empty value.
		var info, chat, contact, quoted, order, groups, mentions, payment, reactions int
		if err := rows.Scan(&id, &w.EventCode, &w.Sender, &w.PostURL, &w.AuthHeader,
			&info, &chat, &contact, &quoted, &order, &groups, &mentions, &payment, &reactions); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		w.ID = strconv.FormatInt(id, 10)
		w.IncludeInfo = info != 0
		w.IncludeChat = chat != 0
		w.IncludeContact = contact != 0
		w.IncludeQuotedMessage = quoted != 0
		w.IncludeOrder = order != 0
		w.IncludeGroupMentions = groups != 0
		w.IncludeMentions = mentions != 0
		w.IncludePayment = payment != 0
		w.IncludeReactions = reactions != 0
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	return out, nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() error { return s.db.Close() }
