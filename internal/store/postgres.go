package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"warelay/internal/model"
)

// Postgres persists webhooks in PostgreSQL through database/sql, which
// pools connections, so concurrent dispatch lookups and registry CRUD
// never share a session.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS webhooks (
    id SERIAL PRIMARY KEY,
    event_code TEXT NOT NULL,
    sender TEXT NOT NULL DEFAULT '',
    post_url TEXT NOT NULL,
    auth_header TEXT NOT NULL DEFAULT '',
    include_info BOOLEAN NOT NULL DEFAULT FALSE,
    include_chat BOOLEAN NOT NULL DEFAULT FALSE,
    include_contact BOOLEAN NOT NULL DEFAULT FALSE,
    include_quoted_message BOOLEAN NOT NULL DEFAULT FALSE,
    include_order BOOLEAN NOT NULL DEFAULT FALSE,
    include_group_mentions BOOLEAN NOT NULL DEFAULT FALSE,
    include_mentions BOOLEAN NOT NULL DEFAULT FALSE,
    include_payment BOOLEAN NOT NULL DEFAULT FALSE,
    include_reactions BOOLEAN NOT NULL DEFAULT FALSE
)`

func (p *Postgres) Init(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, pgSchema); err != nil {
		return fmt.Errorf("create webhooks table: %w", err)
	}
	return nil
}

func (p *Postgres) InsertWebhook(ctx context.Context, w model.Webhook) (model.Webhook, error) {
	err := p.db.QueryRowContext(ctx, `
        INSERT INTO webhooks (
            event_code, sender, post_url, auth_header,
            include_info, include_chat, include_contact, include_quoted_message,
            include_order, include_group_mentions, include_mentions,
            include_payment, include_reactions
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id::text`,
		w.EventCode, w.Sender, w.PostURL, w.AuthHeader,
		w.IncludeInfo, w.IncludeChat, w.IncludeContact, w.IncludeQuotedMessage,
		w.IncludeOrder, w.IncludeGroupMentions, w.IncludeMentions,
		w.IncludePayment, w.IncludeReactions).Scan(&w.ID)
	if err != nil {
		return model.Webhook{}, fmt.Errorf("insert webhook: %w", err)
	}
	return w, nil
}

func (p *Postgres) RemoveWebhook(ctx context.Context, id string) error {
	// DELETE of a missing id affects zero rows, which is fine.
	if _, err := p.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id::text = $1`, id); err != nil {
		return fmt.Errorf("remove webhook %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) ListWebhooks(ctx context.Context) ([]model.Webhook, error) {
	return p.query(ctx, `SELECT `+pgColumns+` FROM webhooks`)
}

func (p *Postgres) ListWebhooksByEvent(ctx context.Context, eventCode string) ([]model.Webhook, error) {
	return p.query(ctx, `SELECT `+pgColumns+` FROM webhooks WHERE event_code = $1`, eventCode)
}

const pgColumns = `id::text, event_code, sender, post_url, auth_header,
    include_info, include_chat, include_contact, include_quoted_message,
    include_order, include_group_mentions, include_mentions,
    include_payment, include_reactions`

func (p *Postgres) query(ctx context.Context, q string, args ...any) ([]model.Webhook, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()
	out := []model.Webhook{}
	for rows.Next() {
		var w model.Webhook
		if err := rows.Scan(&w.ID, &w.EventCode, &w.Sender, &w.PostURL, &w.AuthHeader,
			&w.IncludeInfo, &w.IncludeChat, &w.IncludeContact, &w.IncludeQuotedMessage,
			&w.IncludeOrder, &w.IncludeGroupMentions, &w.IncludeMentions,
			&w.IncludePayment, &w.IncludeReactions); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	return out, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }
