package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Insert(ctx context.Context, m *Message) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO message (id, sender, receiver, content, has_attachment,
			attachment_type, attachment_data, attachment_name, read, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.Sender, m.Receiver, m.Content, m.HasAttachment,
		m.AttachmentType, m.AttachmentData, m.AttachmentName, m.Read, m.Timestamp)
	return err
}

func (r *repoPG) History(ctx context.Context, a, b string) ([]Message, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, sender, receiver, content, has_attachment,
			attachment_type, attachment_data, attachment_name, read, timestamp
		FROM message
		WHERE (sender = $1 AND receiver = $2) OR (sender = $2 AND receiver = $1)
		ORDER BY timestamp ASC`, a, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Receiver, &m.Content, &m.HasAttachment,
			&m.AttachmentType, &m.AttachmentData, &m.AttachmentName, &m.Read, &m.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repoPG) MarkRead(ctx context.Context, sender, receiver string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE message SET read = TRUE
		WHERE sender = $1 AND receiver = $2 AND read = FALSE`, sender, receiver)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
