package notification

import (
	"context"
	"errors"

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

const notificationCols = `id, doctor_email, patient_email, patient_name, type, read, date`

func (r *repoPG) Insert(ctx context.Context, n *Notification) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO notification (id, doctor_email, patient_email, patient_name, type, read, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.DoctorEmail, n.PatientEmail, n.PatientName, n.Type, n.Read, n.Date)
	return err
}

func (r *repoPG) ListForDoctor(ctx context.Context, doctorEmail string, limit int) ([]Notification, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+notificationCols+`
		FROM notification
		WHERE doctor_email = $1
		ORDER BY date DESC
		LIMIT $2`, doctorEmail, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.DoctorEmail, &n.PatientEmail, &n.PatientName, &n.Type, &n.Read, &n.Date); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *repoPG) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var n Notification
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT `+notificationCols+` FROM notification WHERE id = $1`, id).
		Scan(&n.ID, &n.DoctorEmail, &n.PatientEmail, &n.PatientName, &n.Type, &n.Read, &n.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repoPG) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE notification SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
