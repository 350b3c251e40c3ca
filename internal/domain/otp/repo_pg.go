package otp

import (
	"context"
	"errors"
	"fmt"

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

func (r *repoPG) Create(ctx context.Context, c *Code) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO otp_code (id, email, code) VALUES ($1,$2,$3)`,
		c.ID, c.Email, c.Code)
	if err != nil {
		return fmt.Errorf("insert otp code: %w", err)
	}
	return nil
}

func (r *repoPG) Latest(ctx context.Context, email string) (*Code, error) {
	var c Code
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, email, code, created_at FROM otp_code
		WHERE email = $1 ORDER BY created_at DESC LIMIT 1`, email).
		Scan(&c.ID, &c.Email, &c.Code, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCodeInvalid
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) DeleteForEmail(ctx context.Context, email string) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM otp_code WHERE email = $1`, email)
	return err
}
