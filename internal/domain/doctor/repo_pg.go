package doctor

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

const doctorCols = `id, name, email, password_hash, speciality, degree, experience, about,
	fees, address, available, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.PasswordHash, &d.Speciality, &d.Degree,
		&d.Experience, &d.About, &d.Fees, &d.Address, &d.Available, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor (id, name, email, password_hash, speciality, degree, experience,
			about, fees, address, available)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		d.ID, d.Name, d.Email, d.PasswordHash, d.Speciality, d.Degree, d.Experience,
		d.About, d.Fees, d.Address, d.Available)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	d, err := r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *repoPG) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM doctor WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctor`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+doctorCols+` FROM doctor ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *repoPG) SearchByName(ctx context.Context, name string) (*Doctor, error) {
	d, err := r.scan(r.conn(ctx).QueryRow(ctx, `
		SELECT `+doctorCols+` FROM doctor WHERE name ILIKE '%' || $1 || '%' ORDER BY name LIMIT 1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *repoPG) UpsertAssignment(ctx context.Context, doctorEmail, patientEmail string) error {
	if _, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM doctor_patient WHERE doctor_email = $1 AND patient_email = $2`,
		doctorEmail, patientEmail); err != nil {
		return fmt.Errorf("clear assignment: %w", err)
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_patient (id, doctor_email, patient_email, status)
		VALUES ($1,$2,$3,$4)`,
		uuid.New(), doctorEmail, patientEmail, AssignmentActive)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

func (r *repoPG) ListAssignedPatients(ctx context.Context, doctorEmail string) ([]AssignedPatient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.name, dp.patient_email, dp.assigned_date, dp.status
		FROM doctor_patient dp
		JOIN patient p ON p.email = dp.patient_email
		WHERE dp.doctor_email = $1
		ORDER BY dp.assigned_date DESC`, doctorEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AssignedPatient
	for rows.Next() {
		var a AssignedPatient
		if err := rows.Scan(&a.Name, &a.Email, &a.AssignedDate, &a.Status); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
