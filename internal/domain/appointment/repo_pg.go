package appointment

import (
	"context"
	"errors"
	"time"

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

const appointmentCols = `id, patient_email, patient_name, doctor_email, date, status, created_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientEmail, &a.PatientName, &a.DoctorEmail, &a.Date, &a.Status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Insert(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, patient_email, patient_name, doctor_email, date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.PatientEmail, a.PatientName, a.DoctorEmail, a.Date, a.Status, a.CreatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `
		SELECT `+appointmentCols+` FROM appointment WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) ExistsOnDay(ctx context.Context, doctorEmail string, at time.Time) (bool, error) {
	dayStart := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM appointment
			WHERE doctor_email = $1 AND date >= $2 AND date < $3 AND status <> $4
		)`, doctorEmail, dayStart, dayEnd, StatusCancelled).Scan(&exists)
	return exists, err
}

func (r *repoPG) ListForPatient(ctx context.Context, patientEmail string) ([]Appointment, error) {
	return r.list(ctx, `patient_email`, patientEmail)
}

func (r *repoPG) ListForDoctor(ctx context.Context, doctorEmail string) ([]Appointment, error) {
	return r.list(ctx, `doctor_email`, doctorEmail)
}

func (r *repoPG) list(ctx context.Context, col, email string) ([]Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+appointmentCols+` FROM appointment WHERE `+col+` = $1 ORDER BY date DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientEmail, &a.PatientName, &a.DoctorEmail, &a.Date, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
