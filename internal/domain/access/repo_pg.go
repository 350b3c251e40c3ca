package access

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

func (r *repoPG) Insert(ctx context.Context, g *Grant) error {
	g.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO access_grant (id, patient_email, doctor_email, doctor_name, granted_date)
		VALUES ($1, $2, $3, $4, $5)`,
		g.ID, g.PatientEmail, g.DoctorEmail, g.DoctorName, g.GrantedDate)
	return err
}

func (r *repoPG) Delete(ctx context.Context, patientEmail, doctorEmail string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM access_grant WHERE patient_email = $1 AND doctor_email = $2`,
		patientEmail, doctorEmail)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Exists(ctx context.Context, patientEmail, doctorEmail string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM access_grant WHERE patient_email = $1 AND doctor_email = $2)`,
		patientEmail, doctorEmail).Scan(&exists)
	return exists, err
}

func (r *repoPG) ListForPatient(ctx context.Context, patientEmail string) ([]Grant, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_email, doctor_email, doctor_name, granted_date
		FROM access_grant
		WHERE patient_email = $1
		ORDER BY granted_date ASC`, patientEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.ID, &g.PatientEmail, &g.DoctorEmail, &g.DoctorName, &g.GrantedDate); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (r *repoPG) ListPatientsForDoctor(ctx context.Context, doctorEmail string) ([]PatientRef, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.name, p.email
		FROM access_grant g
		JOIN patient p ON p.email = g.patient_email
		WHERE g.doctor_email = $1
		ORDER BY g.granted_date DESC`, doctorEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []PatientRef
	for rows.Next() {
		var ref PatientRef
		if err := rows.Scan(&ref.Name, &ref.Email); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
