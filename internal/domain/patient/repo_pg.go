package patient

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

const patientCols = `id, name, email, password_hash, gender, dob, phone, blood_group, age,
	emergency_contact, allergies, vaccination_history, health_insurance_policy,
	permanent_address, correspondence_address, lane, city, state, country,
	postal_code, landmark, alternative_contact, address_type, additional_notes,
	assigned_doctor_name, assigned_doctor_email, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Patient, error) {
	var p Patient
	var docName, docEmail *string
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Gender, &p.DOB, &p.Phone,
		&p.BloodGroup, &p.Age, &p.EmergencyContact, &p.Allergies, &p.VaccinationHistory,
		&p.HealthInsurancePolicy, &p.PermanentAddress, &p.CorrespondenceAddress, &p.Lane,
		&p.City, &p.State, &p.Country, &p.PostalCode, &p.Landmark, &p.AlternativeContact,
		&p.AddressType, &p.AdditionalNotes, &docName, &docEmail, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if docEmail != nil {
		ref := DoctorRef{Email: *docEmail}
		if docName != nil {
			ref.Name = *docName
		}
		p.AssignedDoctor = &ref
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, name, email, password_hash, gender, dob, phone, blood_group, age,
			emergency_contact, allergies, vaccination_history, health_insurance_policy,
			permanent_address, correspondence_address, lane, city, state, country,
			postal_code, landmark, alternative_contact, address_type, additional_notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)`,
		p.ID, p.Name, p.Email, p.PasswordHash, p.Gender, p.DOB, p.Phone, p.BloodGroup, p.Age,
		p.EmergencyContact, p.Allergies, p.VaccinationHistory, p.HealthInsurancePolicy,
		p.PermanentAddress, p.CorrespondenceAddress, p.Lane, p.City, p.State, p.Country,
		p.PostalCode, p.Landmark, p.AlternativeContact, p.AddressType, p.AdditionalNotes)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	p, err := r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *repoPG) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patient WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET name=$2, gender=$3, dob=$4, phone=$5, blood_group=$6, age=$7,
			emergency_contact=$8, allergies=$9, vaccination_history=$10,
			health_insurance_policy=$11, permanent_address=$12, correspondence_address=$13,
			lane=$14, city=$15, state=$16, country=$17, postal_code=$18, landmark=$19,
			alternative_contact=$20, address_type=$21, additional_notes=$22, updated_at=NOW()
		WHERE email = $1`,
		p.Email, p.Name, p.Gender, p.DOB, p.Phone, p.BloodGroup, p.Age,
		p.EmergencyContact, p.Allergies, p.VaccinationHistory,
		p.HealthInsurancePolicy, p.PermanentAddress, p.CorrespondenceAddress,
		p.Lane, p.City, p.State, p.Country, p.PostalCode, p.Landmark,
		p.AlternativeContact, p.AddressType, p.AdditionalNotes)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SetAssignedDoctor(ctx context.Context, patientEmail string, doctor DoctorRef) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET assigned_doctor_name=$2, assigned_doctor_email=$3, updated_at=NOW()
		WHERE email = $1`,
		patientEmail, doctor.Name, doctor.Email)
	if err != nil {
		return fmt.Errorf("set assigned doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByAssignedDoctor(ctx context.Context, doctorEmail string) ([]Ref, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT name, email FROM patient WHERE assigned_doctor_email = $1 ORDER BY name`, doctorEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []Ref
	for rows.Next() {
		var ref Ref
		if err := rows.Scan(&ref.Name, &ref.Email); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
