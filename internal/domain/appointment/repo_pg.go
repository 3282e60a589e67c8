package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinova/clinova/internal/platform/db"
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
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const cols = `id, clinic_id, patient_id, therapist_id, starts_at, ends_at, status, note, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	err := row.Scan(&a.ID, &a.ClinicID, &a.PatientID, &a.TherapistID, &a.StartsAt, &a.EndsAt,
		&status, &a.Note, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, clinic_id, patient_id, therapist_id, starts_at, ends_at, status, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.ClinicID, a.PatientID, a.TherapistID, a.StartsAt, a.EndsAt, string(a.Status), a.Note)
	return err
}

// Every query keys on clinic_id even though the schema is already
// tenant-scoped; a misrouted search_path must not leak another clinic's
// agenda.
func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM appointment WHERE clinic_id = $1 AND id = $2`, clinicID, id))
}

func (r *repoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Appointment, int, error) {
	where := []string{"clinic_id = $1"}
	args := []interface{}{clinicID}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if from != nil {
		where = append(where, "starts_at >= "+arg(*from))
	}
	if to != nil {
		where = append(where, "starts_at < "+arg(*to))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM appointment WHERE `+cond+
		` ORDER BY starts_at LIMIT `+arg(limit)+` OFFSET `+arg(offset), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *repoPG) SetStatus(ctx context.Context, clinicID, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET status = $1, updated_at = NOW() WHERE clinic_id = $2 AND id = $3`,
		string(status), clinicID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
