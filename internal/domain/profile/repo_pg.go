package profile

import (
	"context"

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

const cols = `user_id, email, full_name, role, clinic_id, is_active, password_hash, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var role string
	err := row.Scan(&p.UserID, &p.Email, &p.FullName, &role, &p.ClinicID, &p.IsActive,
		&p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Role = ParseRole(role)
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Profile) error {
	if p.UserID == uuid.Nil {
		p.UserID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO user_profile (user_id, email, full_name, role, clinic_id, is_active, password_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.UserID, p.Email, p.FullName, string(p.Role), p.ClinicID, p.IsActive, p.PasswordHash)
	return err
}

func (r *repoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM user_profile WHERE user_id = $1`, userID))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM user_profile WHERE email = $1`, email))
}

func (r *repoPG) Update(ctx context.Context, p *Profile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE user_profile SET email=$2, full_name=$3, role=$4, clinic_id=$5, is_active=$6, updated_at=NOW()
		WHERE user_id = $1`,
		p.UserID, p.Email, p.FullName, string(p.Role), p.ClinicID, p.IsActive)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE user_profile SET is_active=$2, updated_at=NOW() WHERE user_id = $1`, userID, active)
	return err
}

func (r *repoPG) SetRole(ctx context.Context, userID uuid.UUID, role Role, clinicID *uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE user_profile SET role=$2, clinic_id=$3, updated_at=NOW() WHERE user_id = $1`,
		userID, string(role), clinicID)
	return err
}

func (r *repoPG) ReassignClinic(ctx context.Context, userID uuid.UUID, clinicID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE user_profile SET clinic_id=$2, updated_at=NOW() WHERE user_id = $1`, userID, clinicID)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM user_profile`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM user_profile ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

func (r *repoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Profile, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM user_profile WHERE clinic_id = $1`, clinicID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM user_profile WHERE clinic_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		clinicID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

func collect(rows pgx.Rows, total int) ([]*Profile, int, error) {
	var out []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
