package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// repoPG writes to shared.audit_event. The trail lives in the shared schema
// so the platform console can query across clinics; clinic-scoped queries
// filter on clinic_id.
type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const cols = `id, action, actor_id, actor_email, clinic_id, target_id, detail,
	request_id, remote_ip, session_id, recorded`

func (r *repoPG) Insert(ctx context.Context, ev *Event) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shared.audit_event (`+cols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		ev.ID, string(ev.Action), ev.ActorID, ev.ActorEmail, ev.ClinicID, ev.TargetID,
		ev.Detail, ev.RequestID, ev.RemoteIP, ev.SessionID, ev.Recorded)
	return err
}

func (r *repoPG) Search(ctx context.Context, f Filter, limit, offset int) ([]*Event, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Action != "" {
		where = append(where, "action = "+arg(string(f.Action)))
	}
	if f.ActorID != nil {
		where = append(where, "actor_id = "+arg(*f.ActorID))
	}
	if f.ClinicID != nil {
		where = append(where, "clinic_id = "+arg(*f.ClinicID))
	}
	if f.From != nil {
		where = append(where, "recorded >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "recorded <= "+arg(*f.To))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shared.audit_event WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + cols + ` FROM shared.audit_event WHERE ` + cond +
		` ORDER BY recorded DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var ev Event
		var action string
		if err := rows.Scan(&ev.ID, &action, &ev.ActorID, &ev.ActorEmail, &ev.ClinicID,
			&ev.TargetID, &ev.Detail, &ev.RequestID, &ev.RemoteIP, &ev.SessionID, &ev.Recorded); err != nil {
			return nil, 0, err
		}
		ev.Action = Action(action)
		events = append(events, &ev)
	}
	return events, total, rows.Err()
}
