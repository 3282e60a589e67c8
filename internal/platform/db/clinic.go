package db

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/clinova/clinova/internal/platform/auth"
)

type contextKey string

const (
	ClinicSlugKey contextKey = "clinic_slug"
	DBConnKey     contextKey = "db_conn"
)

var clinicSlugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

var errClinicScopeMismatch = errors.New("clinic scope mismatch")

// slugDirectory maps clinic ids to schema slugs. Slugs are fixed at clinic
// creation, so entries never expire once loaded.
type slugDirectory struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]string
	lookup func(ctx context.Context, id uuid.UUID) (string, error)
}

func newSlugDirectory(lookup func(ctx context.Context, id uuid.UUID) (string, error)) *slugDirectory {
	return &slugDirectory{
		byID:   make(map[uuid.UUID]string),
		lookup: lookup,
	}
}

func (d *slugDirectory) slugFor(ctx context.Context, id uuid.UUID) (string, error) {
	d.mu.RLock()
	slug, ok := d.byID[id]
	d.mu.RUnlock()
	if ok {
		return slug, nil
	}

	slug, err := d.lookup(ctx, id)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	d.byID[id] = slug
	d.mu.Unlock()
	return slug, nil
}

// ClinicScope returns middleware that pins the request's database connection
// to the clinic's schema. The schema is derived from the authenticated
// profile's clinic, so a client cannot steer its writes into another
// clinic's schema; requests without any clinic (public paths, the CLI,
// unimpersonating super-admins) fall back to the header or the default.
func ClinicScope(pool *pgxpool.Pool, defaultSlug string) echo.MiddlewareFunc {
	slugs := newSlugDirectory(func(ctx context.Context, id uuid.UUID) (string, error) {
		var slug string
		err := pool.QueryRow(ctx, `SELECT slug FROM shared.clinic WHERE id = $1`, id).Scan(&slug)
		return slug, err
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			claimSlug := ""
			if cid := auth.ClinicIDFromContext(ctx); cid != uuid.Nil {
				s, err := slugs.slugFor(ctx, cid)
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "clinic scope resolution failed")
				}
				claimSlug = s
			}

			slug, err := resolveClinicSlug(c, claimSlug, defaultSlug)
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "clinic scope mismatch")
			}

			if !clinicSlugPattern.MatchString(slug) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic identifier")
			}

			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			schema := fmt.Sprintf("clinic_%s", slug)
			_, err = conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, shared, public", schema))
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "clinic scope resolution failed")
			}

			ctx = context.WithValue(ctx, ClinicSlugKey, slug)
			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("clinic_slug", slug)

			return next(c)
		}
	}
}

// resolveClinicSlug picks the schema a request operates in. The gateway's
// impersonation overlay wins outright; after that the authenticated
// profile's clinic dominates, and the X-Clinic-Slug header may confirm it
// but never change it. The header is only authoritative for callers with no
// clinic claim at all.
func resolveClinicSlug(c echo.Context, claimSlug, defaultSlug string) (string, error) {
	if slug, ok := c.Get("clinic_slug").(string); ok && slug != "" {
		return slug, nil
	}

	header := c.Request().Header.Get("X-Clinic-Slug")

	if claimSlug != "" {
		if header != "" && header != claimSlug {
			return "", errClinicScopeMismatch
		}
		return claimSlug, nil
	}

	if header != "" {
		return header, nil
	}

	return defaultSlug, nil
}

// ConnFromContext retrieves the clinic-scoped database connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// ClinicSlugFromContext retrieves the clinic slug from context.
func ClinicSlugFromContext(ctx context.Context) string {
	slug, _ := ctx.Value(ClinicSlugKey).(string)
	return slug
}

// CreateClinicSchema creates a new schema for a clinic and runs all migrations
// against it. If migrationsDir is empty, migrations are skipped.
func CreateClinicSchema(ctx context.Context, pool *pgxpool.Pool, slug string, migrationsDir string) error {
	if !clinicSlugPattern.MatchString(slug) {
		return fmt.Errorf("invalid clinic identifier: %s", slug)
	}

	schema := fmt.Sprintf("clinic_%s", slug)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema))
	if err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	if migrationsDir != "" {
		migrator := NewMigrator(pool, migrationsDir)
		if _, err := migrator.Up(ctx, schema); err != nil {
			return fmt.Errorf("run migrations for %s: %w", schema, err)
		}
	}

	return nil
}
