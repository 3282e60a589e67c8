package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinova/clinova/internal/config"
	"github.com/clinova/clinova/internal/domain/appointment"
	"github.com/clinova/clinova/internal/domain/audit"
	"github.com/clinova/clinova/internal/domain/clinic"
	"github.com/clinova/clinova/internal/domain/profile"
	"github.com/clinova/clinova/internal/platform/db"
	"github.com/clinova/clinova/internal/platform/gateway"
	"github.com/clinova/clinova/internal/platform/metrics"
	"github.com/clinova/clinova/internal/platform/middleware"
	"github.com/clinova/clinova/internal/platform/session"
	"github.com/clinova/clinova/internal/platform/sessionwatch"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinova-server",
		Short: "Clinova clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(clinicCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "shared", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", "shared", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func clinicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clinic",
		Short: "Manage clinics",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a clinic and create its schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			slug, _ := cmd.Flags().GetString("slug")
			dir, _ := cmd.Flags().GetString("dir")
			if name == "" || slug == "" {
				return fmt.Errorf("--name and --slug are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := clinic.NewService(clinic.NewRepoPG(pool))
			cl := &clinic.Clinic{Name: name, Slug: slug, Active: true}
			if err := svc.Create(ctx, cl); err != nil {
				return err
			}

			fmt.Printf("Creating clinic schema: clinic_%s\n", slug)
			if err := db.CreateClinicSchema(ctx, pool, slug, dir); err != nil {
				return err
			}
			fmt.Printf("Clinic %s created with id %s.\n", name, cl.ID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Clinic display name")
	createCmd.Flags().String("slug", "", "Clinic slug (alphanumeric, names the schema)")
	createCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(createCmd)

	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user profiles",
	}

	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision a user profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			fullName, _ := cmd.Flags().GetString("name")
			role, _ := cmd.Flags().GetString("role")
			clinicID, _ := cmd.Flags().GetString("clinic-id")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || role == "" || password == "" {
				return fmt.Errorf("--email, --role and --password are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			p := &profile.Profile{
				Email:    email,
				FullName: fullName,
				Role:     profile.ParseRole(role),
				IsActive: true,
			}
			if clinicID != "" {
				cid, err := uuid.Parse(clinicID)
				if err != nil {
					return fmt.Errorf("invalid --clinic-id: %w", err)
				}
				p.ClinicID = &cid
			}

			svc := profile.NewService(profile.NewRepoPG(pool))
			if err := svc.Provision(ctx, p, password); err != nil {
				return err
			}
			fmt.Printf("User %s provisioned with id %s.\n", email, p.UserID)
			return nil
		},
	}
	provisionCmd.Flags().String("email", "", "User email")
	provisionCmd.Flags().String("name", "", "Full name")
	provisionCmd.Flags().String("role", "", "Role (super_admin, clinic_manager, therapist, receptionist, patient)")
	provisionCmd.Flags().String("clinic-id", "", "Clinic id for clinic-bound roles")
	provisionCmd.Flags().String("password", "", "Initial password")
	cmd.AddCommand(provisionCmd)

	deactivateCmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate a user profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			uid, err := uuid.Parse(id)
			if err != nil {
				return fmt.Errorf("invalid --id: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := profile.NewService(profile.NewRepoPG(pool))
			if err := svc.SetActive(ctx, uid, false); err != nil {
				return err
			}
			fmt.Printf("User %s deactivated. Their next navigation lands on the lockout page.\n", id)
			return nil
		},
	}
	deactivateCmd.Flags().String("id", "", "User id")
	cmd.AddCommand(deactivateCmd)

	return cmd
}

// profileAuthenticator adapts the profile service to the session handler's
// Authenticator interface, avoiding an import cycle between the session
// platform package and the profile domain.
type profileAuthenticator struct {
	svc *profile.Service
}

func (a *profileAuthenticator) Authenticate(ctx context.Context, email, password string) (session.Account, error) {
	p, err := a.svc.Authenticate(ctx, email, password)
	if err != nil {
		return session.Account{}, err
	}
	return session.Account{ID: p.UserID, Email: p.Email}, nil
}

// auditAction maps a middleware audit entry onto a trail action. The zero
// return means the entry is log-only and gets no database row.
func auditAction(entry middleware.AuditEntry) audit.Action {
	switch entry.Event {
	case "login":
		return audit.ActionLogin
	case "logout":
		return audit.ActionLogout
	case "impersonation_start":
		return audit.ActionImpersonationStart
	case "impersonation_stop":
		return audit.ActionImpersonationStop
	case "user_change":
		switch {
		case strings.HasSuffix(entry.Path, "/role"):
			return audit.ActionRoleChange
		case strings.HasSuffix(entry.Path, "/active"):
			return audit.ActionActivationChange
		case strings.HasSuffix(entry.Path, "/clinic"):
			return audit.ActionClinicReassign
		}
	}
	return ""
}

// newAuditRecorder bridges the audit middleware to the audit domain service.
func newAuditRecorder(svc *audit.Service) middleware.AuditRecorder {
	return middleware.AuditRecorderFunc(func(entry middleware.AuditEntry) error {
		action := auditAction(entry)
		if action == "" {
			return nil
		}
		ev := audit.Event{
			Action:     action,
			ActorEmail: entry.UserEmail,
			Detail:     fmt.Sprintf("%s %s -> %d", entry.Method, entry.Path, entry.StatusCode),
			RequestID:  entry.RequestID,
			RemoteIP:   entry.IPAddress,
			SessionID:  entry.SessionID,
		}
		if uid, err := uuid.Parse(entry.UserID); err == nil {
			ev.ActorID = &uid
		}
		return svc.Record(context.Background(), ev)
	})
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Session store. Redis keeps revocation shared across instances; the
	// in-memory store is for single-instance and development setups.
	var store session.Store
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info().Msg("using redis session store")
	} else {
		memStore := session.NewMemoryStore()
		defer memStore.Close()
		store = memStore
		logger.Warn().Msg("REDIS_URL not set; sessions are held in process memory")
	}

	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	resolver := session.NewResolver(session.Config{
		SigningKey:    []byte(cfg.SessionSigningKey),
		TTL:           sessionTTL,
		RefreshWindow: time.Duration(cfg.SessionRefreshMinutes) * time.Minute,
		CookieSecure:  cfg.CookieSecure,
	}, store, logger)

	// Gateway dependencies
	m := metrics.New()
	overlays := gateway.NewOverlayStore(sessionTTL)
	defer overlays.Close()

	profileRepo := profile.NewRepoPG(pool)
	profileSvc := profile.NewService(profileRepo)
	clinicRepo := clinic.NewRepoPG(pool)
	clinicSvc := clinic.NewService(clinicRepo)
	auditSvc := audit.NewService(audit.NewRepoPG(pool), logger)
	apptSvc := appointment.NewService(appointment.NewRepoPG(pool))

	gw := gateway.New(resolver, profileRepo, overlays, m, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(middleware.SanitizeWithLogger(logger))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	e.Use(middleware.RateLimit(rateLimitCfg))

	e.Use(middleware.Audit(logger, newAuditRecorder(auditSvc)))

	// The gateway resolves the session, re-reads the profile, and decides
	// allow-or-redirect before anything tenant-scoped runs.
	e.Use(gw.Middleware())
	e.Use(db.ClinicScope(pool, cfg.DefaultClinic))

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", m.Handler())

	// Auth surface
	sessionHandler := session.NewHandler(resolver, &profileAuthenticator{svc: profileSvc}, logger)
	sessionHandler.RegisterRoutes(e)

	impersonationHandler := gateway.NewImpersonationHandler(overlays, clinicRepo, logger)
	impersonationHandler.RegisterRoutes(e)

	watchHandler := sessionwatch.NewHandler(store, sessionwatch.Config{
		Timeout: time.Duration(cfg.IdleTimeoutMinutes) * time.Minute,
		Warning: time.Duration(cfg.IdleWarningMinutes) * time.Minute,
	}, logger)
	watchHandler.RegisterRoutes(e)

	// Domain handlers
	apiV1 := e.Group("/api/v1")
	profile.NewHandler(profileSvc).RegisterRoutes(apiV1)
	clinic.NewHandler(clinicSvc).RegisterRoutes(apiV1)
	audit.NewHandler(auditSvc).RegisterRoutes(apiV1)
	appointment.NewHandler(apptSvc).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
