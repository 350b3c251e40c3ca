package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carelink/carelink/internal/config"
	"github.com/carelink/carelink/internal/domain/access"
	"github.com/carelink/carelink/internal/domain/appointment"
	"github.com/carelink/carelink/internal/domain/doctor"
	"github.com/carelink/carelink/internal/domain/messaging"
	"github.com/carelink/carelink/internal/domain/notification"
	"github.com/carelink/carelink/internal/domain/otp"
	"github.com/carelink/carelink/internal/domain/patient"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/mail"
	"github.com/carelink/carelink/internal/platform/middleware"
	"github.com/carelink/carelink/internal/platform/realtime"
)

// doctorDirectory adapts doctor.Repository to patient.DoctorDirectory,
// keeping the patient and doctor packages free of each other's imports.
type doctorDirectory struct {
	repo doctor.Repository
}

func (d doctorDirectory) GetRef(ctx context.Context, email string) (patient.DoctorRef, error) {
	doc, err := d.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			return patient.DoctorRef{}, patient.ErrNotFound
		}
		return patient.DoctorRef{}, err
	}
	return patient.DoctorRef{Name: doc.Name, Email: doc.Email}, nil
}

func (d doctorDirectory) RecordAssignment(ctx context.Context, doctorEmail, patientEmail string) error {
	return d.repo.UpsertAssignment(ctx, doctorEmail, patientEmail)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "portal-server",
		Short: "Healthcare portal API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal API server",
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
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
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
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Collaborators
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	passwords := auth.BcryptPasswords{}
	templates := mail.NewTemplateEngine()
	mailer := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	// Repositories
	patientRepo := patient.NewRepoPG(pool)
	doctorRepo := doctor.NewRepoPG(pool)
	otpRepo := otp.NewRepoPG(pool)
	accessRepo := access.NewRepoPG(pool)
	notificationRepo := notification.NewRepoPG(pool)
	messageRepo := messaging.NewRepoPG(pool)
	appointmentRepo := appointment.NewRepoPG(pool)

	// Realtime
	tracker := realtime.NewTracker(logger)
	channel := realtime.NewChannelHandler(tracker, cfg.CORSOrigins)

	// Services
	otpSvc := otp.NewService(otpRepo, otp.MultiChecker{patientRepo, doctorRepo}, mailer, templates,
		time.Duration(cfg.OTPTTLMinutes)*time.Minute,
		time.Duration(cfg.OTPResendSeconds)*time.Second)
	patientSvc := patient.NewService(patientRepo, doctorDirectory{repo: doctorRepo},
		otpSvc, issuer, passwords, db.NewRunner(pool))
	doctorSvc := doctor.NewService(doctorRepo, otpSvc, issuer, passwords)
	notificationSvc := notification.NewService(notificationRepo)
	accessSvc := access.NewService(accessRepo, patientRepo, doctorRepo, notificationSvc, mailer, templates, logger)
	messagingSvc := messaging.NewService(messageRepo, tracker, cfg.AttachmentMaxBytes)
	appointmentSvc := appointment.NewService(appointmentRepo, mailer, templates, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	e.Use(middleware.BodyLimit("1M", "8M"))

	// Route groups
	apiV1 := e.Group("/api/v1")
	authed := apiV1.Group("", auth.Middleware(issuer))
	patientOnly := apiV1.Group("", auth.Middleware(issuer), auth.RequireKind(auth.KindPatient))
	doctorOnly := apiV1.Group("", auth.Middleware(issuer), auth.RequireKind(auth.KindDoctor))

	otp.NewHandler(otpSvc).RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1, patientOnly)
	doctor.NewHandler(doctorSvc).RegisterRoutes(apiV1, doctorOnly)
	access.NewHandler(accessSvc).RegisterRoutes(patientOnly, doctorOnly)
	notification.NewHandler(notificationSvc).RegisterRoutes(doctorOnly)
	messaging.NewHandler(messagingSvc).RegisterRoutes(authed)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(apiV1, patientOnly, doctorOnly)
	channel.RegisterRoutes(e.Group(""))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Start and wait for shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// errorHandler renders every error the portal emits as the envelope the
// frontend expects: {success: false, message: ...}.
func errorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, echo.Map{"success": false, "message": message})
	}
}
