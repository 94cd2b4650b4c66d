package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"doc-booking/configuration"
	"doc-booking/controllers"
	"doc-booking/jobs"
	"doc-booking/models"
	"doc-booking/payment"
	"doc-booking/receipt"
	"doc-booking/routes"
	"doc-booking/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// app is the wiring shared by every command.
type app struct {
	cfg   *configuration.Config
	log   zerolog.Logger
	db    *gorm.DB
	clock services.Clock
}

func newApp() (*app, error) {
	cfg, err := configuration.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := configuration.NewLogger(cfg.IsDev())
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	db, err := configuration.ConfigDB(cfg.DatabaseURL, cfg.IsDev())
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, db: db, clock: services.NewClock(loc)}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (a *app) slotLocker(ctx context.Context) (services.SlotLocker, *redis.Client) {
	if a.cfg.RedisAddr == "" {
		a.log.Info().Msg("REDIS_ADDR not set, slot exclusivity relies on the database index")
		return services.NoopSlotLocker{}, nil
	}
	client, err := configuration.InitRedis(ctx, a.cfg, a.log)
	if err != nil {
		a.log.Warn().Err(err).Msg("redis unavailable, slot exclusivity relies on the database index")
		return services.NoopSlotLocker{}, nil
	}
	return services.NewRedisSlotLocker(client), client
}

func (a *app) mailer() services.Mailer {
	if a.cfg.SMTPUser == "" {
		return services.NoopMailer{}
	}
	return services.NewSMTPMailer(a.cfg.SMTPHost, a.cfg.SMTPPort, a.cfg.SMTPUser, a.cfg.SMTPPassword, a.cfg.MailFrom)
}

func (a *app) handler(locker services.SlotLocker) *controllers.Handler {
	reviews := services.NewReviewService(a.db, a.clock, a.log)
	return &controllers.Handler{
		Users:        services.NewUserService(a.db, a.log),
		Doctors:      services.NewDoctorService(a.db, reviews, a.clock, a.log),
		Bookings:     services.NewBookingService(a.db, locker, a.clock, a.log),
		Appointments: services.NewAppointmentService(a.db, a.clock, a.log),
		Payments:     services.NewPaymentService(a.db, payment.NewRazorpay(a.cfg.RazorpayKeyID, a.cfg.RazorpayKeySecret), a.mailer(), a.log),
		Reviews:      reviews,
		Receipts:     services.NewReceiptService(a.db, receipt.PDF{}, a.clock, a.log),
		SigningKey:   a.cfg.SigningKey(),
		Log:          a.log,
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the completion sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if migrate {
				if err := configuration.Migrate(a.db); err != nil {
					return err
				}
			}
			if !a.cfg.IsDev() {
				gin.SetMode(gin.ReleaseMode)
			}

			locker, rdb := a.slotLocker(ctx)
			if rdb != nil {
				defer rdb.Close()
			}
			h := a.handler(locker)

			sweeper, err := jobs.StartCompletionScheduler(a.cfg.SweepSchedule, a.clock.Loc, h.Appointments, a.log)
			if err != nil {
				return err
			}
			defer sweeper.Stop()

			srv := &http.Server{
				Addr:              ":" + a.cfg.Port,
				Handler:           routes.UserRoutes(h, a.cfg.CORSOrigins),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", srv.Addr).Str("env", a.cfg.Env).Msg("server listening")
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve: %w", err)
				}
			case <-ctx.Done():
				a.log.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply schema migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := configuration.Migrate(a.db); err != nil {
				return err
			}
			a.log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark confirmed appointments whose slot has passed as completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			n, err := services.NewAppointmentService(a.db, a.clock, a.log).CompleteDue(cmd.Context())
			if err != nil {
				return err
			}
			a.log.Info().Int("completed", n).Msg("sweep finished")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var req models.SignupRequest
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account or promote an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Username == "" || len(req.Password) < 8 {
				return errors.New("--username and a --password of at least 8 characters are required")
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			_, err = services.NewUserService(a.db, a.log).CreateAdmin(cmd.Context(), req)
			return err
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "admin username")
	cmd.Flags().StringVar(&req.Password, "password", "", "admin password")
	cmd.Flags().StringVar(&req.Email, "email", "", "admin email")
	return cmd
}
