package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/appointment-service/internal/api/http"
	"github.com/spec-kit/appointment-service/internal/api/http/handlers"
	"github.com/spec-kit/appointment-service/internal/auth"
	"github.com/spec-kit/appointment-service/internal/config"
	"github.com/spec-kit/appointment-service/internal/events"
	"github.com/spec-kit/appointment-service/internal/observability"
	"github.com/spec-kit/appointment-service/internal/persistence"
	"github.com/spec-kit/appointment-service/internal/repository"
	"github.com/spec-kit/appointment-service/internal/repository/memstore"
	"github.com/spec-kit/appointment-service/internal/service"
	"github.com/spec-kit/appointment-service/internal/worker"
)

type stores struct {
	appointments repository.AppointmentRepository
	history      repository.AppointmentHistoryRepository
	staff        repository.StaffRepository
	schedules    repository.WorkScheduleRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	loc, err := cfg.Booking.Location()
	if err != nil {
		logger.Fatal("invalid booking timezone", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	checks := map[string]handlers.Pinger{"redis": redis}
	var st stores
	if pool := pg.PoolHandle(); pool != nil {
		st = stores{
			appointments: repository.NewAppointmentRepository(pool),
			history:      repository.NewAppointmentHistoryRepository(pool),
			staff:        repository.NewStaffRepository(pool),
			schedules:    repository.NewWorkScheduleRepository(pool),
		}
		checks["postgres"] = pg
	} else {
		logger.Warn("running on the in-memory store; data is lost on restart")
		mem := memstore.New()
		st = stores{
			appointments: mem.Appointments(),
			history:      mem.History(),
			staff:        mem.Staff(),
			schedules:    mem.Schedules(),
		}
	}
	st.schedules = repository.NewCachedWorkScheduleRepository(st.schedules, redis.Client, cfg.Booking.ScheduleCacheTTL(), logger)

	metrics := observability.NewMetrics(nil)
	dispatcher := events.NewInMemoryDispatcher(logger)

	queueClient := asynq.NewClient(worker.RedisOpt(cfg.Redis))
	defer queueClient.Close()
	notificationService := service.NewNotificationService(dispatcher,
		worker.NewAsynqQueue(queueClient, cfg.Notification.MaxRetry), metrics, logger)
	worker.StartNotificationWorker(notificationService)

	bookingService := service.NewBookingService(cfg.Booking, service.BookingDependencies{
		AppointmentRepo: st.appointments,
		HistoryRepo:     st.history,
		StaffRepo:       st.staff,
		ScheduleRepo:    st.schedules,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
		Location:        loc,
	})
	staffService := service.NewStaffService(service.StaffDependencies{
		StaffRepo:    st.staff,
		ScheduleRepo: st.schedules,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	var limiter *httptransport.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = httptransport.NewRateLimiter(redis.Client, cfg.RateLimit, logger)
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks),
		Appointments:      handlers.NewAppointmentsHandler(bookingService),
		AdminAppointments: handlers.NewAdminAppointmentsHandler(bookingService),
		Staff:             handlers.NewStaffHandler(staffService, bookingService),
		AuthMiddleware:    auth.NewAuthMiddleware(tokens),
		RateLimiter:       limiter,
		Metrics:           metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
