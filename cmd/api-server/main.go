package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/clinic-front-office/internal/api"
	"github.com/hackgods/clinic-front-office/internal/appointment"
	"github.com/hackgods/clinic-front-office/internal/auth"
	"github.com/hackgods/clinic-front-office/internal/booking"
	"github.com/hackgods/clinic-front-office/internal/config"
	"github.com/hackgods/clinic-front-office/internal/dashboard"
	"github.com/hackgods/clinic-front-office/internal/db"
	"github.com/hackgods/clinic-front-office/internal/doctor"
	"github.com/hackgods/clinic-front-office/internal/invoice"
	"github.com/hackgods/clinic-front-office/internal/logger"
	"github.com/hackgods/clinic-front-office/internal/patient"
	redisclient "github.com/hackgods/clinic-front-office/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("prod", "info", os.Stderr)
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	log := logger.New(cfg.Env, cfg.LogLevel, os.Stdout)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.DBMaxConns, cfg.DBMinConns)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	redisCtx, cancelRedis := context.WithTimeout(rootCtx, 5*time.Second)
	rdb, err := redisclient.NewRedisClient(redisCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	cancelRedis()
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	doctors := doctor.NewService(doctor.NewPgRepository(pgPool))
	patients := patient.NewService(patient.NewPgRepository(pgPool))
	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL, log)
	appointments := appointment.NewService(appointment.NewPgRepository(pgPool), doctors, patients, locker, log)
	bookings := booking.NewService(booking.NewRedisStore(rdb, cfg.DraftTTL), appointments, doctors, patients, log)
	invoices := invoice.NewService(invoice.NewPgRepository(pgPool), db.NewTxRunner(pgPool), doctors, patients, log)
	authSvc := auth.NewService(auth.NewPgRepository(pgPool), auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL), log)
	dash := dashboard.NewService(dashboard.NewPgRepository(pgPool))

	router := api.NewRouter(api.RouterConfig{
		Doctors:      doctors,
		Patients:     patients,
		Appointments: appointments,
		Bookings:     bookings,
		Invoices:     invoices,
		Auth:         authSvc,
		Dashboard:    dash,
		Postgres:     pgPool,
		Redis:        api.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		Logger:       log,
		CORSOrigins:  cfg.CORSOrigins,
		Env:          cfg.Env,
		Version:      cfg.Version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("api-server stopped")
}
