package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskdash/taskdash-api/internal/config"
	"github.com/taskdash/taskdash-api/internal/email"
	"github.com/taskdash/taskdash-api/internal/reminder"
	"github.com/taskdash/taskdash-api/internal/repository/postgres"
	"github.com/taskdash/taskdash-api/pkg/logger"
	"github.com/taskdash/taskdash-api/pkg/metrics"
)

// Standalone scheduler process. Runs the same jobs as the API binary but
// without the REST surface, for deployments that separate web and
// background workloads.
func main() {
	lg := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		lg.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		lg.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	taskRepo := postgres.NewTaskRepository(base)
	meetingRepo := postgres.NewMeetingRepository(base)
	deliveryRepo := postgres.NewDeliveryRepository(base)

	m := metrics.New("taskdash_worker")
	notifier := email.NewSMTPService(cfg.SMTP)
	guard := reminder.NewGuard(deliveryRepo, lg)
	jobs := reminder.NewJobs(cfg.Reminder, meetingRepo, taskRepo, userRepo, base, guard, notifier, lg, m)
	engine := reminder.NewEngine(cfg.Reminder, jobs, lg, m)

	if err := engine.Start(); err != nil {
		lg.Fatal(err, "failed to start reminder engine")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := base.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}

	go func() {
		lg.Info("starting worker health server", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal(err, "health server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down worker")
	engine.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error(err, "forced shutdown")
	}
}
