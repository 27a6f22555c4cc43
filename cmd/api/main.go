package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/taskdash/taskdash-api/internal/config"
	"github.com/taskdash/taskdash-api/internal/email"
	authHandler "github.com/taskdash/taskdash-api/internal/handler/auth"
	emailHandler "github.com/taskdash/taskdash-api/internal/handler/email"
	healthHandler "github.com/taskdash/taskdash-api/internal/handler/health"
	meetingHandler "github.com/taskdash/taskdash-api/internal/handler/meeting"
	taskHandler "github.com/taskdash/taskdash-api/internal/handler/task"
	userHandler "github.com/taskdash/taskdash-api/internal/handler/user"
	"github.com/taskdash/taskdash-api/internal/middleware"
	"github.com/taskdash/taskdash-api/internal/reminder"
	"github.com/taskdash/taskdash-api/internal/repository/postgres"
	"github.com/taskdash/taskdash-api/internal/router"
	authService "github.com/taskdash/taskdash-api/internal/service/auth"
	meetingService "github.com/taskdash/taskdash-api/internal/service/meeting"
	taskService "github.com/taskdash/taskdash-api/internal/service/task"
	userService "github.com/taskdash/taskdash-api/internal/service/user"
	"github.com/taskdash/taskdash-api/pkg/auth"
	"github.com/taskdash/taskdash-api/pkg/logger"
	"github.com/taskdash/taskdash-api/pkg/metrics"
	"github.com/taskdash/taskdash-api/pkg/security"
)

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

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	hasher := security.NewBcryptHasher(0)

	authSvc := authService.NewService(userRepo, jwtSvc, hasher)
	userSvc := userService.NewService(userRepo)
	taskSvc := taskService.NewService(taskRepo)
	meetingSvc := meetingService.NewService(meetingRepo, userRepo, cfg.Reminder.MaxLeadMinutes(), lg)

	m := metrics.New("taskdash")
	notifier := email.NewSMTPService(cfg.SMTP)
	guard := reminder.NewGuard(deliveryRepo, lg)
	jobs := reminder.NewJobs(cfg.Reminder, meetingRepo, taskRepo, userRepo, base, guard, notifier, lg, m)
	engine := reminder.NewEngine(cfg.Reminder, jobs, lg, m)

	if cfg.Reminder.Enabled {
		if err := engine.Start(); err != nil {
			lg.Fatal(err, "failed to start reminder engine")
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	r := router.NewRouter(
		lg,
		authMiddleware,
		healthHandler.NewHandler(base, engine),
		authHandler.NewHandler(authSvc),
		userHandler.NewHandler(userSvc),
		taskHandler.NewHandler(taskSvc),
		meetingHandler.NewHandler(meetingSvc),
		emailHandler.NewHandler(notifier),
		router.Config{
			RateLimit: rate.Limit(50),
			RateBurst: 100,
			CacheTTL:  30 * time.Second,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		lg.Info("starting server", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down")

	if cfg.Reminder.Enabled {
		engine.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error(err, "forced shutdown")
	}
}
