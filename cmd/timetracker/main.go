package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timetracker/internal/api"
	"timetracker/internal/clock"
	"timetracker/internal/config"
	"timetracker/internal/repository"
	"timetracker/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	clk := clock.System(cfg.Location)
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)

	taskSvc := service.NewTaskService(db, taskRepo, userRepo, clk, cfg.AutoStart)
	userSvc := service.NewUserService(db, userRepo, taskRepo)

	scheduler := service.NewSchedulerService(cfg.Location)
	if _, err := scheduler.ScheduleDaily("finish-all-tasks", cfg.FinishTime, func() error {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return taskSvc.FinishAllTasks(jobCtx)
	}); err != nil {
		log.Fatalf("schedule finish job: %v", err)
	}
	if _, err := scheduler.ScheduleDaily("delete-old-tasks", cfg.PurgeTime, func() error {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return taskSvc.DeleteOldTasks(jobCtx, cfg.TaskTTL)
	}); err != nil {
		log.Fatalf("schedule purge job: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.NewRouter(taskSvc, userSvc),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Time tracker listening on %s.", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
