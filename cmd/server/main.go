package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codenotes/internal/api"
	"codenotes/internal/app/service"
	"codenotes/internal/app/worker"
	"codenotes/internal/common/security"
	"codenotes/internal/domain/repository"
	"codenotes/internal/platform/config"
	"codenotes/internal/platform/database"
	"codenotes/internal/platform/logger"
	"codenotes/internal/platform/queue"
)

func main() {
	issueToken := flag.String("issue-token", "", "print a bearer token for this user id and exit")
	flag.Parse()

	// 1. Load Configuration
	foundEnv := config.Load()

	log, err := logger.New(config.AppConfig.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	if !foundEnv {
		log.Debug("no .env file found, using environment only")
	}

	// 2. Initialize JWT
	security.InitJWT(config.AppConfig.JWTKey)
	if *issueToken != "" {
		token, err := security.GenerateToken(*issueToken, config.AppConfig.JWTExp)
		if err != nil {
			log.Fatal("failed to issue token", "error", err)
		}
		fmt.Println(token)
		return
	}

	ctx := context.Background()

	// 3. Initialize Database
	if err := database.Connect(ctx); err != nil {
		log.Fatal("failed to connect database", "driver", config.AppConfig.DBDriver, "error", err)
	}
	defer database.Close()
	log.Info("database connected", "driver", database.Current)

	// 4. Initialize Repositories
	problemRepo := repository.NewProblemRepository(database.DB, database.Current)
	topicRepo := repository.NewTopicRepository(database.DB, database.Current)
	userRepo := repository.NewUserRepository(database.DB, database.Current)

	reconcileService := service.NewReconcileService(problemRepo, topicRepo, userRepo, log)

	// 5. Repair queue and worker (optional)
	var repairQueue service.RepairQueue
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	workerDone := make(chan struct{})

	if config.AppConfig.RepairEnabled {
		if err := queue.ConnectRedis(ctx); err != nil {
			log.Fatal("failed to connect redis", "addr", config.AppConfig.RedisAddr, "error", err)
		}
		defer queue.CloseRedis()
		log.Info("redis connected", "addr", config.AppConfig.RedisAddr)

		jobs := service.NewRepairJobService(queue.RDB, config.AppConfig.RepairQueueName)
		repairQueue = jobs
		repairWorker := worker.NewRepairWorker(queue.RDB, jobs, reconcileService, log, worker.Options{
			LockPrefix:  config.AppConfig.RepairLockPrefix,
			LockTTL:     time.Duration(config.AppConfig.RepairLockTTLSeconds) * time.Second,
			MaxAttempts: config.AppConfig.RepairMaxAttempts,
			LockBackoff: time.Duration(config.AppConfig.RepairLockBackoffMs) * time.Millisecond,
		})
		go func() {
			defer close(workerDone)
			repairWorker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
		log.Warn("repair queue disabled; drift is only logged until the next reconcile")
	}

	// 6. Initialize Services
	drift := service.NewDriftReporter(log, repairQueue)
	router := api.NewRouter(api.Services{
		Problems:   service.NewProblemService(problemRepo, topicRepo, userRepo, drift),
		Topics:     service.NewTopicService(topicRepo, problemRepo, userRepo, drift),
		Membership: service.NewMembershipService(userRepo, problemRepo, topicRepo, drift),
		Reconcile:  reconcileService,
	})

	// 7. HTTP server
	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("server starting", "port", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not listen", "port", config.AppConfig.APIPort, "error", err)
		}
	}()

	<-stop

	log.Info("shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("repair worker did not stop in time")
	}
	log.Info("server and worker stopped")
}
