package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soldera/cmd/controllers"
	"soldera/internal/config"
	"soldera/internal/models"
	"soldera/internal/repo"
	"soldera/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/robfig/cron/v3"
)

const defaultConfigPath = "secrets.json"

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.DateTime,
	}))
	slog.SetDefault(logger)

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := repo.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}

	if err := repo.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("database handle: %v", err)
	}

	logService, err := services.NewLogService(db)
	if err != nil {
		log.Fatalf("create log service: %v", err)
	}

	resultService, err := services.NewResultService(db)
	if err != nil {
		log.Fatalf("create result service: %v", err)
	}

	discoveryService, err := services.NewDiscoveryService(cfg.Discovery, nil)
	if err != nil {
		log.Fatalf("create discovery service: %v", err)
	}

	xlsxService, err := services.NewXlsxService(cfg.Discovery.TempDir)
	if err != nil {
		log.Fatalf("create xlsx service: %v", err)
	}

	ingestionService, err := services.NewIngestionService(
		discoveryService,
		xlsxService,
		resultService,
		logService,
	)
	if err != nil {
		log.Fatalf("create ingestion service: %v", err)
	}

	taskService, err := services.NewTaskService(db, ingestionService, logger)
	if err != nil {
		log.Fatalf("create task service: %v", err)
	}

	auctionResultsController, err := controllers.NewAuctionResultsController(resultService)
	if err != nil {
		log.Fatalf("create auction results controller: %v", err)
	}

	tasksController, err := controllers.NewTasksController(taskService, logService)
	if err != nil {
		log.Fatalf("create tasks controller: %v", err)
	}

	logsController, err := controllers.NewLogsController(logService)
	if err != nil {
		log.Fatalf("create logs controller: %v", err)
	}

	refreshController, err := controllers.NewRefreshController(taskService)
	if err != nil {
		log.Fatalf("create refresh controller: %v", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	if err := controllers.RegisterHealthRoutes(router, sqlDB); err != nil {
		log.Fatalf("register health routes: %v", err)
	}
	if err := auctionResultsController.RegisterRoutes(router); err != nil {
		log.Fatalf("register auction results routes: %v", err)
	}
	if err := tasksController.RegisterRoutes(router); err != nil {
		log.Fatalf("register tasks routes: %v", err)
	}
	if err := logsController.RegisterRoutes(router); err != nil {
		log.Fatalf("register logs routes: %v", err)
	}
	if err := refreshController.RegisterRoutes(router); err != nil {
		log.Fatalf("register refresh routes: %v", err)
	}

	scheduler, err := startCron(cfg.Discovery.Schedule, taskService, logger)
	if err != nil {
		log.Fatalf("start cron: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{Addr: cfg.ListenAddr, Handler: router}
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("run server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	<-scheduler.Stop().Done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown server", "error", err)
	}
	taskService.Wait()
}

type taskEnqueuer interface {
	Enqueue(ctx context.Context) (models.Task, error)
}

// startCron enqueues a discovery task on schedule. Scheduled runs go through
// the task queue so they are recorded like manual refreshes.
func startCron(schedule string, service taskEnqueuer, logger *slog.Logger) (*cron.Cron, error) {
	if service == nil {
		return nil, errors.New("task service is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	scheduler := cron.New()

	if _, err := scheduler.AddFunc(schedule, func() {
		task, err := service.Enqueue(context.Background())
		if err != nil {
			logger.Error("enqueue scheduled discovery", "error", err)
			return
		}
		logger.Info("scheduled discovery enqueued", "task_id", task.ID)
	}); err != nil {
		return nil, err
	}

	scheduler.Start()
	return scheduler, nil
}
