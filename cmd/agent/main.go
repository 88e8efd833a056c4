// Package main runs the interview agent: session orchestration, capture,
// telemetry and the HTTP control API, with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-hire/interview-agent/config"
	"github.com/aura-hire/interview-agent/internal/api"
	"github.com/aura-hire/interview-agent/internal/control"
	"github.com/aura-hire/interview-agent/internal/media"
	"github.com/aura-hire/interview-agent/internal/recorder"
	"github.com/aura-hire/interview-agent/internal/session"
	"github.com/aura-hire/interview-agent/internal/worker"
	"github.com/aura-hire/interview-agent/pkg/queue"
	"github.com/aura-hire/interview-agent/pkg/redis"
	"github.com/aura-hire/interview-agent/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	// Redis and S3 are optional: without them recordings stay on local disk.
	var jobQueue *queue.Queue
	var s3Client *storage.S3
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, recording uploads disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		jobQueue = queue.NewQueue(rdb.Client, logger)
	}
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			RecordingsBucket:     cfg.AWS.RecordingsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	var provider media.Provider
	if cfg.Media.Synthetic {
		provider = media.NewSyntheticProvider()
		logger.Info("using synthetic media provider")
	}

	outputDir := cfg.Recording.OutputDir
	if outputDir == "" {
		outputDir = os.TempDir()
	}
	sink := worker.NewDiskQueueSink(outputDir, jobQueue, logger)

	backend := api.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout(), logger)
	coord := session.NewCoordinator(backend, session.Options{
		JobRole:       cfg.Session.JobRole,
		TelemetryURL:  cfg.Telemetry.BaseURL,
		FrameInterval: cfg.Telemetry.FrameInterval(),
		Provider:      provider,
		VideoWidth:    cfg.Media.VideoWidth,
		VideoHeight:   cfg.Media.VideoHeight,
		Encoders:      recorder.PCMFactory{},
		Sink:          sink,
	}, logger)

	handler := control.NewHandler(coord)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(control.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(control.Logger(logger))

	router.GET("/health", handler.Health)

	sess := router.Group("/session")
	{
		sess.GET("", handler.Session)
		sess.POST("/start", handler.Start)
		sess.POST("/camera/start", handler.StartCamera)
		sess.POST("/camera/stop", handler.StopCamera)
		sess.POST("/recording/start", handler.StartRecording)
		sess.POST("/recording/stop", handler.StopRecording)
		sess.PUT("/answer", handler.SetAnswer)
		sess.POST("/answer/submit", handler.SubmitAnswer)
		sess.GET("/report", handler.Report)
		sess.POST("/exit", handler.Exit)

		if s3Client != nil {
			recordings := control.NewRecordingsHandler(coord, s3Client)
			sess.GET("/recordings", recordings.List)
			sess.DELETE("/recordings/*key", recordings.Delete)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("agent listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := coord.Exit(shutdownCtx, true); err != nil {
		logger.Error("session teardown", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("agent stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
