package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/export"
	"github.com/joseph-ayodele/contact-extractor/internal/ingest"
	"github.com/joseph-ayodele/contact-extractor/internal/pipeline"
	"github.com/joseph-ayodele/contact-extractor/internal/server"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg := common.LoadConfig()
	logger, closeLog := common.SetupLogger(cfg.Logging.Level, cfg.Logging.File)
	defer closeLog()
	slog.SetDefault(logger)
	if cfg.Logging.Level > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vocab, err := common.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		logger.Error("failed to load vocabulary", "file", cfg.VocabularyFile, "error", err)
		os.Exit(1)
	}

	proc, err := pipeline.Build(ctx, cfg, vocab, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	if h := proc.Health(ctx); !h.Ready() {
		// still serve: text inputs work without OCR, and every input degrades to NLP-only without providers
		logger.Warn("pipeline not fully ready", "ocr", h.OCR.Available, "ocr_error", h.OCR.Error, "llm", h.LLM)
	}

	ingestor := ingest.NewFSIngestor(proc, logger)
	var opts []server.Option
	if cfg.Ingest.WatchDir != "" {
		opts = append(opts, server.WithIngestor(ingestor, cfg.Ingest.WatchDir))
	}
	api := server.NewServer(proc, export.NewService(logger), cfg.Request.MaxFileSize, logger, opts...)
	httpSrv := api.HTTPServer(cfg.Server.HTTPAddr)

	grpcSrv, hs := server.NewGRPCServer()
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("contactd http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("contactd grpc health listening", "addr", cfg.Server.GRPCAddr)
		return grpcSrv.Serve(lis)
	})
	g.Go(func() error {
		server.ReportHealth(gctx, proc, hs, 15*time.Second, logger)
		return nil
	})
	if cfg.Ingest.WatchDir != "" {
		g.Go(func() error {
			logger.Info("watching inbox", "dir", cfg.Ingest.WatchDir)
			return ingestor.Watch(gctx, ingest.WatchConfig{
				Roots:       []string{cfg.Ingest.WatchDir},
				InitialScan: true,
				SkipHidden:  true,
				Debounce:    cfg.Ingest.Debounce,
				Logger:      logger,
			})
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Request.Timeout+5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		grpcSrv.GracefulStop()
		proc.Shutdown(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("contactd stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
