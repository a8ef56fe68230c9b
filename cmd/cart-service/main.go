package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GitwithRaj/talktocart/internal/cart"
	"github.com/GitwithRaj/talktocart/internal/catalog"
	"github.com/GitwithRaj/talktocart/internal/clients"
	"github.com/GitwithRaj/talktocart/internal/config"
	"github.com/GitwithRaj/talktocart/internal/db"
	"github.com/GitwithRaj/talktocart/internal/events"
	httpapi "github.com/GitwithRaj/talktocart/internal/http"
	"github.com/GitwithRaj/talktocart/internal/logging"
	"github.com/GitwithRaj/talktocart/internal/session"
)

type publisher interface {
	session.EventPublisher
	Close() error
}

func main() {
	config.LoadDotEnv(".env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("cart-service stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		loaded, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		cat = loaded
	}
	logger.Info("catalog loaded", zap.Int("items", cat.Len()), zap.String("file", cfg.CatalogFile))

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	var pub publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		conn, err := events.Dial(ctx, cfg.AMQPURL, logger)
		if err != nil {
			return fmt.Errorf("dial rabbitmq: %w", err)
		}
		defer conn.Close()

		p, err := events.NewPublisher(conn, events.NewSequenceRepository(pool), events.PublisherOptions{})
		if err != nil {
			return fmt.Errorf("create publisher: %w", err)
		}
		pub = p
	} else {
		logger.Info("AMQP_URL not set, events disabled")
	}
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Warn("publisher close", zap.Error(err))
		}
	}()

	interpreter := clients.NewInterpreterClient(
		clients.NewClient("interpreter", cfg.InterpreterURL, &http.Client{Timeout: cfg.InterpreterTimeout}),
	)

	svc := session.NewService(session.Deps{
		Interpreter: interpreter,
		Repo:        cart.NewPostgresRepository(pool),
		Catalog:     cat,
		Events:      pub,
		Logger:      logger,
	})

	h := httpapi.NewHandler(svc, cat, httpapi.HandlerOptions{
		Logger:         logger,
		Timeout:        cfg.RequestTimeout,
		CommandTimeout: cfg.InterpreterTimeout + cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(h, httpapi.RouterOptions{
			Logger:           logger,
			CORSAllowOrigins: cfg.CORSAllowOrigins,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.InterpreterTimeout + 2*cfg.RequestTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("cart-service listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
