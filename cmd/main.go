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

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/logiroute/internal/auth"
	"github.com/ukydev/logiroute/internal/config"
	"github.com/ukydev/logiroute/internal/db"
	"github.com/ukydev/logiroute/internal/events"
	"github.com/ukydev/logiroute/internal/fleet"
	"github.com/ukydev/logiroute/internal/handlers"
	"github.com/ukydev/logiroute/internal/metrics"
	"github.com/ukydev/logiroute/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

// loadState returns the fixture named by path, or the built-in one.
func loadState(path string) (fleet.State, error) {
	if path == "" {
		return fleet.DefaultState()
	}
	return fleet.LoadFixtureFile(path)
}

// server holds everything main starts and must stop.
type server struct {
	http    *http.Server
	cleanup []func()
}

func (s *server) close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
}

func newServer(ctx context.Context, cfg config.Config, logger *log.Logger) (*server, error) {
	srv := &server{}

	initial, err := loadState(cfg.FixturePath)
	if err != nil {
		return nil, fmt.Errorf("load fixture: %w", err)
	}
	store := fleet.NewStore(initial, logger)
	logger.WithFields(log.Fields{
		"locations":  len(initial.Locations),
		"vehicles":   len(initial.Vehicles),
		"deliveries": len(initial.Deliveries),
	}).Info("Loaded fleet state")

	m := metrics.New(store)
	store.AddListener(m)

	if cfg.EventsEnabled() {
		pub, err := events.Connect(events.Config{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TopicPrefix: cfg.MQTTTopicPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect mqtt: %w", err)
		}
		store.AddListener(pub)
		srv.cleanup = append(srv.cleanup, pub.Close)
		logger.WithField("broker", cfg.MQTTBroker).Info("Publishing fleet events")
	}

	routes := handlers.RouterConfig{
		Fleet:           handlers.NewFleetHandler(store, logger),
		Metrics:         m.Handler(),
		RateLimit:       middleware.NewRateLimitMiddleware(cfg.TrustedProxies...),
		RateLimitMax:    cfg.RateLimitRequests,
		RateLimitWindow: cfg.RateLimitWindow,
		Logger:          logger,
	}

	if cfg.AuthEnabled() {
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			srv.close()
			return nil, err
		}
		srv.cleanup = append(srv.cleanup, func() { _ = client.Disconnect(context.Background()) })

		users := db.NewUserCollection(client, cfg.MongoDB)
		if err := users.EnsureIndexes(ctx); err != nil {
			srv.close()
			return nil, err
		}
		authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
		if err != nil {
			srv.close()
			return nil, err
		}
		routes.Auth = handlers.NewAuthHandler(authService, users)
		routes.AuthMiddleware = middleware.NewAuthMiddleware(authService, users)
		logger.WithField("database", cfg.MongoDB).Info("Authentication enabled")
	} else {
		logger.Warn("MONGO_URI not set, the API is open to unauthenticated clients")
	}

	srv.http = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(routes),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to start")
	}
	defer srv.close()

	go func() {
		logger.WithField("addr", srv.http.Addr).Info("HTTP server listening")
		if err := srv.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.http.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}
