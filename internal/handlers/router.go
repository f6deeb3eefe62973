package handlers

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/logiroute/internal/middleware"
	"github.com/ukydev/logiroute/internal/models"
)

// RouterConfig carries the handlers and middleware of the API.
type RouterConfig struct {
	Fleet   *FleetHandler
	Metrics http.Handler

	// Auth and AuthMiddleware are nil when accounts are disabled; every
	// route is then open.
	Auth           *AuthHandler
	AuthMiddleware *middleware.AuthMiddleware

	RateLimit       *middleware.RateLimitMiddleware
	RateLimitMax    int
	RateLimitWindow time.Duration

	Logger *log.Logger
}

// NewRouter builds the HTTP handler of the API.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(permission string, h http.HandlerFunc) http.Handler {
		if cfg.AuthMiddleware == nil {
			return h
		}
		return cfg.AuthMiddleware.RequirePermission(permission)(h)
	}

	mux.HandleFunc("GET /health", Health)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	if cfg.Auth != nil {
		mux.HandleFunc("POST /api/auth/login", cfg.Auth.Login)
		mux.HandleFunc("POST /api/auth/register", cfg.Auth.Register)
		mux.HandleFunc("GET /api/auth/profile", cfg.Auth.GetProfile)
	}

	f := cfg.Fleet
	mux.Handle("GET /api/dashboard", protect(models.PermViewFleet, f.Dashboard))
	mux.Handle("GET /api/locations", protect(models.PermViewFleet, f.ListLocations))
	mux.Handle("GET /api/vehicles", protect(models.PermViewFleet, f.ListVehicles))
	mux.Handle("GET /api/vehicles/available", protect(models.PermViewFleet, f.ListAvailableVehicles))
	mux.Handle("PUT /api/vehicles/{id}/status", protect(models.PermUpdateVehicle, f.UpdateVehicleStatus))
	mux.Handle("PUT /api/vehicles/{id}/fuel", protect(models.PermUpdateFuel, f.UpdateVehicleFuel))
	mux.Handle("GET /api/deliveries", protect(models.PermViewFleet, f.ListDeliveries))
	mux.Handle("GET /api/deliveries/{id}/options", protect(models.PermViewFleet, f.DeliveryOptions))
	mux.Handle("PUT /api/deliveries/{id}/vehicle", protect(models.PermUpdateDelivery, f.AssignDeliveryVehicle))
	mux.Handle("PUT /api/deliveries/{id}/status", protect(models.PermUpdateDelivery, f.UpdateDeliveryStatus))
	mux.Handle("GET /api/map", protect(models.PermViewFleet, f.Map))

	var chain []func(http.Handler) http.Handler
	chain = append(chain, middleware.RequestID, middleware.AccessLog(cfg.Logger))
	if cfg.RateLimit != nil && cfg.RateLimitMax > 0 {
		chain = append(chain, cfg.RateLimit.RateLimit(cfg.RateLimitMax, cfg.RateLimitWindow))
	}
	if cfg.AuthMiddleware != nil {
		chain = append(chain, cfg.AuthMiddleware.Authenticate)
	}
	return middleware.Chain(mux, chain...)
}
