package http

import (
	"os"
	"strconv"
	"time"

	"spades_server/internal/config"
	"spades_server/internal/http/handlers"
	"spades_server/internal/http/middleware"
	"spades_server/internal/persist"
	"spades_server/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, store *persist.Store, hub *ws.Hub, version string, cfg *config.Config) {
	h := handlers.NewHandler(db, store, hub)
	healthHandler := handlers.NewHealthHandler(db, hub, version)

	// read limits from env, with safe defaults
	apiRateLimit := 30
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 5
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute
	if v := os.Getenv("AUTH_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateWindow = time.Duration(n) * time.Second
		}
	}

	gameRateLimit := 60
	gameRateWindow := time.Minute
	if cfg != nil {
		gameRateLimit = cfg.GameRateLimit
		gameRateWindow = time.Duration(cfg.GameRateWindow) * time.Second
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// per-IP limiter: Redis-backed when configured, in-process otherwise
	limiter := middleware.RedisRateLimit
	if os.Getenv("REDIS_ADDR") == "" {
		limiter = middleware.SimpleRateLimit
	}

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(limiter(apiRateLimit, apiRateWindow))

	// Auth
	v1.POST("/auth", limiter(authRateLimit, authRateWindow), h.Auth)

	// User profile
	v1.GET("/me", middleware.JWT(), h.Me)
	v1.GET("/me/games", middleware.JWT(), h.MyGames)

	// Game lifecycle. Creation is limited per user, not per IP.
	gameRL := middleware.GameRateLimit(gameRateLimit, gameRateWindow)
	v1.POST("/games", middleware.JWT(), gameRL, h.CreateGame)
	v1.GET("/games/:id", h.GetGame)
	v1.DELETE("/games/:id", h.DeleteGame)

	// WebSocket for live play
	r.GET("/ws", h.WS(hub))
}
