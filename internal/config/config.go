package config

import (
	"os"
	"strconv"
	"time"

	"spades_server/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Turn clock for human players; bots move on their own short delay.
	TurnTimeout time.Duration

	// Stuck-game sweep: unfinished games idle longer than this get removed.
	StuckGameMaxAge  time.Duration
	StuckSweepPeriod time.Duration

	GameRateLimit  int
	GameRateWindow int
}

// Load reads configuration from the environment, with .env support for
// local development.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	turnTimeout := 30 * time.Second
	if v := os.Getenv("TURN_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			turnTimeout = time.Duration(n) * time.Second
		}
	}

	stuckMaxAge := 24 * time.Hour
	if v := os.Getenv("STUCK_GAME_MAX_AGE_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			stuckMaxAge = time.Duration(n) * time.Hour
		}
	}

	stuckSweep := time.Hour
	if v := os.Getenv("STUCK_SWEEP_PERIOD_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			stuckSweep = time.Duration(n) * time.Minute
		}
	}

	gameRateLimit := 60
	if v := os.Getenv("GAME_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			gameRateLimit = n
		}
	}

	gameRateWindow := 60
	if v := os.Getenv("GAME_RATE_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			gameRateWindow = n
		}
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return &Config{
		AppPort:          port,
		DatabaseURL:      dbURL,
		JWTSecret:        jwtSecret,
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          redisDB,
		TurnTimeout:      turnTimeout,
		StuckGameMaxAge:  stuckMaxAge,
		StuckSweepPeriod: stuckSweep,
		GameRateLimit:    gameRateLimit,
		GameRateWindow:   gameRateWindow,
	}
}
