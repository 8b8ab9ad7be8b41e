package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Global limits (per IP) for every /api route
	GlobalAPIMax        int
	GlobalAPIExpiration time.Duration

	// Generation endpoints (per IP): each miss costs a provider call
	GenerateMax        int
	GenerateExpiration time.Duration

	// Downloads (per IP)
	DownloadMax        int
	DownloadExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		// Global: 200/min
		GlobalAPIMax:        200,
		GlobalAPIExpiration: 1 * time.Minute,

		// Generation: 10/min, a teacher prepares a handful of lessons at a time
		GenerateMax:        10,
		GenerateExpiration: 1 * time.Minute,

		// Downloads: 60/min
		DownloadMax:        60,
		DownloadExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig loads config from environment variables with defaults
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	overrideInt("RATE_LIMIT_GLOBAL_API", &config.GlobalAPIMax)
	overrideInt("RATE_LIMIT_GENERATE", &config.GenerateMax)
	overrideInt("RATE_LIMIT_DOWNLOAD", &config.DownloadMax)

	// Development mode: more lenient limits
	if os.Getenv("ENVIRONMENT") == "development" {
		config.GlobalAPIMax = 1000
		config.GenerateMax = 100
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}

	return config
}

func overrideInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*target = n
		}
	}
}

// GlobalAPIRateLimiter creates a rate limiter for all API requests
func GlobalAPIRateLimiter(config *RateLimitConfig) fiber.Handler {
	return newIPLimiter("global", config.GlobalAPIMax, config.GlobalAPIExpiration,
		"🚫", "Too many requests. Please slow down.")
}

// GenerateRateLimiter limits lesson generation requests
func GenerateRateLimiter(config *RateLimitConfig) fiber.Handler {
	return newIPLimiter("generate", config.GenerateMax, config.GenerateExpiration,
		"⚠️ ", "Generation rate limit reached. Please wait before generating more lessons.")
}

// DownloadRateLimiter limits artifact downloads
func DownloadRateLimiter(config *RateLimitConfig) fiber.Handler {
	return newIPLimiter("download", config.DownloadMax, config.DownloadExpiration,
		"⚠️ ", "Too many download requests. Please wait.")
}

func newIPLimiter(scope string, max int, expiration time.Duration, marker, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return scope + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("%s [RATE-LIMIT] %s limit reached for IP: %s on %s", marker, scope, c.IP(), c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       message,
				"retry_after": int(expiration.Seconds()),
			})
		},
	})
}
