package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cahier/internal/config"
	"cahier/internal/database"
	"cahier/internal/document"
	"cahier/internal/handlers"
	"cahier/internal/jobs"
	"cahier/internal/lessoncache"
	"cahier/internal/logging"
	"cahier/internal/middleware"
	"cahier/internal/preflight"
	"cahier/internal/registry"
	"cahier/internal/services"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Cahier Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Lessons: %s, Registry: %s)", cfg.Port, cfg.LessonsDir, cfg.RegistryPath)

	shutdownMode, err := jobs.ParseShutdownMode(cfg.DeletionShutdownMode)
	if err != nil {
		log.Fatalf("❌ Invalid DELETION_SHUTDOWN_MODE: %v", err)
	}

	// Journal database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	if results := preflight.NewChecker(db, cfg).RunAll(); preflight.HasFailures(results) {
		log.Fatal("❌ Pre-flight checks failed, refusing to start")
	}

	// Core services
	cache := lessoncache.New(cfg.CacheTTL)
	store := registry.NewStore(cfg.RegistryPath)
	syncer := registry.NewSynchronizer(store, cfg.LessonsDir, cfg.SourceExtensions)
	deletions := jobs.NewDeletionScheduler(cfg.DeletionDelay, shutdownMode)

	catalog, err := services.LoadStepCatalog(cfg.StepsCatalogPath)
	if err != nil {
		log.Fatalf("❌ Failed to load lesson step catalog: %v", err)
	}

	generator := services.NewGeneratorService(services.GeneratorConfig{
		BaseURL:       cfg.LLMBaseURL,
		APIKey:        cfg.LLMAPIKey,
		Model:         cfg.LLMModel,
		Temperature:   cfg.LLMTemperature,
		Timeout:       cfg.LLMTimeout,
		RatePerSecond: cfg.LLMRatePerSecond,
	})
	if !generator.Configured() {
		log.Println("⚠️  LLM_API_KEY not set, generation requests will fail until it is configured")
	}

	metrics := services.InitMetrics(prometheus.DefaultRegisterer, services.GaugeSources{
		CacheSize:        cache.Len,
		PendingDeletions: deletions.Pending,
		RegistrySize:     func() int { return len(store.Load()) },
	})

	lessonService := services.NewLessonService(cache, generator, catalog, syncer, metrics)
	journalService := services.NewJournalService(db)

	documentService, err := document.NewService(document.Config{
		OutputDir:       cfg.OutputDir,
		TeacherInfoPath: cfg.TeacherInfoPath,
		Printer:         document.NewChromePrinter(cfg.ChromePath),
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize document service: %v", err)
	}

	// Leftovers from a previous run are never tracked, remove them now
	if removed, err := jobs.CleanupStaleArtifacts(context.Background(), cfg.OutputDir, cfg.DeletionDelay); err != nil {
		log.Printf("⚠️  Startup artifact cleanup failed: %v", err)
	} else if removed > 0 {
		log.Printf("🧹 Removed %d stale artifact(s) from %s", removed, cfg.OutputDir)
	}

	// Initial sync so the registry is current before the first request
	if _, err := lessonService.SyncRegistry(); err != nil {
		log.Printf("⚠️  Initial registry sync failed: %v", err)
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Cahier v1.0",
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute, // generation plus PDF rendering
		IdleTimeout:  2 * time.Minute,
		BodyLimit:    60 * 1024 * 1024, // slide decks up to 50MB plus form overhead
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	promMiddleware := fiberprometheus.New("cahier")
	promMiddleware.RegisterAt(app, "/metrics")
	app.Use(promMiddleware.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Generate=%d/min, Download=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.GenerateMax,
		rateLimitConfig.DownloadMax,
	)

	allowedOrigins := cfg.AllowedOrigins
	if allowedOrigins == "" {
		if cfg.IsProduction() {
			log.Fatal("❌ ALLOWED_ORIGINS must be set in production")
		}
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", allowedOrigins)

	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(lessonService, deletions, documentService)
	generateHandler := handlers.NewGenerateHandler(lessonService, documentService, journalService, metrics, cfg.SourceExtensions)
	lessonHandler := handlers.NewLessonHandler(lessonService)
	cacheHandler := handlers.NewCacheHandler(lessonService)
	downloadHandler := handlers.NewDownloadHandler(documentService, deletions, metrics)
	journalHandler := handlers.NewJournalHandler(journalService, documentService)

	// Routes
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")

	generateLimiter := middleware.GenerateRateLimiter(rateLimitConfig)
	api.Post("/generate", generateLimiter, generateHandler.Upload)

	api.Get("/lessons", lessonHandler.List)
	api.Post("/lessons/sync", lessonHandler.Sync)
	api.Post("/lessons/:id/generate", generateLimiter, generateHandler.GenerateForLesson)

	api.Get("/cache/stats", cacheHandler.Stats)
	api.Delete("/cache", cacheHandler.Clear)
	api.Post("/cache/cleanup", cacheHandler.Cleanup)

	api.Get("/download/:id", middleware.DownloadRateLimiter(rateLimitConfig), downloadHandler.Download)

	api.Get("/journal", journalHandler.List)
	api.Get("/journal/export", journalHandler.Export)

	// Initialize background jobs
	jobScheduler := jobs.NewJobScheduler()
	jobScheduler.Register("lesson_cache_sweep", jobs.NewCacheSweepJob(cache, cfg.CacheSweepInterval))
	jobScheduler.Register("artifact_sweep", jobs.NewArtifactSweepJob(cfg.OutputDir, cfg.ArtifactMaxAge, cfg.ArtifactSweepInterval, documentService))
	jobScheduler.Start()
	log.Println("✅ Background job scheduler started")
	for _, job := range jobScheduler.GetStatus() {
		log.Printf("⏰ [SCHEDULER] %s next run at %s", job.Name, job.NextRunTime.Format(time.RFC3339))
	}

	var syncScheduler *services.SyncScheduler
	if cfg.SyncCron != "" {
		syncScheduler, err = services.NewSyncScheduler(cfg.SyncCron, lessonService.SyncRegistry)
		if err != nil {
			log.Fatalf("❌ Invalid SYNC_CRON: %v", err)
		}
		syncScheduler.Start()
	}

	watchCtx, stopWatching := context.WithCancel(context.Background())
	if cfg.WatchLessonsDir {
		go watchLessonsDir(watchCtx, cfg.LessonsDir, lessonService)
	}

	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	err = serveUntilSignal(func() error { return app.Listen(":" + cfg.Port) }, sigChan, func() {
		log.Println("\n🛑 Shutting down server...")

		// Stop accepting requests first so no new deletions are scheduled
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}

		stopWatching()
		jobScheduler.Stop()

		if syncScheduler != nil {
			if err := syncScheduler.Stop(); err != nil {
				log.Printf("⚠️ Error stopping sync scheduler: %v", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.DeletionDelay+10*time.Second)
		defer cancel()
		if err := deletions.Shutdown(ctx); err != nil {
			log.Printf("⚠️ Pending deletions not finished: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
	log.Println("👋 Server stopped")
}
