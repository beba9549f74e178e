package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calparse/internal/cache"
	"calparse/internal/config"
	httphandler "calparse/internal/http"
	"calparse/internal/ingest"
	"calparse/internal/repo"
	"calparse/internal/services/events"
	"calparse/internal/services/llm"
)

func main() {
	var (
		seedData = flag.Bool("seed", false, "Load sample data into the database")
		port     = flag.String("port", "8080", "Port to run the server on")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := repo.NewDB(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store := repo.NewStore(db)

	redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Both remote clients are resolved up front so fallback never mutates
	// shared provider configuration at request time.
	primary, err := llm.NewClient(cfg.LLM.Provider, &cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create primary LLM client: %v", err)
	}
	alternate, err := llm.NewClient(config.Alternate(cfg.LLM.Provider), &cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create fallback LLM client: %v", err)
	}
	ollama := llm.NewOllamaClient(cfg.Ollama.BaseURL, cfg.Ollama.DefaultModel)

	extractor := events.NewService(primary, alternate, ollama)

	if *seedData {
		log.Println("Loading sample data...")
		seeder := ingest.NewSeeder(store, extractor)
		if err := seeder.SeedSampleData(ctx); err != nil {
			log.Fatalf("Failed to load sample data: %v", err)
		}
		log.Println("Sample data loaded successfully!")
		return
	}

	router := httphandler.NewRouter()
	groupsHandler := httphandler.NewGroupsHandler(store, redisCache, extractor, ollama)
	router.RegisterGroupRoutes(groupsHandler)
	router.RegisterHealthRoutes()

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Starting server on port %s", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
