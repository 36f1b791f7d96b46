package main

import (
	"context"
	"errors"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"soundcrew/internal/config"
	"soundcrew/internal/logger"
	"soundcrew/internal/repositories"
)

func main() {
	envErr := godotenv.Load()

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config/config.yaml"
	}
	configPath := flag.String("config", defaultConfig, "path to the YAML config")
	addr := flag.String("addr", "", "HTTP network address, overrides the config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatal(err)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		stdlog.Fatal(err)
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Infof("Warning: loading .env file: %v", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := repositories.Migrate(ctx, db); err != nil {
		log.Fatal(err)
	}

	app, err := initializeApp(ctx, cfg, db, log)
	if err != nil {
		log.Fatal(err)
	}
	defer app.close()

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		ErrorLog:     logger.StdError(log),
		Handler:      c.Handler(app.routes()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	log.Infof("Starting server on %s", cfg.Server.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
