package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	firebase "firebase.google.com/go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"soundcrew/internal/cache"
	"soundcrew/internal/config"
	"soundcrew/internal/handlers"
	"soundcrew/internal/realtime"
	"soundcrew/internal/repositories"
	"soundcrew/internal/services"
	"soundcrew/internal/validation"
	"soundcrew/utils"
)

const (
	redisPrefix  = "soundcrew:"
	eventChannel = "soundcrew:events"
	aiTimeout    = 20 * time.Second
)

type application struct {
	log    *zap.SugaredLogger
	db     *repositories.DB
	tokens *utils.Manager
	hub    *realtime.Hub
	bus    realtime.Bus
	redis  *redis.Client
	cancel context.CancelFunc

	artistHandler  *handlers.ArtistHandler
	messageHandler *handlers.MessageHandler
	requestHandler *handlers.RequestHandler
	userHandler    *handlers.UserHandler
	uploadHandler  *handlers.UploadHandler
	aiHandler      *handlers.AIHandler
}

func initializeApp(ctx context.Context, cfg config.Config, db *repositories.DB, log *zap.SugaredLogger) (*application, error) {
	tokens, err := utils.NewManager(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	app := &application{log: log, db: db, tokens: tokens, hub: realtime.NewHub(log)}

	// Cache and event bus
	var store cache.Cache = cache.Noop{}
	app.bus = realtime.NewLocalBus()
	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		app.redis = rdb
		store = cache.NewRedisCache(rdb, redisPrefix)
		app.bus = realtime.NewRedisBus(rdb, eventChannel, log)
		log.Infof("redis enabled for cache and realtime events")
	}

	busCtx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	if err := app.bus.Subscribe(busCtx, app.hub.Deliver); err != nil {
		cancel()
		return nil, err
	}

	// Repositories
	userRepo := &repositories.UserRepository{DB: db}
	artistRepo := &repositories.ArtistRepository{DB: db}
	requestRepo := &repositories.ArtistRequestRepository{DB: db}
	messageRepo := &repositories.MessageRepository{DB: db}

	// Services
	metrics := &services.MetricsService{
		RequestRepo: requestRepo,
		MessageRepo: messageRepo,
		Cache:       store,
		TTL:         cfg.Redis.MetricsTTL,
		Logger:      log,
	}
	push := &services.PushService{
		UserRepo:   userRepo,
		DeviceRepo: &repositories.DeviceRepository{DB: db},
		Logger:     log,
	}
	if fcm := newFCMClient(ctx, cfg, log); fcm != nil {
		push.Client = fcm
	}
	artistService := &services.ArtistService{
		DB:          db,
		ArtistRepo:  artistRepo,
		SaveRepo:    &repositories.ArtistSaveRepository{DB: db},
		ViewRepo:    &repositories.ArtistViewRepository{DB: db},
		ReviewRepo:  &repositories.ArtistReviewRepository{DB: db},
		RequestRepo: requestRepo,
		Metrics:     metrics,
		Cache:       store,
		Logger:      log,
	}
	messageService := &services.MessageService{
		DB:          db,
		ThreadRepo:  &repositories.ThreadRepository{DB: db},
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
		ArtistRepo:  artistRepo,
		Metrics:     metrics,
		Bus:         app.bus,
		Push:        push,
		Logger:      log,
	}
	requestService := &services.RequestService{
		DB:          db,
		RequestRepo: requestRepo,
		ArtistRepo:  artistRepo,
		Messages:    messageService,
		Metrics:     metrics,
		Push:        push,
		Logger:      log,
	}

	httpClient := &http.Client{Timeout: 15 * time.Second}
	userService := &services.UserService{
		DB:           db,
		UserRepo:     userRepo,
		OtpRepo:      &repositories.OtpRepository{DB: db},
		TokenManager: tokens,
		SMS:          services.NewSolapiClient(httpClient, cfg.Solapi.APIKey, cfg.Solapi.APISecret, cfg.Solapi.Sender, cfg.Solapi.PfID),
		Settings: services.AuthSettings{
			AccessTokenTTL: cfg.Auth.AccessTokenTTL,
			PhoneTokenTTL:  cfg.Auth.PhoneTokenTTL,
			OtpTTL:         cfg.Auth.OtpTTL,
			OtpCooldown:    cfg.Auth.OtpCooldown,
			OtpMaxAttempts: cfg.Auth.OtpMaxAttempts,
			ConsentVersion: cfg.Auth.ConsentVersion,
			SignupTickets:  cfg.Auth.SignupTickets,
			SignupTemplate: cfg.Solapi.SignupTemplate,
		},
		Logger: log,
	}

	uploadService := &services.UploadService{}
	if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
		presigner, err := utils.NewS3Presigner(utils.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBase:      cfg.S3.PublicBase,
		})
		if err != nil {
			return nil, err
		}
		uploadService.Presigner = presigner
	}

	aiService := &services.AIService{Model: cfg.OpenAI.Model, Timeout: aiTimeout}
	if cfg.OpenAI.APIKey != "" {
		aiService.Client = services.NewOpenAIClient(httpClient, cfg.OpenAI.APIKey)
	}

	// Handlers
	v := validation.New()
	app.artistHandler = &handlers.ArtistHandler{Service: artistService, Validator: v, Logger: log}
	app.messageHandler = &handlers.MessageHandler{Service: messageService, Validator: v, Logger: log}
	app.requestHandler = &handlers.RequestHandler{Service: requestService, Validator: v, Logger: log}
	app.userHandler = &handlers.UserHandler{Service: userService, Push: push, Validator: v, Logger: log}
	app.uploadHandler = &handlers.UploadHandler{Service: uploadService, Logger: log}
	app.aiHandler = &handlers.AIHandler{Service: aiService, Validator: v, Logger: log}

	return app, nil
}

// newFCMClient returns nil when Firebase is not configured or fails to start;
// pushes are then skipped.
func newFCMClient(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) *services.FCMClient {
	if cfg.Firebase.CredentialsFile == "" {
		return nil
	}
	fb, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	if err != nil {
		log.Errorf("firebase init: %v", err)
		return nil
	}
	client, err := fb.Messaging(ctx)
	if err != nil {
		log.Errorf("firebase messaging: %v", err)
		return nil
	}
	return services.NewFCMClient(client)
}

func (app *application) close() {
	app.cancel()
	app.hub.Close()
	if err := app.bus.Close(); err != nil {
		app.log.Errorf("close bus: %v", err)
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
}
