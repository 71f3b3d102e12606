package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"photolab_miniapp/internal/api"
	"photolab_miniapp/internal/cache"
	"photolab_miniapp/internal/metrics"
	"photolab_miniapp/internal/middleware"
	"photolab_miniapp/internal/repository"
	"photolab_miniapp/internal/service"
	"photolab_miniapp/internal/worker"
	"photolab_miniapp/pkg/auth"
	"photolab_miniapp/pkg/genapi"
	"photolab_miniapp/pkg/logger"
	"photolab_miniapp/pkg/tbank"
	"photolab_miniapp/pkg/ton"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	var limiter *cache.Limiter
	rdb, err := cache.Connect(cfg.Redis)
	if err != nil {
		zapLogger.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		limiter = cache.NewLimiter(rdb, time.Minute)
	}

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.Debug)

	tbankClient := tbank.NewClient(cfg.TBank.TerminalKey, cfg.TBank.Password, cfg.TBank.TestMode)
	tonClient := ton.NewClient(cfg.TON.APIURL, cfg.TON.APIKey, cfg.TON.Wallet)
	genClient := genapi.NewClient(cfg.Generation.APIURL, cfg.Generation.APIKey)

	stars, err := service.NewStarsService(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.Debug)
	if err != nil {
		zapLogger.Fatal("Failed to initialize bot", zap.Error(err))
	}

	hub := service.NewEventHub()

	userService := service.NewUserService(repo)
	paymentService := service.NewPaymentService(repo, tbankClient, tonClient, stars, hub)
	referralService := service.NewReferralService(repo)
	packService := service.NewPackService(repo)
	ticketService := service.NewTicketService(repo, stars)
	generationService := service.NewGenerationService(repo)

	go stars.StartUpdateListener(ctx, paymentService)

	genWorker := worker.NewGenerationWorker(repo, genClient, hub, cfg.Generation.PollInterval)
	go genWorker.Run(ctx)

	tonWorker := worker.NewTONWorker(repo, tonClient, paymentService, cfg.TON.PollInterval)
	go tonWorker.Run(ctx)

	reaper := worker.NewReaper(repo, 24*time.Hour)
	if err := reaper.Start(ctx); err != nil {
		zapLogger.Fatal("Failed to start payment reaper", zap.Error(err))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	authz := middleware.NewAuthorization(userService)

	publicLimit := middleware.RateLimit(limiter, "public", 30)

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, userService, telegramAuth, publicLimit)
	api.NewPaymentRoutes(a, paymentService, telegramAuth,
		middleware.RateLimit(limiter, "payments", 10))
	api.NewReferralRoutes(a, referralService, telegramAuth, publicLimit)
	api.NewPackRoutes(a, packService, telegramAuth, publicLimit)
	api.NewTicketRoutes(a, ticketService, telegramAuth, publicLimit)
	api.NewGenerationRoutes(a, generationService, telegramAuth, publicLimit)
	api.NewEventRoutes(a, hub, telegramAuth)

	adminGroup := a.Group("/admin")
	adminGroup.Use(telegramAuth.TelegramAuthMiddleware(), authz.AdminOnly())
	api.NewAdminRoutes(adminGroup, userService, referralService)
	api.NewPackAdminRoutes(adminGroup, packService)
	api.NewTicketAdminRoutes(adminGroup, ticketService)

	partnerGroup := a.Group("/partner")
	partnerGroup.Use(telegramAuth.TelegramAuthMiddleware(), authz.PartnerOnly())
	api.NewPackAdminRoutes(partnerGroup, packService)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		zapLogger.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
}
