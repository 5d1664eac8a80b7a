package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"handcraft/internal/adapter/api"
	"handcraft/internal/adapter/api/handler"
	"handcraft/internal/adapter/api/middleware"
	"handcraft/internal/adapter/api/router"
	adapterrepo "handcraft/internal/adapter/repository"
	"handcraft/internal/domain/repository"
	"handcraft/internal/infrastructure/firebase"
	"handcraft/internal/infrastructure/ratelimit"
	"handcraft/internal/infrastructure/websocket"
	"handcraft/internal/usecase"
	"handcraft/pkg/config"
	"handcraft/pkg/logger"
)

func main() {
	cfg := config.Load()
	if cfg.IsDevelopment() {
		logger.SetLevel(logger.LevelDebug)
	}

	ctx := context.Background()

	authClient, err := firebase.NewAuthClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialFile, cfg.FirebaseAPIKey)
	if err != nil {
		logger.Fatal("failed to initialize firebase auth: %v", err)
	}

	var (
		chatRepo    repository.ChatRepository
		userRepo    repository.UserRepository
		productRepo repository.ProductRepository
		cartRepo    repository.CartRepository
		resetRepo   repository.PasswordResetRepository
	)

	switch cfg.Store {
	case "memory":
		logger.Info("using in-memory store")
		chatRepo = adapterrepo.NewMemoryChatRepository()
		userRepo = adapterrepo.NewMemoryUserRepository()
		productRepo = adapterrepo.NewMemoryProductRepository()
		cartRepo = adapterrepo.NewMemoryCartRepository()
		resetRepo = adapterrepo.NewMemoryPasswordResetRepository()
	default:
		fsClient, err := firestore.NewClient(ctx, cfg.FirebaseProjectID,
			option.WithCredentialsFile(cfg.FirebaseCredentialFile))
		if err != nil {
			logger.Fatal("failed to initialize firestore: %v", err)
		}
		defer fsClient.Close()

		chatRepo = adapterrepo.NewFirestoreChatRepository(fsClient)
		userRepo = adapterrepo.NewFirestoreUserRepository(fsClient)
		productRepo = adapterrepo.NewFirestoreProductRepository(fsClient)
		cartRepo = adapterrepo.NewFirestoreCartRepository(fsClient)
		resetRepo = adapterrepo.NewFirestorePasswordResetRepository(fsClient)
	}

	limiter := ratelimit.NewRateLimiter(cfg.ChatMessageRateLimit, cfg.ChatMessageRateWindow)
	defer limiter.Stop()

	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, productRepo, limiter)
	authUseCase := usecase.NewAuthUseCase(authClient, userRepo, resetRepo,
		cfg.ResetTokenSecret, cfg.ResetTokenTTL, cfg.OTPTTL)
	productUseCase := usecase.NewProductUseCase(productRepo, userRepo)
	cartUseCase := usecase.NewCartUseCase(cartRepo, productRepo)

	// The gateway dispatches into the chat use case, and the use case fans
	// out through the gateway once a write is committed.
	gateway := websocket.NewGateway(authClient)
	gateway.SetChatService(chatUseCase)
	chatUseCase.SetNotifier(gateway)

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	authMW := middleware.NewAuthMiddleware(authClient)

	e.GET("/health", handler.NewHealthHandler().Check)
	router.SetupAuthRoutes(e, handler.NewAuthHandler(authUseCase), authMW)
	router.SetupProductRoutes(e, handler.NewProductHandler(productUseCase), authMW)
	router.SetupCartRoutes(e, handler.NewCartHandler(cartUseCase), authMW)
	router.SetupChatRoutes(e, handler.NewChatHandler(chatUseCase), authMW)
	router.SetupWebSocketRoutes(e, handler.NewWebSocketHandler(gateway))

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped: %v", err)
		}
	}()
	logger.Info("listening on :%s", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown: %v", err)
	}
}
