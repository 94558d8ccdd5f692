package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	identityapp "github.com/izakgestao/backend/internal/application/identity"
	ledgerapp "github.com/izakgestao/backend/internal/application/ledger"
	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/infrastructure/auth"
	boletoinfra "github.com/izakgestao/backend/internal/infrastructure/boleto"
	"github.com/izakgestao/backend/internal/infrastructure/cache"
	"github.com/izakgestao/backend/internal/infrastructure/config"
	"github.com/izakgestao/backend/internal/infrastructure/logger"
	"github.com/izakgestao/backend/internal/infrastructure/persistence"
	"github.com/izakgestao/backend/internal/interfaces/http/handler"
	"github.com/izakgestao/backend/internal/interfaces/http/middleware"
	"github.com/izakgestao/backend/internal/interfaces/http/router"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting gestao backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	sessionRepo := persistence.NewGormTillSessionRepository(db.DB)
	boletoRepo := persistence.NewGormBoletoRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Boleto gateways. The mock adapter is always registered so development
	// and staging environments can issue boletos without provider credentials.
	gateways := []ledger.BoletoGateway{boletoinfra.NewMockAdapter()}
	if cfg.Boleto.Token != "" {
		pagbank, err := boletoinfra.NewPagBankAdapter(&boletoinfra.PagBankConfig{
			Token:   cfg.Boleto.Token,
			BaseURL: cfg.Boleto.BaseURL,
			Timeout: cfg.Boleto.RequestTimeout,
		})
		if err != nil {
			log.Fatal("Failed to configure PagBank adapter", zap.Error(err))
		}
		gateways = append(gateways, pagbank)
	}

	// Application services
	tillService := ledgerapp.NewTillService(sessionRepo, ledgerapp.WithTillLogger(log))
	ledgerService := ledgerapp.NewLedgerService(accountRepo, ledgerapp.WithLedgerLogger(log))
	reconciliation := ledgerapp.NewReconciliationService(ledgerapp.ReconciliationServiceConfig{
		AccountRepo: accountRepo,
		SessionRepo: sessionRepo,
		BoletoRepo:  boletoRepo,
		TillService: tillService,
		Logger:      log,
	})
	boletoService := ledgerapp.NewBoletoService(ledgerapp.BoletoServiceConfig{
		AccountRepo:     accountRepo,
		BoletoRepo:      boletoRepo,
		Gateways:        gateways,
		DefaultProvider: ledger.ProviderType(cfg.Boleto.Provider),
		AddressDefaults: ledgerapp.PayerAddressDefaults{
			Street:     cfg.Boleto.DefaultStreet,
			Number:     cfg.Boleto.DefaultNumber,
			Locality:   cfg.Boleto.DefaultLocality,
			City:       cfg.Boleto.DefaultCity,
			Region:     cfg.Boleto.DefaultRegion,
			PostalCode: cfg.Boleto.DefaultPostalCode,
		},
		Reconciliation: reconciliation,
		Logger:         log,
	})

	idempotencyStore := cache.NewIdempotencyStore(cfg.Redis, log)
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	webhookService := ledgerapp.NewWebhookService(ledgerapp.WebhookServiceConfig{
		BoletoRepo:     boletoRepo,
		Reconciliation: reconciliation,
		Idempotency:    idempotencyStore,
		Logger:         log,
	})

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, identityapp.WithAuthLogger(log))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Handlers and routes
	boletoHandler := handler.NewBoletoHandler(boletoService, webhookService,
		middleware.WebhookAuth(cfg.Boleto.WebhookToken))

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithProtection(middleware.JWTAuth(jwtService)),
	)
	r.RegisterPublic(handler.NewAuthHandler(authService))
	r.RegisterPublic(handler.NewSystemHandler(db, version))
	r.Register(handler.NewAccountHandler(ledgerService, reconciliation, boletoService))
	r.Register(handler.NewTillHandler(tillService))
	r.Register(boletoHandler)
	r.Setup()

	// Provider callbacks carry the shared webhook token instead of a JWT.
	boletoHandler.RegisterWebhookRoutes(engine.Group("/api/v1"))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
