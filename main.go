package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/mehmetcc/boom-backend/docs"
	"github.com/mehmetcc/boom-backend/internal/authentication"
	"github.com/mehmetcc/boom-backend/internal/server"
	"github.com/mehmetcc/boom-backend/internal/user"
	"github.com/mehmetcc/boom-backend/internal/utils"
)

// @title           Boom API
// @version         1.0
// @description     Authentication and user endpoints for the Boom booking app.
//
// @host      localhost:3000
// @BasePath  /api
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load config
	cfg, err := utils.LoadConfig(".env")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// init logger
	logger, err := newLogger(cfg.Server)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	// init database
	db, err := utils.InitDatabase(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to the database", zap.Error(err))
	}
	if err := db.AutoMigrate(&user.User{}, &authentication.RefreshToken{}); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	//
	// WIRE UP SERVICES
	//
	userService := user.NewUserService(
		user.NewUserRepository(db),
		user.NewBcryptHasher(cfg.Security.BcryptCost),
		logger,
	)
	tokenRepo := authentication.NewRefreshTokenRepository(db)
	issuer := utils.NewTokenIssuer(cfg.Token)
	authService := authentication.NewAuthenticationService(userService, tokenRepo, issuer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := authentication.NewExpirySweeper(tokenRepo, cfg.Token.SweepInterval, logger)
	if err := sweeper.Start(ctx); err != nil {
		logger.Fatal("failed to start token sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := server.NewRouter(server.Dependencies{
		Config: cfg,
		Logger: logger,
		Users:  userService,
		Auth:   authService,
		Issuer: issuer,
	})
	if err != nil {
		logger.Fatal("failed to build router", zap.Error(err))
	}

	//
	// START SERVER
	//
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped gracefully")
	}
}

func newLogger(cfg *utils.ServerConfig) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
