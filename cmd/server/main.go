package main

import (
	"context"
	"fmt"
	"log"

	"sales-ims/internal/accounts"
	"sales-ims/internal/auth"
	"sales-ims/internal/config"
	"sales-ims/internal/database"
	"sales-ims/internal/logger"
	"sales-ims/internal/sales"
	"sales-ims/internal/server"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(logger.Config{
		ServiceName: cfg.AppName,
		Environment: cfg.AppEnv,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(database.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN}, zl)
	if err != nil {
		zl.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	if err := database.SeedAdmin(context.Background(), db, cfg.AdminEmail, cfg.AdminPassword, zl); err != nil {
		zl.Error("failed to seed admin user", zap.Error(err))
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenExpiry)
	if err != nil {
		zl.Fatal("invalid token settings", zap.Error(err))
	}

	r := server.NewRouter(cfg, server.Deps{
		Accounts: accounts.NewService(db, zl),
		Sales:    sales.NewService(db, zl),
		Tokens:   tokens,
		Log:      zl,
	})

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	zl.Info("starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
