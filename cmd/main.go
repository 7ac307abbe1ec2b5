package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	"github.com/RoyceAzure/lab/storefront/internal/api/router"
	"github.com/RoyceAzure/lab/storefront/internal/appcontext"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/logger"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cf := config.GetConfig()
	requestLogger := logger.Setup(cf.LogFormat, cf.LogLevel)

	app, err := appcontext.NewApplicationContext(cf)
	if err != nil {
		log.Fatal().Err(err).Msg("init application failed")
	}

	// 初始化 handler
	server := api.NewServer(
		handler.NewProductHandler(app.CatalogService),
		handler.NewCartHandler(app.CartService),
		handler.NewCheckoutHandler(app.OrderService, app.SettingsStore),
		handler.NewOrderHandler(app.OrderService),
		handler.NewSettingsHandler(app.SettingsStore),
		handler.NewAuthHandler(app.AuthService),
		handler.NewAdminHandler(app.CatalogService, app.OrderService, app.OrderBoard),
		handler.NewFeedHandler(app.Hub),
	)

	// 設置路由
	r := router.SetupRouter(server, app.AuthService, router.Options{
		Limiter:        app.RateLimiter,
		RequestTimeout: cf.RequestTimeout,
	}, requestLogger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cf.ServerPort),
		Handler: r,
	}

	// 設置訊號監聽
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.OrderBoard.Start(); err != nil {
		log.Fatal().Err(err).Msg("start order board failed")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		app.CatalogService.Run(gctx)
		return nil
	})
	g.Go(func() error {
		app.SettingsStore.Run(gctx)
		return nil
	})
	if app.Consumer != nil {
		g.Go(func() error {
			return app.Consumer.Run(gctx)
		})
	}

	// 監聽退出訊號
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Application shutdown error")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("closed completed")
}
