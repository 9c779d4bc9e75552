package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Ravi1548/Transport-Facility/api"
	"github.com/Ravi1548/Transport-Facility/config"
	"github.com/Ravi1548/Transport-Facility/internal/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Run assembles the router, starts the HTTP server and blocks until
// the context is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger, tokens *auth.TokenManager,
	authHandler *api.AuthHandler, rideHandler *api.RideHandler, bookingHandler *api.BookingHandler) error {

	router := gin.New()
	router.Use(gin.Recovery())

	authHandler.Register(router.Group("/auth"))

	rides := router.Group("/rides", api.AuthRequired(tokens))
	rideHandler.Register(rides)
	bookingHandler.Register(rides)

	server := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	logger.Info("http server started", zap.String("address", cfg.HTTP.Address))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
