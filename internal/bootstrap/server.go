package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Domenick1991/railseat/api"
	"github.com/Domenick1991/railseat/config"
	"github.com/Domenick1991/railseat/internal/service/reservation"
	"github.com/Domenick1991/railseat/internal/service/schedules"
	"github.com/Domenick1991/railseat/internal/service/session"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts every endpoint under /api. Passenger calls that change
// or show bookings count as session activity.
func NewRouter(
	reservations reservation.UseCase,
	scheduleSvc schedules.UseCase,
	sessions session.UseCase,
	users api.UserLookup,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	group := router.Group("/api")
	passengers := group.Group("", api.RequireUser(users), api.TrackActivity(sessions))
	api.NewReservationHandler(reservations).Register(group, passengers)
	api.NewScheduleHandler(scheduleSvc).Register(group, api.RequireAdmin(users))
	api.NewSessionHandler(sessions).Register(group, api.RequireUser(users))
	return router
}

// Run serves HTTP until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("bootstrap: http listening on %s", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
