package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/super-tictactoe-backend/internal/entity"
)

type gameGetter interface {
	GetGameByID(ctx context.Context, gameID string) (*entity.Game, error)
}

type Server struct {
	logger *slog.Logger

	ping  PingHandler
	games GameHandler
}

func New(logger *slog.Logger, games gameGetter) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		ping:   NewPingHandler(),
		games:  NewGameHandler(logger, games),
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.ping.PingHandler)
	mux.HandleFunc("GET /games/{id}", that.games.GetGame)

	return mux
}

// Start - serves the REST API until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown http server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
