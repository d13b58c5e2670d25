package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"papertrader/src/auth"
	"papertrader/src/executors"
	"papertrader/src/handler"
	"papertrader/src/marketdata"
	"papertrader/src/repository"
	"papertrader/src/simulation"
)

// Deps carries the wired services the router needs.
type Deps struct {
	Simulations *simulation.Service
	Processor   *simulation.Processor
	Market      *marketdata.Service
	Users       *repository.UserRepository
	Sweeper     *executors.Sweeper
}

func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("healthcheck write failed")
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(deps.Users))

		r.Route("/simulations", func(r chi.Router) {
			r.Post("/", handler.CreateSimulationHandler(deps.Simulations))
			r.Get("/", handler.ListSimulationsHandler(deps.Simulations))
			r.Post("/process", handler.ForceSweepHandler(deps.Sweeper))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handler.GetSimulationHandler(deps.Simulations))
				r.Put("/", handler.UpdateSimulationHandler(deps.Simulations))
				r.Post("/pause", handler.PauseSimulationHandler(deps.Simulations))
				r.Post("/resume", handler.ResumeSimulationHandler(deps.Simulations))
				r.Post("/stop", handler.StopSimulationHandler(deps.Simulations))
				r.Get("/trades", handler.ListTradesHandler(deps.Simulations))
				r.Post("/trades", handler.ManualTradeHandler(deps.Processor))
				r.Post("/process", handler.ProcessSimulationHandler(deps.Processor))
			})
		})

		r.Get("/trades", handler.RecentTradesHandler(deps.Simulations))

		r.Route("/market/{code}", func(r chi.Router) {
			r.Get("/latest", handler.LatestQuoteHandler(deps.Market))
			r.Get("/history", handler.QuoteHistoryHandler(deps.Market))
			r.Post("/refresh", handler.RefreshQuoteHandler(deps.Market))
		})

		r.Post("/users/register", handler.RegisterUserHandler(deps.Users))
		r.Post("/users/login", handler.LoginUserHandler(deps.Users))
	})

	r.Get("/ws/quotes", handler.QuoteStreamHandler(deps.Market))

	return r
}

func StartServer(port string, deps Deps) {
	r := NewRouter(deps)

	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
