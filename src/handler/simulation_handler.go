// Package handler holds the chi HTTP handlers. Each handler constructor takes
// the narrow interface it needs so tests can stub the service side.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"papertrader/src/auth"
	"papertrader/src/model"
	"papertrader/src/simulation"
	"papertrader/src/strategy"
)

type simulationService interface {
	Create(ctx context.Context, input simulation.CreateInput) (*model.Simulation, error)
	Get(ctx context.Context, id uint) (*model.Simulation, error)
	ListForUser(ctx context.Context, userID uint) ([]model.Simulation, error)
	Update(ctx context.Context, id uint, input simulation.UpdateInput) (*model.Simulation, error)
	Pause(ctx context.Context, id uint) (*model.Simulation, error)
	Resume(ctx context.Context, id uint) (*model.Simulation, error)
	Stop(ctx context.Context, id uint) (*model.Simulation, error)
	TradesFor(ctx context.Context, simulationID uint) ([]model.Trade, error)
	RecentTradesForUser(ctx context.Context, userID uint, limit int) ([]model.Trade, error)
}

type tradeExecutor interface {
	ProcessByID(ctx context.Context, simulationID uint) error
	ExecuteManualTrade(ctx context.Context, simulationID uint, input simulation.ManualTradeInput) (*model.Trade, error)
}

type sweepTrigger interface {
	TrySweep(ctx context.Context) bool
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

// writeSimulationError maps the simulation package's typed errors onto HTTP
// statuses. Unknown errors are logged and reported as 500.
func writeSimulationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, simulation.ErrSimulationNotFound):
		http.Error(w, "simulation not found", http.StatusNotFound)
	case errors.Is(err, simulation.ErrNotActive):
		http.Error(w, "simulation is not active", http.StatusConflict)
	case errors.Is(err, simulation.ErrDuplicateSignal):
		http.Error(w, "duplicate signal within suppression window", http.StatusConflict)
	case errors.Is(err, simulation.ErrInsufficientFunds),
		errors.Is(err, simulation.ErrZeroQuantity),
		errors.Is(err, simulation.ErrNoOpenBuyTrade):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		logger.WithError(err).Error("simulation request failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func idParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

type createSimulationPayload struct {
	UserID            uint                  `json:"userId"`
	SymbolID          uint                  `json:"symbolId"`
	StrategyID        uint                  `json:"strategyId"`
	InitialInvestment float64               `json:"initialInvestment"`
	ReinvestProfits   bool                  `json:"reinvestProfits"`
	TimePeriod        string                `json:"timePeriod"`
	Parameters        *model.StrategyParams `json:"parameters"`
}

func CreateSimulationHandler(svc simulationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createSimulationPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid create simulation payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if payload.SymbolID == 0 || payload.StrategyID == 0 {
			http.Error(w, "symbolId and strategyId are required", http.StatusBadRequest)
			return
		}
		if payload.InitialInvestment <= 0 {
			http.Error(w, "initialInvestment must be positive", http.StatusBadRequest)
			return
		}

		sim, err := svc.Create(r.Context(), simulation.CreateInput{
			UserID:            payload.UserID,
			SymbolID:          payload.SymbolID,
			StrategyID:        payload.StrategyID,
			InitialInvestment: payload.InitialInvestment,
			ReinvestProfits:   payload.ReinvestProfits,
			TimePeriod:        payload.TimePeriod,
			Parameters:        payload.Parameters,
		})
		if err != nil {
			writeSimulationError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, sim)
	}
}

func GetSimulationHandler(svc simulationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			http.Error(w, "invalid simulation id", http.StatusBadRequest)
			return
		}

		sim, err := svc.Get(r.Context(), id)
		if err != nil {
			writeSimulationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, sim)
	}
}

// requestUserID resolves the user the request acts for: the authenticated
// user when the middleware attached one, otherwise the userId query param.
func requestUserID(r *http.Request) (uint, bool) {
	if user, ok := auth.GetUserFromContext(r.Context()); ok && user != nil {
		return user.ID, true
	}

	userParam := r.URL.Query().Get("userId")
	if userParam == "" {
		return 0, false
	}
	parsed, err := strconv.ParseUint(userParam, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(parsed), true
}

func ListSimulationsHandler(svc simulationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(r)
		if !ok {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}

		sims, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			writeSimulationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, sims)
	}
}

type updateSimulationPayload struct {
	Status         *string               `json:"status"`
	CurrentBalance *float64              `json:"currentBalance"`
	Parameters     *model.StrategyParams `json:"parameters"`
}

var validStatuses = map[string]bool{
	model.SimulationStatusActive:    true,
	model.SimulationStatusPaused:    true,
	model.SimulationStatusCompleted: true,
	model.SimulationStatusFailed:    true,
}

func UpdateSimulationHandler(svc simulationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			http.Error(w, "invalid simulation id", http.StatusBadRequest)
			return
		}

		var payload updateSimulationPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid update simulation payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if payload.Status != nil && !validStatuses[*payload.Status] {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		if payload.CurrentBalance != nil && *payload.CurrentBalance < 0 {
			http.Error(w, "currentBalance must not be negative", http.StatusBadRequest)
			return
		}

		sim, err := svc.Update(r.Context(), id, simulation.UpdateInput{
			Status:         payload.Status,
			CurrentBalance: payload.CurrentBalance,
			Parameters:     payload.Parameters,
		})
		if err != nil {
			writeSimulationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, sim)
	}
}

func transitionHandler(transition func(ctx context.Context, id uint) (*model.Simulation, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			http.Error(w, "invalid simulation id", http.StatusBadRequest)
			return
		}

		sim, err := transition(r.Context(), id)
		if err != nil {
			writeSimulationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, sim)
	}
}

func PauseSimulationHandler(svc simulationService) http.HandlerFunc {
	return transitionHandler(svc.Pause)
}

func ResumeSimulationHandler(svc simulationService) http.HandlerFunc {
	return transitionHandler(svc.Resume)
}

func StopSimulationHandler(svc simulationService) http.HandlerFunc {
	return transitionHandler(svc.Stop)
}

func ListTradesHandler(svc simulationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			http.Error(w, "invalid simulation id", http.StatusBadRequest)
			return
		}

		if _, err := svc.Get(r.Context(), id); err != nil {
			writeSimulationError(w, err)
			return
		}

		trades, err := svc.TradesFor(r.Context(), id)
		if err != nil {
			writeSimulationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, trades)
	}
}

func RecentTradesHandler(svc simulationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(r)
		if !ok {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}

		limit := 20
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		trades, err := svc.RecentTradesForUser(r.Context(), userID, limit)
		if err != nil {
			writeSimulationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, trades)
	}
}

type manualTradePayload struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func ManualTradeHandler(exec tradeExecutor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			http.Error(w, "invalid simulation id", http.StatusBadRequest)
			return
		}

		var payload manualTradePayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid manual trade payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		var signal strategy.Signal
		switch payload.Type {
		case model.TradeTypeBuy:
			signal = strategy.SignalBuy
		case model.TradeTypeSell:
			signal = strategy.SignalSell
		default:
			http.Error(w, "type must be BUY or SELL", http.StatusBadRequest)
			return
		}

		trade, err := exec.ExecuteManualTrade(r.Context(), id, simulation.ManualTradeInput{
			Signal: signal,
			Reason: payload.Reason,
		})
		if err != nil {
			writeSimulationError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, trade)
	}
}

func ProcessSimulationHandler(exec tradeExecutor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			http.Error(w, "invalid simulation id", http.StatusBadRequest)
			return
		}

		if err := exec.ProcessByID(r.Context(), id); err != nil {
			writeSimulationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
	}
}

func ForceSweepHandler(sweeper sweepTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !sweeper.TrySweep(r.Context()) {
			http.Error(w, "sweep already running", http.StatusConflict)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "sweep completed"})
	}
}
