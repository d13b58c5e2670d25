package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"papertrader/src/auth"
	"papertrader/src/model"
	"papertrader/src/simulation"
)

type mockSimulationService struct {
	sim    *model.Simulation
	sims   []model.Simulation
	trades []model.Trade
	err    error

	createInput simulation.CreateInput
	updateInput simulation.UpdateInput
	lastID      uint
	userID      uint
}

func (m *mockSimulationService) Create(ctx context.Context, input simulation.CreateInput) (*model.Simulation, error) {
	m.createInput = input
	return m.sim, m.err
}

func (m *mockSimulationService) Get(ctx context.Context, id uint) (*model.Simulation, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return m.sim, nil
}

func (m *mockSimulationService) ListForUser(ctx context.Context, userID uint) ([]model.Simulation, error) {
	m.userID = userID
	return m.sims, m.err
}

func (m *mockSimulationService) Update(ctx context.Context, id uint, input simulation.UpdateInput) (*model.Simulation, error) {
	m.lastID = id
	m.updateInput = input
	return m.sim, m.err
}

func (m *mockSimulationService) Pause(ctx context.Context, id uint) (*model.Simulation, error) {
	m.lastID = id
	return m.sim, m.err
}

func (m *mockSimulationService) Resume(ctx context.Context, id uint) (*model.Simulation, error) {
	m.lastID = id
	return m.sim, m.err
}

func (m *mockSimulationService) Stop(ctx context.Context, id uint) (*model.Simulation, error) {
	m.lastID = id
	return m.sim, m.err
}

func (m *mockSimulationService) TradesFor(ctx context.Context, simulationID uint) ([]model.Trade, error) {
	return m.trades, m.err
}

func (m *mockSimulationService) RecentTradesForUser(ctx context.Context, userID uint, limit int) ([]model.Trade, error) {
	m.userID = userID
	return m.trades, m.err
}

type mockTradeExecutor struct {
	trade  *model.Trade
	err    error
	lastID uint
	input  simulation.ManualTradeInput
}

func (m *mockTradeExecutor) ProcessByID(ctx context.Context, simulationID uint) error {
	m.lastID = simulationID
	return m.err
}

func (m *mockTradeExecutor) ExecuteManualTrade(ctx context.Context, simulationID uint, input simulation.ManualTradeInput) (*model.Trade, error) {
	m.lastID = simulationID
	m.input = input
	return m.trade, m.err
}

// withIDParam injects a chi route context carrying the {id} param.
func withIDParam(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreateSimulationHandler(t *testing.T) {
	svc := &mockSimulationService{sim: &model.Simulation{SymbolID: 1, StrategyID: 2}}
	handler := CreateSimulationHandler(svc)

	body := `{"userId":1,"symbolId":1,"strategyId":2,"initialInvestment":10000}`
	req := httptest.NewRequest(http.MethodPost, "/api/simulations", strings.NewReader(body))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, uint(1), svc.createInput.SymbolID)
	assert.Equal(t, 10000.0, svc.createInput.InitialInvestment)
}

func TestCreateSimulationHandler_InvalidInvestment(t *testing.T) {
	handler := CreateSimulationHandler(&mockSimulationService{})

	body := `{"userId":1,"symbolId":1,"strategyId":2,"initialInvestment":-5}`
	req := httptest.NewRequest(http.MethodPost, "/api/simulations", strings.NewReader(body))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateSimulationHandler_MissingRefs(t *testing.T) {
	handler := CreateSimulationHandler(&mockSimulationService{})

	body := `{"userId":1,"initialInvestment":1000}`
	req := httptest.NewRequest(http.MethodPost, "/api/simulations", strings.NewReader(body))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetSimulationHandler_NotFound(t *testing.T) {
	svc := &mockSimulationService{err: simulation.ErrSimulationNotFound}
	handler := GetSimulationHandler(svc)

	req := withIDParam(httptest.NewRequest(http.MethodGet, "/api/simulations/42", nil), "42")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, uint(42), svc.lastID)
}

func TestGetSimulationHandler_InvalidID(t *testing.T) {
	handler := GetSimulationHandler(&mockSimulationService{})

	req := withIDParam(httptest.NewRequest(http.MethodGet, "/api/simulations/abc", nil), "abc")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListSimulationsHandler_RequiresUser(t *testing.T) {
	handler := ListSimulationsHandler(&mockSimulationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/simulations", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListSimulationsHandler(t *testing.T) {
	svc := &mockSimulationService{sims: []model.Simulation{{UserID: 7}}}
	handler := ListSimulationsHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/simulations?userId=7", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint(7), svc.userID)
}

func TestListSimulationsHandler_UsesAuthenticatedUser(t *testing.T) {
	svc := &mockSimulationService{sims: []model.Simulation{{UserID: 42}}}
	handler := ListSimulationsHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/simulations", nil)
	req = req.WithContext(auth.WithUser(req.Context(), &model.User{ID: 42}))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint(42), svc.userID)
}

func TestListSimulationsHandler_AuthenticatedUserWinsOverQueryParam(t *testing.T) {
	svc := &mockSimulationService{}
	handler := ListSimulationsHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/simulations?userId=7", nil)
	req = req.WithContext(auth.WithUser(req.Context(), &model.User{ID: 42}))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint(42), svc.userID)
}

func TestUpdateSimulationHandler_InvalidStatus(t *testing.T) {
	handler := UpdateSimulationHandler(&mockSimulationService{})

	body := `{"status":"RUNNING"}`
	req := withIDParam(httptest.NewRequest(http.MethodPut, "/api/simulations/1", strings.NewReader(body)), "1")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateSimulationHandler(t *testing.T) {
	svc := &mockSimulationService{sim: &model.Simulation{}}
	handler := UpdateSimulationHandler(svc)

	body := `{"status":"paused","currentBalance":9000}`
	req := withIDParam(httptest.NewRequest(http.MethodPut, "/api/simulations/3", strings.NewReader(body)), "3")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint(3), svc.lastID)
	if assert.NotNil(t, svc.updateInput.Status) {
		assert.Equal(t, model.SimulationStatusPaused, *svc.updateInput.Status)
	}
	if assert.NotNil(t, svc.updateInput.CurrentBalance) {
		assert.Equal(t, 9000.0, *svc.updateInput.CurrentBalance)
	}
}

func TestStopSimulationHandler(t *testing.T) {
	svc := &mockSimulationService{sim: &model.Simulation{Status: model.SimulationStatusCompleted}}
	handler := StopSimulationHandler(svc)

	req := withIDParam(httptest.NewRequest(http.MethodPost, "/api/simulations/5/stop", nil), "5")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint(5), svc.lastID)
}

func TestManualTradeHandler(t *testing.T) {
	exec := &mockTradeExecutor{trade: &model.Trade{Type: model.TradeTypeBuy, Quantity: 10}}
	handler := ManualTradeHandler(exec)

	body := `{"type":"BUY","reason":"operator entry"}`
	req := withIDParam(httptest.NewRequest(http.MethodPost, "/api/simulations/9/trades", strings.NewReader(body)), "9")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, uint(9), exec.lastID)
	assert.Equal(t, "operator entry", exec.input.Reason)
}

func TestManualTradeHandler_InvalidType(t *testing.T) {
	handler := ManualTradeHandler(&mockTradeExecutor{})

	body := `{"type":"SHORT"}`
	req := withIDParam(httptest.NewRequest(http.MethodPost, "/api/simulations/9/trades", strings.NewReader(body)), "9")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestManualTradeHandler_DuplicateSignal(t *testing.T) {
	exec := &mockTradeExecutor{err: simulation.ErrDuplicateSignal}
	handler := ManualTradeHandler(exec)

	body := `{"type":"BUY"}`
	req := withIDParam(httptest.NewRequest(http.MethodPost, "/api/simulations/9/trades", strings.NewReader(body)), "9")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestManualTradeHandler_RejectedTrade(t *testing.T) {
	exec := &mockTradeExecutor{err: simulation.ErrNoOpenBuyTrade}
	handler := ManualTradeHandler(exec)

	body := `{"type":"SELL"}`
	req := withIDParam(httptest.NewRequest(http.MethodPost, "/api/simulations/9/trades", strings.NewReader(body)), "9")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestProcessSimulationHandler(t *testing.T) {
	exec := &mockTradeExecutor{}
	handler := ProcessSimulationHandler(exec)

	req := withIDParam(httptest.NewRequest(http.MethodPost, "/api/simulations/4/process", nil), "4")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint(4), exec.lastID)
}

type mockSweepTrigger struct {
	ok     bool
	called int
}

func (m *mockSweepTrigger) TrySweep(ctx context.Context) bool {
	m.called++
	return m.ok
}

func TestForceSweepHandler(t *testing.T) {
	trigger := &mockSweepTrigger{ok: true}
	handler := ForceSweepHandler(trigger)

	req := httptest.NewRequest(http.MethodPost, "/api/simulations/process", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, trigger.called)
}

func TestRecentTradesHandler_UsesAuthenticatedUser(t *testing.T) {
	svc := &mockSimulationService{trades: []model.Trade{{SimulationID: 1}}}
	handler := RecentTradesHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/trades", nil)
	req = req.WithContext(auth.WithUser(req.Context(), &model.User{ID: 9}))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint(9), svc.userID)
}

func TestRecentTradesHandler_RequiresUser(t *testing.T) {
	handler := RecentTradesHandler(&mockSimulationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/trades", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestForceSweepHandler_Busy(t *testing.T) {
	handler := ForceSweepHandler(&mockSweepTrigger{ok: false})

	req := httptest.NewRequest(http.MethodPost, "/api/simulations/process", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}
