package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"papertrader/src/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm with sqlmock: %v", err)
	}

	return db, mock
}

func TestSimulationRepositoryFindActive(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &SimulationRepository{db: mockDB}

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "symbol_id", "strategy_id", "status", "start_time", "initial_investment", "current_balance"}).
		AddRow(1, 1, 1, 1, model.SimulationStatusActive, now, 10000.0, 9500.0).
		AddRow(3, 2, 2, 1, model.SimulationStatusActive, now, 5000.0, 5000.0)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "simulations" WHERE status = $1`)).
		WithArgs(model.SimulationStatusActive).
		WillReturnRows(rows)

	sims, err := repo.FindActive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sims) != 2 {
		t.Fatalf("expected 2 active simulations, got %d", len(sims))
	}
	if sims[0].ID != 1 || sims[1].ID != 3 {
		t.Fatalf("unexpected ids: %d, %d", sims[0].ID, sims[1].ID)
	}
	if sims[0].CurrentBalance != 9500 {
		t.Fatalf("balance not mapped: %v", sims[0].CurrentBalance)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSimulationRepositoryGetByIDNotFound(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &SimulationRepository{db: mockDB}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "simulations" WHERE "simulations"."id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	sim, err := repo.GetByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("missing row must not be an error, got %v", err)
	}
	if sim != nil {
		t.Fatalf("expected nil simulation, got %+v", sim)
	}
}

func TestSimulationRepositoryGetByID(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &SimulationRepository{db: mockDB}

	rows := sqlmock.NewRows([]string{"id", "user_id", "status", "initial_investment", "current_balance"}).
		AddRow(7, 1, model.SimulationStatusPaused, 10000.0, 9000.0)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "simulations" WHERE "simulations"."id" = $1`)).
		WillReturnRows(rows)

	sim, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim == nil || sim.ID != 7 {
		t.Fatalf("unexpected simulation: %+v", sim)
	}
	if sim.Status != model.SimulationStatusPaused {
		t.Fatalf("status not mapped: %s", sim.Status)
	}
}
