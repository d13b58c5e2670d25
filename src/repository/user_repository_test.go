package repository

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUserRepositoryCreateWithoutEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepositoryWithDB(newSQLiteDB(t))

	// Two accounts without an email must not collide on the email index.
	if err := repo.Create(ctx, &model.User{Username: "alice", PasswordHash: "x"}); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if err := repo.Create(ctx, &model.User{Username: "bob", PasswordHash: "x"}); err != nil {
		t.Fatalf("create bob: %v", err)
	}

	bob, err := repo.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("get bob: %v", err)
	}
	if bob == nil || bob.Email != nil {
		t.Fatalf("got %+v, want bob with nil email", bob)
	}
}

func TestUserRepositoryDuplicateEmailRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepositoryWithDB(newSQLiteDB(t))

	email := "alice@example.com"
	if err := repo.Create(ctx, &model.User{Username: "alice", Email: &email, PasswordHash: "x"}); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if err := repo.Create(ctx, &model.User{Username: "alice2", Email: &email, PasswordHash: "x"}); err == nil {
		t.Fatal("second user with the same email must be rejected")
	}
}
