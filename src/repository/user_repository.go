package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// UserRepository handles account rows for simulation owners.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository() *UserRepository {
	return &UserRepository{db: database.MainDB}
}

func NewUserRepositoryWithDB(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID fetches a user by primary key. Returns (nil, nil) when missing.
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User

	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// GetByUsername fetches a user by username. Returns (nil, nil) when missing.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User

	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":     "UserRepository",
			"op":       "GetByUsername",
			"username": username,
		}).WithError(err).Error("Failed to fetch user")

		return nil, err
	}

	return &user, nil
}

// Create inserts a new user account.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "UserRepository",
			"op":       "Create",
			"username": user.Username,
		}).WithError(err).Error("Failed to create user")

		return err
	}

	return nil
}
