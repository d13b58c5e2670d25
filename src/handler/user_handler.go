package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"papertrader/src/model"
)

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

type registerPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toUserResponse(user *model.User) userResponse {
	resp := userResponse{ID: user.ID, Username: user.Username}
	if user.Email != nil {
		resp.Email = *user.Email
	}
	return resp
}

func RegisterUserHandler(users userStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid register payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		payload.Username = strings.TrimSpace(payload.Username)
		payload.Email = strings.TrimSpace(payload.Email)
		if payload.Username == "" || payload.Password == "" {
			http.Error(w, "username and password are required", http.StatusBadRequest)
			return
		}

		existing, err := users.GetByUsername(r.Context(), payload.Username)
		if err != nil {
			logger.WithError(err).Error("failed to check username")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if existing != nil {
			http.Error(w, "username already taken", http.StatusConflict)
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.WithError(err).Error("failed to hash password")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		user := &model.User{
			Username:     payload.Username,
			PasswordHash: string(hashed),
		}
		if payload.Email != "" {
			user.Email = &payload.Email
		}
		if err := users.Create(r.Context(), user); err != nil {
			logger.WithError(err).Error("failed to create user")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toUserResponse(user))
	}
}

func LoginUserHandler(users userStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid login payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		user, err := users.GetByUsername(r.Context(), strings.TrimSpace(payload.Username))
		if err != nil {
			logger.WithError(err).Error("failed to load user")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
			logger.WithField("username", user.Username).Warn("password mismatch")
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(user))
	}
}
