package auth

import (
	"context"
	"net/http"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"papertrader/src/model"
)

type userSource interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// Middleware resolves HTTP basic credentials into the request user. Requests
// without credentials pass through anonymous; requests with bad credentials
// are rejected.
func Middleware(users userSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByUsername(r.Context(), username)
			if err != nil {
				logger.WithError(err).Error("failed to load user during auth")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if user == nil {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
				logger.WithField("username", username).Warn("password mismatch")
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
