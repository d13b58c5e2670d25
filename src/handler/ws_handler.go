package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

const quotePushInterval = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type quoteUpdate struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// QuoteStreamHandler pushes the latest stored quote for a symbol over a
// websocket at a fixed cadence. Duplicate bars are not re-sent.
func QuoteStreamHandler(svc marketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("symbol")
		if code == "" {
			http.Error(w, "symbol is required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("websocket upgrade failed")
			return
		}
		defer conn.Close()

		log := logger.WithField("symbol", code)
		log.Info("Quote stream opened")

		// Reader goroutine drains control frames and signals close.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(quotePushInterval)
		defer ticker.Stop()

		var lastSent time.Time
		push := func() error {
			bar, err := svc.LatestByCode(r.Context(), code)
			if err != nil || bar == nil {
				return err
			}
			if !bar.Timestamp.After(lastSent) {
				return nil
			}
			lastSent = bar.Timestamp
			return conn.WriteJSON(quoteUpdate{
				Symbol:    code,
				Price:     bar.Close,
				Timestamp: bar.Timestamp,
			})
		}

		if err := push(); err != nil {
			log.WithError(err).Warn("Quote stream initial push failed")
			return
		}

		for {
			select {
			case <-closed:
				log.Info("Quote stream closed by client")
				return
			case <-r.Context().Done():
				return
			case <-ticker.C:
				if err := push(); err != nil {
					log.WithError(err).Warn("Quote stream push failed")
					return
				}
			}
		}
	}
}
