package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Mayhomes/quiz/internal/app"
)

// TimerSocket streams countdown ticks to the quiz view over a WebSocket.
type TimerSocket struct {
	registry app.SessionRegistry
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewTimerSocket(registry app.SessionRegistry, log zerolog.Logger) *TimerSocket {
	return &TimerSocket{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

type timerMessage struct {
	Type    string        `json:"type"`
	Payload app.TickEvent `json:"payload"`
}

// Serve upgrades the request and pushes one message per tick until the
// countdown expires, stops, or the client disconnects.
func (ts *TimerSocket) Serve(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}
	session, ok := ts.registry.Get(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := ts.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ts.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ticks, cancel := session.Timer().Subscribe()
	defer cancel()

	// Reader goroutine: the client sends nothing meaningful, but reading
	// surfaces disconnects so the tick loop below can bail out.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, open := <-ticks:
			if !open {
				return
			}
			msgType := "tick"
			if event.Expired {
				msgType = "expired"
			}
			if err := conn.WriteJSON(timerMessage{Type: msgType, Payload: event}); err != nil {
				ts.log.Debug().Err(err).Msg("ws write error")
				return
			}
			if event.Expired {
				return
			}
		case <-gone:
			return
		}
	}
}
