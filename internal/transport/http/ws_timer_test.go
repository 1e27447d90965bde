package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Mayhomes/quiz/internal/app"
	"github.com/Mayhomes/quiz/internal/infra/memory"
)

func newWSServer(t *testing.T, duration time.Duration, interval time.Duration) *httptest.Server {
	t.Helper()
	registry := memory.NewSessionRegistry(func(id string) *app.Session {
		return app.NewSessionWithClock(
			id,
			memory.NewStore(),
			memory.NewStaticBankLoader(questionBank(25)),
			&recordingSubmitter{},
			app.SessionConfig{QuestionCount: 20, Duration: duration},
			zerolog.Nop(),
			time.Now,
			interval,
		)
	})
	h := NewHandler(registry, zerolog.Nop(), "test")
	ws := NewTimerSocket(registry, zerolog.Nop())
	srv := httptest.NewServer(NewRouter(h, ws))
	t.Cleanup(srv.Close)
	return srv
}

func dialTimer(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/timer?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestTimerSocketStreamsTicks(t *testing.T) {
	srv := newWSServer(t, 20*time.Minute, 20*time.Millisecond)
	id := createSession(t, srv)
	doJSON(t, http.MethodGet, srv.URL+"/api/sessions/"+id+"/questions", nil, nil)

	conn := dialTimer(t, srv, id)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first timerMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if first.Type != "tick" {
		t.Fatalf("first message type = %q", first.Type)
	}
	if first.Payload.Remaining > 1200 || first.Payload.Remaining <= 0 {
		t.Fatalf("snapshot remaining = %d", first.Payload.Remaining)
	}
	if first.Payload.Tier != app.TierNormal {
		t.Fatalf("snapshot tier = %s with 20 minutes left", first.Payload.Tier)
	}

	var second timerMessage
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read tick: %v", err)
	}
	if second.Payload.Remaining >= first.Payload.Remaining {
		t.Fatalf("countdown not decreasing: %d then %d", first.Payload.Remaining, second.Payload.Remaining)
	}
}

func TestTimerSocketSendsExpiry(t *testing.T) {
	srv := newWSServer(t, 2*time.Second, 10*time.Millisecond)
	id := createSession(t, srv)
	doJSON(t, http.MethodGet, srv.URL+"/api/sessions/"+id+"/questions", nil, nil)

	conn := dialTimer(t, srv, id)
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	for {
		var msg timerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "expired" {
			if msg.Payload.Remaining != 0 || !msg.Payload.Expired {
				t.Fatalf("expiry payload = %+v", msg.Payload)
			}
			return
		}
	}
}

func TestTimerSocketRejectsMissingSession(t *testing.T) {
	srv := newWSServer(t, 20*time.Minute, time.Hour)

	resp, err := http.Get(srv.URL + "/ws/timer")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("no session param: status %d, want 400", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/ws/timer?session=ghost")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown session: status %d, want 404", resp.StatusCode)
	}
}
