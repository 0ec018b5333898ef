package quaddle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// gatewayTestServer speaks the wire protocol over a real websocket.
func gatewayTestServer(t *testing.T, token string, sessionID string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/app" {
			http.NotFound(w, r)
			return
		}
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer ws.Close(websocket.StatusNormalClosure, "done")
		ctx := r.Context()

		_, raw, err := ws.Read(ctx)
		if err != nil {
			return
		}
		cmd, err := DecodeCommand(raw)
		if err != nil || cmd.Op != OpIdentify || cmd.Token != token {
			frame, _ := EncodeEvent(ErrorEvent{Reason: "invalid token"})
			_ = ws.Write(ctx, websocket.MessageText, frame)
			return
		}

		ready, _ := EncodeEvent(ReadyEvent{SessionID: sessionID, User: User{ID: 7, Name: "meow"}})
		if err := ws.Write(ctx, websocket.MessageText, ready); err != nil {
			return
		}
		msg, _ := EncodeEvent(MessageCreateEvent{Message: Message{
			ID:      1,
			Author:  User{ID: 7, Name: "meow"},
			Channel: 1,
			Content: "haii :3",
		}})
		if err := ws.Write(ctx, websocket.MessageText, msg); err != nil {
			return
		}

		// Hold the stream open until the client goes away.
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}))
}

func TestGatewayOverWebsocket(t *testing.T) {
	sessionID := uuid.NewString()
	srv := gatewayTestServer(t, "tok-ws", sessionID)
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	cfg.ReconnectAttempts = 0
	g := NewGateway(cfg, StaticToken("tok-ws"))
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ev, err := g.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	ready, ok := ev.(ReadyEvent)
	if !ok || ready.SessionID != sessionID || ready.User.Name != "meow" {
		t.Fatalf("first event = %#v", ev)
	}

	ev, err = g.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if mc, ok := ev.(MessageCreateEvent); !ok || mc.Message.Content != "haii :3" {
		t.Fatalf("second event = %#v", ev)
	}
}

func TestGatewayOverWebsocketAuthRejected(t *testing.T) {
	srv := gatewayTestServer(t, "tok-ws", uuid.NewString())
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	cfg.ReconnectAttempts = 0
	g := NewGateway(cfg, StaticToken("wrong"))
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := g.Next(ctx); !IsAuth(err) {
		t.Fatalf("err = %v, want auth", err)
	}
	if g.CloseReason() != CloseAuthFailed {
		t.Fatalf("reason = %v", g.CloseReason())
	}
}
