package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/artpar/socketgate/core/events"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func dialTestChannel(t *testing.T, channel *Channel, query string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(channel)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestInboundMessageReachesBusAndReplyReachesClient(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	bus.Subscribe(events.EventMessage, func(ctx context.Context, ev events.Event) error {
		if ev.Message["type"] == "ITEMS" {
			return ev.Client.Send(`{"echo":true}`)
		}
		return nil
	})

	channel := New(bus, Config{}, zerolog.Nop(), nil)
	conn := dialTestChannel(t, channel, "")

	err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ITEMS","action":"read"}`))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"echo":true}` {
		t.Errorf("reply = %s", data)
	}
}

func TestUndecodableFrameIsDropped(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())

	delivered := make(chan events.Event, 1)
	bus.Subscribe(events.EventMessage, func(ctx context.Context, ev events.Event) error {
		delivered <- ev
		return nil
	})

	channel := New(bus, Config{}, zerolog.Nop(), nil)
	conn := dialTestChannel(t, channel, "")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ITEMS"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case ev := <-delivered:
		if ev.Message["type"] != "ITEMS" {
			t.Errorf("unexpected message delivered: %v", ev.Message)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid message never delivered")
	}

	select {
	case ev := <-delivered:
		t.Errorf("undecodable frame delivered: %v", ev.Message)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestConnectionCarriesAccountability(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())

	delivered := make(chan events.Event, 1)
	bus.Subscribe(events.EventMessage, func(ctx context.Context, ev events.Event) error {
		delivered <- ev
		return nil
	})

	channel := New(bus, Config{JWTSecret: testSecret}, zerolog.Nop(), nil)
	token := signToken(t, map[string]any{"sub": "user-1", "admin": true})
	conn := dialTestChannel(t, channel, "?token="+token)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ITEMS"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case ev := <-delivered:
		if ev.Accountability.UserID != "user-1" || !ev.Accountability.Admin {
			t.Errorf("accountability = %+v", ev.Accountability)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message never delivered")
	}
}

func TestRejectsInvalidTokenWhenRequired(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	channel := New(bus, Config{JWTSecret: testSecret, RequireAuth: true}, zerolog.Nop(), nil)

	server := httptest.NewServer(channel)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial with invalid token succeeded")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Errorf("expected 401 response, got %v", resp)
	}
}
