package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xtding233/junkroom/internal/session"
)

func TestJoiningClientGetsNewestView(t *testing.T) {
	h := newHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(http.HandlerFunc(h.serve))
	defer ts.Close()

	// published while nobody is connected
	h.publishView(session.View{State: session.Playing, Score: 1})
	h.publishView(session.View{State: session.Playing, Score: 2})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	readScore := func() int {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg struct {
			Type    string       `json:"type"`
			Payload session.View `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type != "view" {
			t.Fatalf("unexpected message type %q", msg.Type)
		}
		return msg.Payload.Score
	}

	if got := readScore(); got != 2 {
		t.Fatalf("first push should be the newest view, got score %d", got)
	}
	deadline := time.Now().Add(2 * time.Second)
	for h.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	h.publish("feedback", session.Feedback{Kind: session.FeedbackExtract, Text: "+1"})
	h.publishView(session.View{State: session.Completed, Score: 3})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var fb struct {
		Type string `json:"type"`
	}
	if err := conn.ReadJSON(&fb); err != nil || fb.Type != "feedback" {
		t.Fatalf("expected feedback, got %+v err=%v", fb, err)
	}
	if got := readScore(); got != 3 {
		t.Fatalf("live push lost, got score %d", got)
	}

	// feedback is never replayed to late joiners
	late, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer late.Close()
	_ = late.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := late.ReadJSON(&first); err != nil || first.Type != "view" {
		t.Fatalf("late joiner should start with a view, got %+v err=%v", first, err)
	}
}

func TestReloadIntervalFromEnv(t *testing.T) {
	t.Setenv("JUNKROOM_RELOAD", "750ms")
	if d := durationEnvOr("JUNKROOM_RELOAD", time.Second); d != 750*time.Millisecond {
		t.Fatalf("env value ignored: %v", d)
	}
	for _, bad := range []string{"soon", "-1s", "0s"} {
		t.Setenv("JUNKROOM_RELOAD", bad)
		if d := durationEnvOr("JUNKROOM_RELOAD", time.Second); d != time.Second {
			t.Fatalf("%q should fall back to the default, got %v", bad, d)
		}
	}
}
