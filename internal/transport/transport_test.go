// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"arpsd/internal/analysis"
	"arpsd/internal/ar"
	"arpsd/internal/peaks"
	"arpsd/pkg/utils"

	"github.com/gorilla/websocket"
)

type failingTransport struct {
	utils.MockTransport
	err error
}

func (f *failingTransport) Send(data any) error {
	_ = f.MockTransport.Send(data)
	return f.err
}

func testResult(name string) *analysis.Result {
	return &analysis.Result{
		Name:       name,
		SampleRate: 100,
		Samples:    256,
		Model:      ar.Model{Coeffs: []float64{1, -0.9}, Variance: 0.5, Order: 1, Requested: 1},
		PSD:        []float64{1, 3, 1},
		Peaks:      []peaks.Peak{{Bin: 1, Index: 1, Frequency: 25, PowerDB: 4.77, WidthHz: 50}},
	}
}

func TestPayload(t *testing.T) {
	res := testResult("a")
	if s, ok := Payload(res).(analysis.Summary); !ok || s.Name != "a" {
		t.Errorf("Payload(*Result) = %#v", Payload(res))
	}
	if s, ok := Payload(*res).(analysis.Summary); !ok || s.UsedOrder != 1 {
		t.Errorf("Payload(Result) = %#v", Payload(*res))
	}
	if got := Payload("hello"); got != "hello" {
		t.Errorf("Payload(string) = %v", got)
	}
}

func TestMulti(t *testing.T) {
	a := &utils.MockTransport{}
	boom := errors.New("boom")
	b := &failingTransport{err: boom}
	c := &utils.MockTransport{}
	m := Multi{a, b, c}

	if err := m.Send(1); !errors.Is(err, boom) {
		t.Errorf("Send err = %v, want boom", err)
	}
	if a.Count() != 1 || b.Count() != 1 || c.Count() != 1 {
		t.Errorf("fan-out counts %d %d %d, want 1 each", a.Count(), b.Count(), c.Count())
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !a.Closed || !b.Closed || !c.Closed {
		t.Error("not every transport closed")
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	for _, v := range []any{testResult("x"), "plain", 42} {
		if err := lt.Send(v); err != nil {
			t.Errorf("Send(%T): %v", v, err)
		}
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func dial(t *testing.T, wst *WebSocketTransport) *websocket.Conn {
	t.Helper()
	url := fmt.Sprintf("ws://%s/ws", wst.Addr())
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSummary(t *testing.T, conn *websocket.Conn) analysis.Summary {
	t.Helper()
	var s analysis.Summary
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&s); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return s
}

func TestWebSocketBroadcast(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport: %v", err)
	}
	defer wst.Close()

	early := dial(t, wst)
	if err := wst.Send(testResult("first")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if s := readSummary(t, early); s.Name != "first" || len(s.Peaks) != 1 || s.Peaks[0].Frequency != 25 {
		t.Errorf("early client got %+v", s)
	}

	// A late client is replayed the history before live messages.
	late := dial(t, wst)
	if s := readSummary(t, late); s.Name != "first" {
		t.Errorf("late client replay = %+v", s)
	}
	if err := wst.Send(testResult("second")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if s := readSummary(t, late); s.Name != "second" {
		t.Errorf("late client live = %+v", s)
	}
	if s := readSummary(t, early); s.Name != "second" {
		t.Errorf("early client live = %+v", s)
	}
}

func TestWebSocketClose(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport: %v", err)
	}
	conn := dial(t, wst)

	if err := wst.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := wst.Send(testResult("late")); err == nil {
		t.Error("Send after Close succeeded")
	}
	if wst.Clients() != 0 {
		t.Errorf("clients after Close = %d", wst.Clients())
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("client still readable after Close")
	}
}

func TestWebSocketBadAddress(t *testing.T) {
	if _, err := NewWebSocketTransport("256.0.0.1:99999"); err == nil {
		t.Error("expected listen error")
	}
}
