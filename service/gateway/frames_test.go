package gateway

import (
	"encoding/json"
	"testing"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"joinChat","data":{"chatId":"c_1"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Event != EvtJoinChat || f.Data["chatId"] != "c_1" {
		t.Fatalf("frame = %+v", f)
	}

	if _, err := ParseFrame([]byte(`{"data":{}}`)); err == nil {
		t.Fatal("frame without event accepted")
	}
	if _, err := ParseFrame([]byte(`not json`)); err == nil {
		t.Fatal("malformed frame accepted")
	}
}

func TestBuildEventRoundTrip(t *testing.T) {
	raw := BuildEvent(EvtUserTyping, TypingEvent{ChatID: "c_1", UserID: "u_a", UserName: "Alice"})
	if raw == nil {
		t.Fatal("encode returned nil")
	}
	var f struct {
		Event string      `json:"event"`
		Data  TypingEvent `json:"data"`
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Event != EvtUserTyping || f.Data.UserName != "Alice" || f.Data.ChatID != "c_1" {
		t.Fatalf("round trip = %+v", f)
	}
}

func TestBuildEventOmitsEmptyName(t *testing.T) {
	raw := BuildEvent(EvtUserStoppedTyping, TypingEvent{ChatID: "c_1", UserID: "u_a"})
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, present := f.Data["userName"]; present {
		t.Fatal("empty userName serialized on stopTyping")
	}
}
