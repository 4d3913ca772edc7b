package main

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestJoinMsgForms(t *testing.T) {
	var m JoinMsg
	if err := json.Unmarshal([]byte(`"Alice"`), &m); err != nil || m.Username != "Alice" {
		t.Errorf("bare string: %+v %v", m, err)
	}
	m = JoinMsg{}
	if err := json.Unmarshal([]byte(`{"username":"Bob"}`), &m); err != nil || m.Username != "Bob" {
		t.Errorf("object: %+v %v", m, err)
	}
}

func TestAbilityMsgForms(t *testing.T) {
	var m AbilityMsg
	if err := json.Unmarshal([]byte(`"push"`), &m); err != nil || m.Name != "push" {
		t.Fatalf("bare string: %+v %v", m, err)
	}
	if p := m.Params(); p.DirX != 0 || p.DirY != 0 {
		t.Errorf("expected zero direction, got %+v", p)
	}

	m = AbilityMsg{}
	if err := json.Unmarshal([]byte(`{"name":"slide","dir":{"x":0.5,"y":-1}}`), &m); err != nil {
		t.Fatal(err)
	}
	if p := m.Params(); m.Name != "slide" || p.DirX != 0.5 || p.DirY != -1 {
		t.Errorf("unexpected %+v / %+v", m, p)
	}

	// A direction of the wrong shape degrades to no direction
	m = AbilityMsg{}
	if err := json.Unmarshal([]byte(`{"name":"slide","dir":"left"}`), &m); err != nil {
		t.Fatalf("malformed direction: %v", err)
	}
	if p := m.Params(); m.Name != "slide" || p.DirX != 0 || p.DirY != 0 {
		t.Errorf("expected slide with zero direction, got %+v", m)
	}
}

func TestEnvelopeEncoding(t *testing.T) {
	raw, err := json.Marshal(Envelope{T: MsgCountdown, Data: CountdownCleared})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"t":"countdown","d":-1}` {
		t.Errorf("unexpected encoding %s", raw)
	}

	raw, _ = json.Marshal(Envelope{T: MsgGameOver, Data: GameOverMsg{}})
	if string(raw) != `{"t":"game-over","d":{"winner":null}}` {
		t.Errorf("unexpected encoding %s", raw)
	}
}

func TestClientRateLimit(t *testing.T) {
	c := &Client{}
	now := time.Now()
	for i := 0; i < maxMessagesPerSec; i++ {
		if err := c.allow(now); err != nil {
			t.Fatalf("message %d limited", i)
		}
	}
	if err := c.allow(now); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if err := c.allow(now.Add(1100 * time.Millisecond)); err != nil {
		t.Errorf("budget should reset after a second: %v", err)
	}
}
