package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	c := NewCoordinator(DefaultSettings(), nil)
	t.Cleanup(func() { c.Shutdown(context.Background()) })
	return c
}

func TestAssignFillsThenCreates(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < DefaultRoomCapacity; i++ {
		roomID, playerID, err := c.Assign(ctx, "P", &recorder{})
		if err != nil {
			t.Fatalf("assign %d: %v", i, err)
		}
		if roomID != "room_1" {
			t.Errorf("player %d placed in %s", i, roomID)
		}
		if seen[playerID] {
			t.Fatalf("duplicate player id %s", playerID)
		}
		seen[playerID] = true
	}

	roomID, _, err := c.Assign(ctx, "P", &recorder{})
	if err != nil {
		t.Fatal(err)
	}
	if roomID != "room_2" {
		t.Errorf("expected overflow into room_2, got %s", roomID)
	}

	rooms := c.Rooms()
	if len(rooms) != 2 || rooms[0].Players != DefaultRoomCapacity || rooms[1].Players != 1 {
		t.Errorf("unexpected directory %+v", rooms)
	}
}

func TestAssignSkipsRoomsInProgress(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	_, a, _ := c.Assign(ctx, "A", &recorder{})
	_, b, _ := c.Assign(ctx, "B", &recorder{})
	c.Ready(ctx, a)
	c.Ready(ctx, b)
	waitFor(t, "countdown", func() bool { return c.Rooms()[0].Phase == "countdown" })

	roomID, _, err := c.Assign(ctx, "C", &recorder{})
	if err != nil {
		t.Fatal(err)
	}
	if roomID == "room_1" {
		t.Error("joined a room that is counting down")
	}
}

func TestAssignSanitizesName(t *testing.T) {
	c := newTestCoordinator(t)
	rec := &recorder{}
	_, _, err := c.Assign(context.Background(), "   ", rec)
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, "roster", func() bool { _, ok := rec.last(MsgRoomUpdated); return ok })
	env, _ := rec.last(MsgRoomUpdated)
	if name := env.Data.(RosterMsg).Players[0].Name; name != defaultPlayerName {
		t.Errorf("expected %q, got %q", defaultPlayerName, name)
	}
}

func TestRemoveDestroysEmptyRoom(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	roomID, a, _ := c.Assign(ctx, "A", &recorder{})
	_, b, _ := c.Assign(ctx, "B", &recorder{})
	c.Ready(ctx, a)
	c.Ready(ctx, b)
	waitFor(t, "countdown", func() bool { return c.Rooms()[0].Phase == "countdown" })

	c.mu.Lock()
	room := c.rooms[0]
	c.mu.Unlock()

	got, err := c.Remove(ctx, a)
	if err != nil || got != roomID {
		t.Fatalf("remove a: %s %v", got, err)
	}
	if len(c.Rooms()) != 1 {
		t.Fatal("room with a member was destroyed")
	}
	if _, err := c.Remove(ctx, b); err != nil {
		t.Fatal(err)
	}
	if len(c.Rooms()) != 0 {
		t.Errorf("empty room still listed: %+v", c.Rooms())
	}
	if room.TimersArmed() != 0 {
		t.Errorf("destroyed room has %d live timers", room.TimersArmed())
	}
	if c.PlayerCount() != 0 {
		t.Error("removed player still mapped")
	}
}

func TestRemoveKeepsMappingOnTimeout(t *testing.T) {
	c := newTestCoordinator(t)
	room := NewRoom("room_slow", DefaultSettings(), nil)
	if err := room.addPlayer("a", "A", &recorder{}); err != nil {
		t.Fatal(err)
	}
	c.rooms = append(c.rooms, room)
	c.playerRoom["a"] = room

	// With no worker and a full inbox the leave cannot be delivered
	for i := 0; i < inboxSize; i++ {
		room.Input("a", 0, 0)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Remove(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if c.PlayerCount() != 1 || len(c.Rooms()) != 1 {
		t.Fatalf("player dropped from directory while still in the room")
	}

	room.Start()
	if _, err := c.Remove(context.Background(), "a"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if c.PlayerCount() != 0 || len(c.Rooms()) != 0 {
		t.Errorf("room not reclaimed after retry: %+v", c.Rooms())
	}
}

func TestRemoveUnknown(t *testing.T) {
	c := newTestCoordinator(t)
	if _, err := c.Remove(context.Background(), "ghost"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
	if err := c.Ready(context.Background(), "ghost"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
	if err := c.Input("ghost", 1, 0); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestShutdownStopsRooms(t *testing.T) {
	c := NewCoordinator(DefaultSettings(), nil)
	ctx := context.Background()
	for i := 0; i < DefaultRoomCapacity+1; i++ {
		if _, _, err := c.Assign(ctx, "P", &recorder{}); err != nil {
			t.Fatal(err)
		}
	}
	c.mu.Lock()
	rooms := append([]*Room(nil), c.rooms...)
	c.mu.Unlock()

	if err := c.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if len(c.Rooms()) != 0 || c.PlayerCount() != 0 {
		t.Error("directory not emptied")
	}
	for _, r := range rooms {
		if r.TimersArmed() != 0 {
			t.Errorf("%s has %d live timers", r.ID, r.TimersArmed())
		}
		if err := r.Ready(ctx, "x"); !errors.Is(err, ErrRoomClosed) {
			t.Errorf("%s still accepting commands: %v", r.ID, err)
		}
	}
}
