package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

const maxRooms = 250

var ErrTooManyRooms = errors.New("room limit reached")

// Coordinator assigns players to rooms and routes their commands
type Coordinator struct {
	mu         sync.Mutex
	rooms      []*Room          // creation order
	playerRoom map[string]*Room // player id -> room
	nextID     int
	settings   RoomSettings
	analytics  *Analytics
}

// NewCoordinator creates a coordinator whose rooms use settings. analytics may be nil.
func NewCoordinator(settings RoomSettings, analytics *Analytics) *Coordinator {
	return &Coordinator{
		playerRoom: make(map[string]*Room),
		settings:   settings,
		analytics:  analytics,
	}
}

// Assign places a new player in the first lobby room with space, creating a
// room when none has. It returns the room and the generated player id.
func (c *Coordinator) Assign(ctx context.Context, name string, client Broadcaster) (string, string, error) {
	name = SanitizeName(name)
	playerID := GenerateID()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, room := range c.rooms {
		if room.Phase() != PhaseLobby || room.PlayerCount() >= c.settings.Capacity {
			continue
		}
		err := room.Join(ctx, playerID, name, client)
		if err == nil {
			c.playerRoom[playerID] = room
			return room.ID, playerID, nil
		}
		if errors.Is(err, ErrRoomFull) || errors.Is(err, ErrRoomInProgress) || errors.Is(err, ErrRoomClosed) {
			continue
		}
		return "", "", err
	}

	if len(c.rooms) >= maxRooms {
		return "", "", ErrTooManyRooms
	}
	c.nextID++
	room := NewRoom(fmt.Sprintf("room_%d", c.nextID), c.settings, c.analytics)
	room.Start()
	if err := room.Join(ctx, playerID, name, client); err != nil {
		room.Stop()
		return "", "", err
	}
	c.rooms = append(c.rooms, room)
	c.playerRoom[playerID] = room
	Log.Infow("room created", "room", room.ID, "rooms", len(c.rooms))
	return room.ID, playerID, nil
}

// Remove takes a player out of their room and destroys the room if it is
// left empty. It returns the id of the room the player was in.
func (c *Coordinator) Remove(ctx context.Context, playerID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.playerRoom[playerID]
	if !ok {
		return "", ErrPlayerNotFound
	}
	remaining, err := room.Leave(ctx, playerID)
	if err != nil && !errors.Is(err, ErrRoomClosed) {
		return room.ID, err
	}
	delete(c.playerRoom, playerID)
	if remaining == 0 {
		room.Stop()
		c.deleteRoom(room)
		Log.Infow("room destroyed", "room", room.ID, "rooms", len(c.rooms))
	}
	return room.ID, nil
}

func (c *Coordinator) deleteRoom(room *Room) {
	for i, r := range c.rooms {
		if r == room {
			c.rooms = append(c.rooms[:i], c.rooms[i+1:]...)
			return
		}
	}
}

func (c *Coordinator) lookup(playerID string) (*Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	room, ok := c.playerRoom[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return room, nil
}

// Ready forwards a ready signal to the player's room
func (c *Coordinator) Ready(ctx context.Context, playerID string) error {
	room, err := c.lookup(playerID)
	if err != nil {
		return err
	}
	return room.Ready(ctx, playerID)
}

// Input forwards a movement vector to the player's room
func (c *Coordinator) Input(playerID string, x, y float64) error {
	room, err := c.lookup(playerID)
	if err != nil {
		return err
	}
	room.Input(playerID, x, y)
	return nil
}

// Ability forwards an ability request to the player's room
func (c *Coordinator) Ability(ctx context.Context, playerID, name string, params AbilityParams) error {
	room, err := c.lookup(playerID)
	if err != nil {
		return err
	}
	return room.Ability(ctx, playerID, name, params)
}

// Rooms lists every live room in creation order
func (c *Coordinator) Rooms() []RoomInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := make([]RoomInfo, 0, len(c.rooms))
	for _, r := range c.rooms {
		list = append(list, r.Info())
	}
	return list
}

// PlayerCount returns the number of assigned players
func (c *Coordinator) PlayerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.playerRoom)
}

// Shutdown stops every room in parallel
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	rooms := c.rooms
	c.rooms = nil
	c.playerRoom = make(map[string]*Room)
	c.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, room := range rooms {
		g.Go(func() error {
			stopped := make(chan struct{})
			go func() {
				room.Stop()
				close(stopped)
			}()
			select {
			case <-stopped:
				return nil
			case <-ctx.Done():
				return fmt.Errorf("stop %s: %w", room.ID, ctx.Err())
			}
		})
	}
	err := g.Wait()
	Log.Infow("rooms stopped", "count", len(rooms))
	return err
}
