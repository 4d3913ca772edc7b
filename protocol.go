package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin    = "join"
	MsgLeave   = "leave"
	MsgReady   = "ready"
	MsgInput   = "input"
	MsgAbility = "ability"
)

// Legacy client names accepted for the same commands
const (
	MsgJoinGame    = "join-game"
	MsgLeaveLobby  = "leave-lobby"
	MsgPlayerReady = "player-ready"
)

// Server -> Client message types
const (
	MsgJoinedRoom  = "joined-room"
	MsgRoomUpdated = "room-updated"
	MsgReadyTimer  = "ready-timer"
	MsgCountdown   = "countdown"
	MsgGameStart   = "game-start"
	MsgStateUpdate = "state-update"
	MsgPlayerOut   = "player-out"
	MsgAbilityUsed = "ability-used"
	MsgGameOver    = "game-over"
)

// CountdownCleared is sent as the countdown value when a countdown aborts
const CountdownCleared = -1

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; the payload is decoded per type
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg accepts either {"username": "..."} or a bare string
type JoinMsg struct {
	Username string `json:"username"`
}

func (m *JoinMsg) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		m.Username = name
		return nil
	}
	type plain JoinMsg
	return json.Unmarshal(b, (*plain)(m))
}

// InputMsg is the latest movement vector, each axis in [-1, 1]
type InputMsg struct {
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// Vec is a bare 2D vector
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AbilityMsg accepts either "push" or {"name": "slide", "dir": {"x": 1, "y": 0}}
type AbilityMsg struct {
	Name string `json:"name"`
	Dir  *Vec   `json:"dir,omitempty"`
}

// A direction that does not decode as {x, y} is dropped, leaving the zero vector.
func (m *AbilityMsg) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		m.Name = name
		return nil
	}
	var raw struct {
		Name string          `json:"name"`
		Dir  json.RawMessage `json:"dir"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m.Name = raw.Name
	m.Dir = nil
	var v Vec
	if len(raw.Dir) > 0 && json.Unmarshal(raw.Dir, &v) == nil {
		m.Dir = &v
	}
	return nil
}

// Params converts the optional direction; a missing direction is the zero vector
func (m AbilityMsg) Params() AbilityParams {
	if m.Dir == nil {
		return AbilityParams{}
	}
	return AbilityParams{DirX: m.Dir.X, DirY: m.Dir.Y}
}

// PlayerState is the read-only snapshot of a player
type PlayerState struct {
	ID           string           `json:"id" msgpack:"id"`
	Name         string           `json:"username" msgpack:"username"`
	X            float64          `json:"x" msgpack:"x"`
	Y            float64          `json:"y" msgpack:"y"`
	VX           float64          `json:"vx" msgpack:"vx"`
	VY           float64          `json:"vy" msgpack:"vy"`
	Alive        bool             `json:"alive" msgpack:"alive"`
	Ready        bool             `json:"ready" msgpack:"ready"`
	Sprinting    bool             `json:"isSprinting" msgpack:"isSprinting"`
	Sliding      bool             `json:"isSliding" msgpack:"isSliding"`
	Invulnerable bool             `json:"isInvulnerable" msgpack:"isInvulnerable"`
	Cooldowns    map[string]int64 `json:"abilitiesCooldowns" msgpack:"abilitiesCooldowns"`
}

// JoinedRoomMsg is unicast to a player when they join
type JoinedRoomMsg struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// RosterMsg carries a full roster (room-updated, game-start)
type RosterMsg struct {
	Players []PlayerState `json:"players"`
}

// StateUpdate is broadcast as a msgpack binary frame while a round is active
type StateUpdate struct {
	Players     []PlayerState `json:"players" msgpack:"players"`
	ArenaRadius float64       `json:"arenaRadius" msgpack:"arenaRadius"`
	Tick        uint64        `json:"tick" msgpack:"tick"`
}

// AbilityUsedMsg is broadcast on every successful activation
type AbilityUsedMsg struct {
	PlayerID string `json:"playerId"`
	Ability  string `json:"ability"`
}

// GameOverMsg reports the sole survivor, or nil when nobody survived
type GameOverMsg struct {
	Winner *string `json:"winner"`
}
