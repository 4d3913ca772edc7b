package main

import (
	"math"
	"time"
)

// MatchPhase represents the lifecycle of a room
type MatchPhase int32

const (
	PhaseLobby     MatchPhase = 0
	PhaseCountdown MatchPhase = 1
	PhaseActive    MatchPhase = 2
	PhaseGameOver  MatchPhase = 3
)

func (p MatchPhase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseCountdown:
		return "countdown"
	case PhaseActive:
		return "active"
	case PhaseGameOver:
		return "gameover"
	}
	return "unknown"
}

// Lifecycle timing
const (
	TickDuration      = 33 * time.Millisecond // simulation step, ~30 Hz
	BroadcastInterval = 60 * time.Millisecond // state-update cadence
	LobbyTick         = time.Second           // ready-check and countdown step
	ReadyCheckSeconds = 20
	CountdownSeconds  = 3
)

// Room defaults
const (
	DefaultRoomCapacity = 4
	DefaultArenaRadius  = 500.0
	SpawnMargin         = 100.0
	MinPlayersToStart   = 2
)

// RoomSettings holds the fixed parameters of a room
type RoomSettings struct {
	Capacity    int
	ArenaRadius float64
}

// DefaultSettings returns the standard four-player arena
func DefaultSettings() RoomSettings {
	return RoomSettings{
		Capacity:    DefaultRoomCapacity,
		ArenaRadius: DefaultArenaRadius,
	}
}

// SpawnPosition returns the i-th of n evenly spaced points on the spawn ring
func (s RoomSettings) SpawnPosition(i, n int) (float64, float64) {
	if n <= 0 {
		return 0, 0
	}
	ring := s.ArenaRadius - SpawnMargin
	angle := 2 * math.Pi * float64(i) / float64(n)
	return ring * math.Cos(angle), ring * math.Sin(angle)
}
