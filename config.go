package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds process settings. Flags override environment variables,
// which may come from a .env file.
type Config struct {
	Addr          string
	DBPath        string // empty disables the event log and persisted secrets
	LogLevel      string
	LogFormat     string
	AdminPassHash string // bcrypt hash; empty disables the admin API
	PublicURL     string // encoded by /qr.png
	RoomCapacity  int
	ArenaRadius   float64
}

// LoadConfig reads .env (if present), the environment, then args
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	fs := flag.NewFlagSet("arena-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", getEnv("ARENA_ADDR", ":3000"), "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", getEnv("ARENA_DB", ""), "SQLite database path (empty disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("ARENA_LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnv("ARENA_LOG_FORMAT", "json"), "json or console")
	fs.StringVar(&cfg.AdminPassHash, "admin-pass-hash", getEnv("ARENA_ADMIN_PASS_HASH", ""), "bcrypt hash of the admin password")
	fs.StringVar(&cfg.PublicURL, "public-url", getEnv("ARENA_PUBLIC_URL", ""), "Public join URL for the invite QR code")
	fs.IntVar(&cfg.RoomCapacity, "room-capacity", getEnvInt("ARENA_ROOM_CAPACITY", DefaultRoomCapacity), "Players per room")
	fs.Float64Var(&cfg.ArenaRadius, "arena-radius", getEnvFloat("ARENA_ARENA_RADIUS", DefaultArenaRadius), "Arena radius")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with
func (c Config) Validate() error {
	if c.RoomCapacity < 2 || c.RoomCapacity > DefaultRoomCapacity {
		return fmt.Errorf("room capacity %d: must be between 2 and %d", c.RoomCapacity, DefaultRoomCapacity)
	}
	if c.ArenaRadius <= SpawnMargin {
		return fmt.Errorf("arena radius %g: must exceed spawn margin %g", c.ArenaRadius, SpawnMargin)
	}
	return nil
}

// RoomSettings derives the per-room settings
func (c Config) RoomSettings() RoomSettings {
	return RoomSettings{Capacity: c.RoomCapacity, ArenaRadius: c.ArenaRadius}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}
