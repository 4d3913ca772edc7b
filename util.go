package main

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a random v4 UUID string
func GenerateID() string {
	return uuid.NewString()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Distance returns the distance between two points
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// Normalize returns the unit vector of (x, y) and its original length.
// A zero (or non-finite) vector yields (0, 0, 0).
func Normalize(x, y float64) (float64, float64, float64) {
	l := math.Hypot(x, y)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return 0, 0, 0
	}
	return x / l, y / l, l
}

// finite replaces NaN and ±Inf with 0
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SanitizeName trims and bounds a display name
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultPlayerName
	}
	if len(name) > maxNameLen {
		// Cut on a byte boundary, then drop a split trailing rune
		name = strings.ToValidUTF8(name[:maxNameLen], "")
	}
	return name
}
