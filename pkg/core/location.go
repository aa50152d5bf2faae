// pkg/core/location.go
package core

import (
	"fmt"
	"math"
)

// Location is a point in a named world with an optional facing.
type Location struct {
	World string  `json:"world"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"` // height
	Z     float64 `json:"z"`
	Yaw   float32 `json:"yaw"`
	Pitch float32 `json:"pitch"`
}

// Add returns the location offset by the given deltas, keeping world and facing.
func (l Location) Add(dx, dy, dz float64) Location {
	l.X += dx
	l.Y += dy
	l.Z += dz
	return l
}

// Distance returns the euclidean distance to other.
// Locations in different worlds are infinitely far apart.
func (l Location) Distance(other Location) float64 {
	if l.World != other.World {
		return math.Inf(1)
	}
	dx, dy, dz := l.X-other.X, l.Y-other.Y, l.Z-other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (l Location) String() string {
	return fmt.Sprintf("%s(%.2f, %.2f, %.2f)", l.World, l.X, l.Y, l.Z)
}
