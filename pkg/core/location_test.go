package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocation_Add(t *testing.T) {
	loc := Location{World: "world", X: 1, Y: 2, Z: 3, Yaw: 90, Pitch: 10}
	got := loc.Add(0, 1.5, -3)

	assert.Equal(t, Location{World: "world", X: 1, Y: 3.5, Z: 0, Yaw: 90, Pitch: 10}, got)
	assert.Equal(t, 2.0, loc.Y, "receiver must not change")
}

func TestLocation_Distance(t *testing.T) {
	a := Location{World: "world"}
	b := Location{World: "world", X: 3, Y: 4}

	assert.Equal(t, 5.0, a.Distance(b))
	assert.Equal(t, 0.0, a.Distance(a))
	assert.True(t, math.IsInf(a.Distance(Location{World: "nether"}), 1))
}

func TestLocation_String(t *testing.T) {
	loc := Location{World: "lobby", X: 1, Y: 64.5, Z: -2.126}
	assert.Equal(t, "lobby(1.00, 64.50, -2.13)", loc.String())
}
