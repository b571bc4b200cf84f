package main

import (
	"math/rand"

	"contagion-sim/quadtree"
)

const (
	DefaultPotency = 3    // a contaminated carrier spreads on 1 step in Potency
	RedirectOdds   = 1000 // a carrier picks a new direction on 1 step in RedirectOdds
)

// Carrier is a random-walking point that may carry the contamination
type Carrier struct {
	ID           int
	Pos          quadtree.Point
	Move         quadtree.Point // per-step displacement, each axis in {-1, 0, 1}
	Contaminated bool
	Potency      int
}

// NewCarrier creates a carrier at (x, y) heading in a random direction
func NewCarrier(id, x, y int, contaminated bool, potency int, rng *rand.Rand) *Carrier {
	return &Carrier{
		ID:           id,
		Pos:          quadtree.Point{X: x, Y: y},
		Move:         randomMove(rng),
		Contaminated: contaminated,
		Potency:      potency,
	}
}

// Position implements quadtree.Locatable
func (c *Carrier) Position() quadtree.Point {
	return c.Pos
}

// randomMove picks one of the eight neighbouring directions
func randomMove(rng *rand.Rand) quadtree.Point {
	for {
		dx := rng.Intn(3) - 1
		dy := rng.Intn(3) - 1
		if dx != 0 || dy != 0 {
			return quadtree.Point{X: dx, Y: dy}
		}
	}
}

// Update moves the carrier one step inside a width x height world.
// A carrier reaching an edge has its movement reflected for the next step,
// so it can sit one unit outside the world for a single step.
func (c *Carrier) Update(width, height int, rng *rand.Rand) {
	if rng.Intn(RedirectOdds) == 3 {
		c.Move = randomMove(rng)
	}
	c.Pos.X += c.Move.X
	c.Pos.Y += c.Move.Y
	if c.Pos.X <= 0 || c.Pos.X >= width {
		c.Move.X = -c.Move.X
	}
	if c.Pos.Y <= 0 || c.Pos.Y >= height {
		c.Move.Y = -c.Move.Y
	}
}

// CanSpread reports whether the carrier contaminates others this step
func (c *Carrier) CanSpread(rng *rand.Rand) bool {
	return c.Contaminated && c.Potency > 0 && rng.Intn(c.Potency) == 0
}

// ToState converts to protocol state
func (c *Carrier) ToState() CarrierState {
	return CarrierState{
		ID: c.ID,
		X:  c.Pos.X,
		Y:  c.Pos.Y,
		C:  c.Contaminated,
	}
}
