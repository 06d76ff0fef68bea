// Package game holds the state of a game in progress: which cells each
// side occupies and whose turn it is, bound to a static board.
package game

import (
	"fmt"

	"github.com/domino14/blobwar/board"
	"github.com/domino14/blobwar/positions"
)

// A Configuration is a small value: copying it is how the search creates
// child states. The board is shared and must outlive the configuration.
type Configuration struct {
	// Blobs[0] belongs to the first player (red), Blobs[1] to the second
	// (blue).
	Blobs [2]positions.PositionSet
	// CurrentPlayer is false when the first player is to move.
	CurrentPlayer bool

	board *board.Board
}

// New returns the starting position: each side owns two opposite corners
// and the first player moves.
func New(b *board.Board) Configuration {
	return Configuration{
		Blobs: [2]positions.PositionSet{
			positions.FromSlice(0, 63),
			positions.FromSlice(7, 56),
		},
		board: b,
	}
}

func (c Configuration) Board() *board.Board {
	return c.board
}

// PlayerOnTurn is 0 or 1.
func (c Configuration) PlayerOnTurn() int {
	if c.CurrentPlayer {
		return 1
	}
	return 0
}

func (c Configuration) occupied() positions.PositionSet {
	return c.Blobs[0] | c.Blobs[1]
}

// EmptyCells are the cells that are neither holes nor occupied.
func (c Configuration) EmptyCells() positions.PositionSet {
	return (c.occupied() | c.board.Holes).Invert()
}

func (c Configuration) isFree(p positions.Position) bool {
	return !c.occupied().Contains(p)
}

// ApplyMovement plays m in place. m is assumed legal.
func (c *Configuration) ApplyMovement(m Movement) {
	me := c.PlayerOnTurn()
	him := 1 - me
	if m.Kind == Jump {
		c.Blobs[me].Remove(positions.Single(m.Source))
	}
	captured := c.Blobs[him] & c.board.NeighborUnion[m.Destination]
	c.Blobs[me].Add(captured | positions.Single(m.Destination))
	c.Blobs[him].Remove(captured)
	c.CurrentPlayer = !c.CurrentPlayer
}

// Play returns the configuration after m; c is not modified.
func (c Configuration) Play(m Movement) Configuration {
	c.ApplyMovement(m)
	return c
}

// SkipPlay returns the configuration with the turn passed.
func (c Configuration) SkipPlay() Configuration {
	c.CurrentPlayer = !c.CurrentPlayer
	return c
}

// Value is the opponent's piece count minus the mover's. Lower is better
// for the side to move, so a parent can negate it without knowing which
// player is which.
func (c Configuration) Value() int8 {
	return c.Blobs[1-c.PlayerOnTurn()].Len() - c.Blobs[c.PlayerOnTurn()].Len()
}

// Score is the first player's piece count minus the second's.
func (c Configuration) Score() int8 {
	return c.Blobs[0].Len() - c.Blobs[1].Len()
}

// GameOver is true when a side has no pieces left or no empty cell
// remains.
func (c Configuration) GameOver() bool {
	return c.Blobs[0].IsEmpty() || c.Blobs[1].IsEmpty() ||
		(c.occupied() | c.board.Holes).IsAll()
}

// Winner returns 0 or 1, or -1 for a draw. Only meaningful once the game
// is over.
func (c Configuration) Winner() int {
	switch s := c.Score(); {
	case s > 0:
		return 0
	case s < 0:
		return 1
	}
	return -1
}

// CheckMove validates a movement supplied from outside the engine.
func (c Configuration) CheckMove(m Movement) bool {
	if m.Destination >= positions.NumCells {
		return false
	}
	mine := c.Blobs[c.PlayerOnTurn()]
	switch m.Kind {
	case Jump:
		if m.Source >= positions.NumCells || !mine.Contains(m.Source) ||
			positions.Distance(m.Source, m.Destination) != 2 {
			return false
		}
	case Duplicate:
		if (c.board.NeighborUnion[m.Destination] & mine).IsEmpty() {
			return false
		}
	default:
		return false
	}
	return !c.board.Holes.Contains(m.Destination) && c.isFree(m.Destination)
}

// AppendMovements appends the legal movements to dst: every Duplicate in
// ascending destination order, then every Jump by ascending source, in the
// board's distance-2 neighbor order.
func (c Configuration) AppendMovements(dst []Movement) []Movement {
	mine := c.Blobs[c.PlayerOnTurn()]
	empty := c.EmptyCells()
	for p := range empty.Positions() {
		if !(c.board.NeighborUnion[p] & mine).IsEmpty() {
			dst = append(dst, NewDuplicate(p))
		}
	}
	for src := range mine.Positions() {
		for _, dest := range c.board.NeighborsDist2[src] {
			if empty.Contains(dest) {
				dst = append(dst, NewJump(src, dest))
			}
		}
	}
	return dst
}

// Movements returns the legal movements for the side to move.
func (c Configuration) Movements() []Movement {
	return c.AppendMovements(make([]Movement, 0, 32))
}

// HasMovements reports whether the side to move has any legal movement.
// No movement means the side must pass.
func (c Configuration) HasMovements() bool {
	mine := c.Blobs[c.PlayerOnTurn()]
	empty := c.EmptyCells()
	for p := range mine.Positions() {
		if !(c.board.NeighborUnion[p] & empty).IsEmpty() {
			return true
		}
		for _, dest := range c.board.NeighborsDist2[p] {
			if empty.Contains(dest) {
				return true
			}
		}
	}
	return false
}

func (c Configuration) String() string {
	s, err := c.Serialize()
	if err != nil {
		return fmt.Sprintf("<invalid configuration: %v>", err)
	}
	return s
}
