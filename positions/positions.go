// Package positions implements a set of board cells stored as a single
// 64-bit word. Bit i is set iff cell i (row-major, 8 columns) is a member.
package positions

import (
	"iter"
	"math/bits"
	"strings"
)

const (
	// Dim is the number of rows and columns of the board.
	Dim = 8
	// NumCells is the number of cells on the board.
	NumCells = Dim * Dim
)

// Position is a cell index in [0, 64).
type Position = uint8

// PositionSet is a set of cells.
type PositionSet uint64

const (
	Empty PositionSet = 0
	All   PositionSet = ^PositionSet(0)
)

// FromXY returns the cell at column x, row y.
func FromXY(x, y int) Position {
	return Position(y*Dim + x)
}

// XY returns the column and row of p.
func XY(p Position) (x, y int) {
	return int(p) % Dim, int(p) / Dim
}

// Distance is the Chebyshev distance between two cells.
func Distance(a, b Position) int {
	ax, ay := XY(a)
	bx, by := XY(b)
	return max(abs(ax-bx), abs(ay-by))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func Single(p Position) PositionSet {
	return PositionSet(1) << (p & (NumCells - 1))
}

// FromSlice builds a set out of the given cells.
func FromSlice(ps ...Position) PositionSet {
	var s PositionSet
	for _, p := range ps {
		s |= Single(p)
	}
	return s
}

func (s PositionSet) UnionWith(o PositionSet) PositionSet {
	return s | o
}

func (s PositionSet) IntersectionWith(o PositionSet) PositionSet {
	return s & o
}

// Add adds every member of o to s.
func (s *PositionSet) Add(o PositionSet) {
	*s |= o
}

// Remove removes every member of o from s.
func (s *PositionSet) Remove(o PositionSet) {
	*s &^= o
}

func (s PositionSet) Invert() PositionSet {
	return ^s
}

func (s PositionSet) Contains(p Position) bool {
	return s&Single(p) != 0
}

func (s PositionSet) IsEmpty() bool {
	return s == Empty
}

func (s PositionSet) IsAll() bool {
	return s == All
}

// Len is the number of members. It never exceeds 64, so it fits the
// signed 8-bit scale used by evaluations.
func (s PositionSet) Len() int8 {
	return int8(bits.OnesCount64(uint64(s)))
}

// Positions yields the members in ascending order.
func (s PositionSet) Positions() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		for rest := uint64(s); rest != 0; rest &= rest - 1 {
			if !yield(Position(bits.TrailingZeros64(rest))) {
				return
			}
		}
	}
}

// Slice returns the members in ascending order.
func (s PositionSet) Slice() []Position {
	out := make([]Position, 0, s.Len())
	for p := range s.Positions() {
		out = append(out, p)
	}
	return out
}

// String renders the set as an 8x8 grid, '1' for members.
func (s PositionSet) String() string {
	var sb strings.Builder
	for i := range NumCells {
		if s.Contains(Position(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('.')
		}
		if i%Dim == Dim-1 && i != NumCells-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
