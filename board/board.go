// Package board holds the static geometry of a game variant: which cells
// are holes, and for every cell its neighbors at distance one and two.
// A Board is built once per layout and is never modified afterwards, so a
// single instance is shared by every game state and search worker.
package board

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash"

	"github.com/domino14/blobwar/positions"
)

const (
	// HoleGlyph marks a hole in a layout file.
	HoleGlyph = 'x'
	// StateLen is the length of a serialized game state: one side-to-move
	// character followed by one character per cell.
	StateLen = positions.NumCells + 1
)

var (
	ErrMalformedLayout = errors.New("malformed board layout")
	ErrMalformedState  = errors.New("malformed serialized state")
)

type Board struct {
	Holes positions.PositionSet
	// NeighborsDist1 and NeighborsDist2 list, for every cell, the non-hole
	// cells at Chebyshev distance 1 and 2 respectively.
	NeighborsDist1 [positions.NumCells][]positions.Position
	NeighborsDist2 [positions.NumCells][]positions.Position
	// NeighborUnion[c] is the union of NeighborsDist1[c].
	NeighborUnion [positions.NumCells]positions.PositionSet

	name        string
	fingerprint uint64
}

// New precomputes the neighbor tables for the given holes.
func New(holes positions.PositionSet) *Board {
	b := &Board{Holes: holes, name: "custom"}
	for pos := range positions.NumCells {
		x, y := positions.XY(positions.Position(pos))
		for nx := max(0, x-2); nx <= min(positions.Dim-1, x+2); nx++ {
			for ny := max(0, y-2); ny <= min(positions.Dim-1, y+2); ny++ {
				n := positions.FromXY(nx, ny)
				if holes.Contains(n) {
					continue
				}
				switch max(abs(nx-x), abs(ny-y)) {
				case 1:
					b.NeighborsDist1[pos] = append(b.NeighborsDist1[pos], n)
					b.NeighborUnion[pos].Add(positions.Single(n))
				case 2:
					b.NeighborsDist2[pos] = append(b.NeighborsDist2[pos], n)
				}
			}
		}
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(holes))
	b.fingerprint = xxhash.Sum64(buf[:])
	return b
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Default returns a board with no holes.
func Default() *Board {
	b := New(positions.Empty)
	b.name = "standard"
	return b
}

// Name is the layout name the board was loaded from.
func (b *Board) Name() string {
	return b.name
}

// Fingerprint identifies the hole layout. Two boards with the same holes
// share a fingerprint.
func (b *Board) Fingerprint() uint64 {
	return b.fingerprint
}

// Parse reads a layout: rows of characters where 'x' marks a hole and
// anything else a playable cell. Cells are numbered in reading order.
func Parse(r io.Reader) (*Board, error) {
	var holes positions.PositionSet
	cell := 0
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		for _, ch := range line {
			if cell >= positions.NumCells {
				return nil, fmt.Errorf("%w: more than %d cells", ErrMalformedLayout, positions.NumCells)
			}
			if ch == HoleGlyph {
				holes.Add(positions.Single(positions.Position(cell)))
			}
			cell++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return New(holes), nil
}

// Load parses the layout called name in dir.
func Load(dir, name string) (*Board, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("layout %v: %w", name, err)
	}
	b.name = name
	return b, nil
}

// Deserialize rebuilds the board from a serialized game state; the 'h'
// cells are the holes.
func Deserialize(state string) (*Board, error) {
	if len(state) != StateLen {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrMalformedState, len(state), StateLen)
	}
	var holes positions.PositionSet
	for i := 1; i < StateLen; i++ {
		switch state[i] {
		case 'h':
			holes.Add(positions.Single(positions.Position(i - 1)))
		case ' ', 'r', 'b':
		default:
			return nil, fmt.Errorf("%w: cell code %q", ErrMalformedState, state[i])
		}
	}
	return New(holes), nil
}

// String renders the layout in the same format Parse reads.
func (b *Board) String() string {
	var sb strings.Builder
	for i := range positions.NumCells {
		if b.Holes.Contains(positions.Position(i)) {
			sb.WriteRune(HoleGlyph)
		} else {
			sb.WriteByte('.')
		}
		if i%positions.Dim == positions.Dim-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
