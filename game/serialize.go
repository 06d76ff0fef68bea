package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/domino14/blobwar/board"
	"github.com/domino14/blobwar/positions"
)

var (
	ErrMalformedState   = board.ErrMalformedState
	ErrOverlappingState = errors.New("cell is claimed twice")
)

// Serialize encodes the configuration as 65 characters: '0' or '1' for
// the side to move, then one character per cell: 'h' hole, 'r' first
// player, 'b' second player, ' ' empty.
func (c Configuration) Serialize() (string, error) {
	var sb strings.Builder
	sb.Grow(board.StateLen)
	if c.CurrentPlayer {
		sb.WriteByte('1')
	} else {
		sb.WriteByte('0')
	}
	for i := range positions.NumCells {
		p := positions.Position(i)
		h, r, b := c.board.Holes.Contains(p), c.Blobs[0].Contains(p), c.Blobs[1].Contains(p)
		switch {
		case h && !r && !b:
			sb.WriteByte('h')
		case r && !h && !b:
			sb.WriteByte('r')
		case b && !h && !r:
			sb.WriteByte('b')
		case !h && !r && !b:
			sb.WriteByte(' ')
		default:
			return "", fmt.Errorf("%w: cell %d", ErrOverlappingState, i)
		}
	}
	return sb.String(), nil
}

// Deserialize decodes a state produced by Serialize. The board must have
// been rebuilt from the same string (see board.Deserialize).
func Deserialize(s string, b *board.Board) (Configuration, error) {
	if len(s) != board.StateLen {
		return Configuration{}, fmt.Errorf("%w: length %d, want %d", ErrMalformedState, len(s), board.StateLen)
	}
	c := Configuration{board: b}
	switch s[0] {
	case '0':
	case '1':
		c.CurrentPlayer = true
	default:
		return Configuration{}, fmt.Errorf("%w: player code %q", ErrMalformedState, s[0])
	}
	for i := 1; i < board.StateLen; i++ {
		p := positions.Single(positions.Position(i - 1))
		switch s[i] {
		case 'r':
			c.Blobs[0].Add(p)
		case 'b':
			c.Blobs[1].Add(p)
		case ' ', 'h':
		default:
			return Configuration{}, fmt.Errorf("%w: cell code %q", ErrMalformedState, s[i])
		}
	}
	if !(c.occupied() & b.Holes).IsEmpty() {
		return Configuration{}, fmt.Errorf("%w: piece on a hole", ErrMalformedState)
	}
	return c, nil
}

// ParseState builds both the board and the configuration from a
// serialized state.
func ParseState(s string) (Configuration, error) {
	b, err := board.Deserialize(s)
	if err != nil {
		return Configuration{}, err
	}
	return Deserialize(s, b)
}

// FromBlobs assembles a configuration directly; it is mostly useful for
// setting up positions in tests and tools.
func FromBlobs(b *board.Board, first, second positions.PositionSet, secondToMove bool) (Configuration, error) {
	if !(first&second).IsEmpty() || !((first|second)&b.Holes).IsEmpty() {
		return Configuration{}, ErrOverlappingState
	}
	return Configuration{
		Blobs:         [2]positions.PositionSet{first, second},
		CurrentPlayer: secondToMove,
		board:         b,
	}, nil
}
