package game

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/domino14/blobwar/positions"
)

type MoveKind uint8

const (
	// Duplicate places a new piece next to an owned one.
	Duplicate MoveKind = iota
	// Jump relocates an owned piece two cells away.
	Jump
)

var ErrBadMovement = errors.New("bad movement")

// A Movement is a Duplicate(Destination) or a Jump(Source, Destination).
// Source is meaningless for a Duplicate.
type Movement struct {
	Kind        MoveKind
	Source      positions.Position
	Destination positions.Position
}

func NewDuplicate(dest positions.Position) Movement {
	return Movement{Kind: Duplicate, Destination: dest}
}

func NewJump(src, dest positions.Position) Movement {
	return Movement{Kind: Jump, Source: src, Destination: dest}
}

// MovementFromCells turns a start and an end cell into a movement: a
// distance of one is a Duplicate, two is a Jump.
func MovementFromCells(start, end positions.Position) (Movement, error) {
	switch positions.Distance(start, end) {
	case 1:
		return NewDuplicate(end), nil
	case 2:
		return NewJump(start, end), nil
	}
	return Movement{}, fmt.Errorf("%w: cells %d and %d are not one or two apart", ErrBadMovement, start, end)
}

func (m Movement) String() string {
	dx, dy := positions.XY(m.Destination)
	if m.Kind == Jump {
		sx, sy := positions.XY(m.Source)
		return fmt.Sprintf("jump %d,%d>%d,%d", sx, sy, dx, dy)
	}
	return fmt.Sprintf("dup %d,%d", dx, dy)
}

// The JSON encoding is the one remote players speak:
// {"Duplicate":12} or {"Jump":[3,19]}.

type wireMovement struct {
	Duplicate *positions.Position    `json:"Duplicate,omitempty"`
	Jump      *[2]positions.Position `json:"Jump,omitempty"`
}

func (m Movement) MarshalJSON() ([]byte, error) {
	var w wireMovement
	switch m.Kind {
	case Duplicate:
		d := m.Destination
		w.Duplicate = &d
	case Jump:
		w.Jump = &[2]positions.Position{m.Source, m.Destination}
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrBadMovement, m.Kind)
	}
	return json.Marshal(w)
}

func (m *Movement) UnmarshalJSON(data []byte) error {
	var w wireMovement
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Duplicate != nil && w.Jump == nil:
		*m = NewDuplicate(*w.Duplicate)
	case w.Jump != nil && w.Duplicate == nil:
		*m = NewJump(w.Jump[0], w.Jump[1])
	default:
		return fmt.Errorf("%w: %s", ErrBadMovement, string(data))
	}
	if m.Source >= positions.NumCells || m.Destination >= positions.NumCells {
		return fmt.Errorf("%w: cell out of range in %s", ErrBadMovement, string(data))
	}
	return nil
}

// EncodeOptional encodes a possibly absent movement; no movement is null.
func EncodeOptional(m Movement, ok bool) ([]byte, error) {
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(m)
}

// DecodeOptional is the inverse of EncodeOptional.
func DecodeOptional(data []byte) (Movement, bool, error) {
	var m *Movement
	if err := json.Unmarshal(data, &m); err != nil {
		return Movement{}, false, err
	}
	if m == nil {
		return Movement{}, false, nil
	}
	return *m, true, nil
}
