package game

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/blobwar/board"
)

func TestMovementJSON(t *testing.T) {
	is := is.New(t)
	data, err := json.Marshal(NewDuplicate(12))
	is.NoErr(err)
	is.Equal(string(data), `{"Duplicate":12}`)
	data, err = json.Marshal(NewJump(3, 19))
	is.NoErr(err)
	is.Equal(string(data), `{"Jump":[3,19]}`)

	m, ok, err := DecodeOptional([]byte(`{"Jump":[3,19]}`))
	is.NoErr(err)
	is.True(ok)
	is.Equal(m, NewJump(3, 19))

	_, ok, err = DecodeOptional([]byte("null"))
	is.NoErr(err)
	is.True(!ok)

	data, err = EncodeOptional(Movement{}, false)
	is.NoErr(err)
	is.Equal(string(data), "null")

	_, _, err = DecodeOptional([]byte(`{"Jump":[3,99]}`))
	is.True(errors.Is(err, ErrBadMovement))
	_, _, err = DecodeOptional([]byte(`{}`))
	is.True(errors.Is(err, ErrBadMovement))
}

func TestMovementFromCells(t *testing.T) {
	is := is.New(t)
	m, err := MovementFromCells(0, 9)
	is.NoErr(err)
	is.Equal(m, NewDuplicate(9))
	m, err = MovementFromCells(0, 18)
	is.NoErr(err)
	is.Equal(m, NewJump(0, 18))
	_, err = MovementFromCells(0, 27)
	is.True(errors.Is(err, ErrBadMovement))
	is.Equal(NewJump(0, 18).String(), "jump 0,0>2,2")
	is.Equal(NewDuplicate(9).String(), "dup 1,1")
}

func TestDisplay(t *testing.T) {
	is := is.New(t)
	c := New(board.Default())
	txt := c.ToDisplayText(false)
	is.True(strings.Contains(txt, "0|x      o|"))
	is.True(strings.Contains(txt, "red 2 - 2 blue, red to move"))
}
