package positions

import (
	"testing"

	"github.com/matryer/is"
)

func TestSetAlgebra(t *testing.T) {
	is := is.New(t)
	a := FromSlice(0, 63)
	b := FromSlice(7, 56, 63)

	is.Equal(a.UnionWith(b), FromSlice(0, 7, 56, 63))
	is.Equal(a.IntersectionWith(b), Single(63))
	is.Equal(a.Len(), int8(2))
	is.True(a.Contains(0))
	is.True(!a.Contains(7))
	is.True(Empty.IsEmpty())
	is.True(Empty.Invert().IsAll())
	is.Equal(All.Len(), int8(64))

	a.Add(Single(12))
	is.True(a.Contains(12))
	a.Remove(FromSlice(12, 63))
	is.Equal(a, Single(0))
}

func TestPositionsAscending(t *testing.T) {
	is := is.New(t)
	s := FromSlice(40, 3, 63, 0, 17)
	is.Equal(s.Slice(), []Position{0, 3, 17, 40, 63})

	// the sequence can be restarted and stopped early.
	var first []Position
	for p := range s.Positions() {
		first = append(first, p)
		if len(first) == 2 {
			break
		}
	}
	is.Equal(first, []Position{0, 3})
	is.Equal(len(s.Slice()), 5)
}

func TestCoordinates(t *testing.T) {
	is := is.New(t)
	is.Equal(FromXY(7, 0), Position(7))
	is.Equal(FromXY(0, 7), Position(56))
	x, y := XY(FromXY(3, 5))
	is.Equal(x, 3)
	is.Equal(y, 5)

	is.Equal(Distance(0, 9), 1)
	is.Equal(Distance(0, 18), 2)
	is.Equal(Distance(0, 16), 2)
	is.Equal(Distance(0, 63), 7)
	is.Equal(Distance(27, 27), 0)
}
