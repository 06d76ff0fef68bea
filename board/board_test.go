package board

import (
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/blobwar/config"
	"github.com/domino14/blobwar/positions"
)

func TestCornerNeighbors(t *testing.T) {
	is := is.New(t)
	b := Default()
	// columns outer, rows inner
	is.Equal(b.NeighborsDist1[0], []positions.Position{8, 1, 9})
	is.Equal(b.NeighborsDist2[0], []positions.Position{16, 17, 2, 10, 18})
	is.Equal(b.NeighborUnion[0], positions.FromSlice(1, 8, 9))
	is.Equal(len(b.NeighborsDist1[27]), 8)
	is.Equal(len(b.NeighborsDist2[27]), 16)
}

func TestHolesExcluded(t *testing.T) {
	is := is.New(t)
	b := New(positions.FromSlice(9, 18))
	is.Equal(b.NeighborsDist1[0], []positions.Position{8, 1})
	is.Equal(b.NeighborsDist2[0], []positions.Position{16, 17, 2, 10})
	is.True(!b.NeighborUnion[0].Contains(9))
	for c := range positions.NumCells {
		for _, n := range b.NeighborsDist1[c] {
			is.True(!b.Holes.Contains(n))
			is.Equal(positions.Distance(positions.Position(c), n), 1)
		}
		for _, n := range b.NeighborsDist2[c] {
			is.True(!b.Holes.Contains(n))
			is.Equal(positions.Distance(positions.Position(c), n), 2)
		}
	}
}

func TestParse(t *testing.T) {
	is := is.New(t)
	layout := "x.......\n........\n...xx...\n"
	b, err := Parse(strings.NewReader(layout))
	is.NoErr(err)
	is.Equal(b.Holes, positions.FromSlice(0, 19, 20))

	_, err = Parse(strings.NewReader(strings.Repeat("........\n", 9)))
	is.True(errors.Is(err, ErrMalformedLayout))
}

func TestLoad(t *testing.T) {
	is := is.New(t)
	b, err := Load("../data/boards", "center")
	is.NoErr(err)
	is.Equal(b.Holes, positions.FromSlice(27, 28, 35, 36))
	is.Equal(b.Name(), "center")
	is.Equal(b.Fingerprint(), New(b.Holes).Fingerprint())
	is.True(b.Fingerprint() != Default().Fingerprint())

	_, err = Load("../data/boards", "no-such-board")
	is.True(err != nil)
}

func TestGetCached(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigBoardsPath, "../data/boards")
	b1, err := Get(cfg, "walls")
	is.NoErr(err)
	b2, err := Get(cfg, "walls")
	is.NoErr(err)
	is.True(b1 == b2)
	std, err := Get(cfg, "standard")
	is.NoErr(err)
	is.Equal(std.Holes, positions.Empty)
}

func TestDeserialize(t *testing.T) {
	is := is.New(t)
	state := "0h" + strings.Repeat(" ", 62) + "h"
	b, err := Deserialize(state)
	is.NoErr(err)
	is.Equal(b.Holes, positions.FromSlice(0, 63))

	_, err = Deserialize("0")
	is.True(errors.Is(err, ErrMalformedState))
	_, err = Deserialize("0q" + strings.Repeat(" ", 63))
	is.True(errors.Is(err, ErrMalformedState))
}
