package zobrist

import (
	"math/rand/v2"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/blobwar/board"
	"github.com/domino14/blobwar/game"
)

func TestAddMoveMatchesHash(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize()
	rng := rand.New(rand.NewPCG(3, 4))

	c := game.New(board.Default())
	key := z.Hash(c)
	for turn := 0; turn < 200 && !c.GameOver(); turn++ {
		moves := c.Movements()
		if len(moves) == 0 {
			key = z.AddPass(key)
			c = c.SkipPlay()
		} else {
			m := moves[rng.IntN(len(moves))]
			key = z.AddMove(key, c, m)
			c = c.Play(m)
		}
		is.Equal(key, z.Hash(c))
	}
}

func TestSideToMoveMatters(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize()
	c := game.New(board.Default())
	is.True(z.Hash(c) != z.Hash(c.SkipPlay()))
	is.True(z.DepthKey(z.Hash(c), 3) != z.DepthKey(z.Hash(c), 4))
	is.Equal(z.DepthKey(z.DepthKey(z.Hash(c), 3), 3), z.Hash(c))
}

func TestTranspositionsCollide(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize()
	c := game.New(board.Default())
	// the same cells reached in a different order hash the same.
	a := c.Play(game.NewDuplicate(1)).Play(game.NewDuplicate(6)).Play(game.NewDuplicate(8))
	b := c.Play(game.NewDuplicate(8)).Play(game.NewDuplicate(6)).Play(game.NewDuplicate(1))
	is.Equal(a.Blobs, b.Blobs)
	is.Equal(z.Hash(a), z.Hash(b))
}
