package zobrist

import (
	"lukechampine.com/frand"

	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/positions"
)

const bignum = 1<<63 - 2

// generate a zobrist hash for a blob position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
// Holes are fixed for a whole game, so they are not hashed.
type Zobrist struct {
	secondToMove uint64
	posTable     [2][positions.NumCells]uint64
	depthTable   [MaxDepth]uint64
}

// MaxDepth bounds the remaining depths that DepthKey can mix in.
const MaxDepth = 64

func (z *Zobrist) Initialize() {
	for p := range 2 {
		for i := range positions.NumCells {
			z.posTable[p][i] = frand.Uint64n(bignum) + 1
		}
	}
	for i := range MaxDepth {
		z.depthTable[i] = frand.Uint64n(bignum) + 1
	}
	z.secondToMove = frand.Uint64n(bignum) + 1
}

// Hash computes the key of a configuration from scratch.
func (z *Zobrist) Hash(c game.Configuration) uint64 {
	key := uint64(0)
	for p := range 2 {
		for pos := range c.Blobs[p].Positions() {
			key ^= z.posTable[p][pos]
		}
	}
	if c.CurrentPlayer {
		key ^= z.secondToMove
	}
	return key
}

// AddMove returns the key of c.Play(m) given the key of c, touching only
// the cells that change.
func (z *Zobrist) AddMove(key uint64, c game.Configuration, m game.Movement) uint64 {
	me := c.PlayerOnTurn()
	him := 1 - me
	if m.Kind == game.Jump {
		key ^= z.posTable[me][m.Source]
	}
	key ^= z.posTable[me][m.Destination]
	captured := c.Blobs[him] & c.Board().NeighborUnion[m.Destination]
	for pos := range captured.Positions() {
		key ^= z.posTable[him][pos]
		key ^= z.posTable[me][pos]
	}
	return key ^ z.secondToMove
}

// AddPass returns the key after the side to move passes.
func (z *Zobrist) AddPass(key uint64) uint64 {
	return key ^ z.secondToMove
}

// DepthKey mixes a remaining search depth into a position key, for tables
// that must not mix values searched to different depths.
func (z *Zobrist) DepthKey(key uint64, depth int) uint64 {
	return key ^ z.depthTable[depth%MaxDepth]
}
