package automatic

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/blobwar/board"
	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/strategy"
)

func TestTournament(t *testing.T) {
	is := is.New(t)
	var logbuf bytes.Buffer
	tm := &Tournament{
		Entrants: [2]Entrant{
			{Kind: strategy.AlphaBetaKind, Depth: 2},
			{Kind: strategy.GreedyKind},
		},
		Games:         6,
		Threads:       3,
		RandomOpening: 2,
		Seeds:         GenerateSeeds(3),
		Log:           &logbuf,
	}
	rep, err := tm.Run(context.Background())
	is.NoErr(err)
	is.Equal(rep.Games, 6)
	for _, st := range rep.Standings {
		is.Equal(st.Wins+st.Losses+st.Draws, 6)
		is.Equal(st.Differential.Iterations(), 6)
	}
	is.Equal(rep.Standings[0].Wins, rep.Standings[1].Losses)
	is.Equal(rep.Standings[0].Differential.Mean(), -rep.Standings[1].Differential.Mean())
	is.Equal(rep.Standings[0].Name, "alphabeta (depth 2)")
	is.Equal(rep.Standings[1].Name, "greedy")

	lines := strings.Split(strings.TrimSpace(logbuf.String()), "\n")
	is.Equal(len(lines), 7)
	is.Equal(lines[0], "game,red,blue,turns,score,winner")
	is.True(strings.Contains(rep.String(), "6 games"))
	is.Equal(IsPlaying.Value(), int64(0))
}

func TestSeededOpeningsRepeat(t *testing.T) {
	is := is.New(t)
	seed := GenerateSeeds(1)[0]
	c := game.New(board.Default())
	a := randomOpening(c, rngFor(seed), 6)
	b := randomOpening(c, rngFor(seed), 6)
	is.Equal(a, b)
	is.True(a != c)
}

func TestSeedFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "seeds.txt")
	seeds := GenerateSeeds(4)
	is.NoErr(SaveSeeds(seeds, path))
	back, err := LoadSeeds(path)
	is.NoErr(err)
	is.Equal(back, seeds)
}

func TestBadEntrant(t *testing.T) {
	is := is.New(t)
	tm := &Tournament{
		Entrants: [2]Entrant{{Kind: strategy.Kind(99), Depth: 1}, {Kind: strategy.GreedyKind}},
		Games:    1,
		Threads:  1,
	}
	_, err := tm.Run(context.Background())
	is.True(err != nil)
}
