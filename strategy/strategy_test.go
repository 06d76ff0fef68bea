package strategy

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/domino14/blobwar/board"
	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/positions"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

// randomPositions plays random movements from the initial configuration
// of a few layouts.
func randomPositions(seed uint64, n, maxPlies int) []game.Configuration {
	rng := rand.New(rand.NewPCG(seed, 3))
	layouts := []*board.Board{
		board.Default(),
		board.New(positions.FromSlice(19, 20, 27, 28, 35, 36, 43, 44)),
	}
	var out []game.Configuration
	for i := range n {
		c := game.New(layouts[i%len(layouts)])
		plies := rng.IntN(maxPlies + 1)
		for range plies {
			if c.GameOver() {
				break
			}
			moves := c.Movements()
			if len(moves) == 0 {
				c = c.SkipPlay()
				continue
			}
			c = c.Play(moves[rng.IntN(len(moves))])
		}
		if !c.GameOver() {
			out = append(out, c)
		}
	}
	return out
}

// crowded returns a position with three empty cells, so that deep
// searches stay small.
func crowded(t *testing.T) game.Configuration {
	var red, blue positions.PositionSet
	for p := range positions.Position(61) {
		if p%2 == 0 || p < 8 {
			red.Add(positions.Single(p))
		} else {
			blue.Add(positions.Single(p))
		}
	}
	c, err := game.FromBlobs(board.Default(), red, blue, false)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func search(t *testing.T, s *Solver, c game.Configuration, depth int) Result {
	t.Helper()
	r, err := s.SearchDepth(context.Background(), c, depth)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestKindFromName(t *testing.T) {
	is := is.New(t)
	k, err := KindFromName("AlphaBetaPass")
	is.NoErr(err)
	is.Equal(k, AlphaBetaPassKind)
	k, err = KindFromName("5")
	is.NoErr(err)
	is.Equal(k, ParAlphaBetaKind)
	_, err = KindFromName("9")
	is.True(errors.Is(err, ErrUnknownStrategy))
	_, err = KindFromName("expectiminimax")
	is.True(errors.Is(err, ErrUnknownStrategy))

	for sel, k := range Kinds() {
		got, err := KindFromSelector(sel)
		is.NoErr(err)
		is.Equal(got, k)
	}
	_, err = KindFromSelector(-1)
	is.True(errors.Is(err, ErrUnknownStrategy))
	_, err = New(Kind(42), 3)
	is.True(errors.Is(err, ErrUnknownStrategy))
}

func TestInitialDepthOneDuplicates(t *testing.T) {
	is := is.New(t)
	c := game.New(board.Default())
	for _, k := range Kinds() {
		st, err := New(k, 1)
		is.NoErr(err)
		m, ok, err := st.BestMove(context.Background(), c)
		is.NoErr(err)
		is.True(ok)
		is.Equal(m.Kind, game.Duplicate) // strategy k
		is.True(c.CheckMove(m))
	}
}

func TestMinMaxEqualsAlphaBeta(t *testing.T) {
	is := is.New(t)
	minmax := NewSolver(MinMaxKind, 0)
	ab := NewSolver(AlphaBetaKind, 0)
	for _, c := range randomPositions(1, 8, 12) {
		for depth := 1; depth <= 3; depth++ {
			r1 := search(t, minmax, c, depth)
			r2 := search(t, ab, c, depth)
			is.Equal(r1.HasMove, r2.HasMove)
			is.Equal(r1.Score, r2.Score)
			is.True(r2.Nodes <= r1.Nodes)
			if r1.HasMove {
				// the move found by alpha-beta is worth as much.
				ss := minmax.newSearcher(context.Background(), nil)
				v, err := ss.minimax(c.Play(r2.Move), depth-1, c.PlayerOnTurn())
				is.NoErr(err)
				is.Equal(v, r2.Score)
			}
		}
	}
}

func TestDepthBelowOneSearchesOnePly(t *testing.T) {
	is := is.New(t)
	c := game.New(board.Default())
	ab := NewSolver(AlphaBetaKind, 0)
	r := search(t, ab, c, 0)
	is.Equal(r.Depth, 1)
	is.Equal(r.Move, game.NewDuplicate(1))
	is.Equal(r.Score, int8(1))
}

func TestNoMovementIsNotAnError(t *testing.T) {
	is := is.New(t)
	b := board.New(positions.FromSlice(1, 2, 8, 9, 10, 16, 17, 18))
	blue := positions.All &^ (b.Holes | positions.FromSlice(0, 63))
	c, err := game.FromBlobs(b, positions.Single(0), blue, false)
	is.NoErr(err)
	for _, k := range Kinds() {
		st, err := New(k, 3)
		is.NoErr(err)
		_, ok, err := st.BestMove(context.Background(), c)
		is.NoErr(err)
		is.True(!ok)
	}
}

func TestPassCostsAPly(t *testing.T) {
	is := is.New(t)
	b := board.New(positions.FromSlice(1, 2, 8, 9, 10, 16, 17, 18))
	blue := positions.All &^ (b.Holes | positions.FromSlice(0, 63))
	// blue to move: it fills 63 and the game ends.
	c, err := game.FromBlobs(b, positions.Single(0), blue, true)
	is.NoErr(err)
	mm := NewSolver(MinMaxKind, 0)
	ab := NewSolver(AlphaBetaKind, 0)
	for depth := 1; depth <= 3; depth++ {
		r1 := search(t, mm, c, depth)
		r2 := search(t, ab, c, depth)
		is.Equal(r1.Score, r2.Score)
		is.Equal(r2.Move, game.NewDuplicate(63))
	}
}

func TestAlphaBetaTableDepthKeyedIsExact(t *testing.T) {
	is := is.New(t)
	ab := NewSolver(AlphaBetaKind, 0)
	tt := NewSolver(AlphaBetaTableKind, 0)
	tt.SetDepthKeyedTable(true)
	tt.SetTranspositionTableSize(0.0001, 16)
	for _, c := range randomPositions(2, 6, 16) {
		for depth := 1; depth <= 4; depth++ {
			r1 := search(t, ab, c, depth)
			r2 := search(t, tt, c, depth)
			is.Equal(r1.Score, r2.Score)
			is.Equal(r1.HasMove, r2.HasMove)
		}
	}
	st := tt.TableStats()
	is.True(st != nil)
	is.True(st.Lookups > 0)
}

// The default table ignores remaining depth. With a root depth of at most
// two every stored node has one ply left, so nothing is reused across
// depths and the results are still exact.
func TestAlphaBetaTableShallowIsExact(t *testing.T) {
	is := is.New(t)
	ab := NewSolver(AlphaBetaKind, 0)
	tt := NewSolver(AlphaBetaTableKind, 0)
	tt.SetTranspositionTableSize(0.0001, 16)
	for _, c := range randomPositions(3, 8, 16) {
		for depth := 1; depth <= 2; depth++ {
			is.Equal(search(t, ab, c, depth).Score, search(t, tt, c, depth).Score)
		}
	}
}

// A value stored with one ply left is handed back for a node with three
// plies left unless the table is keyed by depth. Deeper searches with the
// default table are therefore not guaranteed to match AlphaBeta.
func TestTableIgnoresDepthByDefault(t *testing.T) {
	is := is.New(t)
	c := game.New(board.Default())

	for _, depthKeyed := range []bool{false, true} {
		s := NewSolver(AlphaBetaTableKind, 3)
		s.SetDepthKeyedTable(depthKeyed)
		s.SetTranspositionTableSize(0.0001, 12)
		table := s.ensureTables(1)[0]
		is.Equal(table.Size(), 1<<12)
		ss := s.newSearcher(context.Background(), table)

		key := s.zobrist.Hash(c)
		ss.storeEntry(ss.tableKey(key, 1), 5, -Infinity, Infinity, 1)
		e := table.lookup(ss.tableKey(key, 3))
		is.Equal(e.valid(), !depthKeyed)
		if !depthKeyed {
			is.Equal(e.score, int8(5))
			is.Equal(e.flag(), uint8(TTExact))
			is.Equal(e.depth(), uint8(1))
		}
		is.Equal(table.Stats().Created, uint64(1))
	}
}

func TestTableBounds(t *testing.T) {
	is := is.New(t)
	s := NewSolver(AlphaBetaTableKind, 3)
	s.SetTranspositionTableSize(0.0001, 12)
	table := s.ensureTables(1)[0]
	ss := s.newSearcher(context.Background(), table)

	ss.storeEntry(100, -3, -3, 4, 2)
	is.Equal(table.lookup(100).flag(), uint8(TTUpper))
	ss.storeEntry(101, 4, -3, 4, 2)
	is.Equal(table.lookup(101).flag(), uint8(TTLower))
	ss.storeEntry(102, 0, -3, 4, 2)
	is.Equal(table.lookup(102).flag(), uint8(TTExact))

	// same slot, different position.
	e := table.lookup(100 + 1<<12)
	is.True(!e.valid())
	is.Equal(table.Stats().T2Collisions, uint64(1))
	is.Equal(table.Stats().Hits, uint64(3))
}

func TestAlphaBetaPassOutsideTrigger(t *testing.T) {
	is := is.New(t)
	ab := NewSolver(AlphaBetaKind, 0)
	pass := NewSolver(AlphaBetaPassKind, 0)
	off := NewSolver(AlphaBetaPassKind, 0)
	off.SetPassThreshold(Infinity)
	for _, c := range randomPositions(4, 6, 20) {
		// the heuristic only runs with three plies left.
		for depth := 1; depth <= 2; depth++ {
			r1 := search(t, ab, c, depth)
			r2 := search(t, pass, c, depth)
			is.Equal(r1.Move, r2.Move)
			is.Equal(r1.Score, r2.Score)
		}
		for depth := 3; depth <= 4; depth++ {
			r1 := search(t, ab, c, depth)
			r2 := search(t, off, c, depth)
			is.Equal(r1.Move, r2.Move)
			is.Equal(r1.Score, r2.Score)
		}
	}
}

func TestAlphaBetaPassAcceptsDecisiveMove(t *testing.T) {
	is := is.New(t)
	// red overwhelms a lone blue piece.
	var red positions.PositionSet
	for p := range positions.Position(20) {
		red.Add(positions.Single(p))
	}
	c, err := game.FromBlobs(board.Default(), red, positions.Single(45), false)
	is.NoErr(err)
	pass := NewSolver(AlphaBetaPassKind, 3)
	r := search(t, pass, c, 3)
	is.True(r.HasMove)
	is.True(c.CheckMove(r.Move))
	is.True(r.Score >= DefaultPassThreshold)
}

func TestAlphaBetaPassProxyUsesPositionKey(t *testing.T) {
	is := is.New(t)
	var red positions.PositionSet
	for p := range positions.Position(20) {
		red.Add(positions.Single(p))
	}
	c, err := game.FromBlobs(board.Default(), red, positions.Single(45), false)
	is.NoErr(err)

	s := NewSolver(AlphaBetaPassKind, 3)
	s.SetTranspositionTableOptim(true)
	s.SetDepthKeyedTable(true)
	s.SetTranspositionTableSize(0.001, 20)
	table := s.ensureTables(1)[0]
	ss := s.newSearcher(context.Background(), table)

	m := c.Movements()[0]
	child := c.Play(m)
	ckey := s.zobrist.AddMove(s.zobrist.Hash(c), c, m)
	is.Equal(ckey, s.zobrist.Hash(child))
	_, err = ss.acceptWithoutSiblings(child, ckey, DefaultPassThreshold, 3)
	is.NoErr(err)

	passKey := s.zobrist.AddPass(ckey)
	is.Equal(passKey, s.zobrist.Hash(child.SkipPlay()))
	e := table.lookup(ss.tableKey(passKey, 2))
	is.True(e.valid())
	is.Equal(e.depth(), uint8(2))
}

func TestAlphaBetaPassKeepsBestSoFar(t *testing.T) {
	is := is.New(t)
	pass := NewSolver(AlphaBetaPassKind, 3)
	exact := NewSolver(AlphaBetaKind, 2).newSearcher(context.Background(), nil)

	played, err := game.ParseState("1       b    b b   bb b             b         r  b  r  r   r  r  ")
	is.NoErr(err)
	cases := append([]game.Configuration{played}, randomPositions(7, 200, 30)...)
	for _, c := range cases {
		r := search(t, pass, c, 3)
		if !r.HasMove {
			continue
		}
		for _, m := range c.Movements() {
			v, err := exact.negamax(c.Play(m), 0, 2, -Infinity, Infinity)
			is.NoErr(err)
			if m == r.Move {
				// the reported score is the value of the chosen move.
				is.Equal(-v, r.Score)
				break
			}
			is.True(-v <= r.Score) // a move searched earlier was better
		}
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	is := is.New(t)
	c := crowded(t)
	mm := NewSolver(MinMaxKind, 0)
	mmpar := NewSolver(MinMaxParKind, 0)
	mmpar.SetThreads(4)
	ab := NewSolver(AlphaBetaKind, 0)
	abpar := NewSolver(ParAlphaBetaKind, 0)
	abpar.SetThreads(4)
	abparTT := NewSolver(ParAlphaBetaKind, 0)
	abparTT.SetThreads(3)
	abparTT.SetTranspositionTableOptim(true)
	abparTT.SetDepthKeyedTable(true)
	abparTT.SetTranspositionTableSize(0.0001, 14)

	for depth := 1; depth <= 4; depth++ {
		r := search(t, mm, c, depth)
		// reductions keep the first of equal values, like the sequential
		// versions.
		is.Equal(search(t, mmpar, c, depth).Move, r.Move)
		is.Equal(search(t, mmpar, c, depth).Score, r.Score)
		is.Equal(search(t, ab, c, depth).Score, r.Score)
		is.Equal(search(t, abpar, c, depth).Score, r.Score)
		is.Equal(search(t, abparTT, c, depth).Score, r.Score)
	}
	for _, c := range randomPositions(5, 4, 10) {
		is.Equal(search(t, abpar, c, 3).Score, search(t, ab, c, 3).Score)
	}
}

func TestParallelMinimaxBoundsHelpers(t *testing.T) {
	is := is.New(t)
	s := NewSolver(MinMaxParKind, 0)
	seq := NewSolver(MinMaxKind, 0).newSearcher(context.Background(), nil)
	for _, c := range randomPositions(6, 3, 6) {
		helpers := semaphore.NewWeighted(2)
		base := runtime.NumGoroutine()
		var peak atomic.Int64
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				default:
					peak.Store(max(peak.Load(), int64(runtime.NumGoroutine()-base)))
					runtime.Gosched()
				}
			}
		}()
		v, err := s.parallelMinimax(context.Background(), helpers, c, 4, c.PlayerOnTurn())
		close(done)
		is.NoErr(err)

		want, err := seq.minimax(c, 4, c.PlayerOnTurn())
		is.NoErr(err)
		is.Equal(v, want)
		// the watcher, two helpers and a few that are still exiting.
		is.True(peak.Load() <= 8)
		is.True(helpers.TryAcquire(2)) // every helper slot was released
	}
}

func TestGreedy(t *testing.T) {
	is := is.New(t)
	c := game.New(board.Default())
	m, ok, err := Greedy{}.BestMove(context.Background(), c)
	is.NoErr(err)
	is.True(ok)
	// every duplicate is worth the same; the first one wins.
	is.Equal(m, game.NewDuplicate(1))

	c, err = game.FromBlobs(board.Default(), positions.FromSlice(0, 40), positions.FromSlice(2, 11, 50), false)
	is.NoErr(err)
	m, ok, err = Greedy{}.BestMove(context.Background(), c)
	is.NoErr(err)
	is.True(ok)
	best := c.Play(m).Value()
	for _, other := range c.Movements() {
		is.True(c.Play(other).Value() <= best)
	}
}

func TestCancelledSearch(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := game.New(board.Default())
	for _, k := range Kinds() {
		st, err := New(k, 4)
		is.NoErr(err)
		_, _, err = st.BestMove(ctx, c)
		is.True(errors.Is(err, context.Canceled))
	}
}

func BenchmarkAlphaBeta(b *testing.B) {
	c := game.New(board.Default())
	s := NewSolver(AlphaBetaKind, 4)
	for b.Loop() {
		s.BestMove(context.Background(), c)
	}
}

func BenchmarkAlphaBetaTable(b *testing.B) {
	c := game.New(board.Default())
	s := NewSolver(AlphaBetaTableKind, 4)
	s.SetTranspositionTableSize(0.001, 18)
	for b.Loop() {
		s.BestMove(context.Background(), c)
	}
}

func BenchmarkParAlphaBeta(b *testing.B) {
	c := game.New(board.Default())
	s := NewSolver(ParAlphaBetaKind, 4)
	for b.Loop() {
		s.BestMove(context.Background(), c)
	}
}
