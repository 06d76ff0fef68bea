package strategy

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/zobrist"
)

// Infinity bounds every evaluation; material differences never exceed 64.
const Infinity = int8(127)

const (
	// DefaultPassThreshold is how far ahead a candidate must be, at the
	// pass-check depth, before the pass heuristic considers accepting it.
	DefaultPassThreshold = int8(7)
	// passCheckDepth is the remaining depth at which the pass heuristic
	// runs.
	passCheckDepth = 3
)

// Result is the outcome of one fixed-depth search.
type Result struct {
	Move    game.Movement
	HasMove bool
	// Score is the material advantage of the side to move at the root,
	// as the search sees it.
	Score int8
	Depth int
	Nodes uint64
}

// A DepthSearcher can search a position to an arbitrary depth. The
// anytime driver uses it to deepen iteratively.
type DepthSearcher interface {
	SearchDepth(ctx context.Context, c game.Configuration, depth int) (Result, error)
	String() string
}

// Solver runs the tree searches. A Solver may be reused for many
// searches, but not concurrently: its transposition tables are cleared
// at the start of every search.
type Solver struct {
	kind  Kind
	depth int

	threads       int
	passThreshold int8

	// transpositionTableOptim turns on memoization. It is on for
	// AlphaBetaTable and may be turned on for ParAlphaBeta.
	transpositionTableOptim bool
	// depthKeyedTable mixes the remaining depth into table keys. Off by
	// default: values from different remaining depths are then reused for
	// one another, which makes the search inexact.
	depthKeyedTable bool
	ttFractionOfMem float64
	ttMaxSizePower  int

	zobrist *zobrist.Zobrist
	tables  []*TranspositionTable
	nodes   atomic.Uint64
}

// NewSolver creates a solver for one of the tree-search kinds.
func NewSolver(kind Kind, depth int) *Solver {
	s := &Solver{
		kind:            kind,
		depth:           depth,
		threads:         max(1, runtime.NumCPU()),
		passThreshold:   DefaultPassThreshold,
		ttFractionOfMem: 0.01,
		ttMaxSizePower:  20,
	}
	if kind == AlphaBetaTableKind {
		s.transpositionTableOptim = true
	}
	s.zobrist = &zobrist.Zobrist{}
	s.zobrist.Initialize()
	return s
}

func (s *Solver) String() string {
	if s.transpositionTableOptim && s.kind != AlphaBetaTableKind {
		return fmt.Sprintf("%v+tt (depth %d)", s.kind, s.depth)
	}
	return fmt.Sprintf("%v (depth %d)", s.kind, s.depth)
}

func (s *Solver) Kind() Kind {
	return s.kind
}

func (s *Solver) Depth() int {
	return s.depth
}

func (s *Solver) SetDepth(depth int) {
	s.depth = depth
}

// SetThreads bounds the number of concurrently evaluated subtrees in the
// parallel kinds.
func (s *Solver) SetThreads(threads int) {
	s.threads = max(1, threads)
}

// SetPassThreshold changes the trigger of the pass heuristic. A threshold
// above any reachable score disables it.
func (s *Solver) SetPassThreshold(t int8) {
	s.passThreshold = t
}

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt
}

func (s *Solver) SetDepthKeyedTable(d bool) {
	s.depthKeyedTable = d
}

// SetTranspositionTableSize sizes the tables: fraction of system memory,
// capped at 2^maxPower entries.
func (s *Solver) SetTranspositionTableSize(fractionOfMem float64, maxPower int) {
	s.ttFractionOfMem = fractionOfMem
	s.ttMaxSizePower = maxPower
	s.tables = nil
}

func (s *Solver) SetZobrist(z *zobrist.Zobrist) {
	s.zobrist = z
}

// Nodes is the number of nodes visited by the last search.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// TableStats returns the statistics of the first table used by the last
// search, or nil if there was none.
func (s *Solver) TableStats() *TableStats {
	if !s.transpositionTableOptim || len(s.tables) == 0 {
		return nil
	}
	st := s.tables[0].Stats()
	return &st
}

// ensureTables gets n cleared tables ready, one per concurrent worker.
func (s *Solver) ensureTables(n int) []*TranspositionTable {
	for len(s.tables) < n {
		s.tables = append(s.tables, &TranspositionTable{})
	}
	for _, t := range s.tables[:n] {
		t.Reset(s.ttFractionOfMem/float64(n), s.ttMaxSizePower)
	}
	return s.tables[:n]
}

// BestMove searches to the solver's depth.
func (s *Solver) BestMove(ctx context.Context, c game.Configuration) (game.Movement, bool, error) {
	r, err := s.SearchDepth(ctx, c, s.depth)
	if err != nil {
		return game.Movement{}, false, err
	}
	return r.Move, r.HasMove, nil
}

// SearchDepth searches c to the given depth. Depths below one are
// searched as one, since a root search must look at least one move ahead.
func (s *Solver) SearchDepth(ctx context.Context, c game.Configuration, depth int) (Result, error) {
	depth = max(1, depth)
	s.nodes.Store(0)
	tstart := time.Now()

	var r Result
	var err error
	switch s.kind {
	case MinMaxKind:
		r, err = s.minmaxRoot(ctx, c, depth)
	case MinMaxParKind:
		r, err = s.minmaxParRoot(ctx, c, depth)
	case ParAlphaBetaKind:
		r, err = s.parNegamaxRoot(ctx, c, depth)
	case AlphaBetaKind, AlphaBetaPassKind, AlphaBetaTableKind:
		r, err = s.negamaxRoot(ctx, c, depth)
	default:
		return Result{}, fmt.Errorf("%w: %v cannot search", ErrUnknownStrategy, s.kind)
	}
	if err != nil {
		return Result{}, err
	}
	r.Depth = depth
	r.Nodes = s.nodes.Load()

	ev := log.Debug().
		Str("strategy", s.kind.String()).
		Int("depth", depth).
		Int8("score", r.Score).
		Bool("has-move", r.HasMove).
		Uint64("nodes", r.Nodes).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds())
	if st := s.TableStats(); st != nil {
		ev = ev.Uint64("ttable-created", st.Created).
			Uint64("ttable-lookups", st.Lookups).
			Uint64("ttable-hits", st.Hits).
			Uint64("ttable-t2collisions", st.T2Collisions)
	}
	if r.HasMove {
		ev = ev.Stringer("move", r.Move)
	}
	ev.Msg("search-returning")
	return r, nil
}

// noMoveResult is returned when the root side has nothing to play.
func noMoveResult(c game.Configuration) Result {
	return Result{Score: -c.Value()}
}
