// Package anytime deepens a search one ply at a time and publishes the
// answer of every completed depth, so that a caller with a deadline can
// take the latest answer whenever it likes.
package anytime

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/strategy"
)

type published struct {
	move  game.Movement
	ok    bool
	depth int
	score int8
}

// Register is a single-slot, last-writer-wins cell holding an optional
// movement. Readers always see a whole published value, possibly not the
// newest one. The zero Register holds nothing.
type Register struct {
	p atomic.Pointer[published]
}

func (r *Register) Store(m game.Movement, ok bool) {
	r.p.Store(&published{move: m, ok: ok})
}

func (r *Register) storeResult(res strategy.Result) {
	r.p.Store(&published{move: res.Move, ok: res.HasMove, depth: res.Depth, score: res.Score})
}

// Load returns the last published movement. ok is false if nothing was
// published or if the side to move has no movement.
func (r *Register) Load() (game.Movement, bool) {
	p := r.p.Load()
	if p == nil {
		return game.Movement{}, false
	}
	return p.move, p.ok
}

// Depth is the search depth of the last published movement, 0 if none.
func (r *Register) Depth() int {
	if p := r.p.Load(); p != nil {
		return p.depth
	}
	return 0
}

// Score is the search score of the last published movement.
func (r *Register) Score() int8 {
	if p := r.p.Load(); p != nil {
		return p.score
	}
	return 0
}

func (r *Register) Published() bool {
	return r.p.Load() != nil
}

type Options struct {
	// StartDepth is the first depth searched. Zero means DefaultStartDepth.
	StartDepth int
	// MaxDepth stops the deepening once reached. Zero means no limit.
	MaxDepth int
}

// DefaultStartDepth is the first depth worth searching for a kind. The
// pass heuristic only pays off once the search is deep enough.
func DefaultStartDepth(k strategy.Kind) int {
	if k == strategy.AlphaBetaPassKind {
		return 5
	}
	return 1
}

type nodeCounter interface {
	Nodes() uint64
}

// Run searches c with increasing depth and publishes each completed
// depth's movement to reg. It only returns when ctx is done (with the
// context's error), when MaxDepth is reached, or when the side to move
// has nothing to play.
func Run(ctx context.Context, c game.Configuration, s strategy.DepthSearcher, reg *Register, opts Options) error {
	start := opts.StartDepth
	if start < 1 {
		start = 1
	}
	done := make(chan struct{})
	g := &errgroup.Group{}

	if nc, ok := s.(nodeCounter); ok {
		g.Go(func() error {
			ticker := time.NewTicker(1 * time.Second)
			defer ticker.Stop()
			var lastNodes uint64
			for {
				select {
				case <-done:
					return nil
				case <-ticker.C:
					nodes := nc.Nodes()
					if nodes < lastNodes {
						// a new depth started counting from zero.
						lastNodes = 0
					}
					log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
					lastNodes = nodes
				}
			}
		})
	}

	g.Go(func() error {
		defer close(done)
		for depth := start; opts.MaxDepth == 0 || depth <= opts.MaxDepth; depth++ {
			log.Debug().Int("plies", depth).Str("strategy", s.String()).Msg("deepening-iteratively")
			res, err := s.SearchDepth(ctx, c, depth)
			if err != nil {
				return err
			}
			reg.storeResult(res)
			log.Debug().Int("ply", depth).Int8("score", res.Score).
				Stringer("move", optionalMove(res)).Msg("best-val")
			if !res.HasMove {
				return nil
			}
		}
		return nil
	})
	return g.Wait()
}

type optionalMove strategy.Result

func (o optionalMove) String() string {
	if !o.HasMove {
		return "pass"
	}
	return o.Move.String()
}

// Iterative plays a strategy under a time budget: it deepens until the
// duration runs out and plays the deepest completed answer.
type Iterative struct {
	Kind     strategy.Kind
	Duration time.Duration
	Options  Options
	// StrategyOptions configure the underlying solver.
	StrategyOptions []strategy.Option
}

func NewIterative(k strategy.Kind, d time.Duration, opts ...strategy.Option) *Iterative {
	return &Iterative{
		Kind:            k,
		Duration:        d,
		Options:         Options{StartDepth: DefaultStartDepth(k)},
		StrategyOptions: opts,
	}
}

func (it *Iterative) String() string {
	return fmt.Sprintf("%v (%v)", it.Kind, it.Duration)
}

func (it *Iterative) BestMove(ctx context.Context, c game.Configuration) (game.Movement, bool, error) {
	if !c.HasMovements() {
		return game.Movement{}, false, nil
	}
	s, err := strategy.NewDepthSearcher(it.Kind, it.StrategyOptions...)
	if err != nil {
		return game.Movement{}, false, err
	}
	reg := &Register{}
	tctx, cancel := context.WithTimeout(ctx, it.Duration)
	defer cancel()

	err = Run(tctx, c, s, reg, it.Options)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return game.Movement{}, false, err
	}
	if ctx.Err() != nil {
		return game.Movement{}, false, ctx.Err()
	}
	if !reg.Published() {
		// Not even the first depth finished; fall back on the cheapest
		// answer there is.
		log.Warn().Str("strategy", it.String()).Msg("no-depth-completed")
		return strategy.Greedy{}.BestMove(ctx, c)
	}
	m, ok := reg.Load()
	log.Debug().Int("depth", reg.Depth()).Int8("score", reg.Score()).Msg("iterative-returning")
	return m, ok, nil
}
