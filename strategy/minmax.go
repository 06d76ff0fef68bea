package strategy

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/domino14/blobwar/game"
)

// Below this remaining depth MinMaxPar stops spawning goroutines and
// searches sequentially.
const parallelCutoff = 3

// rootValue is the value of a leaf for rootPlayer.
func rootValue(c game.Configuration, rootPlayer int) int8 {
	if c.PlayerOnTurn() == rootPlayer {
		return -c.Value()
	}
	return c.Value()
}

// minimax returns the value of c for rootPlayer, maximizing on
// rootPlayer's turns and minimizing on the opponent's.
func (ss *searcher) minimax(c game.Configuration, depth int, rootPlayer int) (int8, error) {
	if err := ss.ctx.Err(); err != nil {
		return 0, err
	}
	ss.nodes++
	if depth <= 0 || c.GameOver() {
		return rootValue(c, rootPlayer), nil
	}
	moves := ss.movements(c, depth)
	if len(moves) == 0 {
		return ss.minimax(c.SkipPlay(), depth-1, rootPlayer)
	}
	maximizing := c.PlayerOnTurn() == rootPlayer
	best := Infinity
	if maximizing {
		best = -Infinity
	}
	for _, m := range moves {
		v, err := ss.minimax(c.Play(m), depth-1, rootPlayer)
		if err != nil {
			return 0, err
		}
		if maximizing && v > best || !maximizing && v < best {
			best = v
		}
	}
	return best, nil
}

func (s *Solver) minmaxRoot(ctx context.Context, c game.Configuration, depth int) (Result, error) {
	ss := s.newSearcher(ctx, nil)
	defer ss.flush()
	ss.nodes++
	moves := c.Movements()
	if len(moves) == 0 {
		return noMoveResult(c), nil
	}
	root := c.PlayerOnTurn()
	var r Result
	for _, m := range moves {
		v, err := ss.minimax(c.Play(m), depth-1, root)
		if err != nil {
			return Result{}, err
		}
		if !r.HasMove || v > r.Score {
			r.Move, r.HasMove, r.Score = m, true, v
		}
	}
	return r, nil
}

// reduce picks the first index of the greatest (or least) value.
func reduce(values []int8, maximizing bool) int {
	best := 0
	for i, v := range values {
		if maximizing && v > values[best] || !maximizing && v < values[best] {
			best = i
		}
	}
	return best
}

func (s *Solver) minmaxParRoot(ctx context.Context, c game.Configuration, depth int) (Result, error) {
	s.nodes.Add(1)
	moves := c.Movements()
	if len(moves) == 0 {
		return noMoveResult(c), nil
	}
	root := c.PlayerOnTurn()
	values := make([]int8, len(moves))

	// helpers below the root share this many extra goroutines.
	helpers := semaphore.NewWeighted(int64(s.threads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.threads)
	for i, m := range moves {
		g.Go(func() error {
			v, err := s.parallelMinimax(gctx, helpers, c.Play(m), depth-1, root)
			values[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	best := reduce(values, true)
	return Result{Move: moves[best], HasMove: true, Score: values[best]}, nil
}

// parallelMinimax hands children of c to new goroutines while a helper
// slot is free and searches the rest itself, until the remaining depth
// drops below the cutoff.
func (s *Solver) parallelMinimax(ctx context.Context, helpers *semaphore.Weighted, c game.Configuration, depth int, rootPlayer int) (int8, error) {
	if depth < parallelCutoff {
		ss := s.newSearcher(ctx, nil)
		defer ss.flush()
		return ss.minimax(c, depth, rootPlayer)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.nodes.Add(1)
	if c.GameOver() {
		return rootValue(c, rootPlayer), nil
	}
	moves := c.Movements()
	if len(moves) == 0 {
		return s.parallelMinimax(ctx, helpers, c.SkipPlay(), depth-1, rootPlayer)
	}
	values := make([]int8, len(moves))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range moves {
		if !helpers.TryAcquire(1) {
			v, err := s.parallelMinimax(gctx, helpers, c.Play(m), depth-1, rootPlayer)
			if err != nil {
				g.Wait()
				return 0, err
			}
			values[i] = v
			continue
		}
		g.Go(func() error {
			defer helpers.Release(1)
			v, err := s.parallelMinimax(gctx, helpers, c.Play(m), depth-1, rootPlayer)
			values[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return values[reduce(values, c.PlayerOnTurn() == rootPlayer)], nil
}
