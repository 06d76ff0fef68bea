package strategy

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/domino14/blobwar/game"
)

// parNegamaxRoot evaluates the root children concurrently, each with a
// full window. Siblings do not share bounds, so this prunes less than the
// sequential search. Workers draw searchers from a pool; a searcher and
// its table are used by one goroutine at a time.
func (s *Solver) parNegamaxRoot(ctx context.Context, c game.Configuration, depth int) (Result, error) {
	s.nodes.Add(1)
	moves := c.Movements()
	if len(moves) == 0 {
		return noMoveResult(c), nil
	}
	nworkers := min(s.threads, len(moves))

	pool := make(chan *searcher, nworkers)
	var tables []*TranspositionTable
	if s.transpositionTableOptim {
		tables = s.ensureTables(nworkers)
	}
	for i := range nworkers {
		var t *TranspositionTable
		if tables != nil {
			t = tables[i]
		}
		pool <- s.newSearcher(ctx, t)
	}

	var key uint64
	if tables != nil {
		key = s.zobrist.Hash(c)
	}
	values := make([]int8, len(moves))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nworkers)
	for i, m := range moves {
		g.Go(func() error {
			ss := <-pool
			defer func() { pool <- ss }()
			ss.ctx = gctx
			v, err := ss.negamax(c.Play(m), ss.childKey(key, c, m), depth-1, -Infinity, Infinity)
			values[i] = -v
			return err
		})
	}
	err := g.Wait()
	close(pool)
	for ss := range pool {
		ss.flush()
	}
	if err != nil {
		return Result{}, err
	}
	best := reduce(values, true)
	return Result{Move: moves[best], HasMove: true, Score: values[best]}, nil
}
