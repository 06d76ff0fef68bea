package strategy

import (
	"context"

	"github.com/domino14/blobwar/game"
)

// searcher holds the per-goroutine state of one negamax search. It must
// not be shared between goroutines.
type searcher struct {
	solver *Solver
	ctx    context.Context

	passThreshold int8
	passHeuristic bool
	depthKeyed    bool
	table         *TranspositionTable

	// moveBufs[d] holds the movements of the node being searched with d
	// plies remaining.
	moveBufs [][]game.Movement
	nodes    uint64
}

func (s *Solver) newSearcher(ctx context.Context, table *TranspositionTable) *searcher {
	return &searcher{
		solver:        s,
		ctx:           ctx,
		passThreshold: s.passThreshold,
		passHeuristic: s.kind == AlphaBetaPassKind,
		depthKeyed:    s.depthKeyedTable,
		table:         table,
	}
}

func (ss *searcher) movements(c game.Configuration, depth int) []game.Movement {
	for len(ss.moveBufs) <= depth {
		ss.moveBufs = append(ss.moveBufs, make([]game.Movement, 0, 64))
	}
	ss.moveBufs[depth] = c.AppendMovements(ss.moveBufs[depth][:0])
	return ss.moveBufs[depth]
}

// flush adds the nodes counted by this searcher to the solver's total.
func (ss *searcher) flush() {
	ss.solver.nodes.Add(ss.nodes)
	ss.nodes = 0
}

func (ss *searcher) tableKey(key uint64, depth int) uint64 {
	if ss.depthKeyed {
		return ss.solver.zobrist.DepthKey(key, depth)
	}
	return key
}

func (ss *searcher) childKey(key uint64, c game.Configuration, m game.Movement) uint64 {
	if ss.table == nil {
		return 0
	}
	return ss.solver.zobrist.AddMove(key, c, m)
}

// negamax returns the value of c for its side to move, searched depth
// plies deep inside the window (alpha, beta). Values outside the window
// are bounds (fail-soft).
func (ss *searcher) negamax(c game.Configuration, key uint64, depth int, alpha, beta int8) (int8, error) {
	if err := ss.ctx.Err(); err != nil {
		return 0, err
	}
	ss.nodes++
	if depth <= 0 || c.GameOver() {
		return -c.Value(), nil
	}

	alphaOrig := alpha
	var tkey uint64
	if ss.table != nil {
		tkey = ss.tableKey(key, depth)
		ttEntry := ss.table.lookup(tkey)
		if ttEntry.valid() {
			score := ttEntry.score
			switch ttEntry.flag() {
			case TTExact:
				return score, nil
			case TTLower:
				alpha = max(alpha, score)
			case TTUpper:
				beta = min(beta, score)
			}
			if alpha >= beta {
				return score, nil
			}
		}
	}

	moves := ss.movements(c, depth)
	if len(moves) == 0 {
		// A side with nothing to play passes, which costs a ply.
		var passKey uint64
		if ss.table != nil {
			passKey = ss.solver.zobrist.AddPass(key)
		}
		v, err := ss.negamax(c.SkipPlay(), passKey, depth-1, -beta, -alpha)
		if err != nil {
			return 0, err
		}
		best := -v
		ss.storeEntry(tkey, best, alphaOrig, beta, depth)
		return best, nil
	}

	best := -Infinity
	for _, m := range moves {
		child := c.Play(m)
		ckey := ss.childKey(key, c, m)
		v, err := ss.negamax(child, ckey, depth-1, -beta, -alpha)
		if err != nil {
			return 0, err
		}
		score := -v
		// only a new best is worth keeping without its siblings.
		if ss.passHeuristic && depth == passCheckDepth && score > best {
			accept, err := ss.acceptWithoutSiblings(child, ckey, score, depth)
			if err != nil {
				return 0, err
			}
			if accept {
				return score, nil
			}
		}
		if score > best {
			best = score
		}
		alpha = max(alpha, best)
		if best >= beta {
			break
		}
	}
	ss.storeEntry(tkey, best, alphaOrig, beta, depth)
	return best, nil
}

// acceptWithoutSiblings is the pass heuristic. When a candidate already
// scores at least the threshold, the position after the candidate is
// searched again with the opponent passing. If the mover still does as
// well when handed an extra tempo the candidate is taken as is.
func (ss *searcher) acceptWithoutSiblings(child game.Configuration, childKey uint64, score int8, depth int) (bool, error) {
	if score < ss.passThreshold {
		return false, nil
	}
	var passKey uint64
	if ss.table != nil {
		passKey = ss.solver.zobrist.AddPass(childKey)
	}
	// null window just below score: we only need to know whether the
	// proxy reaches it.
	proxy, err := ss.negamax(child.SkipPlay(), passKey, depth-1, score-1, score)
	if err != nil {
		return false, err
	}
	return proxy >= score, nil
}

func (ss *searcher) storeEntry(tkey uint64, best, alphaOrig, beta int8, depth int) {
	if ss.table == nil {
		return
	}
	var flag uint8
	switch {
	case best <= alphaOrig:
		flag = TTUpper
	case best >= beta:
		flag = TTLower
	default:
		flag = TTExact
	}
	ss.table.store(tkey, newEntry(best, flag, depth))
}

// negamaxRoot searches every root movement and keeps the first one of
// greatest score.
func (s *Solver) negamaxRoot(ctx context.Context, c game.Configuration, depth int) (Result, error) {
	var table *TranspositionTable
	if s.transpositionTableOptim {
		table = s.ensureTables(1)[0]
	}
	ss := s.newSearcher(ctx, table)
	defer ss.flush()
	return ss.searchRoot(c, depth)
}

func (ss *searcher) searchRoot(c game.Configuration, depth int) (Result, error) {
	ss.nodes++
	moves := ss.movements(c, depth)
	if len(moves) == 0 {
		return noMoveResult(c), nil
	}
	var key uint64
	if ss.table != nil {
		key = ss.solver.zobrist.Hash(c)
	}

	r := Result{Score: -Infinity}
	alpha, beta := -Infinity, Infinity
	for _, m := range moves {
		child := c.Play(m)
		ckey := ss.childKey(key, c, m)
		v, err := ss.negamax(child, ckey, depth-1, -beta, -alpha)
		if err != nil {
			return Result{}, err
		}
		score := -v
		if ss.passHeuristic && depth == passCheckDepth && (!r.HasMove || score > r.Score) {
			accept, err := ss.acceptWithoutSiblings(child, ckey, score, depth)
			if err != nil {
				return Result{}, err
			}
			if accept {
				return Result{Move: m, HasMove: true, Score: score}, nil
			}
		}
		if !r.HasMove || score > r.Score {
			r.Move, r.HasMove, r.Score = m, true, score
		}
		alpha = max(alpha, r.Score)
	}
	return r, nil
}
