// Package strategy implements the move-choosing algorithms: plain
// minimax, alpha-beta negamax with and without a pass heuristic or a
// transposition table, their parallel versions, and a greedy player.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/domino14/blobwar/game"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// A Strategy picks a move for the side to move. ok is false iff the side
// has no legal movement, in which case the caller must pass.
type Strategy interface {
	BestMove(ctx context.Context, c game.Configuration) (m game.Movement, ok bool, err error)
	String() string
}

// Kind enumerates the available strategies. The set is closed.
type Kind int

const (
	MinMaxKind Kind = iota
	AlphaBetaKind
	AlphaBetaPassKind
	AlphaBetaTableKind
	MinMaxParKind
	ParAlphaBetaKind
	GreedyKind
	numKinds
)

var kindNames = [numKinds]string{
	MinMaxKind:         "minmax",
	AlphaBetaKind:      "alphabeta",
	AlphaBetaPassKind:  "alphabetapass",
	AlphaBetaTableKind: "alphabetatable",
	MinMaxParKind:      "minmaxpar",
	ParAlphaBetaKind:   "paralphabeta",
	GreedyKind:         "greedy",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Kinds lists every strategy kind in selector order.
func Kinds() []Kind {
	ks := make([]Kind, numKinds)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

// KindFromSelector maps the integer selector used on command lines.
func KindFromSelector(sel int) (Kind, error) {
	if sel < 0 || sel >= int(numKinds) {
		return 0, fmt.Errorf("%w: selector %d", ErrUnknownStrategy, sel)
	}
	return Kind(sel), nil
}

// KindFromName accepts a strategy name or its selector number.
func KindFromName(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	if sel, err := strconv.Atoi(name); err == nil {
		return KindFromSelector(sel)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Option configures a Solver built by New. Options do not apply to
// Greedy.
type Option func(*Solver)

func WithThreads(n int) Option {
	return func(s *Solver) { s.SetThreads(n) }
}

func WithPassThreshold(t int8) Option {
	return func(s *Solver) { s.SetPassThreshold(t) }
}

func WithTranspositionTable(on bool) Option {
	return func(s *Solver) { s.SetTranspositionTableOptim(on) }
}

func WithDepthKeyedTable(on bool) Option {
	return func(s *Solver) { s.SetDepthKeyedTable(on) }
}

func WithTableSize(fractionOfMem float64, maxPower int) Option {
	return func(s *Solver) { s.SetTranspositionTableSize(fractionOfMem, maxPower) }
}

// New returns a strategy of the given kind searching to depth plies.
func New(kind Kind, depth int, opts ...Option) (Strategy, error) {
	switch kind {
	case GreedyKind:
		return Greedy{}, nil
	case MinMaxKind, AlphaBetaKind, AlphaBetaPassKind, AlphaBetaTableKind,
		MinMaxParKind, ParAlphaBetaKind:
		s := NewSolver(kind, depth)
		for _, o := range opts {
			o(s)
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, kind)
}

// NewDepthSearcher is New for callers that choose the depth per search,
// such as the anytime driver.
func NewDepthSearcher(kind Kind, opts ...Option) (DepthSearcher, error) {
	st, err := New(kind, 1, opts...)
	if err != nil {
		return nil, err
	}
	return st.(DepthSearcher), nil
}
