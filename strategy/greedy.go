package strategy

import (
	"context"

	"github.com/samber/lo"

	"github.com/domino14/blobwar/game"
)

// Greedy plays the movement that leaves it with the largest material
// advantage right away. It does not look ahead.
type Greedy struct{}

func (Greedy) String() string {
	return GreedyKind.String()
}

func (g Greedy) BestMove(ctx context.Context, c game.Configuration) (game.Movement, bool, error) {
	r, err := g.SearchDepth(ctx, c, 1)
	return r.Move, r.HasMove, err
}

// SearchDepth ignores depth; it lets Greedy run under the anytime driver.
func (Greedy) SearchDepth(ctx context.Context, c game.Configuration, depth int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	moves := c.Movements()
	if len(moves) == 0 {
		return noMoveResult(c), nil
	}
	// lo.MaxBy keeps the first of equal elements.
	best := lo.MaxBy(moves, func(a, b game.Movement) bool {
		return c.Play(a).Value() > c.Play(b).Value()
	})
	return Result{
		Move:    best,
		HasMove: true,
		Score:   c.Play(best).Value(),
		Depth:   1,
		Nodes:   uint64(len(moves)) + 1,
	}, nil
}
