// Package player defines who chooses the moves in a game: the engine, a
// person at a terminal, or a program at the other end of a connection.
package player

import (
	"context"

	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/strategy"
)

// A Player chooses a movement for the side to move. ok is false when the
// player passes. Movements coming from outside the engine are not
// trusted; the game loop checks them.
type Player interface {
	Move(ctx context.Context, c game.Configuration) (m game.Movement, ok bool, err error)
	Name() string
}

// AIPlayer plays the moves of a strategy.
type AIPlayer struct {
	strategy strategy.Strategy
}

func NewAIPlayer(s strategy.Strategy) *AIPlayer {
	return &AIPlayer{strategy: s}
}

func (p *AIPlayer) Move(ctx context.Context, c game.Configuration) (game.Movement, bool, error) {
	return p.strategy.BestMove(ctx, c)
}

func (p *AIPlayer) Name() string {
	return p.strategy.String()
}

func (p *AIPlayer) Strategy() strategy.Strategy {
	return p.strategy
}
