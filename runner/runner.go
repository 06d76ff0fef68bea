// Package runner plays a game between two players to its end, checking
// every movement that comes from outside the engine.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/player"
)

var ErrIllegalMove = errors.New("illegal move")

const (
	DefaultMaxAttempts = 3
	// DefaultMaxTurns ends games in which both sides keep jumping back
	// and forth.
	DefaultMaxTurns = 1000
)

// Turn is one line of a transcript.
type Turn struct {
	Number int    `yaml:"turn"`
	Player string `yaml:"player"`
	// State is the serialized configuration before the move.
	State string `yaml:"state"`
	Move  string `yaml:"move"`
	Score int8   `yaml:"score"`
}

type Transcript struct {
	Board   string    `yaml:"board"`
	Players [2]string `yaml:"players"`
	Turns   []Turn    `yaml:"turns"`
	Final   string    `yaml:"final"`
	Winner  string    `yaml:"winner"`
}

type Result struct {
	// Winner is 0 or 1, or -1 for a draw or an unfinished game.
	Winner int
	// Score is the first player's piece count minus the second's.
	Score      int8
	Turns      int
	Finished   bool
	Final      game.Configuration
	Transcript *Transcript
}

// GameRunner drives one game.
type GameRunner struct {
	game        game.Configuration
	players     [2]player.Player
	maxAttempts int
	maxTurns    int
	observer    func(Turn, game.Configuration)
	transcript  *Transcript
}

func NewGameRunner(c game.Configuration, first, second player.Player) *GameRunner {
	return &GameRunner{
		game:        c,
		players:     [2]player.Player{first, second},
		maxAttempts: DefaultMaxAttempts,
		maxTurns:    DefaultMaxTurns,
	}
}

// SetMaxAttempts sets how many illegal movements in a row a player may
// propose before the game is aborted.
func (r *GameRunner) SetMaxAttempts(n int) {
	r.maxAttempts = max(1, n)
}

func (r *GameRunner) SetMaxTurns(n int) {
	r.maxTurns = n
}

// SetObserver registers a function called after every turn with the
// configuration that resulted from it.
func (r *GameRunner) SetObserver(f func(Turn, game.Configuration)) {
	r.observer = f
}

func (r *GameRunner) Game() game.Configuration {
	return r.game
}

func (r *GameRunner) Transcript() *Transcript {
	return r.transcript
}

// Play runs the game until it is over, the turn limit is hit, or an error
// occurs. On error the result describes the game up to that point.
func (r *GameRunner) Play(ctx context.Context) (Result, error) {
	r.transcript = &Transcript{
		Board:   r.game.Board().Name(),
		Players: [2]string{r.players[0].Name(), r.players[1].Name()},
	}
	turn := 0
	var err error
	for !r.game.GameOver() && (r.maxTurns <= 0 || turn < r.maxTurns) {
		turn++
		if err = r.playTurn(ctx, turn); err != nil {
			break
		}
	}
	res := r.result(turn)
	if err != nil {
		return res, err
	}
	log.Debug().Int("turns", turn).Int8("score", res.Score).Int("winner", res.Winner).
		Bool("finished", res.Finished).Msg("game-over")
	return res, nil
}

func (r *GameRunner) playTurn(ctx context.Context, number int) error {
	idx := r.game.PlayerOnTurn()
	p := r.players[idx]
	state, err := r.game.Serialize()
	if err != nil {
		return err
	}

	var m game.Movement
	var ok bool
	for attempt := 1; ; attempt++ {
		m, ok, err = p.Move(ctx, r.game)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
		if !ok && r.game.HasMovements() {
			// only a side with nothing to play may pass.
			err = fmt.Errorf("%w: %s passed with movements available", ErrIllegalMove, p.Name())
		} else if ok && !r.game.CheckMove(m) {
			err = fmt.Errorf("%w: %s played %v", ErrIllegalMove, p.Name(), m)
		} else {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("rejected-move")
		if attempt >= r.maxAttempts {
			return err
		}
	}

	t := Turn{Number: number, Player: p.Name(), State: state, Move: "pass"}
	if ok {
		r.game.ApplyMovement(m)
		t.Move = m.String()
	} else {
		r.game = r.game.SkipPlay()
	}
	t.Score = r.game.Score()
	r.transcript.Turns = append(r.transcript.Turns, t)
	log.Debug().Int("turn", number).Str("player", t.Player).Str("move", t.Move).
		Int8("score", t.Score).Msg("played-turn")
	if r.observer != nil {
		r.observer(t, r.game)
	}
	return nil
}

func (r *GameRunner) result(turns int) Result {
	res := Result{
		Winner:     -1,
		Score:      r.game.Score(),
		Turns:      turns,
		Finished:   r.game.GameOver(),
		Final:      r.game,
		Transcript: r.transcript,
	}
	if final, err := r.game.Serialize(); err == nil {
		r.transcript.Final = final
	}
	r.transcript.Winner = "none"
	if res.Finished {
		res.Winner = r.game.Winner()
		if res.Winner >= 0 {
			r.transcript.Winner = r.players[res.Winner].Name()
		} else {
			r.transcript.Winner = "draw"
		}
	}
	return res
}

// WriteTranscript writes the transcript as YAML.
func (t *Transcript) WriteTranscript(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return err
	}
	return enc.Close()
}

// ReadTranscript reads a transcript written by WriteTranscript.
func ReadTranscript(r io.Reader) (*Transcript, error) {
	t := &Transcript{}
	if err := yaml.NewDecoder(r).Decode(t); err != nil {
		return nil, err
	}
	return t, nil
}
