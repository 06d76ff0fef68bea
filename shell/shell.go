// Package shell is an interactive console for setting up positions,
// playing against the engine and comparing strategies.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blobwar/board"
	"github.com/domino14/blobwar/config"
	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/runner"
)

var errQuit = errors.New("sending quit signal")

type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config

	game    game.Configuration
	hasGame bool
	// history holds the configuration before each of turns.
	history []game.Configuration
	turns   []runner.Turn

	nc *nats.Conn
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func newController(cfg *config.Config, out io.Writer) *ShellController {
	return &ShellController{config: cfg, out: out}
}

func NewShellController(cfg *config.Config) *ShellController {
	sc := newController(cfg, nil)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mblobwar>\033[0m ",
		HistoryFile:     "/tmp/blobwar_readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stderr()
	return sc
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func (sc *ShellController) display() string {
	out := sc.game.ToDisplayText(sc.config.GetBool(config.ConfigColorDisplay))
	if sc.game.GameOver() {
		switch w := sc.game.Winner(); w {
		case -1:
			out += "game over: draw\n"
		default:
			out += fmt.Sprintf("game over: %s wins\n", game.PlayerName(w))
		}
	} else if !sc.game.HasMovements() {
		out += game.PlayerName(sc.game.PlayerOnTurn()) + " has no movement and must pass\n"
	}
	return out
}

func (sc *ShellController) setGame(c game.Configuration) {
	sc.game = c
	sc.hasGame = true
	sc.history = nil
	sc.turns = nil
}

// commit plays m, or passes if ok is false, and records the turn.
func (sc *ShellController) commit(m game.Movement, ok bool) error {
	state, err := sc.game.Serialize()
	if err != nil {
		return err
	}
	t := runner.Turn{
		Number: len(sc.turns) + 1,
		Player: game.PlayerName(sc.game.PlayerOnTurn()),
		State:  state,
		Move:   "pass",
	}
	sc.history = append(sc.history, sc.game)
	if ok {
		sc.game = sc.game.Play(m)
		t.Move = m.String()
	} else {
		sc.game = sc.game.SkipPlay()
	}
	t.Score = sc.game.Score()
	sc.turns = append(sc.turns, t)
	log.Debug().Int("turn", t.Number).Str("move", t.Move).Msg("shell-played-turn")
	return nil
}

func (sc *ShellController) transcript() (*runner.Transcript, error) {
	final, err := sc.game.Serialize()
	if err != nil {
		return nil, err
	}
	t := &runner.Transcript{
		Board:   sc.game.Board().Name(),
		Players: [2]string{game.PlayerName(0), game.PlayerName(1)},
		Turns:   sc.turns,
		Final:   final,
		Winner:  "none",
	}
	if sc.game.GameOver() {
		if w := sc.game.Winner(); w >= 0 {
			t.Winner = game.PlayerName(w)
		} else {
			t.Winner = "draw"
		}
	}
	return t, nil
}

func (sc *ShellController) natsConn() (*nats.Conn, error) {
	if sc.nc != nil && !sc.nc.IsClosed() {
		return sc.nc, nil
	}
	nc, err := nats.Connect(sc.config.GetString(config.ConfigNatsURL))
	if err != nil {
		return nil, err
	}
	sc.nc = nc
	return nc, nil
}

func (sc *ShellController) boardNamed(name string) (*board.Board, error) {
	if name == "" {
		name = sc.config.GetString(config.ConfigDefaultBoard)
	}
	return board.Get(sc.config, name)
}

// Execute runs one command line.
func (sc *ShellController) Execute(ctx context.Context, line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "bye":
		return nil, errQuit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "load":
		return sc.load(cmd)
	case "state":
		return sc.state(cmd)
	case "set":
		return sc.set(cmd)
	case "autoplay":
		return sc.autoplay(ctx, cmd)
	case "script":
		return sc.script(ctx, cmd)
	}

	// The remaining commands need a position.
	if !sc.hasGame {
		return nil, errNoGame
	}
	switch cmd.cmd {
	case "show", "s":
		return sc.show(cmd)
	case "moves":
		return sc.moves(cmd)
	case "play":
		return sc.play(cmd)
	case "pass":
		return sc.pass(cmd)
	case "undo":
		return sc.undo(cmd)
	case "ai":
		return sc.aiplay(ctx, cmd)
	case "search":
		return sc.search(ctx, cmd)
	case "anytime":
		return sc.anytime(ctx, cmd)
	case "bot":
		return sc.botplay(ctx, cmd)
	case "export":
		return sc.export(cmd)
	}
	log.Debug().Msgf("you said: %v", strconv.Quote(line))
	return nil, fmt.Errorf("unknown command %q; try `help`", cmd.cmd)
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	defer func() {
		if sc.nc != nil {
			sc.nc.Close()
		}
	}()
	ctx := context.Background()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)

		resp, err := sc.Execute(ctx, line)
		if errors.Is(err, errQuit) {
			sig <- syscall.SIGINT
			break
		}
		if errors.Is(err, errNoData) {
			continue
		}
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}
