package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/domino14/blobwar/anytime"
	"github.com/domino14/blobwar/automatic"
	"github.com/domino14/blobwar/board"
	"github.com/domino14/blobwar/bot"
	"github.com/domino14/blobwar/config"
	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/positions"
	"github.com/domino14/blobwar/runner"
	"github.com/domino14/blobwar/strategy"
)

var printer = message.NewPrinter(language.English)

func moveText(m game.Movement, ok bool) string {
	if !ok {
		return "pass"
	}
	return m.String()
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	name := ""
	if len(cmd.args) > 0 {
		name = cmd.args[0]
	}
	b, err := sc.boardNamed(name)
	if err != nil {
		return nil, err
	}
	sc.setGame(game.New(b))
	return msg(sc.display()), nil
}

// load reads a transcript written by `export` or by the game runner, and
// restores its final position along with its turns so that `undo` works.
func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: load <transcript file>")
	}
	f, err := os.Open(cmd.args[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := runner.ReadTranscript(f)
	if err != nil {
		return nil, err
	}
	final, err := game.ParseState(t.Final)
	if err != nil {
		return nil, fmt.Errorf("final position: %w", err)
	}
	history := make([]game.Configuration, 0, len(t.Turns))
	for _, turn := range t.Turns {
		c, err := game.ParseState(turn.State)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", turn.Number, err)
		}
		history = append(history, c)
	}
	sc.setGame(final)
	sc.history = history
	sc.turns = t.Turns
	log.Debug().Int("turns", len(t.Turns)).Str("board", t.Board).Msg("loaded-transcript")
	return msg(sc.display()), nil
}

// state sets up a position from its 65-character serialization. Dots may
// stand for empty cells, since trailing blanks are hard to type.
func (sc *ShellController) state(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New(`usage: state "<serialized position>"`)
	}
	c, err := game.ParseState(strings.ReplaceAll(cmd.args[0], ".", " "))
	if err != nil {
		return nil, err
	}
	sc.setGame(c)
	return msg(sc.display()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	state, err := sc.game.Serialize()
	if err != nil {
		return nil, err
	}
	return msg(sc.display() + "state: " + strconv.Quote(strings.ReplaceAll(state, " ", "."))), nil
}

// moves lists the legal movements with the piece difference each one
// leaves the mover. The numbering is the one `play #n` uses.
func (sc *ShellController) moves(cmd *shellcmd) (*Response, error) {
	ms := sc.game.Movements()
	if len(ms) == 0 {
		return msg("no movements; the only option is to pass"), nil
	}
	var sb strings.Builder
	for i, m := range ms {
		fmt.Fprintf(&sb, "%3d: %-20s%+d\n", i+1, m.String(), -sc.game.Play(m).Value())
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) parseMovement(args []string) (game.Movement, error) {
	switch len(args) {
	case 1:
		// #n picks the nth entry of `moves`.
		n, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
		if err != nil {
			return game.Movement{}, err
		}
		ms := sc.game.Movements()
		if n < 1 || n > len(ms) {
			return game.Movement{}, errors.New("play outside range")
		}
		return ms[n-1], nil
	case 4:
		var coords [4]int
		for i, a := range args {
			v, err := strconv.Atoi(a)
			if err != nil {
				return game.Movement{}, err
			}
			if v < 0 || v >= positions.Dim {
				return game.Movement{}, fmt.Errorf("coordinate %d out of range", v)
			}
			coords[i] = v
		}
		return game.MovementFromCells(
			positions.FromXY(coords[1], coords[0]),
			positions.FromXY(coords[3], coords[2]))
	}
	return game.Movement{}, errors.New("usage: play <start y> <start x> <end y> <end x> | play #n")
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	m, err := sc.parseMovement(cmd.args)
	if err != nil {
		return nil, err
	}
	if !sc.game.CheckMove(m) {
		return nil, fmt.Errorf("%v is not a legal move", m)
	}
	if err := sc.commit(m, true); err != nil {
		return nil, err
	}
	return msg(sc.display()), nil
}

func (sc *ShellController) pass(cmd *shellcmd) (*Response, error) {
	if sc.game.HasMovements() {
		return nil, errors.New("cannot pass while movements are available")
	}
	if err := sc.commit(game.Movement{}, false); err != nil {
		return nil, err
	}
	return msg(sc.display()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if len(sc.history) == 0 {
		return nil, errors.New("nothing to undo")
	}
	last := len(sc.history) - 1
	sc.game = sc.history[last]
	sc.history = sc.history[:last]
	sc.turns = sc.turns[:last]
	return msg(sc.display()), nil
}

func (sc *ShellController) strategyOptions(cmd *shellcmd) ([]strategy.Option, error) {
	threads, err := cmd.options.IntDefault("threads", sc.config.GetInt(config.ConfigThreads))
	if err != nil {
		return nil, err
	}
	opts := []strategy.Option{
		strategy.WithThreads(threads),
		strategy.WithTableSize(sc.config.GetFloat64(config.ConfigTTFractionOfMem),
			sc.config.GetInt(config.ConfigTTMaxSizePower)),
	}
	if cmd.options.Bool("depthkeyed") {
		opts = append(opts, strategy.WithDepthKeyedTable(true))
	}
	if _, ok := cmd.options["pass"]; ok {
		t, err := cmd.options.Int("pass")
		if err != nil {
			return nil, err
		}
		opts = append(opts, strategy.WithPassThreshold(int8(t)))
	}
	return opts, nil
}

func (sc *ShellController) kindArg(cmd *shellcmd) (strategy.Kind, error) {
	name := sc.config.GetString(config.ConfigDefaultStrategy)
	if len(cmd.args) > 0 {
		name = cmd.args[0]
	}
	return strategy.KindFromName(name)
}

// strategyFromCmd builds the strategy named by the first argument: a
// fixed-depth search, or an anytime search if -time is given.
func (sc *ShellController) strategyFromCmd(cmd *shellcmd) (strategy.Strategy, error) {
	kind, err := sc.kindArg(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := sc.strategyOptions(cmd)
	if err != nil {
		return nil, err
	}
	d, err := cmd.options.DurationDefault("time", 0)
	if err != nil {
		return nil, err
	}
	if d > 0 {
		return anytime.NewIterative(kind, d, opts...), nil
	}
	depth, err := cmd.options.IntDefault("depth", sc.config.GetInt(config.ConfigDefaultDepth))
	if err != nil {
		return nil, err
	}
	return strategy.New(kind, depth, opts...)
}

func (sc *ShellController) aiplay(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if sc.game.GameOver() {
		return nil, errors.New("the game is over")
	}
	st, err := sc.strategyFromCmd(cmd)
	if err != nil {
		return nil, err
	}
	m, ok, err := st.BestMove(ctx, sc.game)
	if err != nil {
		return nil, err
	}
	if err := sc.commit(m, ok); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("%v plays %s\n%s", st, moveText(m, ok), sc.display())), nil
}

// search reports what a strategy would play, without playing it.
func (sc *ShellController) search(ctx context.Context, cmd *shellcmd) (*Response, error) {
	kind, err := sc.kindArg(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := sc.strategyOptions(cmd)
	if err != nil {
		return nil, err
	}
	depth, err := cmd.options.IntDefault("depth", sc.config.GetInt(config.ConfigDefaultDepth))
	if err != nil {
		return nil, err
	}
	s, err := strategy.NewDepthSearcher(kind, opts...)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := s.SearchDepth(ctx, sc.game, depth)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	out := printer.Sprintf("%v at depth %d: %s, score %d\n%d nodes in %v (%.0f nodes/s)\n",
		s, res.Depth, moveText(res.Move, res.HasMove), res.Score,
		res.Nodes, elapsed.Round(time.Microsecond), float64(res.Nodes)/elapsed.Seconds())
	if solver, ok := s.(*strategy.Solver); ok {
		if ts := solver.TableStats(); ts != nil {
			out += printer.Sprintf("table: %d created, %d lookups, %d hits, %d type-2 collisions\n",
				ts.Created, ts.Lookups, ts.Hits, ts.T2Collisions)
		}
	}
	return msg(out), nil
}

// anytime deepens for -time and prints the answer after each depth.
func (sc *ShellController) anytime(ctx context.Context, cmd *shellcmd) (*Response, error) {
	kind, err := sc.kindArg(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := sc.strategyOptions(cmd)
	if err != nil {
		return nil, err
	}
	d, err := cmd.options.DurationDefault("time", sc.config.GetDuration(config.ConfigAnytimeDuration))
	if err != nil {
		return nil, err
	}
	maxDepth, err := cmd.options.IntDefault("maxdepth", 0)
	if err != nil {
		return nil, err
	}
	s, err := strategy.NewDepthSearcher(kind, opts...)
	if err != nil {
		return nil, err
	}
	reg := &anytime.Register{}
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	err = anytime.Run(tctx, sc.game, s, reg, anytime.Options{
		StartDepth: anytime.DefaultStartDepth(kind),
		MaxDepth:   maxDepth,
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if !reg.Published() {
		return msg(fmt.Sprintf("no depth completed in %v", d)), nil
	}
	m, ok := reg.Load()
	return msg(fmt.Sprintf("deepest completed depth %d: %s, score %d",
		reg.Depth(), moveText(m, ok), reg.Score())), nil
}

// botplay asks a bot listening on NATS for the move and plays it.
func (sc *ShellController) botplay(ctx context.Context, cmd *shellcmd) (*Response, error) {
	name := sc.config.GetString(config.ConfigDefaultStrategy)
	if len(cmd.args) > 0 {
		name = cmd.args[0]
	}
	depth, err := cmd.options.IntDefault("depth", sc.config.GetInt(config.ConfigDefaultDepth))
	if err != nil {
		return nil, err
	}
	d, err := cmd.options.DurationDefault("time", 0)
	if err != nil {
		return nil, err
	}
	nc, err := sc.natsConn()
	if err != nil {
		return nil, err
	}
	channel := cmd.options.String("channel")
	if channel == "" {
		channel = sc.config.GetString(config.ConfigBotChannel)
	}
	cl := bot.NewClient(nc, channel, name, depth, d)
	cl.SetTimeout(sc.config.GetDuration(config.ConfigBotRequestTimeout) + d)
	m, ok, err := cl.Move(ctx, sc.game)
	if err != nil {
		return nil, err
	}
	if ok && !sc.game.CheckMove(m) {
		return nil, fmt.Errorf("bot answered with an illegal move %v", m)
	}
	if !ok && sc.game.HasMovements() {
		return nil, errors.New("bot passed while movements are available")
	}
	if err := sc.commit(m, ok); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("%s plays %s\n%s", cl.Name(), moveText(m, ok), sc.display())), nil
}

func (sc *ShellController) export(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: export <file>")
	}
	t, err := sc.transcript()
	if err != nil {
		return nil, err
	}
	path := cmd.args[0]
	if !filepath.IsAbs(path) && !strings.ContainsRune(path, filepath.Separator) {
		dir := sc.config.GetString(config.ConfigTranscriptsPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		path = filepath.Join(dir, path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := t.WriteTranscript(f); err != nil {
		return nil, err
	}
	return msg("exported to " + path), nil
}

// autoplay runs a tournament between two strategies.
func (sc *ShellController) autoplay(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return nil, errors.New("usage: autoplay <strategy1> <strategy2> [-games n] [-depth n] [-depth2 n] [-time d] [-threads n] [-opening n] [-board name] [-db file]")
	}
	var entrants [2]automatic.Entrant
	depth, err := cmd.options.IntDefault("depth", sc.config.GetInt(config.ConfigDefaultDepth))
	if err != nil {
		return nil, err
	}
	depth2, err := cmd.options.IntDefault("depth2", depth)
	if err != nil {
		return nil, err
	}
	d, err := cmd.options.DurationDefault("time", 0)
	if err != nil {
		return nil, err
	}
	for i, name := range cmd.args {
		kind, err := strategy.KindFromName(name)
		if err != nil {
			return nil, err
		}
		entrants[i] = automatic.Entrant{Kind: kind, Depth: depth, Duration: d}
	}
	entrants[1].Depth = depth2

	games, err := cmd.options.IntDefault("games", 10)
	if err != nil {
		return nil, err
	}
	threads, err := cmd.options.IntDefault("threads", sc.config.GetInt(config.ConfigThreads))
	if err != nil {
		return nil, err
	}
	opening, err := cmd.options.IntDefault("opening", 2)
	if err != nil {
		return nil, err
	}
	b, err := sc.boardNamed(cmd.options.String("board"))
	if err != nil {
		return nil, err
	}
	tm := &automatic.Tournament{
		Entrants:      entrants,
		Games:         games,
		Threads:       threads,
		RandomOpening: opening,
		Board:         b,
	}
	if seedFile := cmd.options.String("seeds"); seedFile != "" {
		if tm.Seeds, err = automatic.LoadSeeds(seedFile); err != nil {
			return nil, err
		}
	}
	if db := cmd.options.String("db"); db != "" {
		store, err := automatic.OpenStore(db)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		tm.Store = store
	}
	if logfile := cmd.options.String("logfile"); logfile != "" {
		f, err := os.Create(logfile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		tm.Log = f
	}
	rep, err := tm.Run(ctx)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString(rep.String())
	if cmd.options.Bool("histogram") {
		for e := range 2 {
			if err := rep.Histogram(&sb, e, 10); err != nil {
				return nil, err
			}
		}
	}
	if tm.Store != nil {
		sb.WriteString("stored as run " + tm.RunID + "\n")
	}
	return msg(sb.String()), nil
}

var settable = []string{
	config.ConfigDefaultStrategy,
	config.ConfigDefaultDepth,
	config.ConfigDefaultBoard,
	config.ConfigThreads,
	config.ConfigAnytimeDuration,
	config.ConfigTTFractionOfMem,
	config.ConfigTTMaxSizePower,
	config.ConfigColorDisplay,
	config.ConfigBotChannel,
	config.ConfigNatsURL,
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		keys := append([]string(nil), settable...)
		sort.Strings(keys)
		var sb strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&sb, "%-22s %v\n", k, sc.config.Get(k))
		}
		return msg(sb.String()), nil
	}
	opt := cmd.args[0]
	found := false
	for _, k := range settable {
		found = found || k == opt
	}
	if !found {
		return nil, fmt.Errorf("%s is not a setting", opt)
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%v", sc.config.Get(opt))), nil
	}
	if opt == config.ConfigDefaultStrategy {
		if _, err := strategy.KindFromName(cmd.args[1]); err != nil {
			return nil, err
		}
	}
	if opt == config.ConfigDefaultBoard {
		if _, err := board.Get(sc.config, cmd.args[1]); err != nil {
			return nil, err
		}
	}
	sc.config.Set(opt, cmd.args[1])
	return msg("set " + opt + " to " + cmd.args[1]), nil
}
