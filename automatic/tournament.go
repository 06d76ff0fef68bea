// Package automatic plays computer-versus-computer tournaments, for
// comparing strategies and depths.
package automatic

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/domino14/blobwar/anytime"
	"github.com/domino14/blobwar/board"
	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/player"
	"github.com/domino14/blobwar/runner"
	"github.com/domino14/blobwar/stats"
	"github.com/domino14/blobwar/strategy"
)

var (
	GamesPlayed *expvar.Int
	IsPlaying   *expvar.Int
)

func init() {
	GamesPlayed = expvar.NewInt("gamesPlayed")
	IsPlaying = expvar.NewInt("isPlaying")
}

// Entrant is one side of a tournament.
type Entrant struct {
	Kind  strategy.Kind
	Depth int
	// Duration, when positive, plays the strategy under the anytime
	// driver with this much time per move instead of a fixed depth.
	Duration time.Duration
}

func (e Entrant) String() string {
	if e.Duration > 0 {
		return fmt.Sprintf("%v (%v)", e.Kind, e.Duration)
	}
	if e.Kind == strategy.GreedyKind {
		return e.Kind.String()
	}
	return fmt.Sprintf("%v (depth %d)", e.Kind, e.Depth)
}

func (e Entrant) strategy() (strategy.Strategy, error) {
	if e.Duration > 0 {
		if _, err := strategy.New(e.Kind, 1); err != nil {
			return nil, err
		}
		return anytime.NewIterative(e.Kind, e.Duration, strategy.WithThreads(1)), nil
	}
	return strategy.New(e.Kind, e.Depth, strategy.WithThreads(1))
}

type Tournament struct {
	Entrants [2]Entrant
	Games    int
	// Threads is the number of games played at once.
	Threads int
	// RandomOpening is the number of plies played at random before the
	// entrants take over, so that games differ.
	RandomOpening int
	Board         *board.Board
	// Seeds, if given, fix the random openings; game i uses
	// Seeds[i%len(Seeds)].
	Seeds [][32]byte
	// Log receives one CSV line per game.
	Log io.Writer
	// Store, if set, keeps every game under RunID. A random RunID is
	// chosen when it is empty.
	Store *Store
	RunID string
}

type Standing struct {
	Name   string
	Wins   int
	Losses int
	Draws  int
	// Differential is the final piece count difference, from this
	// entrant's side.
	Differential stats.Statistic
	diffs        []float64
}

type Report struct {
	Games      int
	Unfinished int
	Standings  [2]Standing
}

type gameRecord struct {
	game   int
	first  int // entrant playing red
	result runner.Result
}

// Run plays the tournament. Entrants swap colors every game.
func (t *Tournament) Run(ctx context.Context) (*Report, error) {
	if IsPlaying.Value() > 0 {
		return nil, errors.New("games are already being played, please wait till complete")
	}
	IsPlaying.Add(1)
	defer IsPlaying.Add(-1)

	b := t.Board
	if b == nil {
		b = board.Default()
	}
	if t.RunID == "" {
		t.RunID = fmt.Sprintf("%x", frand.Bytes(8))
	}
	log.Debug().Str("run", t.RunID).Msgf("Starting %v games, %v threads", t.Games, t.Threads)

	records := make([]gameRecord, t.Games)
	var logMu sync.Mutex
	if t.Log != nil {
		fmt.Fprintln(t.Log, "game,red,blue,turns,score,winner")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, t.Threads))
	for i := range t.Games {
		g.Go(func() error {
			rec, err := t.playGame(gctx, b, i)
			if err != nil {
				return err
			}
			records[i] = rec
			GamesPlayed.Add(1)
			if t.Store != nil {
				if err := t.Store.Record(gctx, t.RunID, i, rec.result); err != nil {
					return err
				}
			}
			if t.Log != nil {
				logMu.Lock()
				defer logMu.Unlock()
				tr := rec.result.Transcript
				fmt.Fprintf(t.Log, "%d,%s,%s,%d,%d,%s\n", i, tr.Players[0], tr.Players[1],
					rec.result.Turns, rec.result.Score, tr.Winner)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t.report(records), nil
}

func (t *Tournament) playGame(ctx context.Context, b *board.Board, i int) (gameRecord, error) {
	first := i % 2
	var players [2]player.Player
	for color := range 2 {
		st, err := t.Entrants[(first+color)%2].strategy()
		if err != nil {
			return gameRecord{}, err
		}
		players[color] = player.NewAIPlayer(st)
	}

	c := game.New(b)
	var rng *frand.RNG
	if len(t.Seeds) > 0 {
		rng = rngFor(t.Seeds[i%len(t.Seeds)])
	} else {
		rng = frand.New()
	}
	c = randomOpening(c, rng, t.RandomOpening)

	r := runner.NewGameRunner(c, players[0], players[1])
	res, err := r.Play(ctx)
	if err != nil {
		return gameRecord{}, err
	}
	log.Debug().Int("game", i).Int("turns", res.Turns).Int8("score", res.Score).Msg("tournament-game-over")
	return gameRecord{game: i, first: first, result: res}, nil
}

// randomOpening plays n random plies from c, fewer if the game ends.
func randomOpening(c game.Configuration, rng *frand.RNG, n int) game.Configuration {
	for range n {
		if c.GameOver() {
			break
		}
		moves := c.Movements()
		if len(moves) == 0 {
			c = c.SkipPlay()
			continue
		}
		c = c.Play(moves[rng.Intn(len(moves))])
	}
	return c
}

func (t *Tournament) report(records []gameRecord) *Report {
	rep := &Report{Games: len(records)}
	for e := range 2 {
		rep.Standings[e].Name = t.Entrants[e].String()
	}
	rep.Unfinished = lo.CountBy(records, func(r gameRecord) bool {
		return !r.result.Finished
	})
	for _, rec := range records {
		for color := range 2 {
			e := (rec.first + color) % 2
			st := &rep.Standings[e]
			diff := rec.result.Score
			if color == 1 {
				diff = -diff
			}
			st.Differential.Push(float64(diff))
			st.diffs = append(st.diffs, float64(diff))
			switch rec.result.Winner {
			case -1:
				st.Draws++
			case color:
				st.Wins++
			default:
				st.Losses++
			}
		}
	}
	return rep
}

// String summarizes the report, one line per entrant.
func (r *Report) String() string {
	out := fmt.Sprintf("%d games, %d unfinished\n", r.Games, r.Unfinished)
	for _, st := range r.Standings {
		low, high := st.Differential.ConfidenceInterval(95)
		out += fmt.Sprintf("%-30s won %d lost %d drew %d, piece differential %.2f ± %.2f (95%%: %.2f to %.2f)\n",
			st.Name, st.Wins, st.Losses, st.Draws, st.Differential.Mean(),
			st.Differential.Stdev(), low, high)
	}
	return out
}

// Histogram draws the distribution of entrant e's piece differentials.
func (r *Report) Histogram(w io.Writer, e int, bins int) error {
	diffs := r.Standings[e].diffs
	if len(diffs) == 0 {
		return errors.New("no games to plot")
	}
	fmt.Fprintf(w, "%s piece differential:\n", r.Standings[e].Name)
	return histogram.Fprint(w, histogram.Hist(bins, diffs), histogram.Linear(40))
}
