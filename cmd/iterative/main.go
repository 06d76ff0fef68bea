// Command iterative searches one position under the anytime driver and
// prints the deepest completed answer as JSON.
//
//	iterative <board name or 65-character state> <strategy> [duration]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blobwar/anytime"
	"github.com/domino14/blobwar/board"
	"github.com/domino14/blobwar/config"
	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/strategy"
)

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	cfg := config.DefaultConfig()
	args, err := cfg.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("bad-arguments")
	}
	cfg.AdjustRelativePaths(filepath.Dir(ex))

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	level := zerolog.InfoLevel
	if cfg.GetBool(config.ConfigDebug) {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()

	if len(args) < 2 || len(args) > 3 {
		log.Fatal().Msg("usage: iterative <board name or state> <strategy> [duration]")
	}
	c, err := position(cfg, args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("bad-position")
	}
	kind, err := strategy.KindFromName(args[1])
	if err != nil {
		log.Fatal().Err(err).Msg("bad-strategy")
	}
	d := cfg.GetDuration(config.ConfigAnytimeDuration)
	if len(args) == 3 {
		if d, err = time.ParseDuration(args[2]); err != nil {
			log.Fatal().Err(err).Msg("bad-duration")
		}
	}
	s, err := strategy.NewDepthSearcher(kind,
		strategy.WithThreads(cfg.GetInt(config.ConfigThreads)),
		strategy.WithTableSize(cfg.GetFloat64(config.ConfigTTFractionOfMem),
			cfg.GetInt(config.ConfigTTMaxSizePower)))
	if err != nil {
		log.Fatal().Err(err).Msg("bad-strategy")
	}

	reg := &anytime.Register{}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	err = anytime.Run(ctx, c, s, reg, anytime.Options{StartDepth: anytime.DefaultStartDepth(kind)})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Fatal().Err(err).Msg("search-failed")
	}
	m, ok := reg.Load()
	if !reg.Published() {
		log.Warn().Msg("no-depth-completed")
	}
	out, err := game.EncodeOptional(m, ok)
	if err != nil {
		log.Fatal().Err(err).Msg("encode-failed")
	}
	log.Info().Int("depth", reg.Depth()).Int8("score", reg.Score()).Msg("final-move")
	fmt.Println(string(out))
}

// position reads a serialized state, or starts a game on a named board.
func position(cfg *config.Config, arg string) (game.Configuration, error) {
	if len(arg) == board.StateLen {
		return game.ParseState(arg)
	}
	b, err := board.Get(cfg, arg)
	if err != nil {
		return game.Configuration{}, err
	}
	return game.New(b), nil
}
