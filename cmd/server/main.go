// Command server plays a timed alpha-beta, or a person at the terminal,
// against one remote player connecting over TCP, then writes the game's
// transcript.
//
//	server [board] [human]
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blobwar/anytime"
	"github.com/domino14/blobwar/board"
	"github.com/domino14/blobwar/config"
	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/player"
	"github.com/domino14/blobwar/runner"
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

	name := cfg.GetString(config.ConfigDefaultBoard)
	if len(args) > 0 {
		name = args[0]
	}
	b, err := board.Get(cfg, name)
	if err != nil {
		log.Fatal().Err(err).Str("board", name).Msg("could-not-load-board")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cfg.GetString(config.ConfigServerAddress)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("could-not-listen")
	}
	log.Info().Str("addr", addr).Str("board", b.Name()).Msg("waiting-for-player")
	conn, err := lis.Accept()
	lis.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("accept-failed")
	}
	remote := player.NewNetworkPlayer(conn)
	defer remote.Close()
	log.Info().Str("remote", remote.Name()).Msg("player-connected")

	var local player.Player = player.NewAIPlayer(anytime.NewIterative(strategy.AlphaBetaKind,
		cfg.GetDuration(config.ConfigAnytimeDuration),
		strategy.WithThreads(cfg.GetInt(config.ConfigThreads))))
	if len(args) > 1 && args[1] == "human" {
		l, err := readline.NewEx(&readline.Config{Prompt: "> "})
		if err != nil {
			log.Fatal().Err(err).Msg("readline-failed")
		}
		defer l.Close()
		local = player.NewHumanPlayerFromLineReader("you", l, l.Stdout())
	}

	r := runner.NewGameRunner(game.New(b), local, remote)
	r.SetObserver(func(t runner.Turn, c game.Configuration) {
		fmt.Printf("%d. %s: %s\n", t.Number, t.Player, t.Move)
		fmt.Print(c.ToDisplayText(cfg.GetBool(config.ConfigColorDisplay)))
	})
	res, err := r.Play(ctx)
	if err != nil {
		log.Error().Err(err).Msg("game-aborted")
	}
	log.Info().Int8("score", res.Score).Int("turns", res.Turns).
		Str("winner", res.Transcript.Winner).Msg("game-over")

	if err := writeTranscript(cfg, res.Transcript); err != nil {
		log.Error().Err(err).Msg("could-not-write-transcript")
	}
}

func writeTranscript(cfg *config.Config, t *runner.Transcript) error {
	dir := cfg.GetString(config.ConfigTranscriptsPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("game-%s.yaml", time.Now().Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := t.WriteTranscript(f); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("wrote-transcript")
	return nil
}
