// Command client connects to a game server and answers every position it
// receives with a timed search.
//
//	client [strategy]
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blobwar/anytime"
	"github.com/domino14/blobwar/config"
	"github.com/domino14/blobwar/player"
	"github.com/domino14/blobwar/strategy"
)

func main() {
	cfg := config.DefaultConfig()
	args, err := cfg.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("bad-arguments")
	}

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

	kind := strategy.AlphaBetaKind
	if len(args) > 0 {
		if kind, err = strategy.KindFromName(args[0]); err != nil {
			log.Fatal().Err(err).Msg("bad-strategy")
		}
	}
	st := anytime.NewIterative(kind, cfg.GetDuration(config.ConfigAnytimeDuration),
		strategy.WithThreads(cfg.GetInt(config.ConfigThreads)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cfg.GetString(config.ConfigServerAddress)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("could-not-connect")
	}
	defer conn.Close()
	log.Info().Str("addr", addr).Str("strategy", st.String()).Msg("connected")

	if err := player.ServeRemote(ctx, conn, st); err != nil {
		log.Fatal().Err(err).Msg("serve-failed")
	}
	log.Info().Msg("server-closed-connection")
}
