package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/domino14/blobwar/bot"
	"github.com/domino14/blobwar/config"
)

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := config.DefaultConfig()
	if _, err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-arguments")
	}
	cfg.AdjustRelativePaths(exPath)
	log.Info().Msgf("Loaded config: %v, exPath: %v", cfg.SanitizedSettings(), exPath)

	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bot.NewBot(cfg)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Main(gctx, cfg.GetString(config.ConfigBotChannel), b)
	})

	if addr := cfg.GetString(config.ConfigGRPCAddress); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", addr).Msg("could-not-listen")
		}
		srv := grpc.NewServer()
		bot.RegisterMoveServer(srv, b)
		g.Go(func() error {
			log.Info().Str("addr", addr).Msg("serving-grpc")
			return srv.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			srv.GracefulStop()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("bot-failed")
	}
	log.Info().Msg("bot gracefully shutting down")
}
