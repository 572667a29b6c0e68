package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cloudspannerecosystem/pg-spanner-proxy/config"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/server"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/translator"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/typecodec"
)

func main() {
	cfg := config.Parse()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if cfg.TextFormat == config.TextFormatSpanner {
		typecodec.SetTextStyle(typecodec.StyleSpanner)
	}

	xlat := &translator.Translator{}
	if cfg.PsqlMode && cfg.CommandMetadataFile != "" {
		matchers, err := translator.LoadCommandMetadata(cfg.CommandMetadataFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load command metadata file")
		}
		xlat.Matchers = matchers
	}
	if cfg.QueryRewritesFile != "" {
		rewrites, err := translator.LoadQueryRewrites(cfg.QueryRewritesFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load query rewrites file")
		}
		xlat.Rewrites = rewrites
	}

	srv := server.New(cfg, xlat, log.Logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
