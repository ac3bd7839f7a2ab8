package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quillwire/quill-node/pkg/api"
	"github.com/quillwire/quill-node/pkg/codec"
	"github.com/quillwire/quill-node/pkg/network"
	"github.com/quillwire/quill-node/pkg/storage"
)

var (
	configPath = flag.String("config", "", "Path to TOML config file")
	addr       = flag.String("addr", "", "Listen address (overrides config)")
	apiPort    = flag.Int("api-port", 0, "Status API port (overrides config)")
	noJournal  = flag.Bool("no-journal", false, "Disable the push journal")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	initLogger(*debug)
	printBanner()

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
		cfg = loaded
	}

	// Flags override the config file
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *apiPort != 0 {
		cfg.APIPort = *apiPort
	}

	if err := ValidateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	var journal *storage.PushJournal
	if !*noJournal {
		if err := os.MkdirAll(filepath.Dir(cfg.JournalPath), 0755); err != nil {
			log.Fatal().Err(err).Msg("failed to create journal directory")
		}
		j, err := storage.NewPushJournal(cfg.JournalPath, time.Duration(cfg.JournalTTLHours)*time.Hour)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open push journal")
		}
		journal = j
		log.Info().Str("path", cfg.JournalPath).Int("ttl_hours", cfg.JournalTTLHours).Msg("push journal ready")
	}

	factory := codec.NewFactory(cfg.Encodings...)
	handler := &echoHandler{journal: journal}

	node := network.NewServer(cfg.Addr, factory, handler, time.Duration(cfg.PingIntervalSec)*time.Second)
	if err := node.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}

	statusAPI := api.NewServer(node, journal, &api.Config{
		Port:         cfg.APIPort,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	statusAPI.Start()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := statusAPI.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("status API shutdown failed")
	}
	if err := node.Stop(); err != nil {
		log.Warn().Err(err).Msg("server shutdown failed")
	}
	if journal != nil {
		if err := journal.Close(); err != nil {
			log.Warn().Err(err).Msg("journal close failed")
		}
	}
}

func initLogger(debug bool) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Str("app", "quill-server").Logger()
}

func printBanner() {
	fmt.Println("  ___        _ _ _ ")
	fmt.Println(" / _ \\ _   _(_) | |")
	fmt.Println("| | | | | | | | | |")
	fmt.Println("| |_| | |_| | | | |")
	fmt.Println(" \\__\\_\\\\__,_|_|_|_|")
	fmt.Println()
	fmt.Println("Quill protocol node")
	fmt.Println()
}
