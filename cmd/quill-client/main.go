package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quillwire/quill-node/pkg/codec"
	"github.com/quillwire/quill-node/pkg/network"
)

var (
	addr    = flag.String("addr", "127.0.0.1:4242", "Server address")
	push    = flag.Bool("push", false, "Send messages as one-way pushes")
	timeout = flag.Duration("timeout", 10*time.Second, "Per-request timeout")
	debug   = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	initLogger(*debug)

	messages := flag.Args()
	if len(messages) == 0 {
		fmt.Fprintln(os.Stderr, "usage: quill-client [flags] message [message ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	client, err := network.Dial(*addr, codec.NewFactory(), func(value any) {
		log.Info().Msgf("push from server: %v", value)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}
	defer client.Close()

	for _, msg := range messages {
		if *push {
			if err := client.Push(msg); err != nil {
				log.Fatal().Err(err).Msg("push failed")
			}
			log.Info().Str("message", msg).Msg("pushed")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		resp, err := client.Request(ctx, msg)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("message", msg).Msg("request failed")
		}
		fmt.Printf("%v\n", resp)
	}
}

func initLogger(debug bool) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Str("app", "quill-client").Logger()
}
