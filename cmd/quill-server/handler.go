package main

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/quillwire/quill-node/pkg/network"
	"github.com/quillwire/quill-node/pkg/storage"
)

// echoHandler is the built-in service: it answers every request with
// its own payload and journals every push it receives. journal may be
// nil to disable persistence.
type echoHandler struct {
	journal *storage.PushJournal
}

func (h *echoHandler) ServeRequest(value any, _ network.Encoder) (any, error) {
	return value, nil
}

func (h *echoHandler) ServePush(from string, value any) {
	log.Info().Str("conn", from).Msgf("push received: %v", value)

	if h.journal == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Msg("cannot journal push")
		return
	}
	if err := h.journal.Append(from, payload); err != nil {
		log.Warn().Err(err).Msg("journal append failed")
	}
}
