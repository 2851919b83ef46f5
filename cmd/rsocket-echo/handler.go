package main

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/GooDer/rsocket-go"
)

// echoHandler answers every interaction pattern by transforming the
// request with the configured prefix: request/response echoes once,
// request/stream repeats the echo once per byte of request data, request/channel mirrors
// each inbound value back out, fire-and-forget and metadata-push just log.
type echoHandler struct {
	rsocket.UnimplementedHandler
	prefix string
	log    zerolog.Logger
}

func (h echoHandler) FireAndForget(ctx context.Context, p rsocket.Payload) {
	h.log.Info().Bytes("data", p.Data()).Msg("fire-and-forget received")
}

func (h echoHandler) RequestResponse(ctx context.Context, p rsocket.Payload) (rsocket.Payload, error) {
	return rsocket.NewPayload(append([]byte(h.prefix), p.Data()...)), nil
}

func (h echoHandler) RequestStream(ctx context.Context, p rsocket.Payload) rsocket.Source {
	return &repeatSource{data: append([]byte(h.prefix), p.Data()...), remaining: len(p.Data())}
}

func (h echoHandler) RequestChannel(ctx context.Context, p rsocket.Payload, inbound rsocket.Source) rsocket.Source {
	inbound.Request(1)
	return &mirrorSource{prefix: h.prefix, inbound: inbound}
}

func (h echoHandler) MetadataPush(ctx context.Context, metadata []byte) {
	h.log.Info().Bytes("metadata", metadata).Msg("metadata-push received")
}

// repeatSource emits the same echoed payload len(request data) times, a
// simple deterministic producer for demonstration purposes.
type repeatSource struct {
	mu        sync.Mutex
	data      []byte
	remaining int
	credit    int
}

func (s *repeatSource) Request(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credit += n
}

func (s *repeatSource) Poll() rsocket.PollResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remaining <= 0 {
		return rsocket.PollCompleteResult()
	}
	if s.credit <= 0 {
		return rsocket.PollPendingResult()
	}
	s.credit--
	s.remaining--
	return rsocket.PollValueResult(rsocket.NewPayload(s.data))
}

// mirrorSource pulls from inbound and re-emits each value with prefix
// attached, requesting one more unit from inbound every time it emits one,
// keeping the two directions' credit in lockstep.
type mirrorSource struct {
	prefix  string
	inbound rsocket.Source
	done    bool
}

func (s *mirrorSource) Request(int) {}

func (s *mirrorSource) Poll() rsocket.PollResult {
	if s.done {
		return rsocket.PollCompleteResult()
	}
	res := s.inbound.Poll()
	switch res.Kind {
	case rsocket.PollValue:
		s.inbound.Request(1)
		return rsocket.PollValueResult(rsocket.NewPayload(append([]byte(s.prefix), res.Value.Data()...)))
	case rsocket.PollComplete:
		s.done = true
		return rsocket.PollCompleteResult()
	case rsocket.PollError:
		s.done = true
		return res
	default:
		return rsocket.PollPendingResult()
	}
}
