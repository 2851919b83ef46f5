package rsocket

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/GooDer/rsocket-go/internal/conn"
)

// Config holds the options spec §6 exposes. A client's Config seeds the
// SETUP frame it sends; a server's is overridden field-by-field from the
// inbound SETUP once the handshake completes (see acceptOrRejectSetup),
// except for Handler, Logger, FragmentSize and ReassemblyMax, which are
// local policy never carried on the wire.
type Config struct {
	KeepaliveInterval time.Duration
	MaxLifetime       time.Duration
	MetadataMIME      string
	DataMIME          string
	HonorLease        bool

	// FragmentSize bounds outbound frame size; frames whose encoded size,
	// header included, would exceed it are split per spec §4.B. 0 disables
	// fragmentation.
	FragmentSize int
	// ReassemblyMax bounds the total bytes this side will buffer
	// reassembling one fragmented inbound frame. 0 means unbounded.
	ReassemblyMax int

	SetupData     []byte
	SetupMetadata []byte

	// Handler answers requests the peer initiates. Defaults to
	// UnimplementedHandler, which rejects everything.
	Handler RequestHandler
	Logger  zerolog.Logger
}

// DefaultConfig returns the option defaults spec §6 states: a 20s
// keepalive interval, a 60s max lifetime, "application/binary" for both
// MIME types, lease honoring off, and 16 MiB fragmentation/reassembly
// bounds.
func DefaultConfig() Config {
	return Config{
		KeepaliveInterval: 20 * time.Second,
		MaxLifetime:       60 * time.Second,
		MetadataMIME:      "application/binary",
		DataMIME:          "application/binary",
		FragmentSize:      16 << 20,
		ReassemblyMax:     16 << 20,
		Handler:           UnimplementedHandler{},
		Logger:            zerolog.Nop(),
	}
}

func (c Config) connConfig() conn.Config {
	return conn.Config{
		KeepaliveInterval: c.KeepaliveInterval,
		MaxLifetime:       c.MaxLifetime,
		HonorLease:        c.HonorLease,
		MetadataMIME:      c.MetadataMIME,
		DataMIME:          c.DataMIME,
		FragmentSize:      c.FragmentSize,
		ReassemblyMax:     c.ReassemblyMax,
		SetupMetadata:     c.SetupMetadata,
		SetupData:         c.SetupData,
	}
}

func (c Config) handler() RequestHandler {
	if c.Handler == nil {
		return UnimplementedHandler{}
	}
	return c.Handler
}

