package transport

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// wsOpcode is a WebSocket frame opcode, per RFC 6455 §5.2. Named and valued
// as in tzrikka-timpani/pkg/websocket/frame.go, cross-checked against
// other_examples/fbefef24_gobwas-ws__frame.go.go's OpCode constants.
type wsOpcode byte

const (
	wsOpContinuation wsOpcode = 0x0
	wsOpText         wsOpcode = 0x1
	wsOpBinary       wsOpcode = 0x2
	wsOpClose        wsOpcode = 0x8
	wsOpPing         wsOpcode = 0x9
	wsOpPong         wsOpcode = 0xa
)

const (
	wsBitFin  = 0x80
	wsBitMask = 0x80
	wsLen7    = 125
	wsLen16   = 126
	wsLen64   = 127

	wsMaxControlPayload = 125

	// wsStatusNormalClosure is the only close status this transport ever
	// sends; code/reason are RSocket-level concepts (an ERROR code string,
	// a human-readable message), not RFC 6455 numeric status codes, so
	// they travel in the CLOSE frame's reason text rather than its status
	// field.
	wsStatusNormalClosure = 1000
)

// WebSocket adapts a WebSocket connection into a Transport, carrying one
// whole RSocket frame per binary WebSocket message (no added length prefix
// — the message boundary does that job, per spec.md §4.B). Grounded on
// tzrikka-timpani/pkg/websocket's frame header bit layout and masking
// rules, generalized from that package's client-only role to also cover the
// server side, where incoming frames are masked and outgoing ones are not.
type WebSocket struct {
	rw       io.ReadWriter
	r        *bufio.Reader
	isClient bool // clients mask outbound frames and expect unmasked inbound ones

	writeMu sync.Mutex
}

// NewWebSocket wraps rw (already past the HTTP Upgrade handshake, which is
// out of scope here — see spec.md §1's Non-goals). isClient selects which
// side of RFC 6455's masking rule this end plays.
func NewWebSocket(rw io.ReadWriter, isClient bool) *WebSocket {
	return &WebSocket{rw: rw, r: bufio.NewReader(rw), isClient: isClient}
}

// Send writes frame as a single, unfragmented binary WebSocket message.
func (w *WebSocket) Send(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.writeFrame(wsOpBinary, frame)
}

func (w *WebSocket) writeFrame(op wsOpcode, payload []byte) error {
	var head []byte
	head = append(head, wsBitFin|byte(op))

	maskBit := byte(0)
	if w.isClient {
		maskBit = wsBitMask
	}

	switch {
	case len(payload) <= wsLen7:
		head = append(head, maskBit|byte(len(payload)))
	case len(payload) <= 0xffff:
		head = append(head, maskBit|wsLen16)
		var lb [2]byte
		binary.BigEndian.PutUint16(lb[:], uint16(len(payload)))
		head = append(head, lb[:]...)
	default:
		head = append(head, maskBit|wsLen64)
		var lb [8]byte
		binary.BigEndian.PutUint64(lb[:], uint64(len(payload)))
		head = append(head, lb[:]...)
	}

	if w.isClient {
		var key [4]byte
		if _, err := rand.Read(key[:]); err != nil {
			return errors.Wrap(err, "rsocket: failed to generate WebSocket masking key")
		}
		head = append(head, key[:]...)
		masked := make([]byte, len(payload))
		for i, b := range payload {
			masked[i] = b ^ key[i%4]
		}
		payload = masked
	}

	if _, err := w.rw.Write(head); err != nil {
		return errors.Wrap(err, "rsocket: failed to write WebSocket frame header")
	}
	if len(payload) > 0 {
		if _, err := w.rw.Write(payload); err != nil {
			return errors.Wrap(err, "rsocket: failed to write WebSocket frame payload")
		}
	}
	return nil
}

type wsFrameHeader struct {
	fin     bool
	opcode  wsOpcode
	masked  bool
	length  uint64
	maskKey [4]byte
}

func (w *WebSocket) readFrameHeader() (wsFrameHeader, error) {
	var h wsFrameHeader
	b0, err := w.r.ReadByte()
	if err != nil {
		return h, errors.Wrap(err, "rsocket: failed to read WebSocket frame header")
	}
	h.fin = b0&wsBitFin != 0
	h.opcode = wsOpcode(b0 & 0x0f)

	b1, err := w.r.ReadByte()
	if err != nil {
		return h, errors.Wrap(err, "rsocket: failed to read WebSocket frame header")
	}
	h.masked = b1&wsBitMask != 0
	n := b1 &^ wsBitMask

	switch {
	case n <= wsLen7:
		h.length = uint64(n)
	case n == wsLen16:
		var lb [2]byte
		if _, err := io.ReadFull(w.r, lb[:]); err != nil {
			return h, errors.Wrap(err, "rsocket: failed to read WebSocket extended length")
		}
		h.length = uint64(binary.BigEndian.Uint16(lb[:]))
	case n == wsLen64:
		var lb [8]byte
		if _, err := io.ReadFull(w.r, lb[:]); err != nil {
			return h, errors.Wrap(err, "rsocket: failed to read WebSocket extended length")
		}
		h.length = binary.BigEndian.Uint64(lb[:])
	}

	if h.masked {
		if _, err := io.ReadFull(w.r, h.maskKey[:]); err != nil {
			return h, errors.Wrap(err, "rsocket: failed to read WebSocket masking key")
		}
	}
	return h, nil
}

func (w *WebSocket) readPayload(h wsFrameHeader) ([]byte, error) {
	payload := make([]byte, h.length)
	if h.length > 0 {
		if _, err := io.ReadFull(w.r, payload); err != nil {
			return nil, errors.Wrap(err, "rsocket: failed to read WebSocket frame payload")
		}
	}
	if h.masked {
		for i := range payload {
			payload[i] ^= h.maskKey[i%4]
		}
	}
	return payload, nil
}

// Recv reads one whole logical message, defragmenting continuation frames
// and answering control frames (PING/PONG) transparently, per RFC 6455
// §5.4/§5.5. A CLOSE frame surfaces as an error, same as a plain read
// failure on any other transport.
func (w *WebSocket) Recv(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var msg []byte
	started := false
	for {
		h, err := w.readFrameHeader()
		if err != nil {
			return nil, err
		}
		payload, err := w.readPayload(h)
		if err != nil {
			return nil, err
		}

		switch h.opcode {
		case wsOpPing:
			w.writeMu.Lock()
			err := w.writeFrame(wsOpPong, payload)
			w.writeMu.Unlock()
			if err != nil {
				return nil, err
			}
			continue
		case wsOpPong:
			continue
		case wsOpClose:
			return nil, errors.New("rsocket: peer closed the WebSocket connection")
		case wsOpText, wsOpBinary, wsOpContinuation:
			msg = append(msg, payload...)
			started = true
		}

		if h.fin && started {
			return msg, nil
		}
	}
}

// Close sends a CLOSE control frame carrying code/reason, then closes the
// underlying connection if it also implements io.Closer.
func (w *WebSocket) Close(code, reason string) error {
	text := reason
	if code != "" {
		text = code + ": " + reason
	}
	var payload [2]byte
	binary.BigEndian.PutUint16(payload[:], wsStatusNormalClosure)
	body := append(payload[:], text...)
	if len(body) > wsMaxControlPayload {
		body = body[:wsMaxControlPayload]
	}

	w.writeMu.Lock()
	err := w.writeFrame(wsOpClose, body)
	w.writeMu.Unlock()

	if c, ok := w.rw.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ Transport = (*WebSocket)(nil)
