package rsocket

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrRejected distinguishes "I decline to serve this" from an application
// failure: a RequestHandler that returns it (or whose Source.Poll returns
// it) gets answered with ERROR(REJECTED) instead of ERROR(APPLICATION_ERROR),
// per spec §7's error taxonomy.
var ErrRejected = errors.New("rsocket: request rejected by responder")

// PollKind classifies one Source.Poll result.
type PollKind uint8

const (
	PollPending PollKind = iota
	PollValue
	PollComplete
	PollError
)

// PollResult is exactly one of Pending, Value, Complete, or Error, per
// spec §9's pull-based source/sink model: "request(n) grants credit;
// poll() returns Value(v), Complete, Error(e), or Pending".
type PollResult struct {
	Kind  PollKind
	Value Payload
	Err   error
}

// PollPendingResult reports that no value is ready yet despite outstanding
// credit; the caller should poll again later.
func PollPendingResult() PollResult { return PollResult{Kind: PollPending} }

// PollValueResult reports one value, consuming one unit of credit.
func PollValueResult(p Payload) PollResult { return PollResult{Kind: PollValue, Value: p} }

// PollCompleteResult reports that the source has no more values to produce.
func PollCompleteResult() PollResult { return PollResult{Kind: PollComplete} }

// PollErrorResult reports that the source failed; terminal, like Complete.
func PollErrorResult(err error) PollResult { return PollResult{Kind: PollError, Err: err} }

// Source is a pull-based, backpressured sequence of payloads: the shape
// both RequestStream and RequestChannel traffic in, on whichever side is
// producing values. Request(n) grants this source credit to produce up to
// n more values; Poll returns the next one without blocking, or Pending if
// none is ready despite available credit. A Source must never hand back
// more Values than it has been granted credit for via Request.
type Source interface {
	Request(n int)
	Poll() PollResult
}

// rejectedSource is the Source UnimplementedHandler hands back for
// patterns it does not serve: it answers the very first Poll with
// ErrRejected, regardless of how much credit Request grants.
type rejectedSource struct{}

func (rejectedSource) Request(int) {}

func (rejectedSource) Poll() PollResult { return PollErrorResult(ErrRejected) }

// chanSource adapts a plain Go channel pair into a Source, for handlers
// that would rather produce values from a goroutine than implement Poll's
// bookkeeping directly. Close values to signal completion; send at most
// one non-nil error on errs to signal failure instead. Neither channel's
// production pace is gated by Request — Request only gates how many of the
// values already sitting in the channel Poll is willing to release.
type chanSource struct {
	values <-chan Payload
	errs   <-chan error
	credit int64
	done   bool
}

// NewChannelSource builds a Source backed by values and errs.
func NewChannelSource(values <-chan Payload, errs <-chan error) Source {
	return &chanSource{values: values, errs: errs}
}

func (s *chanSource) Request(n int) {
	if n > 0 {
		atomic.AddInt64(&s.credit, int64(n))
	}
}

func (s *chanSource) Poll() PollResult {
	if s.done {
		return PollCompleteResult()
	}
	select {
	case err, ok := <-s.errs:
		if ok && err != nil {
			s.done = true
			return PollErrorResult(err)
		}
	default:
	}
	if atomic.LoadInt64(&s.credit) <= 0 {
		return PollPendingResult()
	}
	select {
	case v, ok := <-s.values:
		if !ok {
			s.done = true
			return PollCompleteResult()
		}
		atomic.AddInt64(&s.credit, -1)
		return PollValueResult(v)
	default:
		return PollPendingResult()
	}
}

// RequestHandler answers requests the peer initiates on a connection.
// Every method defaults to rejecting, via UnimplementedHandler, so a
// responder only needs to implement the interaction patterns it actually
// serves; unimplemented patterns answer ERROR(REJECTED), per spec §9.
type RequestHandler interface {
	// FireAndForget delivers payload to the application. There is no
	// response frame to send, successful or not; errors are the
	// application's own problem to log.
	FireAndForget(ctx context.Context, payload Payload)

	// RequestResponse answers a single request with a single response, or
	// an error to answer with ERROR instead.
	RequestResponse(ctx context.Context, payload Payload) (Payload, error)

	// RequestStream answers a request with a Source of zero or more
	// response values, this side acting purely as producer.
	RequestStream(ctx context.Context, payload Payload) Source

	// RequestChannel answers a request with a Source of this side's own
	// outbound values, given inbound, a Source over the values the peer is
	// sending on the same stream.
	RequestChannel(ctx context.Context, payload Payload, inbound Source) Source

	// MetadataPush delivers a connection-level metadata frame. There is no
	// response, no stream, and no per-stream state at all.
	MetadataPush(ctx context.Context, metadata []byte)
}

// UnimplementedHandler answers every pattern with ERROR(REJECTED) (or does
// nothing, for the two patterns that have no response frame). Embed it in
// a handler struct that only implements a subset of the five methods.
type UnimplementedHandler struct{}

func (UnimplementedHandler) FireAndForget(context.Context, Payload) {}

func (UnimplementedHandler) RequestResponse(context.Context, Payload) (Payload, error) {
	return Payload{}, ErrRejected
}

func (UnimplementedHandler) RequestStream(context.Context, Payload) Source {
	return rejectedSource{}
}

func (UnimplementedHandler) RequestChannel(context.Context, Payload, Source) Source {
	return rejectedSource{}
}

func (UnimplementedHandler) MetadataPush(context.Context, []byte) {}

var _ RequestHandler = UnimplementedHandler{}
