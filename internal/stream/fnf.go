package stream

// NewFireAndForget creates a fire-and-forget stream, per spec §4.D: the
// requester emits REQUEST_FNF and the stream ends immediately; the
// responder delivers the payload to the application and terminates. No
// further frame is legal on either side except an ERROR the responder may
// choose to send, which the peer is free to ignore — both directions
// start (and stay) closed.
func NewFireAndForget(id uint32, initiator Direction) *Stream {
	return &Stream{
		ID:        id,
		Kind:      KindFireAndForget,
		Initiator: initiator,
		SendState: StateClosed,
		RecvState: StateClosed,
	}
}
