package rsocket

// Payload is one application-level message: a data blob plus optional
// metadata, the unit every interaction pattern's handler methods exchange.
// It deliberately does not expose frame.Payload's wire concerns (Next,
// Complete, Follows) — those belong to the stream state machines, not to
// application code.
type Payload struct {
	data        []byte
	metadata    []byte
	hasMetadata bool
}

// NewPayload builds a Payload carrying data and no metadata.
func NewPayload(data []byte) Payload {
	return Payload{data: data}
}

// NewPayloadWithMetadata builds a Payload carrying both data and metadata.
func NewPayloadWithMetadata(data, metadata []byte) Payload {
	return Payload{data: data, metadata: metadata, hasMetadata: true}
}

// Data returns the payload's data bytes.
func (p Payload) Data() []byte { return p.data }

// Metadata returns the payload's metadata bytes and whether it has any —
// a present-but-empty metadata section is legal and distinct from absent.
func (p Payload) Metadata() ([]byte, bool) { return p.metadata, p.hasMetadata }
