package frame

// Payload is the PAYLOAD frame. Legal flag combinations for a fully
// reassembled logical frame, per spec §4.A:
//
//	Next=true,  Complete=false -> intermediate value
//	Next=true,  Complete=true  -> last value, then complete
//	Next=false, Complete=true  -> complete with no value
//	Next=false, Complete=false -> illegal
//
// The codec does not enforce this: a wire-level fragment carries FOLLOWS
// and may legitimately have both N and C clear until the terminal fragment
// of the sequence. The rsocket package's PAYLOAD handling (dispatch.go)
// enforces the rule once a frame (or fragment sequence) is fully
// reassembled.
type Payload struct {
	StreamID    uint32
	Next        bool
	Complete    bool
	Follows     bool // fragmentation: more fragments follow this one
	Metadata    []byte
	HasMetadata bool
	Data        []byte
}

func (f *Payload) Header() Header {
	flags := Flags(0)
	if f.HasMetadata {
		flags |= FlagMetadata
	}
	if f.Follows {
		flags |= FlagFollows
	}
	if f.Complete {
		flags |= FlagComplete
	}
	if f.Next {
		flags |= FlagNext
	}
	return Header{StreamID: f.StreamID, Type: TypePayload, Flags: flags}
}

func (f *Payload) encodeBody(buf []byte) ([]byte, error) {
	return appendMetadataAndData(buf, f.Metadata, f.HasMetadata, f.Data)
}

func decodePayload(h Header, body []byte) (*Payload, error) {
	next := h.Flags.Has(FlagNext)
	complete := h.Flags.Has(FlagComplete)
	follows := h.Flags.Has(FlagFollows)
	f := &Payload{
		StreamID:    h.StreamID,
		Next:        next,
		Complete:    complete,
		Follows:     follows,
		HasMetadata: h.Flags.Has(FlagMetadata),
	}
	metadata, data, err := splitMetadataAndData(body, f.HasMetadata)
	if err != nil {
		return nil, err
	}
	f.Metadata, f.Data = metadata, data
	return f, nil
}
