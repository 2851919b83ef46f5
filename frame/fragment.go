package frame

// Fragmentation splits a frame whose combined metadata+data exceeds a
// negotiated MTU into a head frame followed by zero or more continuation
// PAYLOAD frames, each carrying the FOLLOWS flag except the last. This
// generalizes Jxck-go-spdy's single-frame-per-message model the way the
// RSocket wire protocol extends it: any request-*, PAYLOAD, or
// METADATA_PUSH frame can be a fragmentation head, but every continuation
// is always a PAYLOAD frame regardless of the head's type.
//
// Reassembly is the mirror operation and lives on the stream side (see
// internal/stream), since a stream's reassembly buffer must survive across
// many separate Decode calls; the Reassembler type here is the piece that
// accumulates and bounds that buffer.

// rawFrame is a Frame whose body bytes were already fully assembled, used
// to emit fragments without round-tripping through each concrete frame
// type's field-by-field encoder.
type rawFrame struct {
	h    Header
	body []byte
}

func (f *rawFrame) Header() Header { return f.h }

func (f *rawFrame) encodeBody(buf []byte) ([]byte, error) { return append(buf, f.body...), nil }

// Fragmenter splits oversized frame payloads across multiple wire frames.
type Fragmenter struct {
	// MTU is the maximum encoded frame size, header included. A value of 0
	// disables fragmentation (Split returns the head frame unmodified).
	MTU int
}

// Split produces one or more frames carrying metadata (if hasMetadata) and
// data, all addressed to streamID. headType is the wire type of the first
// frame; every continuation is a PAYLOAD frame. fixedPrefix holds any bytes
// that must precede the metadata/data in the head frame only (e.g. a
// REQUEST_STREAM's initial-N word, or SETUP's version/keepalive/MIME
// fields) — fixedPrefix is never split across fragments, so mtu must be
// large enough to hold headerLen+len(fixedPrefix)+minimal metadata-length
// overhead or Split returns a ProtocolError.
// finalFlags are ORed onto the last frame only (e.g. Payload's Next/
// Complete); every non-last frame gets FlagFollows.
func (fr Fragmenter) Split(streamID uint32, headType Type, fixedPrefix []byte, metadata []byte, hasMetadata bool, data []byte, finalFlags Flags) ([]Frame, error) {
	if fr.MTU <= 0 {
		return []Frame{fr.wholeFrame(streamID, headType, fixedPrefix, metadata, hasMetadata, data, finalFlags)}, nil
	}

	budget := fr.MTU - headerLen - len(fixedPrefix)
	if hasMetadata {
		budget -= 3 // metadata length prefix
	}
	if budget <= 0 {
		return nil, &ProtocolError{Msg: "mtu too small to hold fixed frame prefix", StreamID: streamID}
	}

	type chunk struct {
		metadata    []byte
		hasMetadata bool
		data        []byte
	}
	var chunks []chunk
	mRemain, dRemain := metadata, data
	first := true
	for first || len(mRemain) > 0 || len(dRemain) > 0 {
		first = false
		room := fr.MTU - headerLen
		if len(chunks) == 0 {
			room -= len(fixedPrefix)
		}
		var cm, cd []byte
		chm := hasMetadata && len(mRemain) > 0
		if chm {
			room -= 3
		}
		if room < 0 {
			room = 0
		}
		if len(mRemain) > 0 {
			n := min(room, len(mRemain))
			cm, mRemain = mRemain[:n], mRemain[n:]
			room -= n
		}
		if room > 0 && len(dRemain) > 0 {
			n := min(room, len(dRemain))
			cd, dRemain = dRemain[:n], dRemain[n:]
		}
		chunks = append(chunks, chunk{metadata: cm, hasMetadata: chm, data: cd})
		if len(mRemain) == 0 && len(dRemain) == 0 {
			break
		}
	}

	frames := make([]Frame, 0, len(chunks))
	for i, c := range chunks {
		last := i == len(chunks)-1
		var flags Flags
		var t Type
		var prefix []byte
		if i == 0 {
			t = headType
			prefix = fixedPrefix
		} else {
			t = TypePayload
		}
		if !last {
			flags |= FlagFollows
		} else {
			flags |= finalFlags
		}
		if c.hasMetadata {
			flags |= FlagMetadata
		}
		body, err := appendMetadataAndData(append([]byte(nil), prefix...), c.metadata, c.hasMetadata, c.data)
		if err != nil {
			return nil, err
		}
		frames = append(frames, &rawFrame{h: Header{StreamID: streamID, Type: t, Flags: flags}, body: body})
	}
	return frames, nil
}

func (fr Fragmenter) wholeFrame(streamID uint32, headType Type, fixedPrefix []byte, metadata []byte, hasMetadata bool, data []byte, finalFlags Flags) Frame {
	flags := finalFlags
	if hasMetadata {
		flags |= FlagMetadata
	}
	body, _ := appendMetadataAndData(append([]byte(nil), fixedPrefix...), metadata, hasMetadata, data)
	return &rawFrame{h: Header{StreamID: streamID, Type: headType, Flags: flags}, body: body}
}

// Reassembler accumulates fragmented metadata/data for one stream until a
// frame without FlagFollows arrives, bounding total buffered bytes at Max.
type Reassembler struct {
	Max int

	metadata []byte
	data     []byte
	size     int
	active   bool
}

// Add appends one fragment's metadata and data. more reports whether the
// fragment carried FlagFollows (more fragments to come). When more is
// false, Add returns the fully reassembled metadata and data and resets
// the reassembler for the next logical frame.
func (r *Reassembler) Add(metadata, data []byte, more bool) (outMetadata, outData []byte, done bool, err error) {
	r.active = true
	r.size += len(metadata) + len(data)
	if r.Max > 0 && r.size > r.Max {
		r.reset()
		return nil, nil, false, &ProtocolError{Msg: "reassembly buffer exceeded configured limit"}
	}
	if len(metadata) > 0 {
		r.metadata = append(r.metadata, metadata...)
	}
	if len(data) > 0 {
		r.data = append(r.data, data...)
	}
	if more {
		return nil, nil, false, nil
	}
	outMetadata, outData = r.metadata, r.data
	r.reset()
	return outMetadata, outData, true, nil
}

// Pending reports whether a fragmented frame is currently being reassembled.
func (r *Reassembler) Pending() bool { return r.active }

func (r *Reassembler) reset() {
	r.metadata = nil
	r.data = nil
	r.size = 0
	r.active = false
}
