package frame

// Decode parses one frame from buf, which must contain exactly the bytes of
// a single whole frame (the transport layer is responsible for delimiting
// frames — see transport.Transport — so this codec never needs to buffer
// across calls in practice, but still reports ErrNeedMore rather than
// panicking if handed a short buffer, for callers that feed it raw,
// undelimited bytes).
//
// This mirrors Jxck-go-spdy's Framer.ReadFrame: read the header, look up a
// constructor for the frame type, delegate body parsing to it.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < headerLen {
		return nil, ErrNeedMore
	}
	h, err := parseHeader(buf[:headerLen])
	if err != nil {
		return nil, err
	}
	body := buf[headerLen:]
	return decodeBody(h, body)
}

func decodeBody(h Header, body []byte) (Frame, error) {
	switch h.Type {
	case TypeSetup:
		return decodeSetup(h, body)
	case TypeLease:
		return decodeLease(h, body)
	case TypeKeepalive:
		return decodeKeepalive(h, body)
	case TypeRequestResponse:
		return decodeRequestResponse(h, body)
	case TypeRequestFNF:
		return decodeRequestFNF(h, body)
	case TypeRequestStream:
		return decodeRequestStream(h, body)
	case TypeRequestChannel:
		return decodeRequestChannel(h, body)
	case TypeRequestN:
		return decodeRequestN(h, body)
	case TypeCancel:
		return decodeCancel(h, body)
	case TypePayload:
		return decodePayload(h, body)
	case TypeError:
		return decodeErrorFrame(h, body)
	case TypeMetadataPush:
		return decodeMetadataPush(h, body)
	case TypeResume:
		return decodeResume(h, body)
	case TypeResumeOK:
		return decodeResumeOK(h, body)
	default:
		if h.Flags.Has(FlagIgnore) {
			return &Unknown{HeaderValue: h, Body: append([]byte(nil), body...)}, nil
		}
		return nil, &ProtocolError{Msg: "unknown frame type " + h.Type.String(), StreamID: h.StreamID}
	}
}

// Unknown represents any frame type this codec does not recognize but whose
// sender marked FlagIgnore, per spec §3 ("ignore" flag is type-dependent but
// always means "unknown frames of this type may be dropped").
type Unknown struct {
	HeaderValue Header
	Body        []byte
}

func (f *Unknown) Header() Header { return f.HeaderValue }

func (f *Unknown) encodeBody(buf []byte) ([]byte, error) { return append(buf, f.Body...), nil }

// Encode serializes f to its wire representation.
func Encode(f Frame) ([]byte, error) {
	h := f.Header()
	buf := make([]byte, 0, headerLen+32)
	buf, err := appendHeader(buf, h)
	if err != nil {
		return nil, err
	}
	return f.encodeBody(buf)
}

func appendHeader(buf []byte, h Header) ([]byte, error) {
	if h.StreamID > MaxStreamID {
		return nil, &ProtocolError{Msg: "stream id exceeds 31 bits"}
	}
	var tmp [headerLen]byte
	tmp[0] = byte(h.StreamID >> 24)
	tmp[1] = byte(h.StreamID >> 16)
	tmp[2] = byte(h.StreamID >> 8)
	tmp[3] = byte(h.StreamID)
	typeFlags := (uint16(h.Type) << 10) | (uint16(h.Flags) & 0x03ff)
	tmp[4] = byte(typeFlags >> 8)
	tmp[5] = byte(typeFlags)
	return append(buf, tmp[:]...), nil
}

// parseHeader decodes Header's bit layout directly off an in-memory slice,
// since Decode is handed one whole frame at a time rather than an
// io.Reader (see transport.Transport, which owns frame delimiting).
func parseHeader(buf []byte) (Header, error) {
	streamWord := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	if streamWord&0x80000000 != 0 {
		return Header{}, &ProtocolError{Msg: "reserved header bit set"}
	}
	typeFlags := uint16(buf[4])<<8 | uint16(buf[5])
	return Header{
		StreamID: streamWord & 0x7fffffff,
		Type:     Type(typeFlags >> 10),
		Flags:    Flags(typeFlags & 0x03ff),
	}, nil
}
