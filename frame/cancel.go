package frame

// Cancel is the CANCEL frame: the requester asking the responder to stop
// emitting on a stream.
type Cancel struct {
	StreamID uint32
}

func (f *Cancel) Header() Header { return Header{StreamID: f.StreamID, Type: TypeCancel} }

func (f *Cancel) encodeBody(buf []byte) ([]byte, error) { return buf, nil }

func decodeCancel(h Header, _ []byte) (*Cancel, error) {
	return &Cancel{StreamID: h.StreamID}, nil
}
