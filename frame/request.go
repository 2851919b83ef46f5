package frame

import "encoding/binary"

// RequestResponse is the REQUEST_RESPONSE frame.
type RequestResponse struct {
	StreamID    uint32
	Metadata    []byte
	HasMetadata bool
	Data        []byte
}

func (f *RequestResponse) Header() Header {
	flags := Flags(0)
	if f.HasMetadata {
		flags |= FlagMetadata
	}
	return Header{StreamID: f.StreamID, Type: TypeRequestResponse, Flags: flags}
}

func (f *RequestResponse) encodeBody(buf []byte) ([]byte, error) {
	return appendMetadataAndData(buf, f.Metadata, f.HasMetadata, f.Data)
}

func decodeRequestResponse(h Header, body []byte) (*RequestResponse, error) {
	f := &RequestResponse{StreamID: h.StreamID, HasMetadata: h.Flags.Has(FlagMetadata)}
	metadata, data, err := splitMetadataAndData(body, f.HasMetadata)
	if err != nil {
		return nil, err
	}
	f.Metadata, f.Data = metadata, data
	return f, nil
}

// RequestFNF is the REQUEST_FNF (fire-and-forget) frame.
type RequestFNF struct {
	StreamID    uint32
	Metadata    []byte
	HasMetadata bool
	Data        []byte
}

func (f *RequestFNF) Header() Header {
	flags := Flags(0)
	if f.HasMetadata {
		flags |= FlagMetadata
	}
	return Header{StreamID: f.StreamID, Type: TypeRequestFNF, Flags: flags}
}

func (f *RequestFNF) encodeBody(buf []byte) ([]byte, error) {
	return appendMetadataAndData(buf, f.Metadata, f.HasMetadata, f.Data)
}

func decodeRequestFNF(h Header, body []byte) (*RequestFNF, error) {
	f := &RequestFNF{StreamID: h.StreamID, HasMetadata: h.Flags.Has(FlagMetadata)}
	metadata, data, err := splitMetadataAndData(body, f.HasMetadata)
	if err != nil {
		return nil, err
	}
	f.Metadata, f.Data = metadata, data
	return f, nil
}

// RequestStream is the REQUEST_STREAM frame: a request plus the initial
// request-N credit the requester grants the responder.
type RequestStream struct {
	StreamID    uint32
	InitialN    uint32
	Metadata    []byte
	HasMetadata bool
	Data        []byte
}

func (f *RequestStream) Header() Header {
	flags := Flags(0)
	if f.HasMetadata {
		flags |= FlagMetadata
	}
	return Header{StreamID: f.StreamID, Type: TypeRequestStream, Flags: flags}
}

func (f *RequestStream) encodeBody(buf []byte) ([]byte, error) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], f.InitialN&0x7fffffff)
	buf = append(buf, tmp[:]...)
	return appendMetadataAndData(buf, f.Metadata, f.HasMetadata, f.Data)
}

func decodeRequestStream(h Header, body []byte) (*RequestStream, error) {
	if len(body) < 4 {
		return nil, &ProtocolError{Msg: "REQUEST_STREAM frame too short", StreamID: h.StreamID}
	}
	f := &RequestStream{
		StreamID:    h.StreamID,
		InitialN:    binary.BigEndian.Uint32(body[0:4]) & 0x7fffffff,
		HasMetadata: h.Flags.Has(FlagMetadata),
	}
	metadata, data, err := splitMetadataAndData(body[4:], f.HasMetadata)
	if err != nil {
		return nil, err
	}
	f.Metadata, f.Data = metadata, data
	return f, nil
}

// RequestChannel is the REQUEST_CHANNEL frame: a request plus the initial
// request-N credit, carrying the requester's first outbound payload too.
type RequestChannel struct {
	StreamID    uint32
	InitialN    uint32
	Complete    bool // requester's outbound direction is already done
	Metadata    []byte
	HasMetadata bool
	Data        []byte
}

func (f *RequestChannel) Header() Header {
	flags := Flags(0)
	if f.HasMetadata {
		flags |= FlagMetadata
	}
	if f.Complete {
		flags |= FlagComplete
	}
	return Header{StreamID: f.StreamID, Type: TypeRequestChannel, Flags: flags}
}

func (f *RequestChannel) encodeBody(buf []byte) ([]byte, error) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], f.InitialN&0x7fffffff)
	buf = append(buf, tmp[:]...)
	return appendMetadataAndData(buf, f.Metadata, f.HasMetadata, f.Data)
}

func decodeRequestChannel(h Header, body []byte) (*RequestChannel, error) {
	if len(body) < 4 {
		return nil, &ProtocolError{Msg: "REQUEST_CHANNEL frame too short", StreamID: h.StreamID}
	}
	f := &RequestChannel{
		StreamID:    h.StreamID,
		InitialN:    binary.BigEndian.Uint32(body[0:4]) & 0x7fffffff,
		Complete:    h.Flags.Has(FlagComplete),
		HasMetadata: h.Flags.Has(FlagMetadata),
	}
	metadata, data, err := splitMetadataAndData(body[4:], f.HasMetadata)
	if err != nil {
		return nil, err
	}
	f.Metadata, f.Data = metadata, data
	return f, nil
}

// RequestN is the REQUEST_N frame: additional credit granted mid-stream.
type RequestN struct {
	StreamID uint32
	N        uint32
}

func (f *RequestN) Header() Header {
	return Header{StreamID: f.StreamID, Type: TypeRequestN}
}

func (f *RequestN) encodeBody(buf []byte) ([]byte, error) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], f.N&0x7fffffff)
	return append(buf, tmp[:]...), nil
}

func decodeRequestN(h Header, body []byte) (*RequestN, error) {
	if len(body) < 4 {
		return nil, &ProtocolError{Msg: "REQUEST_N frame too short", StreamID: h.StreamID}
	}
	return &RequestN{
		StreamID: h.StreamID,
		N:        binary.BigEndian.Uint32(body[0:4]) & 0x7fffffff,
	}, nil
}
