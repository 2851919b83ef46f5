package frame

import "encoding/binary"

// ErrorFrame is the ERROR frame: StreamID 0 for connection-level errors,
// otherwise a stream-level error, per spec §4.A/§7.
type ErrorFrame struct {
	StreamID uint32
	Code     ErrorCode
	Data     []byte
}

func (f *ErrorFrame) Header() Header { return Header{StreamID: f.StreamID, Type: TypeError} }

func (f *ErrorFrame) encodeBody(buf []byte) ([]byte, error) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(f.Code))
	buf = append(buf, tmp[:]...)
	return append(buf, f.Data...), nil
}

func decodeErrorFrame(h Header, body []byte) (*ErrorFrame, error) {
	if len(body) < 4 {
		return nil, &ProtocolError{Msg: "ERROR frame too short", StreamID: h.StreamID}
	}
	return &ErrorFrame{
		StreamID: h.StreamID,
		Code:     ErrorCode(binary.BigEndian.Uint32(body[0:4])),
		Data:     body[4:],
	}, nil
}

// Error implements the error interface so an ErrorFrame can be returned and
// inspected by application code directly (e.g. via errors.As).
func (f *ErrorFrame) Error() string {
	return "rsocket: " + f.Code.String()
}
