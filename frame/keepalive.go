package frame

import "encoding/binary"

// Keepalive is the KEEPALIVE frame. Respond indicates the R flag: when set,
// the peer must echo back a KEEPALIVE with Respond cleared, per spec §4.E.
type Keepalive struct {
	Respond            bool
	LastReceivedPosition uint64 // resume position; 0 when resume is unused
	Data                 []byte
}

func (f *Keepalive) Header() Header {
	flags := Flags(0)
	if f.Respond {
		flags |= FlagRespond
	}
	return Header{StreamID: 0, Type: TypeKeepalive, Flags: flags}
}

func (f *Keepalive) encodeBody(buf []byte) ([]byte, error) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], f.LastReceivedPosition&0x7fffffffffffffff)
	buf = append(buf, tmp[:]...)
	buf = append(buf, f.Data...)
	return buf, nil
}

func decodeKeepalive(h Header, body []byte) (*Keepalive, error) {
	if len(body) < 8 {
		return nil, &ProtocolError{Msg: "KEEPALIVE frame too short"}
	}
	return &Keepalive{
		Respond:              h.Flags.Has(FlagRespond),
		LastReceivedPosition: binary.BigEndian.Uint64(body[0:8]) & 0x7fffffffffffffff,
		Data:                 body[8:],
	}, nil
}
