package frame

import "encoding/binary"

// Lease is the LEASE frame: a responder-issued grant of NumberOfRequests
// requests valid until TTL elapses, per spec §4.E/§4.F.
type Lease struct {
	TTLMillis        uint32
	NumberOfRequests uint32
	Metadata         []byte
	HasMetadata      bool
}

func (f *Lease) Header() Header {
	flags := Flags(0)
	if f.HasMetadata {
		flags |= FlagMetadata
	}
	return Header{StreamID: 0, Type: TypeLease, Flags: flags}
}

func (f *Lease) encodeBody(buf []byte) ([]byte, error) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], f.TTLMillis&0x7fffffff)
	buf = append(buf, tmp[:]...)
	binary.BigEndian.PutUint32(tmp[:], f.NumberOfRequests&0x7fffffff)
	buf = append(buf, tmp[:]...)
	return appendMetadataAndData(buf, f.Metadata, f.HasMetadata, nil)
}

func decodeLease(h Header, body []byte) (*Lease, error) {
	if len(body) < 8 {
		return nil, &ProtocolError{Msg: "LEASE frame too short"}
	}
	f := &Lease{
		TTLMillis:        binary.BigEndian.Uint32(body[0:4]) & 0x7fffffff,
		NumberOfRequests: binary.BigEndian.Uint32(body[4:8]) & 0x7fffffff,
		HasMetadata:      h.Flags.Has(FlagMetadata),
	}
	metadata, _, err := splitMetadataAndData(body[8:], f.HasMetadata)
	if err != nil {
		return nil, err
	}
	f.Metadata = metadata
	return f, nil
}
