package frame

import (
	"encoding/binary"
	"time"
)

// Setup is the SETUP frame: the first frame a client sends on a connection,
// per spec §4.E.
type Setup struct {
	StreamID uint32 // always 0

	MajorVersion, MinorVersion uint16
	KeepaliveInterval          time.Duration
	MaxLifetime                time.Duration
	HonorsLease                bool

	ResumeToken []byte // nil if resume is not used

	MetadataMIME, DataMIME string

	Metadata    []byte
	HasMetadata bool
	Data        []byte
}

// Header implements Frame.
func (f *Setup) Header() Header {
	flags := Flags(0)
	if f.HasMetadata {
		flags |= FlagMetadata
	}
	if f.HonorsLease {
		flags |= FlagLease
	}
	if f.ResumeToken != nil {
		flags |= FlagResumeSet
	}
	return Header{StreamID: f.StreamID, Type: TypeSetup, Flags: flags}
}

func (f *Setup) encodeBody(buf []byte) ([]byte, error) {
	var tmp [4]byte
	binary.BigEndian.PutUint16(tmp[0:2], f.MajorVersion)
	binary.BigEndian.PutUint16(tmp[2:4], f.MinorVersion)
	buf = append(buf, tmp[:]...)

	binary.BigEndian.PutUint32(tmp[:], uint32(f.KeepaliveInterval/time.Millisecond)&0x7fffffff)
	buf = append(buf, tmp[:]...)
	binary.BigEndian.PutUint32(tmp[:], uint32(f.MaxLifetime/time.Millisecond)&0x7fffffff)
	buf = append(buf, tmp[:]...)

	if f.ResumeToken != nil {
		if len(f.ResumeToken) > 0xffff {
			return nil, &ProtocolError{Msg: "resume token too long"}
		}
		var lb [2]byte
		binary.BigEndian.PutUint16(lb[:], uint16(len(f.ResumeToken)))
		buf = append(buf, lb[:]...)
		buf = append(buf, f.ResumeToken...)
	}

	if len(f.MetadataMIME) > 0xff || len(f.DataMIME) > 0xff {
		return nil, &ProtocolError{Msg: "MIME type string too long"}
	}
	buf = append(buf, byte(len(f.MetadataMIME)))
	buf = append(buf, f.MetadataMIME...)
	buf = append(buf, byte(len(f.DataMIME)))
	buf = append(buf, f.DataMIME...)

	return appendMetadataAndData(buf, f.Metadata, f.HasMetadata, f.Data)
}

func decodeSetup(h Header, body []byte) (*Setup, error) {
	if len(body) < 12 {
		return nil, &ProtocolError{Msg: "SETUP frame too short"}
	}
	f := &Setup{
		StreamID:     h.StreamID,
		MajorVersion: binary.BigEndian.Uint16(body[0:2]),
		MinorVersion: binary.BigEndian.Uint16(body[2:4]),
		HonorsLease:  h.Flags.Has(FlagLease),
		HasMetadata:  h.Flags.Has(FlagMetadata),
	}
	f.KeepaliveInterval = time.Duration(binary.BigEndian.Uint32(body[4:8])&0x7fffffff) * time.Millisecond
	f.MaxLifetime = time.Duration(binary.BigEndian.Uint32(body[8:12])&0x7fffffff) * time.Millisecond
	rest := body[12:]

	if h.Flags.Has(FlagResumeSet) {
		if len(rest) < 2 {
			return nil, &ProtocolError{Msg: "truncated resume token length"}
		}
		n := int(binary.BigEndian.Uint16(rest[0:2]))
		rest = rest[2:]
		if len(rest) < n {
			return nil, &ProtocolError{Msg: "truncated resume token"}
		}
		f.ResumeToken = append([]byte(nil), rest[:n]...)
		rest = rest[n:]
	}

	if len(rest) < 1 {
		return nil, &ProtocolError{Msg: "truncated metadata MIME length"}
	}
	n := int(rest[0])
	rest = rest[1:]
	if len(rest) < n {
		return nil, &ProtocolError{Msg: "truncated metadata MIME"}
	}
	f.MetadataMIME = string(rest[:n])
	rest = rest[n:]

	if len(rest) < 1 {
		return nil, &ProtocolError{Msg: "truncated data MIME length"}
	}
	n = int(rest[0])
	rest = rest[1:]
	if len(rest) < n {
		return nil, &ProtocolError{Msg: "truncated data MIME"}
	}
	f.DataMIME = string(rest[:n])
	rest = rest[n:]

	metadata, data, err := splitMetadataAndData(rest, f.HasMetadata)
	if err != nil {
		return nil, err
	}
	f.Metadata, f.Data = metadata, data
	return f, nil
}
