package frame

import "encoding/binary"

// Resume and ResumeOK are decodable for wire compatibility with peers that
// attempt the resume extension, but this implementation never initiates
// resume and always answers a RESUME with ERROR(REJECTED_RESUME); see
// internal/conn and the Open Question decision in DESIGN.md.

// Resume is the RESUME frame.
type Resume struct {
	MajorVersion, MinorVersion uint16
	ResumeToken                []byte
	LastReceivedServerPosition uint64
	FirstAvailableClientPosition uint64
}

func (f *Resume) Header() Header { return Header{StreamID: 0, Type: TypeResume} }

func (f *Resume) encodeBody(buf []byte) ([]byte, error) {
	var tmp [8]byte
	binary.BigEndian.PutUint16(tmp[0:2], f.MajorVersion)
	binary.BigEndian.PutUint16(tmp[2:4], f.MinorVersion)
	buf = append(buf, tmp[0:4]...)
	var lb [2]byte
	binary.BigEndian.PutUint16(lb[:], uint16(len(f.ResumeToken)))
	buf = append(buf, lb[:]...)
	buf = append(buf, f.ResumeToken...)
	binary.BigEndian.PutUint64(tmp[:], f.LastReceivedServerPosition)
	buf = append(buf, tmp[:]...)
	binary.BigEndian.PutUint64(tmp[:], f.FirstAvailableClientPosition)
	buf = append(buf, tmp[:]...)
	return buf, nil
}

func decodeResume(_ Header, body []byte) (*Resume, error) {
	if len(body) < 4+2 {
		return nil, &ProtocolError{Msg: "RESUME frame too short"}
	}
	f := &Resume{
		MajorVersion: binary.BigEndian.Uint16(body[0:2]),
		MinorVersion: binary.BigEndian.Uint16(body[2:4]),
	}
	n := int(binary.BigEndian.Uint16(body[4:6]))
	rest := body[6:]
	if len(rest) < n+16 {
		return nil, &ProtocolError{Msg: "truncated RESUME frame"}
	}
	f.ResumeToken = append([]byte(nil), rest[:n]...)
	rest = rest[n:]
	f.LastReceivedServerPosition = binary.BigEndian.Uint64(rest[0:8])
	f.FirstAvailableClientPosition = binary.BigEndian.Uint64(rest[8:16])
	return f, nil
}

// ResumeOK is the RESUME_OK frame.
type ResumeOK struct {
	LastReceivedClientPosition uint64
}

func (f *ResumeOK) Header() Header { return Header{StreamID: 0, Type: TypeResumeOK} }

func (f *ResumeOK) encodeBody(buf []byte) ([]byte, error) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], f.LastReceivedClientPosition)
	return append(buf, tmp[:]...), nil
}

func decodeResumeOK(_ Header, body []byte) (*ResumeOK, error) {
	if len(body) < 8 {
		return nil, &ProtocolError{Msg: "RESUME_OK frame too short"}
	}
	return &ResumeOK{LastReceivedClientPosition: binary.BigEndian.Uint64(body[0:8])}, nil
}
