// Package frame implements the RSocket 1.0 wire codec: parsing and
// serializing every frame type defined by the protocol, plus the
// fragmentation/reassembly helpers built on top of it.
//
// The codec is stateless across frames (see Decode/Encode in codec.go);
// fragmentation state belongs to the caller (internal/stream keeps one
// Reassembler per stream).
package frame

import "fmt"

// Type is the 6-bit frame type field carried in every frame header.
type Type uint8

// Frame type constants, matching the RSocket 1.0 wire specification.
const (
	TypeReserved         Type = 0x00
	TypeSetup            Type = 0x01
	TypeLease            Type = 0x02
	TypeKeepalive        Type = 0x03
	TypeRequestResponse  Type = 0x04
	TypeRequestFNF       Type = 0x05
	TypeRequestStream    Type = 0x06
	TypeRequestChannel   Type = 0x07
	TypeRequestN         Type = 0x08
	TypeCancel           Type = 0x09
	TypePayload          Type = 0x0A
	TypeError            Type = 0x0B
	TypeMetadataPush     Type = 0x0C
	TypeResume           Type = 0x0D
	TypeResumeOK         Type = 0x0E
	TypeExt              Type = 0x3F
)

var typeNames = map[Type]string{
	TypeSetup:           "SETUP",
	TypeLease:           "LEASE",
	TypeKeepalive:       "KEEPALIVE",
	TypeRequestResponse: "REQUEST_RESPONSE",
	TypeRequestFNF:      "REQUEST_FNF",
	TypeRequestStream:   "REQUEST_STREAM",
	TypeRequestChannel:  "REQUEST_CHANNEL",
	TypeRequestN:        "REQUEST_N",
	TypeCancel:          "CANCEL",
	TypePayload:         "PAYLOAD",
	TypeError:           "ERROR",
	TypeMetadataPush:    "METADATA_PUSH",
	TypeResume:          "RESUME",
	TypeResumeOK:        "RESUME_OK",
	TypeExt:             "EXT",
}

// String returns the frame type's wire name, or its numeric value if unknown.
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(t))
}

// Flags is the 10-bit flag field carried in every frame header. The meaning
// of each bit is frame-type dependent; constants below name the bit
// positions actually used by this implementation.
type Flags uint16

// Flag bit positions, shared across frame types that use them.
const (
	FlagIgnore    Flags = 1 << 9 // (I) unknown frame may be ignored rather than erroring
	FlagMetadata  Flags = 1 << 8 // (M) metadata is present
	FlagFollows   Flags = 1 << 7 // (F) fragmentation: more fragments follow
	FlagComplete  Flags = 1 << 6 // (C) PAYLOAD: stream complete
	FlagNext      Flags = 1 << 5 // (N) PAYLOAD: a value follows
	FlagRespond   Flags = 1 << 7 // (R) KEEPALIVE: peer must echo
	FlagLease     Flags = 1 << 6 // (L) SETUP: honors lease
	FlagResumeSet Flags = 1 << 7 // (R) SETUP: resume token present
)

// Has reports whether all bits in want are set.
func (f Flags) Has(want Flags) bool { return f&want == want }

// ErrorCode is the 32-bit code carried in an ERROR frame.
type ErrorCode uint32

// Error codes fixed by the RSocket wire specification.
const (
	ErrInvalidSetup     ErrorCode = 0x00000001
	ErrUnsupportedSetup ErrorCode = 0x00000002
	ErrRejectedSetup    ErrorCode = 0x00000003
	ErrRejectedResume   ErrorCode = 0x00000004
	ErrConnectionError  ErrorCode = 0x00000101
	ErrConnectionClose  ErrorCode = 0x00000102
	ErrApplicationError ErrorCode = 0x00000201
	ErrRejected         ErrorCode = 0x00000202
	ErrCanceled         ErrorCode = 0x00000203
	ErrInvalid          ErrorCode = 0x00000204

	errCodeReservedMin ErrorCode = 0x00000301
	errCodeReservedMax ErrorCode = 0xFFFFFFFE
)

var errCodeNames = map[ErrorCode]string{
	ErrInvalidSetup:     "INVALID_SETUP",
	ErrUnsupportedSetup: "UNSUPPORTED_SETUP",
	ErrRejectedSetup:    "REJECTED_SETUP",
	ErrRejectedResume:   "REJECTED_RESUME",
	ErrConnectionError:  "CONNECTION_ERROR",
	ErrConnectionClose:  "CONNECTION_CLOSE",
	ErrApplicationError: "APPLICATION_ERROR",
	ErrRejected:         "REJECTED",
	ErrCanceled:         "CANCELED",
	ErrInvalid:          "INVALID",
}

func (c ErrorCode) String() string {
	if s, ok := errCodeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(0x%08x)", uint32(c))
}

// MaxStreamID is the largest legal 31-bit stream id.
const MaxStreamID = 1<<31 - 1

// MaxMetadataLength is the largest value the 24-bit metadata length prefix
// can encode.
const MaxMetadataLength = 1<<24 - 1

// MaxRequestN is the saturation ceiling for request-N / credit values.
const MaxRequestN = 1<<31 - 1
