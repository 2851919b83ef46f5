package frame_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/GooDer/rsocket-go/frame"
)

func roundTrip(t *testing.T, f frame.Frame) frame.Frame {
	t.Helper()
	encoded, err := frame.Encode(f)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := frame.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return got
}

func TestRoundTripSetup(t *testing.T) {
	tests := []struct {
		name string
		in   *frame.Setup
	}{
		{
			name: "minimal",
			in: &frame.Setup{
				MajorVersion:      1,
				MinorVersion:      0,
				KeepaliveInterval: 20_000_000_000,
				MaxLifetime:       60_000_000_000,
				MetadataMIME:      "application/binary",
				DataMIME:          "application/binary",
			},
		},
		{
			name: "with resume token, lease, metadata and data",
			in: &frame.Setup{
				MajorVersion:      1,
				MinorVersion:      0,
				KeepaliveInterval: 20_000_000_000,
				MaxLifetime:       60_000_000_000,
				HonorsLease:       true,
				ResumeToken:       []byte{0x01, 0x02, 0x03},
				MetadataMIME:      "application/json",
				DataMIME:          "application/octet-stream",
				HasMetadata:       true,
				Metadata:          []byte("route"),
				Data:              []byte("payload"),
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := roundTrip(t, tc.in)
			if diff := cmp.Diff(tc.in, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTripLease(t *testing.T) {
	in := &frame.Lease{TTLMillis: 5000, NumberOfRequests: 10, HasMetadata: true, Metadata: []byte("x")}
	got := roundTrip(t, in)
	if diff := cmp.Diff(in, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripKeepalive(t *testing.T) {
	tests := []*frame.Keepalive{
		{Respond: true, LastReceivedPosition: 0, Data: nil},
		{Respond: false, LastReceivedPosition: 123456789, Data: []byte("ping")},
	}
	for _, in := range tests {
		got := roundTrip(t, in)
		if diff := cmp.Diff(in, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestRoundTripRequestFrames(t *testing.T) {
	tests := []struct {
		name string
		in   frame.Frame
	}{
		{"request-response", &frame.RequestResponse{StreamID: 1, HasMetadata: true, Metadata: []byte("m"), Data: []byte("d")}},
		{"request-fnf", &frame.RequestFNF{StreamID: 3, Data: []byte("d")}},
		{"request-stream", &frame.RequestStream{StreamID: 5, InitialN: 42, Data: []byte("d")}},
		{"request-channel complete", &frame.RequestChannel{StreamID: 7, InitialN: 1, Complete: true}},
		{"request-n", &frame.RequestN{StreamID: 5, N: 7}},
		{"cancel", &frame.Cancel{StreamID: 5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := roundTrip(t, tc.in)
			if diff := cmp.Diff(tc.in, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTripPayload(t *testing.T) {
	tests := []struct {
		name string
		in   *frame.Payload
	}{
		{"intermediate", &frame.Payload{StreamID: 9, Next: true, Data: []byte("a")}},
		{"last with value", &frame.Payload{StreamID: 9, Next: true, Complete: true, Data: []byte("b")}},
		{"complete no value", &frame.Payload{StreamID: 9, Complete: true}},
		{"with metadata", &frame.Payload{StreamID: 9, Next: true, HasMetadata: true, Metadata: []byte("m"), Data: []byte("d")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := roundTrip(t, tc.in)
			if diff := cmp.Diff(tc.in, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTripErrorFrame(t *testing.T) {
	in := &frame.ErrorFrame{StreamID: 5, Code: frame.ErrApplicationError, Data: []byte("boom")}
	got := roundTrip(t, in)
	if diff := cmp.Diff(in, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if in.Error() == "" {
		t.Error("ErrorFrame.Error() returned empty string")
	}
}

func TestRoundTripMetadataPush(t *testing.T) {
	in := &frame.MetadataPush{Metadata: []byte("route-table")}
	got := roundTrip(t, in)
	if diff := cmp.Diff(in, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripResume(t *testing.T) {
	in := &frame.Resume{
		MajorVersion:                 1,
		MinorVersion:                 0,
		ResumeToken:                  []byte{0xaa, 0xbb},
		LastReceivedServerPosition:   100,
		FirstAvailableClientPosition: 50,
	}
	got := roundTrip(t, in)
	if diff := cmp.Diff(in, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	ok := &frame.ResumeOK{LastReceivedClientPosition: 77}
	gotOK := roundTrip(t, ok)
	if diff := cmp.Diff(ok, gotOK, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeNeedMore(t *testing.T) {
	_, err := frame.Decode([]byte{0x00, 0x00})
	if err != frame.ErrNeedMore {
		t.Errorf("Decode() error = %v, want ErrNeedMore", err)
	}
}

func TestDecodeRejectsReservedHeaderBit(t *testing.T) {
	buf := []byte{0x80, 0x00, 0x00, 0x01, 0x00, 0x00}
	if _, err := frame.Decode(buf); err == nil {
		t.Fatal("Decode() = nil error, want ProtocolError for reserved header bit")
	}
}

func TestUnknownFrameWithIgnoreFlagIsTolerated(t *testing.T) {
	// Stream id 1, unused type 0x20, flags FlagIgnore (1<<9): typeFlags =
	// 0x20<<10 | 0x200 = 0x8200.
	buf := []byte{0x00, 0x00, 0x00, 0x01, 0x82, 0x00}
	got, err := frame.Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil for unknown+ignore frame", err)
	}
	if _, ok := got.(*frame.Unknown); !ok {
		t.Errorf("Decode() = %T, want *frame.Unknown", got)
	}
}
