package frame_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/GooDer/rsocket-go/frame"
)

// flagsOf extracts the 10-bit flag field from an encoded frame's header
// without going through a concrete frame type's decoder, since not every
// frame type threads FlagFollows back out through its decoded struct.
func flagsOf(t *testing.T, encoded []byte) frame.Flags {
	t.Helper()
	if len(encoded) < 6 {
		t.Fatalf("encoded frame too short: %d bytes", len(encoded))
	}
	typeFlags := uint16(encoded[4])<<8 | uint16(encoded[5])
	return frame.Flags(typeFlags & 0x03ff)
}

func TestFragmentAndReassemblePayload(t *testing.T) {
	data := []byte(strings.Repeat("x", 100))
	metadata := []byte(strings.Repeat("m", 40))

	fr := frame.Fragmenter{MTU: 32}
	frames, err := fr.Split(9, frame.TypePayload, nil, metadata, true, data, frame.FlagNext|frame.FlagComplete)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(frames) < 2 {
		t.Fatalf("Split() produced %d frames, want multiple fragments for oversized payload", len(frames))
	}

	var r frame.Reassembler
	var gotMetadata, gotData []byte
	for i, f := range frames {
		encoded, err := frame.Encode(f)
		if err != nil {
			t.Fatalf("fragment %d: Encode() error = %v", i, err)
		}
		if len(encoded) > fr.MTU {
			t.Errorf("fragment %d: encoded size %d exceeds MTU %d", i, len(encoded), fr.MTU)
		}
		decoded, err := frame.Decode(encoded)
		if err != nil {
			t.Fatalf("fragment %d: Decode() error = %v", i, err)
		}
		p, ok := decoded.(*frame.Payload)
		if !ok {
			t.Fatalf("fragment %d decoded as %T, want *frame.Payload", i, decoded)
		}
		last := i == len(frames)-1
		if p.Follows == last {
			t.Errorf("fragment %d: Follows = %v, want %v", i, p.Follows, !last)
		}
		if last && (!p.Next || !p.Complete) {
			t.Errorf("fragment %d (last): Next=%v Complete=%v, want both true", i, p.Next, p.Complete)
		}
		m, d, done, err := r.Add(p.Metadata, p.Data, p.Follows)
		if err != nil {
			t.Fatalf("fragment %d: Reassembler.Add() error = %v", i, err)
		}
		if done != last {
			t.Errorf("fragment %d: Add() done = %v, want %v", i, done, last)
		}
		if done {
			gotMetadata, gotData = m, d
		}
	}

	if !bytes.Equal(gotMetadata, metadata) {
		t.Errorf("reassembled metadata = %q, want %q", gotMetadata, metadata)
	}
	if !bytes.Equal(gotData, data) {
		t.Errorf("reassembled data = %q, want %q", gotData, data)
	}
}

func TestFragmentNonPayloadHeadCarriesFollowsFlag(t *testing.T) {
	data := []byte(strings.Repeat("z", 80))

	fr := frame.Fragmenter{MTU: 24}
	var prefix [4]byte
	prefix[3] = 7 // InitialN, matching RequestStream's fixed prefix layout
	frames, err := fr.Split(11, frame.TypeRequestStream, prefix[:], nil, false, data, 0)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(frames) < 2 {
		t.Fatalf("Split() produced %d frames, want multiple fragments for oversized payload", len(frames))
	}

	head, err := frame.Encode(frames[0])
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !flagsOf(t, head).Has(frame.FlagFollows) {
		t.Error("head fragment missing FlagFollows")
	}
	decodedHead, err := frame.Decode(head)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	rs, ok := decodedHead.(*frame.RequestStream)
	if !ok {
		t.Fatalf("head decoded as %T, want *frame.RequestStream", decodedHead)
	}
	if rs.InitialN != 7 {
		t.Errorf("InitialN = %d, want 7", rs.InitialN)
	}

	last, err := frame.Encode(frames[len(frames)-1])
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if flagsOf(t, last).Has(frame.FlagFollows) {
		t.Error("last fragment unexpectedly has FlagFollows")
	}
}

func TestFragmentDisabledWhenMTUIsZero(t *testing.T) {
	fr := frame.Fragmenter{MTU: 0}
	data := []byte(strings.Repeat("y", 1000))
	frames, err := fr.Split(3, frame.TypeRequestFNF, nil, nil, false, data, 0)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("Split() with MTU=0 produced %d frames, want 1", len(frames))
	}
}

func TestReassemblerEnforcesMaxBytes(t *testing.T) {
	r := frame.Reassembler{Max: 8}
	_, _, _, err := r.Add(nil, []byte("01234567"), true)
	if err != nil {
		t.Fatalf("Add() under limit returned error = %v", err)
	}
	_, _, _, err = r.Add(nil, []byte("x"), false)
	if err == nil {
		t.Fatal("Add() over limit returned nil error, want ProtocolError")
	}
}
