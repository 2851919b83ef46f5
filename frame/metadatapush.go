package frame

// MetadataPush is the METADATA_PUSH frame: a single connection-level frame
// (always stream id 0) carrying metadata only, no per-stream state.
type MetadataPush struct {
	Metadata []byte
}

func (f *MetadataPush) Header() Header {
	return Header{StreamID: 0, Type: TypeMetadataPush, Flags: FlagMetadata}
}

func (f *MetadataPush) encodeBody(buf []byte) ([]byte, error) {
	return append(buf, f.Metadata...), nil
}

func decodeMetadataPush(h Header, body []byte) (*MetadataPush, error) {
	if !h.Flags.Has(FlagMetadata) {
		return nil, &ProtocolError{Msg: "METADATA_PUSH without metadata flag"}
	}
	return &MetadataPush{Metadata: body}, nil
}
