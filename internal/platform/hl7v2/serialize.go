package hl7v2

import "strings"

// Serialize converts a parsed message back into raw HL7 v2 text with \r
// segment separators. For any well-formed message using registry segments,
// Parse followed by Serialize reproduces the original segment and field
// content modulo trailing whitespace: field values are stored raw, so no
// escaping information is lost.
func Serialize(m *Message) string {
	segments := make([]string, len(m.Segments))
	for i, seg := range m.Segments {
		segments[i] = SerializeSegment(seg)
	}
	return strings.Join(segments, "\r")
}

// SerializeSegment renders one segment as its wire form. MSH needs no
// special casing here because its Fields already start at MSH-2 (the
// encoding characters), the same shape every other segment has after its
// id token.
func SerializeSegment(seg ParsedSegment) string {
	sep := string(seg.Encoding.Field)
	if len(seg.Fields) == 0 {
		return seg.Type
	}
	return seg.Type + sep + strings.Join(seg.Fields, sep)
}
