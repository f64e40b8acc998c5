package hl7v2

import "strings"

// messageTypes is the closed set of recognized message type codes.
var messageTypes = map[string]bool{
	"ADT": true, "ORM": true, "ORU": true, "SIU": true,
	"MDM": true, "DFT": true, "BAR": true, "ACK": true,
}

// requiredSegments drives strict-mode structural validation, keyed by
// classified message type. ACK intentionally has no requirements: unknown
// type codes classify as ACK, and that leniency must never turn into a
// strict-mode structural failure. Initialized once, never mutated.
var requiredSegments = map[string][]string{
	"ADT": {"EVN", "PID"},
	"ORM": {"PID", "ORC"},
	"ORU": {"PID", "OBR", "OBX"},
	"SIU": {"SCH", "PID"},
	"MDM": {"EVN", "PID", "TXA"},
	"DFT": {"EVN", "PID", "FT1"},
	"BAR": {"EVN", "PID"},
	"ACK": {},
}

// ClassifyMessageType maps the composite MSH-9 value (e.g. "ADT^A01") to a
// message type code. The type code is component 0, matched
// case-insensitively. Codes outside the recognized set classify as ACK
// rather than failing; the raw composite value stays available on the
// header so callers can still see what the sender declared.
func ClassifyMessageType(composite string, enc Encoding) string {
	code, _, _ := strings.Cut(composite, string(enc.Component))
	code = strings.ToUpper(strings.TrimSpace(code))
	if messageTypes[code] {
		return code
	}
	return "ACK"
}

// validateStructure checks that every segment required by the message type
// is present, returning an error naming the first missing segment. Called
// only in strict mode.
func validateStructure(messageType string, segments []ParsedSegment) error {
	present := make(map[string]bool, len(segments))
	for _, seg := range segments {
		present[seg.Type] = true
	}
	for _, required := range requiredSegments[messageType] {
		if !present[required] {
			return &MissingRequiredSegmentError{MessageType: messageType, Segment: required}
		}
	}
	return nil
}

// RequiredSegmentsFor returns the segments strict mode demands for the
// given message type. The returned slice must not be modified.
func RequiredSegmentsFor(messageType string) []string {
	return requiredSegments[messageType]
}
