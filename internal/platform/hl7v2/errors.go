package hl7v2

import "fmt"

// Parse errors never carry patient-identifying field values. They name
// segment ids, field positions, and message types only, so error logs
// stay free of PHI.

// MessageEmptyError indicates the raw input contained no non-empty segments.
type MessageEmptyError struct{}

func (e *MessageEmptyError) Error() string {
	return "hl7v2: message contains no segments"
}

// InvalidSegmentError indicates a segment with a bad or unknown id, or a
// message whose first segment is not MSH.
type InvalidSegmentError struct {
	ID     string
	Reason string
}

func (e *InvalidSegmentError) Error() string {
	return fmt.Sprintf("hl7v2: invalid segment %q: %s", e.ID, e.Reason)
}

// MalformedHeaderError indicates an MSH segment that is too short or is
// missing a required header field.
type MalformedHeaderError struct {
	Field string
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("hl7v2: malformed MSH header: missing %s", e.Field)
}

// MissingRequiredSegmentError is returned in strict mode when a message
// lacks a segment its type requires. Segment names the first missing one.
type MissingRequiredSegmentError struct {
	MessageType string
	Segment     string
}

func (e *MissingRequiredSegmentError) Error() string {
	return fmt.Sprintf("hl7v2: %s message is missing required segment %s", e.MessageType, e.Segment)
}
