package hl7v2

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Message is a fully parsed HL7 v2 message. Segments[0] is always MSH.
// Once returned by Parse the message is treated as immutable; parsing
// allocates a fresh output graph per call, so concurrent parsing from many
// goroutines needs no locks.
type Message struct {
	MessageType      string          `json:"messageType"`
	MessageControlID string          `json:"messageControlId"`
	Version          string          `json:"version"`
	Header           Header          `json:"header"`
	Segments         []ParsedSegment `json:"-"`
	EMRSystem        string          `json:"emrSystem"`
	PatientID        string          `json:"patientId"`
}

// Parse decodes a raw HL7 v2 message. Line endings \r\n, \n\r, and \n are
// normalized to \r before segment splitting; empty lines are dropped. The
// first segment must be MSH. In lenient mode unknown segments are dropped
// and structural validation is skipped; strict mode turns both into errors.
//
// MessageControlID is never empty: when MSH-10 is absent a fresh id is
// generated so downstream correlation always has a key.
func Parse(raw string, cfg Config) (*Message, error) {
	lines, err := splitSegments(raw)
	if err != nil {
		return nil, err
	}

	hdr, enc, msh, controlID, version, err := parseMSH(lines[0])
	if err != nil {
		return nil, err
	}

	msg := &Message{
		Header:           hdr,
		MessageControlID: controlID,
		Version:          version,
		Segments:         []ParsedSegment{msh},
	}

	for _, line := range lines[1:] {
		seg, keep, err := parseSegment(line, enc, cfg)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}
		msg.Segments = append(msg.Segments, seg)
	}

	msg.MessageType = ClassifyMessageType(hdr.MessageType, enc)

	if cfg.StrictMode {
		if err := validateStructure(msg.MessageType, msg.Segments); err != nil {
			return nil, err
		}
	}

	if msg.MessageControlID == "" {
		msg.MessageControlID = uuid.NewString()
	}
	msg.PatientID = msg.extractPatientID()

	return msg, nil
}

// splitSegments normalizes line endings to \r, splits, trims, and drops
// empty lines. It fails only when nothing remains.
func splitSegments(raw string) ([]string, error) {
	text := strings.ReplaceAll(raw, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n\r", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")

	var lines []string
	for _, line := range strings.Split(text, "\r") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return nil, &MessageEmptyError{}
	}
	return lines, nil
}

// extractPatientID reads PID-3 (patient identifier list) component 0.
// Absence of PID yields "" rather than an error.
func (m *Message) extractPatientID() string {
	pid := m.Segment("PID")
	if pid == nil {
		return ""
	}
	return pid.Decompose(2).Component(0)
}

// Segment returns the first segment with the given type, or nil.
func (m *Message) Segment(segType string) *ParsedSegment {
	for i := range m.Segments {
		if m.Segments[i].Type == segType {
			return &m.Segments[i]
		}
	}
	return nil
}

// SegmentsOf returns all segments with the given type, preserving order.
func (m *Message) SegmentsOf(segType string) []ParsedSegment {
	var out []ParsedSegment
	for _, seg := range m.Segments {
		if seg.Type == segType {
			out = append(out, seg)
		}
	}
	return out
}

// PatientName returns family and given name from PID-5 (family^given).
func (m *Message) PatientName() (family, given string) {
	pid := m.Segment("PID")
	if pid == nil {
		return "", ""
	}
	name := pid.Decompose(4)
	return name.Component(0), name.Component(1)
}

// DateOfBirth returns PID-7.
func (m *Message) DateOfBirth() string {
	pid := m.Segment("PID")
	if pid == nil {
		return ""
	}
	return pid.Field(6)
}

// Gender returns PID-8 (administrative sex).
func (m *Message) Gender() string {
	pid := m.Segment("PID")
	if pid == nil {
		return ""
	}
	return pid.Field(7)
}

// MarshalJSON renders the projection consumed by the HTTP API and the CLI:
// scalar metadata plus segments grouped by type, each group preserving the
// original segment order.
func (m *Message) MarshalJSON() ([]byte, error) {
	grouped := make(map[string][]ParsedSegment, len(m.Segments))
	for _, seg := range m.Segments {
		grouped[seg.Type] = append(grouped[seg.Type], seg)
	}

	type alias Message // avoid recursing into this method
	return json.Marshal(struct {
		*alias
		Segments map[string][]ParsedSegment `json:"segments"`
	}{
		alias:    (*alias)(m),
		Segments: grouped,
	})
}
