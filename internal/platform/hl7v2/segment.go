package hl7v2

import "strings"

// segmentRegistry is the static set of segment ids the parser recognizes.
// It is initialized once and never mutated at runtime, which keeps
// concurrent parsing lock-free.
var segmentRegistry = map[string]bool{
	"MSH": true, "MSA": true, "ERR": true, "EVN": true,
	"PID": true, "PD1": true, "NK1": true, "PV1": true, "PV2": true,
	"ORC": true, "OBR": true, "OBX": true, "NTE": true,
	"AL1": true, "DG1": true, "PR1": true, "GT1": true,
	"IN1": true, "IN2": true, "IN3": true,
	"SCH": true, "RGS": true, "AIS": true, "AIG": true, "AIL": true, "AIP": true,
	"TXA": true, "FT1": true, "MRG": true, "SPM": true, "QRD": true, "SFT": true,
}

// ParsedSegment is one decoded segment line. Fields excludes the leading
// segment-id token, so Fields[0] is the segment's field 1 (for MSH,
// Fields[0] is MSH-2, the encoding characters, since MSH-1 is the field
// separator itself). Field values are stored raw; decomposition and
// unescaping happen per field via Decompose.
type ParsedSegment struct {
	Type     string   `json:"-"`
	ID       string   `json:"-"`
	Fields   []string `json:"fields"`
	Encoding Encoding `json:"encoding"`
}

// parseSegment decodes one non-MSH raw segment line. The returned bool
// reports whether the segment should be kept: in lenient mode an invalid or
// unknown id drops the segment (false, nil error) rather than failing the
// whole message.
func parseSegment(line string, enc Encoding, cfg Config) (ParsedSegment, bool, error) {
	id, rest, _ := strings.Cut(line, string(enc.Field))

	if !isSegmentID(id) {
		if cfg.StrictMode {
			return ParsedSegment{}, false, &InvalidSegmentError{ID: id, Reason: "segment id must be three characters (A-Z, then A-Z or 0-9)"}
		}
		return ParsedSegment{}, false, nil
	}

	if !segmentRegistry[id] && !cfg.AllowCustomSegments {
		if cfg.StrictMode {
			return ParsedSegment{}, false, &InvalidSegmentError{ID: id, Reason: "unknown segment id"}
		}
		return ParsedSegment{}, false, nil
	}

	seg := ParsedSegment{
		Type:     id,
		ID:       id,
		Encoding: enc,
	}
	if rest != "" || strings.Contains(line, string(enc.Field)) {
		seg.Fields = strings.Split(rest, string(enc.Field))
	}

	return seg, true, nil
}

// isSegmentID reports whether id is exactly three uppercase ASCII letters
// or digits (Z-segments like ZA1 carry a digit in third position).
func isSegmentID(id string) bool {
	if len(id) != 3 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		upper := c >= 'A' && c <= 'Z'
		digit := c >= '0' && c <= '9'
		if i == 0 && !upper {
			return false
		}
		if !upper && !digit {
			return false
		}
	}
	return true
}

// Field returns the raw value of the segment's field at the given 0-based
// index into Fields, or "" when out of range.
func (s ParsedSegment) Field(i int) string {
	if i < 0 || i >= len(s.Fields) {
		return ""
	}
	return s.Fields[i]
}

// Decompose fully decomposes the field at the given 0-based index.
func (s ParsedSegment) Decompose(i int) ParsedField {
	return DecomposeField(s.Field(i), s.Encoding)
}

// IsRegisteredSegment reports whether id is in the built-in segment registry.
func IsRegisteredSegment(id string) bool {
	return segmentRegistry[id]
}
