package hl7v2

import "strings"

// Header carries the MSH routing metadata. MessageTime and the composite
// MessageType are kept as the raw HL7 values; classification of the type
// code happens at the message level.
type Header struct {
	SendingApplication   string `json:"sendingApplication"`
	SendingFacility      string `json:"sendingFacility"`
	ReceivingApplication string `json:"receivingApplication"`
	ReceivingFacility    string `json:"receivingFacility"`
	MessageTime          string `json:"messageTime"`
	Security             string `json:"security"`
	MessageType          string `json:"messageType"`
	ProcessingID         string `json:"processingId"`
}

// MSH field layout after splitting on the field separator and dropping the
// "MSH" token, per canonical HL7 v2 numbering (MSH-1 is the separator
// character itself):
//
//	Fields[0] = MSH-2  encoding characters
//	Fields[1] = MSH-3  sending application
//	Fields[2] = MSH-4  sending facility
//	Fields[3] = MSH-5  receiving application
//	Fields[4] = MSH-6  receiving facility
//	Fields[5] = MSH-7  message timestamp
//	Fields[6] = MSH-8  security
//	Fields[7] = MSH-9  message type (composite, e.g. ADT^A01)
//	Fields[8] = MSH-10 message control id
//	Fields[9] = MSH-11 processing id
//	Fields[10] = MSH-12 version id
const (
	mshEncodingChars = 0
	mshSendingApp    = 1
	mshSendingFac    = 2
	mshReceivingApp  = 3
	mshReceivingFac  = 4
	mshMessageTime   = 5
	mshSecurity      = 6
	mshMessageType   = 7
	mshControlID     = 8
	mshProcessingID  = 9
	mshVersionID     = 10
)

// parseMSH decodes the first raw segment of a message. It returns the
// header metadata, the message's encoding characters, the MSH segment
// itself (Fields excludes the "MSH" token), the message control id, and
// the version id.
func parseMSH(line string) (Header, Encoding, ParsedSegment, string, string, error) {
	if !strings.HasPrefix(line, "MSH") {
		id := line
		if len(id) > 3 {
			id = id[:3]
		}
		return Header{}, Encoding{}, ParsedSegment{}, "", "", &InvalidSegmentError{ID: id, Reason: "first segment must be MSH"}
	}
	if len(line) < 4 {
		return Header{}, Encoding{}, ParsedSegment{}, "", "", &MalformedHeaderError{Field: "field separator (MSH-1)"}
	}

	fieldSep := line[3]
	fields := strings.Split(line[4:], string(fieldSep))
	enc := encodingFromMSH(fieldSep, fields[mshEncodingChars])

	seg := ParsedSegment{
		Type:     "MSH",
		ID:       "MSH",
		Fields:   fields,
		Encoding: enc,
	}

	at := func(i int) string {
		if i >= len(fields) {
			return ""
		}
		return fields[i]
	}

	hdr := Header{
		SendingApplication:   at(mshSendingApp),
		SendingFacility:      at(mshSendingFac),
		ReceivingApplication: at(mshReceivingApp),
		ReceivingFacility:    at(mshReceivingFac),
		MessageTime:          at(mshMessageTime),
		Security:             at(mshSecurity),
		MessageType:          at(mshMessageType),
		ProcessingID:         at(mshProcessingID),
	}

	if len(fields) <= mshMessageType || hdr.MessageType == "" {
		return Header{}, Encoding{}, ParsedSegment{}, "", "", &MalformedHeaderError{Field: "message type (MSH-9)"}
	}

	return hdr, enc, seg, at(mshControlID), at(mshVersionID), nil
}
