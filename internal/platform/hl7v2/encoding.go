package hl7v2

import "encoding/json"

// Encoding holds the per-message separator characters declared in MSH-1/MSH-2.
// The defaults (|^~\&) cover virtually all real traffic, but vendors are
// allowed to declare their own, so every split goes through this struct.
type Encoding struct {
	Field        byte
	Component    byte
	Repetition   byte
	Escape       byte
	Subcomponent byte
}

// DefaultEncoding returns the standard HL7 v2 separators: |^~\&.
func DefaultEncoding() Encoding {
	return Encoding{
		Field:        '|',
		Component:    '^',
		Repetition:   '~',
		Escape:       '\\',
		Subcomponent: '&',
	}
}

// encodingFromMSH builds an Encoding from the field separator character and
// the MSH-2 encoding-characters token (component, repetition, escape,
// subcomponent, in that order). Missing positions fall back to the defaults.
func encodingFromMSH(fieldSep byte, chars string) Encoding {
	enc := DefaultEncoding()
	enc.Field = fieldSep
	if len(chars) > 0 {
		enc.Component = chars[0]
	}
	if len(chars) > 1 {
		enc.Repetition = chars[1]
	}
	if len(chars) > 2 {
		enc.Escape = chars[2]
	}
	if len(chars) > 3 {
		enc.Subcomponent = chars[3]
	}
	return enc
}

// MarshalJSON renders each separator as a one-character string, which is what
// the JSON projection consumers expect (a byte would marshal as a number).
func (e Encoding) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"field":        string(e.Field),
		"component":    string(e.Component),
		"repetition":   string(e.Repetition),
		"escape":       string(e.Escape),
		"subcomponent": string(e.Subcomponent),
	})
}
