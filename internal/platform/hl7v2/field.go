package hl7v2

import "strings"

// ParsedField is the full decomposition of one raw field value:
// repetitions (~), components (^) of the first repetition, and
// subcomponents (&) of each component. Component and subcomponent values
// are unescaped; Raw and Repetitions are left exactly as received so the
// original text can always be reproduced.
type ParsedField struct {
	Raw           string     `json:"raw"`
	Components    []string   `json:"components"`
	Subcomponents [][]string `json:"subcomponents"`
	Repetitions   []string   `json:"repetitions"`
}

// DecomposeField splits one raw field into repetitions, components, and
// subcomponents. The first repetition is treated as canonical: its
// components populate Components and Subcomponents. The function never
// fails: a value with no separators yields single-element slices, and an
// empty value yields all-empty structures. The input is never mutated; a
// fresh ParsedField is produced per call.
func DecomposeField(raw string, enc Encoding) ParsedField {
	f := ParsedField{
		Raw:         raw,
		Repetitions: strings.Split(raw, string(enc.Repetition)),
	}

	canonical := f.Repetitions[0]
	rawComponents := strings.Split(canonical, string(enc.Component))

	f.Components = make([]string, len(rawComponents))
	f.Subcomponents = make([][]string, len(rawComponents))
	for i, comp := range rawComponents {
		subs := strings.Split(comp, string(enc.Subcomponent))
		unescaped := make([]string, len(subs))
		for j, sub := range subs {
			unescaped[j] = Unescape(sub, enc)
		}
		f.Subcomponents[i] = unescaped
		f.Components[i] = Unescape(comp, enc)
	}

	return f
}

// Component returns the unescaped component at the given 0-based index,
// or "" when the index is out of range.
func (f ParsedField) Component(i int) string {
	if i < 0 || i >= len(f.Components) {
		return ""
	}
	return f.Components[i]
}
