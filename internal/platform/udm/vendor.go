package udm

import "strings"

// Per-vendor normalization rules. Each table is initialized once and never
// mutated at runtime; normalization reads them without locks.
type vendorRules struct {
	// identifierSystems rewrites the system tag on patient identifiers to
	// the vendor's canonical URI.
	identifierSystems map[string]string
	// statusRemap maps vendor status codes to UDM status vocabulary.
	statusRemap map[string]string
	// backfillDisplay fills an empty display component on observation
	// codes from a known-code table.
	backfillDisplay bool
}

var epicRules = vendorRules{
	identifierSystems: map[string]string{
		"MRN": "urn:epic:mrn",
		"MR":  "urn:epic:mrn",
		"EPI": "urn:epic:internal-id",
	},
	statusRemap: map[string]string{
		"IP": "in-progress",
		"CM": "completed",
		"CA": "cancelled",
	},
}

var cernerRules = vendorRules{
	identifierSystems: map[string]string{
		"MRN":  "urn:cerner:mrn",
		"MR":   "urn:cerner:mrn",
		"CMRN": "urn:cerner:community-mrn",
	},
	statusRemap: map[string]string{
		"F": "final",
		"P": "preliminary",
		"C": "corrected",
		"X": "cancelled",
	},
}

var genericFHIRRules = vendorRules{
	identifierSystems: map[string]string{
		"MRN": "http://terminology.hl7.org/CodeSystem/v2-0203|MR",
	},
	backfillDisplay: true,
}

// knownDisplays is the display-text backfill table for common LOINC codes.
var knownDisplays = map[string]string{
	"8480-6": "Systolic blood pressure",
	"8462-4": "Diastolic blood pressure",
	"8867-4": "Heart rate",
	"8310-5": "Body temperature",
	"718-7":  "Hemoglobin",
	"4544-3": "Hematocrit",
	"2345-7": "Glucose",
}

// rulesFor returns the vendor's normalization rules. The dispatch is a
// closed match: an unknown system is rejected before normalize is reached.
func rulesFor(system System) vendorRules {
	switch system {
	case SystemEpic:
		return epicRules
	case SystemCerner:
		return cernerRules
	case SystemGenericFHIR:
		return genericFHIRRules
	}
	return vendorRules{}
}

// normalize applies the single vendor-specific normalization pass to an
// envelope: identifier-system rewriting, status-code remapping, and
// display-text backfill. It mutates only the envelope's own data map.
func normalize(envelope *EMRData) {
	rules := rulesFor(envelope.System)

	if identifiers, ok := envelope.Data["identifiers"].([]map[string]interface{}); ok {
		for _, ident := range identifiers {
			system, _ := ident["system"].(string)
			if rewritten, ok := rules.identifierSystems[strings.ToUpper(system)]; ok {
				ident["system"] = rewritten
			}
		}
	}

	if status, ok := envelope.Data["status"].(string); ok {
		if mapped, ok := rules.statusRemap[strings.ToUpper(status)]; ok {
			envelope.Data["status"] = mapped
		}
	}

	if rules.backfillDisplay {
		backfillObservationDisplays(envelope.Data)
	}
}

// backfillObservationDisplays fills the display component of composite
// observation codes (code^display^system) when it is empty and the code is
// in the known-display table.
func backfillObservationDisplays(data map[string]interface{}) {
	observations, ok := data["observation"].([]map[string]interface{})
	if !ok {
		return
	}
	for _, obs := range observations {
		code, _ := obs["code"].(string)
		parts := strings.Split(code, "^")
		if len(parts) < 2 || parts[1] != "" {
			continue
		}
		if display, ok := knownDisplays[parts[0]]; ok {
			parts[1] = display
			obs["code"] = strings.Join(parts, "^")
		}
	}
}
