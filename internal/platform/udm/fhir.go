package udm

import (
	"strconv"
	"strings"
)

// Base structural transforms from FHIR-shaped resource maps. Only a
// structural subset of FHIR is read here; full R4 schema validation is out
// of scope by design.

// patientDataFromFHIR builds the Patient data map from a FHIR Patient.
func patientDataFromFHIR(resource map[string]interface{}) (map[string]interface{}, string) {
	data := map[string]interface{}{}

	identifiers := []map[string]interface{}{}
	var patientID string
	for _, raw := range sliceAt(resource, "identifier") {
		ident, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		value, _ := ident["value"].(string)
		if value == "" {
			continue
		}
		if patientID == "" {
			patientID = value
		}
		system, _ := ident["system"].(string)
		identifiers = append(identifiers, map[string]interface{}{
			"value":  value,
			"system": system,
			"type":   stringAt(ident, "type", "text"),
		})
	}
	data["identifiers"] = identifiers

	if id, _ := resource["id"].(string); patientID == "" && id != "" {
		patientID = id
	}

	if names := sliceAt(resource, "name"); len(names) > 0 {
		if name, ok := names[0].(map[string]interface{}); ok {
			given := ""
			if g := sliceAt(name, "given"); len(g) > 0 {
				given, _ = g[0].(string)
			}
			family, _ := name["family"].(string)
			data["name"] = map[string]interface{}{
				"family": family,
				"given":  given,
			}
		}
	}

	data["birthDate"], _ = resource["birthDate"].(string)
	data["gender"], _ = resource["gender"].(string)

	return data, patientID
}

// orderDataFromFHIR builds the Order data map from a FHIR Task or
// ServiceRequest.
func orderDataFromFHIR(resource map[string]interface{}) (map[string]interface{}, string) {
	data := map[string]interface{}{}

	data["status"], _ = resource["status"].(string)
	data["intent"], _ = resource["intent"].(string)
	data["code"] = codingSummary(resource["code"])
	data["orderedAt"], _ = resource["authoredOn"].(string)

	return data, patientRefID(resource)
}

// observationDataFromFHIR builds the Observation data map from a FHIR
// Observation, mirroring the shape produced from ORU messages.
func observationDataFromFHIR(resource map[string]interface{}) (map[string]interface{}, string) {
	entry := map[string]interface{}{
		"code": codingSummary(resource["code"]),
	}
	if vq, ok := resource["valueQuantity"].(map[string]interface{}); ok {
		entry["value"] = valueString(vq["value"])
		entry["unit"], _ = vq["unit"].(string)
	} else if vs, ok := resource["valueString"].(string); ok {
		entry["value"] = vs
		entry["unit"] = ""
	}

	data := map[string]interface{}{
		"observation": []map[string]interface{}{entry},
		"status":      resource["status"],
	}
	return data, patientRefID(resource)
}

// patientRefID extracts the id portion of subject.reference ("Patient/123").
func patientRefID(resource map[string]interface{}) string {
	ref := stringAt(resource, "subject", "reference")
	if ref == "" {
		return ""
	}
	if _, id, found := strings.Cut(ref, "/"); found {
		return id
	}
	return ref
}

// codingSummary flattens a CodeableConcept's first coding into the
// code^display^system composite used by the HL7 path, so both sources
// produce the same UDM shape.
func codingSummary(raw interface{}) string {
	cc, ok := raw.(map[string]interface{})
	if !ok {
		return ""
	}
	codings := sliceAt(cc, "coding")
	if len(codings) == 0 {
		text, _ := cc["text"].(string)
		return text
	}
	coding, ok := codings[0].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := coding["code"].(string)
	display, _ := coding["display"].(string)
	system, _ := coding["system"].(string)
	return code + "^" + display + "^" + system
}

// stringAt digs through nested maps and returns the string leaf, or "".
func stringAt(m map[string]interface{}, path ...string) string {
	cur := m
	for i, key := range path {
		if i == len(path)-1 {
			s, _ := cur[key].(string)
			return s
		}
		next, ok := cur[key].(map[string]interface{})
		if !ok {
			return ""
		}
		cur = next
	}
	return ""
}

// sliceAt returns the slice at key, or nil.
func sliceAt(m map[string]interface{}, key string) []interface{} {
	s, _ := m[key].([]interface{})
	return s
}

// valueString renders a JSON number or string value as a string.
func valueString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}
