package udm

import "github.com/emrbridge/emrbridge/internal/platform/hl7v2"

// Base structural transforms from HL7 segments into UDM data maps.
// Segment field indexes are 0-based into ParsedSegment.Fields, which
// excludes the segment id token (so PID-3 is Fields[2]).

// patientDataFromHL7 builds the Patient data map from PID.
func patientDataFromHL7(msg *hl7v2.Message) map[string]interface{} {
	data := map[string]interface{}{
		"event": msg.Header.MessageType,
	}

	pid := msg.Segment("PID")
	if pid == nil {
		return data
	}

	// PID-3: patient identifier list, one identifier per repetition.
	idField := pid.Decompose(2)
	identifiers := make([]map[string]interface{}, 0, len(idField.Repetitions))
	for _, rep := range idField.Repetitions {
		repField := hl7v2.DecomposeField(rep, pid.Encoding)
		value := repField.Component(0)
		if value == "" {
			continue
		}
		identifiers = append(identifiers, map[string]interface{}{
			"value":  value,
			"system": repField.Component(3), // assigning authority
			"type":   repField.Component(4),
		})
	}
	data["identifiers"] = identifiers

	name := pid.Decompose(4)
	data["name"] = map[string]interface{}{
		"family": name.Component(0),
		"given":  name.Component(1),
	}
	data["birthDate"] = pid.Field(6)
	data["gender"] = pid.Field(7)

	return data
}

// orderDataFromHL7 builds the Order data map from ORC and OBR.
func orderDataFromHL7(msg *hl7v2.Message) map[string]interface{} {
	data := map[string]interface{}{}

	if orc := msg.Segment("ORC"); orc != nil {
		data["orderControl"] = orc.Field(0)
		data["placerOrderNumber"] = orc.Decompose(1).Component(0)
		data["fillerOrderNumber"] = orc.Decompose(2).Component(0)
		data["status"] = orc.Field(4)
		data["orderedAt"] = orc.Decompose(8).Component(0)
	}
	if obr := msg.Segment("OBR"); obr != nil {
		data["code"] = obr.Field(3) // universal service identifier, raw composite
		data["observedAt"] = obr.Field(6)
	}

	return data
}

// observationDataFromHL7 builds the Observation data map from the OBX
// segments of an ORU message. Each entry keeps the raw composite
// observation identifier so downstream coding-system handling stays intact.
func observationDataFromHL7(msg *hl7v2.Message) map[string]interface{} {
	obxs := msg.SegmentsOf("OBX")
	observations := make([]map[string]interface{}, 0, len(obxs))
	for _, obx := range obxs {
		observations = append(observations, map[string]interface{}{
			"code":  obx.Field(2),
			"value": obx.Field(4),
			"unit":  obx.Decompose(5).Component(0),
		})
	}

	data := map[string]interface{}{
		"observation": observations,
	}
	if obr := msg.Segment("OBR"); obr != nil {
		data["orderId"] = obr.Decompose(1).Component(0)
	}
	return data
}
