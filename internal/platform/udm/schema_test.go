package udm

import "testing"

func validPatientEnvelope() *EMRData {
	return &EMRData{
		System:       SystemEpic,
		PatientID:    "12345",
		ResourceType: KindPatient,
		Version:      "2.5",
		Data: map[string]interface{}{
			"identifiers": []map[string]interface{}{
				{"value": "12345", "system": "urn:epic:mrn"},
			},
			"name": map[string]interface{}{"family": "Doe", "given": "John"},
		},
	}
}

func hasError(errs []ValidationError, field, code string) bool {
	for _, e := range errs {
		if e.Field == field && e.Code == code {
			return true
		}
	}
	return false
}

func TestValidateSchema_ValidPatient(t *testing.T) {
	errs, warnings := validateSchema(validPatientEnvelope())
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}

func TestValidateSchema_EmptyData(t *testing.T) {
	envelope := validPatientEnvelope()
	envelope.Data = map[string]interface{}{}

	errs, _ := validateSchema(envelope)
	if !hasError(errs, "data", "empty") {
		t.Errorf("expected data/empty error, got %v", errs)
	}
}

func TestValidateSchema_MissingPatientFields(t *testing.T) {
	envelope := validPatientEnvelope()
	envelope.Data = map[string]interface{}{"event": "ADT^A01"}

	errs, _ := validateSchema(envelope)
	if !hasError(errs, "data.identifiers", "missing") {
		t.Errorf("expected data.identifiers/missing, got %v", errs)
	}
	if !hasError(errs, "data.name", "missing") {
		t.Errorf("expected data.name/missing, got %v", errs)
	}
}

func TestValidateSchema_IdentifierValueRequired(t *testing.T) {
	envelope := validPatientEnvelope()
	envelope.Data["identifiers"] = []map[string]interface{}{
		{"value": "", "system": "urn:epic:mrn"},
	}

	errs, _ := validateSchema(envelope)
	if !hasError(errs, "data.identifiers[0].value", "missing") {
		t.Errorf("expected identifier value error, got %v", errs)
	}
}

func TestValidateSchema_Warnings(t *testing.T) {
	envelope := validPatientEnvelope()
	envelope.PatientID = ""
	envelope.Version = ""

	errs, warnings := validateSchema(envelope)
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
	if len(warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", warnings)
	}
}

func TestValidateSchema_Order(t *testing.T) {
	envelope := &EMRData{
		System:       SystemCerner,
		PatientID:    "9",
		ResourceType: KindOrder,
		Version:      "2.5.1",
		Data:         map[string]interface{}{"orderControl": "NW"},
	}

	errs, _ := validateSchema(envelope)
	if !hasError(errs, "data.code", "missing") {
		t.Errorf("expected data.code/missing, got %v", errs)
	}

	envelope.Data["code"] = "85025^CBC^LN"
	errs, _ = validateSchema(envelope)
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidateSchema_Observation(t *testing.T) {
	envelope := &EMRData{
		System:       SystemGenericFHIR,
		PatientID:    "9",
		ResourceType: KindObservation,
		Version:      "1",
		Data:         map[string]interface{}{"observation": []map[string]interface{}{}},
	}

	errs, _ := validateSchema(envelope)
	if !hasError(errs, "data.observation", "missing") {
		t.Errorf("expected data.observation/missing, got %v", errs)
	}

	envelope.Data["observation"] = []map[string]interface{}{
		{"code": "8480-6^Systolic^LN", "value": ""},
	}
	errs, _ = validateSchema(envelope)
	if !hasError(errs, "data.observation[0].value", "missing") {
		t.Errorf("expected observation value error, got %v", errs)
	}
}

func TestValidateSchema_UnknownSystem(t *testing.T) {
	envelope := validPatientEnvelope()
	envelope.System = System("meditech")

	errs, _ := validateSchema(envelope)
	if !hasError(errs, "system", "unknown_system") {
		t.Errorf("expected system/unknown_system, got %v", errs)
	}
}
