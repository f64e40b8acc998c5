package udm

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/emrbridge/emrbridge/internal/platform/hl7v2"
)

const sampleADT = "MSH|^~\\&|EPIC|UCSF|RECEIVER|FACILITY|20230101120000||ADT^A01|MSG001|P|2.5\rEVN|A01|20230101120000\rPID|1||12345^^^MRN||Doe^John||19800515|M\rPV1|1|I|ICU^101^A"

const sampleORU = "MSH|^~\\&|LAB|HOSP|EHR|EHRFac|20240115150000||ORU^R01|MSG002|P|2.5.1\rPID|1||MRN9^^^MRN||Doe^Jane||19900101|F\rOBR|1|ORD001|LAB001|85025^CBC^LN|||20240115140000\rOBX|1|NM|8480-6^Systolic^LN||120|mmHg^^|90-140|N|||F"

const sampleORM = "MSH|^~\\&|CERNER|HOSP|LAB|LabFac|20240115120000||ORM^O01|MSG003|P|2.5.1\rPID|1||MRN9^^^MRN||Doe^Jane||19900101|F\rORC|NW|ORD001|FIL001||IP|||20240115120000\rOBR|1|ORD001||85025^CBC^LN|||20240115120000"

const sampleACK = "MSH|^~\\&|A|B|C|D|20230101||ACK^A01|MSG004|P|2.5\rMSA|AA|MSG001"

func parseMessage(t *testing.T, raw string) *hl7v2.Message {
	t.Helper()
	msg, err := hl7v2.Parse(raw, hl7v2.DefaultConfig())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return msg
}

func newTransformer() *Transformer {
	return NewTransformer(zerolog.Nop())
}

func TestTransformHL7_ADTToPatient(t *testing.T) {
	msg := parseMessage(t, sampleADT)

	envelope, err := newTransformer().TransformHL7(msg, SystemEpic, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if envelope.System != SystemEpic {
		t.Errorf("expected system epic, got %q", envelope.System)
	}
	if envelope.ResourceType != KindPatient {
		t.Errorf("expected resource type Patient, got %q", envelope.ResourceType)
	}
	if envelope.PatientID != "12345" {
		t.Errorf("expected patient id '12345', got %q", envelope.PatientID)
	}
	if envelope.Version != "2.5" {
		t.Errorf("expected version '2.5', got %q", envelope.Version)
	}
	if !envelope.Validation.IsValid {
		t.Errorf("expected valid envelope, errors: %v", envelope.Validation.Errors)
	}

	name, ok := envelope.Data["name"].(map[string]interface{})
	if !ok {
		t.Fatal("expected name object in data")
	}
	if name["family"] != "Doe" || name["given"] != "John" {
		t.Errorf("unexpected name: %v", name)
	}
	if envelope.Data["birthDate"] != "19800515" {
		t.Errorf("expected birthDate '19800515', got %v", envelope.Data["birthDate"])
	}
	if envelope.Data["gender"] != "M" {
		t.Errorf("expected gender 'M', got %v", envelope.Data["gender"])
	}

	identifiers, ok := envelope.Data["identifiers"].([]map[string]interface{})
	if !ok || len(identifiers) != 1 {
		t.Fatalf("expected 1 identifier, got %v", envelope.Data["identifiers"])
	}
	if identifiers[0]["value"] != "12345" {
		t.Errorf("expected identifier value '12345', got %v", identifiers[0]["value"])
	}
	// Epic normalization rewrites the MRN system to the canonical URI.
	if identifiers[0]["system"] != "urn:epic:mrn" {
		t.Errorf("expected epic MRN system rewrite, got %v", identifiers[0]["system"])
	}
}

func TestTransformHL7_ORUToObservation(t *testing.T) {
	msg := parseMessage(t, sampleORU)

	envelope, err := newTransformer().TransformHL7(msg, SystemGenericFHIR, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if envelope.ResourceType != KindObservation {
		t.Errorf("expected resource type Observation, got %q", envelope.ResourceType)
	}

	observations, ok := envelope.Data["observation"].([]map[string]interface{})
	if !ok || len(observations) != 1 {
		t.Fatalf("expected 1 observation, got %v", envelope.Data["observation"])
	}
	obs := observations[0]
	if obs["code"] != "8480-6^Systolic^LN" {
		t.Errorf("expected code '8480-6^Systolic^LN', got %v", obs["code"])
	}
	if obs["value"] != "120" {
		t.Errorf("expected value '120', got %v", obs["value"])
	}
	if obs["unit"] != "mmHg" {
		t.Errorf("expected unit 'mmHg', got %v", obs["unit"])
	}
	if envelope.Data["orderId"] != "ORD001" {
		t.Errorf("expected orderId 'ORD001', got %v", envelope.Data["orderId"])
	}
}

func TestTransformHL7_ORMToOrder(t *testing.T) {
	msg := parseMessage(t, sampleORM)

	envelope, err := newTransformer().TransformHL7(msg, SystemCerner, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if envelope.ResourceType != KindOrder {
		t.Errorf("expected resource type Order, got %q", envelope.ResourceType)
	}
	if envelope.Data["orderControl"] != "NW" {
		t.Errorf("expected orderControl 'NW', got %v", envelope.Data["orderControl"])
	}
	if envelope.Data["placerOrderNumber"] != "ORD001" {
		t.Errorf("expected placerOrderNumber 'ORD001', got %v", envelope.Data["placerOrderNumber"])
	}
	if envelope.Data["fillerOrderNumber"] != "FIL001" {
		t.Errorf("expected fillerOrderNumber 'FIL001', got %v", envelope.Data["fillerOrderNumber"])
	}
	if envelope.Data["code"] != "85025^CBC^LN" {
		t.Errorf("expected code '85025^CBC^LN', got %v", envelope.Data["code"])
	}
}

func TestTransformHL7_ACKNotTransformable(t *testing.T) {
	msg := parseMessage(t, sampleACK)

	_, err := newTransformer().TransformHL7(msg, SystemEpic, Options{})
	var resErr *UnsupportedResourceError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected UnsupportedResourceError, got %v", err)
	}
}

func TestTransformHL7_UnknownSystem(t *testing.T) {
	msg := parseMessage(t, sampleADT)

	_, err := newTransformer().TransformHL7(msg, System("meditech"), Options{})
	var sysErr *UnsupportedSystemError
	if !errors.As(err, &sysErr) {
		t.Fatalf("expected UnsupportedSystemError, got %v", err)
	}
}

func TestTransformHL7_StrictValidation(t *testing.T) {
	// ADT with no PID: patient data has no identifiers and no name.
	raw := "MSH|^~\\&|A|B|C|D|20230101||ADT^A01|C1|P|2.5\rEVN|A01"
	msg := parseMessage(t, raw)
	tr := newTransformer()

	// Lenient: partial envelope with accumulated errors.
	envelope, err := tr.TransformHL7(msg, SystemEpic, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if envelope.Validation.IsValid {
		t.Error("expected invalid envelope")
	}
	if len(envelope.Validation.Errors) == 0 {
		t.Fatal("expected accumulated validation errors")
	}
	for _, ve := range envelope.Validation.Errors {
		if ve.Field == "" || ve.Code == "" {
			t.Errorf("validation error missing field or code: %+v", ve)
		}
	}

	// Strict: the same violations become a typed error.
	_, err = tr.TransformHL7(msg, SystemEpic, Options{StrictValidation: true})
	var strictErr *StrictValidationError
	if !errors.As(err, &strictErr) {
		t.Fatalf("expected StrictValidationError, got %v", err)
	}
	if len(strictErr.Errors) == 0 {
		t.Error("expected errors on the strict validation error")
	}
}

func TestTransformFHIR_Patient(t *testing.T) {
	resource := map[string]interface{}{
		"resourceType": "Patient",
		"id":           "pat-1",
		"meta":         map[string]interface{}{"versionId": "3"},
		"identifier": []interface{}{
			map[string]interface{}{
				"system": "MRN",
				"value":  "12345",
				"type":   map[string]interface{}{"text": "MRN"},
			},
		},
		"name": []interface{}{
			map[string]interface{}{
				"family": "Doe",
				"given":  []interface{}{"John", "A"},
			},
		},
		"birthDate": "1980-05-15",
		"gender":    "male",
	}

	envelope, err := newTransformer().TransformFHIR(resource, SystemGenericFHIR, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if envelope.ResourceType != KindPatient {
		t.Errorf("expected resource type Patient, got %q", envelope.ResourceType)
	}
	if envelope.PatientID != "12345" {
		t.Errorf("expected patient id '12345', got %q", envelope.PatientID)
	}
	if envelope.Version != "3" {
		t.Errorf("expected version '3', got %q", envelope.Version)
	}

	name, _ := envelope.Data["name"].(map[string]interface{})
	if name["family"] != "Doe" || name["given"] != "John" {
		t.Errorf("unexpected name: %v", name)
	}
	if !envelope.Validation.IsValid {
		t.Errorf("expected valid envelope, errors: %v", envelope.Validation.Errors)
	}
}

func TestTransformFHIR_Observation(t *testing.T) {
	resource := map[string]interface{}{
		"resourceType": "Observation",
		"status":       "final",
		"subject":      map[string]interface{}{"reference": "Patient/pat-9"},
		"code": map[string]interface{}{
			"coding": []interface{}{
				map[string]interface{}{
					"code":    "8480-6",
					"display": "Systolic",
					"system":  "http://loinc.org",
				},
			},
		},
		"valueQuantity": map[string]interface{}{
			"value": float64(120),
			"unit":  "mmHg",
		},
	}

	envelope, err := newTransformer().TransformFHIR(resource, SystemGenericFHIR, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if envelope.PatientID != "pat-9" {
		t.Errorf("expected patient id 'pat-9', got %q", envelope.PatientID)
	}
	observations, _ := envelope.Data["observation"].([]map[string]interface{})
	if len(observations) != 1 {
		t.Fatalf("expected 1 observation, got %v", envelope.Data["observation"])
	}
	if observations[0]["code"] != "8480-6^Systolic^http://loinc.org" {
		t.Errorf("unexpected code: %v", observations[0]["code"])
	}
	if observations[0]["value"] != "120" {
		t.Errorf("expected value '120', got %v", observations[0]["value"])
	}
}

func TestTransformFHIR_UnsupportedResourceType(t *testing.T) {
	resource := map[string]interface{}{"resourceType": "Bundle"}

	_, err := newTransformer().TransformFHIR(resource, SystemGenericFHIR, Options{})
	var resErr *UnsupportedResourceError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected UnsupportedResourceError, got %v", err)
	}
}
