package udm

import "fmt"

// validateSchema checks an envelope against the canonical UDM shape. Every
// violation is accumulated as one ValidationError rather than thrown;
// softer deviations become warnings. Field paths and codes only — values
// never appear in errors.
func validateSchema(envelope *EMRData) ([]ValidationError, []string) {
	var errs []ValidationError
	var warnings []string

	if !KnownSystem(envelope.System) {
		errs = append(errs, ValidationError{
			Field:   "system",
			Code:    "unknown_system",
			Message: "system must be one of epic, cerner, generic-fhir",
		})
	}

	switch envelope.ResourceType {
	case KindPatient, KindOrder, KindObservation:
	default:
		errs = append(errs, ValidationError{
			Field:   "resourceType",
			Code:    "unknown_resource_type",
			Message: "resourceType must be Patient, Order, or Observation",
		})
	}

	if len(envelope.Data) == 0 {
		errs = append(errs, ValidationError{
			Field:   "data",
			Code:    "empty",
			Message: "data must contain at least one field",
		})
		return errs, warnings
	}

	if envelope.PatientID == "" {
		warnings = append(warnings, "patientId is empty")
	}
	if envelope.Version == "" {
		warnings = append(warnings, "version is empty")
	}

	switch envelope.ResourceType {
	case KindPatient:
		errs = append(errs, validatePatientData(envelope.Data)...)
	case KindOrder:
		errs = append(errs, validateOrderData(envelope.Data)...)
	case KindObservation:
		errs = append(errs, validateObservationData(envelope.Data)...)
	}

	return errs, warnings
}

func validatePatientData(data map[string]interface{}) []ValidationError {
	var errs []ValidationError

	identifiers, ok := data["identifiers"].([]map[string]interface{})
	if !ok {
		errs = append(errs, ValidationError{
			Field:   "data.identifiers",
			Code:    "missing",
			Message: "patient data requires an identifiers list",
		})
	} else {
		for i, ident := range identifiers {
			if v, _ := ident["value"].(string); v == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("data.identifiers[%d].value", i),
					Code:    "missing",
					Message: "identifier value is required",
				})
			}
		}
	}

	if _, ok := data["name"].(map[string]interface{}); !ok {
		errs = append(errs, ValidationError{
			Field:   "data.name",
			Code:    "missing",
			Message: "patient data requires a name object",
		})
	}

	return errs
}

func validateOrderData(data map[string]interface{}) []ValidationError {
	var errs []ValidationError

	if c, _ := data["code"].(string); c == "" {
		errs = append(errs, ValidationError{
			Field:   "data.code",
			Code:    "missing",
			Message: "order data requires a service code",
		})
	}
	return errs
}

func validateObservationData(data map[string]interface{}) []ValidationError {
	var errs []ValidationError

	observations, ok := data["observation"].([]map[string]interface{})
	if !ok || len(observations) == 0 {
		errs = append(errs, ValidationError{
			Field:   "data.observation",
			Code:    "missing",
			Message: "observation data requires at least one observation entry",
		})
		return errs
	}

	for i, obs := range observations {
		if c, _ := obs["code"].(string); c == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("data.observation[%d].code", i),
				Code:    "missing",
				Message: "observation code is required",
			})
		}
		if v, _ := obs["value"].(string); v == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("data.observation[%d].value", i),
				Code:    "missing",
				Message: "observation value is required",
			})
		}
	}

	return errs
}
