package ingest

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/emrbridge/emrbridge/internal/platform/hl7v2"
	"github.com/emrbridge/emrbridge/internal/platform/middleware"
	"github.com/emrbridge/emrbridge/internal/platform/udm"
	"github.com/emrbridge/emrbridge/internal/store"
	"github.com/emrbridge/emrbridge/pkg/pagination"
)

// Handler exposes the ingest pipeline over HTTP.
type Handler struct {
	svc           *Service
	defaultSystem udm.System
}

// NewHandler creates an ingest HTTP handler. defaultSystem tags requests
// that do not state their source vendor.
func NewHandler(svc *Service, defaultSystem udm.System) *Handler {
	return &Handler{svc: svc, defaultSystem: defaultSystem}
}

// RegisterRoutes registers ingest endpoints on the provided route group.
//
//	POST /hl7v2/parse              - Parse HL7 v2 text to its JSON projection
//	POST /hl7v2/transform          - Parse + transform + persist HL7 v2 text
//	POST /fhir/transform           - Transform + persist a FHIR resource
//	GET  /records/:id              - Fetch one persisted envelope
//	GET  /patients/:patientId/records - List envelopes for a patient
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/hl7v2/parse", h.ParseMessage)
	g.POST("/hl7v2/transform", h.TransformHL7)
	g.POST("/fhir/transform", h.TransformFHIR)
	g.GET("/records/:id", h.GetRecord)
	g.GET("/patients/:patientId/records", h.ListPatientRecords)
}

// ParseMessage handles POST /hl7v2/parse. It reads raw HL7 v2 from the
// request body and returns the parsed JSON projection.
func (h *Handler) ParseMessage(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("failed to read request body"))
	}

	msg, err := h.svc.ParseHL7(string(body))
	if err != nil {
		return parseErrorResponse(c, err)
	}

	c.Set(middleware.MessageControlIDKey, msg.MessageControlID)
	c.Set(middleware.MessageTypeKey, msg.MessageType)

	return c.JSON(http.StatusOK, msg)
}

// TransformHL7 handles POST /hl7v2/transform. Query parameters: system
// (epic|cerner|generic-fhir) and strict (strict validation flag).
func (h *Handler) TransformHL7(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("failed to read request body"))
	}

	system, opts := h.requestOptions(c)
	id, envelope, err := h.svc.IngestHL7(c.Request().Context(), string(body), system, opts)
	if err != nil {
		return transformErrorResponse(c, err)
	}

	c.Set(middleware.RecordIDKey, idString(id))

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":     idString(id),
		"record": envelope,
	})
}

// TransformFHIR handles POST /fhir/transform with a JSON resource body.
func (h *Handler) TransformFHIR(c echo.Context) error {
	var resource map[string]interface{}
	if err := c.Bind(&resource); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid JSON body"))
	}

	system, opts := h.requestOptions(c)
	id, envelope, err := h.svc.IngestFHIR(c.Request().Context(), resource, system, opts)
	if err != nil {
		return transformErrorResponse(c, err)
	}

	c.Set(middleware.RecordIDKey, idString(id))

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":     idString(id),
		"record": envelope,
	})
}

// GetRecord handles GET /records/:id.
func (h *Handler) GetRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid record id"))
	}

	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorBody("record not found"))
		}
		return c.JSON(http.StatusInternalServerError, errorBody("failed to fetch record"))
	}

	return c.JSON(http.StatusOK, rec)
}

// ListPatientRecords handles GET /patients/:patientId/records.
func (h *Handler) ListPatientRecords(c echo.Context) error {
	p := pagination.FromContext(c)

	records, err := h.svc.ListRecordsByPatient(c.Request().Context(), c.Param("patientId"), p.Limit, p.Offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody("failed to list records"))
	}
	if records == nil {
		records = []*store.Record{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// requestOptions resolves the vendor tag and transform options from query
// parameters.
func (h *Handler) requestOptions(c echo.Context) (udm.System, udm.Options) {
	system := h.defaultSystem
	if q := c.QueryParam("system"); q != "" {
		system = udm.System(q)
	}
	strict, _ := strconv.ParseBool(c.QueryParam("strict"))
	return system, udm.Options{StrictValidation: strict}
}

// parseErrorResponse maps parser errors onto transport status codes.
// Structural failures reject the whole message as a bad request; a missing
// required segment is a semantically understood but unprocessable message.
func parseErrorResponse(c echo.Context, err error) error {
	var missingSeg *hl7v2.MissingRequiredSegmentError
	if errors.As(err, &missingSeg) {
		return c.JSON(http.StatusUnprocessableEntity, errorBody(err.Error()))
	}
	return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
}

// transformErrorResponse maps ingest pipeline errors onto status codes.
func transformErrorResponse(c echo.Context, err error) error {
	var strictErr *udm.StrictValidationError
	if errors.As(err, &strictErr) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  strictErr.Error(),
			"errors": strictErr.Errors,
		})
	}

	var sysErr *udm.UnsupportedSystemError
	var resErr *udm.UnsupportedResourceError
	if errors.As(err, &sysErr) || errors.As(err, &resErr) {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}

	return parseErrorResponse(c, err)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
