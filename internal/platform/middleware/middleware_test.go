package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestID_Generated(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error {
		if rid, ok := c.Get("request_id").(string); !ok || rid == "" {
			t.Error("expected request_id in context")
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected generated request id on response")
	}
}

func TestRequestID_Preserved(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "caller-supplied-id" {
		t.Errorf("expected caller id preserved, got %q", got)
	}
}

func TestAudit_RecordsAPIAccess(t *testing.T) {
	var entries []AuditEntry
	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		entries = append(entries, entry)
		return nil
	})

	e := echo.New()
	e.Use(Audit(zerolog.Nop(), recorder))
	e.POST("/api/v1/hl7v2/parse", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hl7v2/parse", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Action != "create" {
		t.Errorf("expected action 'create', got %q", entry.Action)
	}
	if entry.Path != "/api/v1/hl7v2/parse" {
		t.Errorf("unexpected path %q", entry.Path)
	}
	if entry.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", entry.StatusCode)
	}

	// Non-API paths are not audited.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if len(entries) != 1 {
		t.Errorf("expected health check to be unaudited, got %d entries", len(entries))
	}
}

func TestLogger_EmitsIngestCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	e.Use(Logger(logger))
	e.POST("/api/v1/hl7v2/transform", func(c echo.Context) error {
		c.Set(MessageControlIDKey, "MSG001")
		c.Set(MessageTypeKey, "ADT")
		c.Set(RecordIDKey, "rec-1")
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hl7v2/transform", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal log line: %v", err)
	}
	if entry["message_control_id"] != "MSG001" {
		t.Errorf("expected message_control_id MSG001, got %v", entry["message_control_id"])
	}
	if entry["message_type"] != "ADT" {
		t.Errorf("expected message_type ADT, got %v", entry["message_type"])
	}
	if entry["record_id"] != "rec-1" {
		t.Errorf("expected record_id rec-1, got %v", entry["record_id"])
	}
	if entry["method"] != "POST" {
		t.Errorf("expected method POST, got %v", entry["method"])
	}
}

func TestLogger_SkipsUnsetCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	e.Use(Logger(logger))
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal log line: %v", err)
	}
	if _, ok := entry["message_control_id"]; ok {
		t.Error("expected no message_control_id on a request that set none")
	}
}

func TestRecovery_PanicReturns500(t *testing.T) {
	e := echo.New()
	e.Use(Recovery(zerolog.Nop()))
	e.GET("/panic", func(c echo.Context) error {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRecovery_LogsPanicContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	e.Use(Recovery(logger))
	e.POST("/api/v1/hl7v2/parse", func(c echo.Context) error {
		c.Set(MessageControlIDKey, "MSG777")
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hl7v2/parse", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal log line: %v", err)
	}
	if entry["message_control_id"] != "MSG777" {
		t.Errorf("expected message_control_id MSG777, got %v", entry["message_control_id"])
	}
	if entry["path"] != "/api/v1/hl7v2/parse" {
		t.Errorf("expected panic path recorded, got %v", entry["path"])
	}
	if entry["panic"] != "boom" {
		t.Errorf("expected panic value recorded, got %v", entry["panic"])
	}
}
