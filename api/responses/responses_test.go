package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/pantryline/pantryline-backend/pkg/errors"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (code, message string, details map[string]any) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return envelope.Error.Code, envelope.Error.Message, envelope.Error.Details
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data["status"] != "ok" {
		t.Fatalf("data = %v", envelope.Data)
	}
}

func TestWriteErrorTypedMessagePassThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeNotFound, "item not in mirror"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	code, message, _ := decodeError(t, rec)
	if code != "NOT_FOUND" || message != "item not in mirror" {
		t.Fatalf("code=%s message=%q", code, message)
	}
}

func TestWriteErrorTransportHidesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.Wrap(pkgerrors.CodeTransport, errors.New("dial tcp: refused"), "publishing snapshot"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	code, message, _ := decodeError(t, rec)
	if code != "TRANSPORT_FAILURE" {
		t.Fatalf("code = %s", code)
	}
	// internal wording must not leak
	if message != "remote store unavailable" {
		t.Fatalf("message = %q", message)
	}
}

func TestWriteErrorPartialMoveCarriesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodePartialMove, "delete failed after create").
		WithDetails(map[string]string{"source_id": "a", "new_id": "b"})
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	code, _, details := decodeError(t, rec)
	if code != "PARTIAL_MOVE" {
		t.Fatalf("code = %s", code)
	}
	if details["source_id"] != "a" || details["new_id"] != "b" {
		t.Fatalf("details = %v", details)
	}
}

func TestWriteErrorUntypedBecomesInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("nil map write"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	code, message, _ := decodeError(t, rec)
	if code != "INTERNAL_ERROR" || message != "internal server error" {
		t.Fatalf("code=%s message=%q", code, message)
	}
}

func TestWriteErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}
