package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeTransport, cause, "issue create")

	if err.Code() != CodeTransport {
		t.Fatalf("expected transport code, got %s", err.Code())
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
}

func TestAsFindsNestedTypedError(t *testing.T) {
	typed := New(CodePartialMove, "delete failed after create")
	wrapped := fmt.Errorf("move item: %w", typed)

	found := As(wrapped)
	if found == nil {
		t.Fatal("expected typed error in chain")
	}
	if found.Code() != CodePartialMove {
		t.Fatalf("expected partial move code, got %s", found.Code())
	}
}

func TestAsReturnsNilForPlainError(t *testing.T) {
	if As(errors.New("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
}

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeNotAuthenticated, http.StatusUnauthorized},
		{CodeValidation, http.StatusBadRequest},
		{CodeTransport, http.StatusServiceUnavailable},
		{CodePartialMove, http.StatusServiceUnavailable},
		{CodeNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("code %s: expected status %d got %d", tc.code, tc.status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestDumpCollectsChain(t *testing.T) {
	root := errors.New("broken pipe")
	err := Wrap(CodeTransport, root, "publish snapshot")

	dump := Dump(err)
	if dump.Code != CodeTransport {
		t.Fatalf("expected transport code, got %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected chain of at least 2, got %d", len(dump.Chain))
	}
}
