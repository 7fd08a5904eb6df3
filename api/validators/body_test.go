package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/pantryline/pantryline-backend/pkg/errors"
)

type samplePayload struct {
	Name string `json:"name" validate:"required,min=1,max=10"`
	Kind string `json:"kind" validate:"omitempty,oneof=pantry grocery"`
}

func decode(t *testing.T, body string) (samplePayload, error) {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	var dest samplePayload
	err := DecodeJSONBody(req, &dest)
	return dest, err
}

func TestDecodeJSONBodyValid(t *testing.T) {
	dest, err := decode(t, `{"name":"Milk","kind":"pantry"}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dest.Name != "Milk" || dest.Kind != "pantry" {
		t.Fatalf("decoded = %+v", dest)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	_, err := decode(t, `{"name":"Milk","surprise":true}`)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v", err)
	}
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	_, err := decode(t, `{"name":`)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v", err)
	}
}

func TestDecodeJSONBodyFieldMessages(t *testing.T) {
	_, err := decode(t, `{"kind":"freezer"}`)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("details = %#v", typed.Details())
	}
	if details["name"] != "is required" {
		t.Fatalf("name message = %q", details["name"])
	}
	if details["kind"] != "must be one of pantry grocery" {
		t.Fatalf("kind message = %q", details["kind"])
	}
}
