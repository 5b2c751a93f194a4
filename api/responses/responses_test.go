package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "bad input" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
	if body.Error.Details == nil {
		t.Fatalf("expected details in public payload")
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("dial tcp 10.0.0.1: refused"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 but got %d", w.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", body.Error.Message)
	}
}

func TestWriteFunctionError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		message     string
		wantDetails bool
	}{
		{
			name:        "validation",
			err:         pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields").WithDetails([]string{"customer.name"}),
			status:      http.StatusBadRequest,
			message:     "Missing required fields",
			wantDetails: true,
		},
		{
			name:        "upstream",
			err:         pkgerrors.New(pkgerrors.CodeUpstream, "Square API error").WithDetails([]map[string]string{{"code": "CARD_DECLINED"}}),
			status:      http.StatusBadGateway,
			message:     "Square API error",
			wantDetails: true,
		},
		{
			name:    "misconfigured",
			err:     pkgerrors.New(pkgerrors.CodeMisconfigured, "square access token missing"),
			status:  http.StatusInternalServerError,
			message: "server misconfigured",
		},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		WriteFunctionError(context.Background(), nil, w, tt.err)
		if w.Code != tt.status {
			t.Fatalf("%s: expected status %d got %d", tt.name, tt.status, w.Code)
		}
		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decode: %v", tt.name, err)
		}
		if body["error"] != tt.message {
			t.Fatalf("%s: unexpected error %v", tt.name, body["error"])
		}
		if _, ok := body["details"]; ok != tt.wantDetails {
			t.Fatalf("%s: details present=%v want %v", tt.name, ok, tt.wantDetails)
		}
	}
}

func TestWriteJSONHasNoEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, map[string]string{"orderId": "ORD1"})

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["orderId"] != "ORD1" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, ok := body["data"]; ok {
		t.Fatalf("raw body must not be enveloped")
	}
}
