package domain

import (
	"encoding/json"
	"testing"
)

func TestNumberDecodesLiberally(t *testing.T) {
	var payload struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
		F Number `json:"f"`
	}
	raw := `{"a": 12.5, "b": " 7 ", "c": "abc", "d": null, "e": {"x": 1}, "f": true}`
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.A != 12.5 || payload.B != 7 || payload.C != 0 || payload.D != 0 || payload.E != 0 || payload.F != 1 {
		t.Fatalf("unexpected values %+v", payload)
	}
}

func TestFlexDateAcceptsStringsAndNumbers(t *testing.T) {
	var payload struct {
		A FlexDate `json:"a"`
		B FlexDate `json:"b"`
		C FlexDate `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": "2024-03-15 10:00", "b": 1710498000000, "c": null}`), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.A != "2024-03-15 10:00" || payload.B != "1710498000000" || payload.C != "" {
		t.Fatalf("unexpected values %+v", payload)
	}
}

func TestInvoiceOmitsLegacyFieldsWhenZero(t *testing.T) {
	out, err := json.Marshal(Invoice{ID: "INV-1", Amount: 3})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := decoded["total"]; ok {
		t.Fatalf("expected total to be omitted, got %s", out)
	}
	if decoded["amount"] != float64(3) {
		t.Fatalf("expected amount 3, got %v", decoded["amount"])
	}
}
