package enums

import "testing"

func TestParseOrderType(t *testing.T) {
	got, err := ParseOrderType("delivery")
	if err != nil || got != OrderTypeDelivery {
		t.Fatalf("expected delivery, got %q err=%v", got, err)
	}
	if !got.IsDelivery() {
		t.Fatalf("delivery should report IsDelivery")
	}
	if _, err := ParseOrderType("curbside"); err == nil {
		t.Fatalf("expected error for unknown order type")
	}
	if OrderType("Pickup").IsValid() {
		t.Fatalf("order types are case-sensitive")
	}
	if OrderTypePickup.IsDelivery() {
		t.Fatalf("pickup is not delivery")
	}
}
