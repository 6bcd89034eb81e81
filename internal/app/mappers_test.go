package app

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMapSnapshot_FlatPayload(t *testing.T) {
	in := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	s := mapSnapshot(1, "bk-1", in, in.AddDate(0, 0, 1), in, map[string]any{
		"currency_code":  "eur",
		"gross_price":    "120,50",
		"included_taxes": 10.5,
		"room":           map[string]any{"name": "Deluxe King"},
		"meal_plan":      "breakfast",
		"is_refundable":  "true",
	})

	if s.Currency == nil || *s.Currency != "EUR" {
		t.Fatalf("currency: %v", s.Currency)
	}
	if s.GrossPrice == nil || s.GrossPrice.String() != "120.5" {
		t.Fatalf("gross: %v", s.GrossPrice)
	}
	if s.NetPrice == nil || s.NetPrice.String() != "110" {
		t.Fatalf("net should be derived from gross minus included taxes: %v", s.NetPrice)
	}
	if s.RoomName == nil || *s.RoomName != "Deluxe King" || s.Board == nil || *s.Board != "breakfast" {
		t.Fatalf("room/board: %v %v", s.RoomName, s.Board)
	}
	if s.Refundable == nil || !*s.Refundable {
		t.Fatalf("refundable: %v", s.Refundable)
	}
	if !json.Valid(s.RawJSON) {
		t.Fatalf("raw json invalid: %s", s.RawJSON)
	}
}

func TestMapSnapshot_NestedDataAndPolicy(t *testing.T) {
	in := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	s := mapSnapshot(1, "bk-1", in, in.AddDate(0, 0, 1), in, map[string]any{
		"data": map[string]any{
			"product_price_breakdown": map[string]any{
				"gross_amount": map[string]any{"value": 200.0, "currency": "USD"},
				"net_amount":   map[string]any{"value": 180.0},
			},
			"cancellation_type": "non_refundable",
		},
	})

	if s.Currency == nil || *s.Currency != "USD" {
		t.Fatalf("currency: %v", s.Currency)
	}
	if s.GrossPrice == nil || s.GrossPrice.IntPart() != 200 || s.NetPrice == nil || s.NetPrice.IntPart() != 180 {
		t.Fatalf("amounts: %v %v", s.GrossPrice, s.NetPrice)
	}
	if s.Refundable == nil || *s.Refundable {
		t.Fatalf("non_refundable policy should map to false: %v", s.Refundable)
	}
	if s.Discount != nil || s.RoomName != nil {
		t.Fatalf("absent fields should stay nil: %v %v", s.Discount, s.RoomName)
	}
}
