package app

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"hotel_revenue/internal/domain"
)

/********** alias registries (single source of truth) **********/

// The booking site has shipped several response shapes; every field lists
// the paths seen so far, preferred first.
var quoteAliases = map[string][]string{
	"currency":  {"currency", "currency_code", "price_breakdown.currency", "product_price_breakdown.gross_amount.currency", "gross_amount.currency"},
	"room_name": {"room_name", "room.name", "block.room_name", "name_without_policy", "name"},
	"board":     {"board", "meal_plan", "mealplan", "block.mealplan", "room.board"},
}

var amountAliases = map[string][]string{
	"gross": {
		"gross_price", "price_breakdown.gross_price", "gross_amount.value",
		"product_price_breakdown.gross_amount.value", "all_inclusive_amount.value",
	},
	"net":  {"net_price", "price_breakdown.net_price", "net_amount.value", "product_price_breakdown.net_amount.value"},
	"base": {"base_price", "price_breakdown.base_price", "strikethrough_amount.value", "product_price_breakdown.strikethrough_amount.value"},
	"included_taxes": {
		"included_taxes", "price_breakdown.included_taxes", "included_taxes_and_charges_amount.value",
		"product_price_breakdown.included_taxes_and_charges_amount.value",
	},
	"excluded_taxes": {"excluded_taxes", "price_breakdown.excluded_taxes", "excluded_amount.value", "product_price_breakdown.excluded_amount.value"},
	"discount":       {"discount", "price_breakdown.discount", "discounted_amount.value", "product_price_breakdown.discounted_amount.value"},
}

var refundableAliases = []string{"refundable", "is_refundable", "block.refundable", "policy.refundable"}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return &s
		}
	}
	return nil
}

// decimalFlexible: amount from several paths (float64/int/string like "89,50").
func decimalFlexible(m map[string]any, paths ...string) *decimal.Decimal {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			d := decimal.NewFromFloat(v).Round(2)
			return &d
		case int:
			d := decimal.NewFromInt(int64(v))
			return &d
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if d, err := decimal.NewFromString(s); err == nil {
				d = d.Round(2)
				return &d
			}
		}
	}
	return nil
}

// boolFlexible: bool from several paths (bool, 0/1, "true"/"false").
func boolFlexible(m map[string]any, paths ...string) *bool {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case bool:
			b := v
			return &b
		case float64:
			b := v != 0
			return &b
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return &b
			}
		}
	}
	return nil
}

/********** snapshot mapper **********/

func mapSnapshot(propertyID int64, hotelID string, checkin, checkout, asOf time.Time, payload map[string]any) domain.PriceSnapshot {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("context", "mapSnapshot").Msg("failed to marshal quote to JSON")
	}

	// some responses wrap the breakdown in {"data": {...}}
	p := payload
	if inner, ok := payload["data"].(map[string]any); ok {
		p = inner
	}

	s := domain.PriceSnapshot{
		PropertyID:    propertyID,
		HotelID:       hotelID,
		CheckinDate:   checkin,
		CheckoutDate:  checkout,
		AsOf:          asOf,
		Currency:      firstNonEmptyAlias(p, quoteAliases, "currency"),
		GrossPrice:    decimalFlexible(p, amountAliases["gross"]...),
		NetPrice:      decimalFlexible(p, amountAliases["net"]...),
		BasePrice:     decimalFlexible(p, amountAliases["base"]...),
		IncludedTaxes: decimalFlexible(p, amountAliases["included_taxes"]...),
		ExcludedTaxes: decimalFlexible(p, amountAliases["excluded_taxes"]...),
		Discount:      decimalFlexible(p, amountAliases["discount"]...),
		RoomName:      firstNonEmptyAlias(p, quoteAliases, "room_name"),
		Board:         firstNonEmptyAlias(p, quoteAliases, "board"),
		Refundable:    boolFlexible(p, refundableAliases...),
		RawJSON:       raw,
	}
	if s.Currency != nil {
		c := strings.ToUpper(*s.Currency)
		s.Currency = &c
	}

	// Net is gross without included taxes when the site omits it.
	if s.NetPrice == nil && s.GrossPrice != nil && s.IncludedTaxes != nil {
		n := s.GrossPrice.Sub(*s.IncludedTaxes)
		s.NetPrice = &n
	}
	if s.Refundable == nil {
		if pol := strings.ToLower(lookupStr(p, "cancellation_type")); pol != "" {
			b := strings.Contains(pol, "free")
			s.Refundable = &b
		}
	}
	return s
}
