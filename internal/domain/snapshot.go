package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSnapshot mirrors one price-breakdown response of the external booking
// site, taken at AsOf. Unique on (HotelID, CheckinDate, CheckoutDate, AsOf).
type PriceSnapshot struct {
	ID            int64
	PropertyID    int64
	HotelID       string
	CheckinDate   time.Time
	CheckoutDate  time.Time
	AsOf          time.Time
	Currency      *string
	GrossPrice    *decimal.Decimal
	NetPrice      *decimal.Decimal
	BasePrice     *decimal.Decimal
	IncludedTaxes *decimal.Decimal
	ExcludedTaxes *decimal.Decimal
	Discount      *decimal.Decimal
	RoomName      *string
	Board         *string
	Refundable    *bool
	RawJSON       []byte
}

type SnapshotQuery struct {
	PropertyID  int64
	CheckinDate *time.Time
	Limit       int
}
