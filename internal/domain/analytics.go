package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyPerformance is one row of the externally owned analytics schema.
// Grain: (property_id, date).
type DailyPerformance struct {
	PropertyID     int64
	Date           time.Time
	RoomsAvailable int
	RoomsSold      int
	Revenue        decimal.Decimal
	OccupancyRate  decimal.Decimal // 0..1
	ADR            decimal.Decimal
	RevPAR         decimal.Decimal
}

type Reservation struct {
	ID          int64
	PropertyID  int64
	BookedAt    time.Time
	CancelledAt *time.Time
	Checkin     time.Time
	Checkout    time.Time
	Rooms       int
	Revenue     decimal.Decimal
	Status      string
}

// StayOnBooks is rooms and revenue held for one stay date at a cutoff.
type StayOnBooks struct {
	Date    time.Time
	Rooms   int
	Revenue decimal.Decimal
}

type DateRange struct {
	Start time.Time
	End   time.Time // inclusive
}

// Days returns the number of calendar days in the range, both ends included.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

type ChartPoint struct {
	Date  time.Time
	Value decimal.Decimal
}

type SummaryTotals struct {
	Revenue   decimal.Decimal
	RoomsSold int
	ADR       decimal.Decimal
	RevPAR    decimal.Decimal
	Occupancy decimal.Decimal
}

type Summary struct {
	PropertyID int64
	Range      DateRange
	ADR        []ChartPoint
	RevPAR     []ChartPoint
	Revenue    []ChartPoint
	Occupancy  []ChartPoint
	Totals     SummaryTotals
}

type PickupPoint struct {
	Date    time.Time
	Rooms   int
	Revenue decimal.Decimal
}

type Pickup struct {
	PropertyID   int64
	Range        DateRange
	AsOf         time.Time
	Window       int
	Series       []PickupPoint
	TotalRooms   int
	TotalRevenue decimal.Decimal
}

type Occupancy struct {
	PropertyID int64
	Date       time.Time
	Range      DateRange
	Value      *decimal.Decimal // nil when date has no row
	Left       decimal.Decimal
	Right      decimal.Decimal
}
