package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Competitor struct {
	ID         int64
	ExternalID string
	Name       string
	ValidFrom  *time.Time
	ValidTo    *time.Time
}

type PropertyCompetitor struct {
	PropertyID   int64
	CompetitorID int64
	OnlyFollow   bool
}

// LinkedCompetitor is a competitor as seen from one property.
type LinkedCompetitor struct {
	Competitor
	OnlyFollow bool
}

// HistoricalCompetitorPrice is one scraped observation. Rows are only ever inserted.
type HistoricalCompetitorPrice struct {
	ID               int64
	CompetitorID     int64
	CheckinDate      time.Time
	RoomName         string
	RawPrice         decimal.Decimal
	Currency         string
	CancellationType string
	MaxPersons       int
	MinLengthOfStay  int
	IsAvailable      bool
	ScrapedAt        time.Time
}

type CompetitorPriceQuery struct {
	PropertyID int64
	From, To   time.Time // check-in window, To exclusive
	Limit      int
}
