package domain

import (
	"context"
	"time"
)

type PropertyRepository interface {
	// Write paths
	CreateProperty(ctx context.Context, profileID int64, p Property) (Property, error)
	UpdateProperty(ctx context.Context, profileID int64, p Property) (Property, error)
	SoftDeleteProperty(ctx context.Context, profileID, id int64, at time.Time) error

	// Read paths, all scoped to the owning profile except where noted
	GetProperty(ctx context.Context, profileID, id int64) (Property, error)
	ListProperties(ctx context.Context, profileID int64) ([]Property, error)
	ListCompetitors(ctx context.Context, propertyID int64) ([]LinkedCompetitor, error)
	ListCompetitorPrices(ctx context.Context, q CompetitorPriceQuery) ([]HistoricalCompetitorPrice, error)
	ListSnapshots(ctx context.Context, q SnapshotQuery) ([]PriceSnapshot, error)
}

type ProfileRepository interface {
	ProfileByUser(ctx context.Context, userID int64) (Profile, error)
}

// PriceStore is the write side used by the historical price populator.
type PriceStore interface {
	ActiveProperties(ctx context.Context) ([]Property, error)
	FindCompetitor(ctx context.Context, externalID string) (Competitor, error)
	GetOrCreateCompetitor(ctx context.Context, c Competitor) (Competitor, bool, error)
	LinkCompetitor(ctx context.Context, link PropertyCompetitor) (bool, error)
	IsLinked(ctx context.Context, propertyID, competitorID int64) (bool, error)
	InsertPrices(ctx context.Context, rows []HistoricalCompetitorPrice, batchSize int) (int64, error)
	DeleteCompetitorData(ctx context.Context, externalIDs []string) (DeleteCounts, error)

	// InTx runs fn against a store bound to one transaction. fn's error rolls it back.
	InTx(ctx context.Context, fn func(PriceStore) error) error
}

type DeleteCounts struct {
	Prices      int64
	Links       int64
	Competitors int64
}

// SnapshotStore is the write side used by the price snapshot collector.
type SnapshotStore interface {
	ActiveProperties(ctx context.Context) ([]Property, error)
	UpsertSnapshots(ctx context.Context, ss []PriceSnapshot) error
	LogMiss(ctx context.Context, propertyID int64, status int, reason string) error
}

// AnalyticsReader reads the externally owned analytics schema. It has no write path.
type AnalyticsReader interface {
	DailyPerformance(ctx context.Context, propertyID int64, r DateRange) ([]DailyPerformance, error)
	// Reservations returns reservations with a night inside r that were booked at or before bookedBy.
	Reservations(ctx context.Context, propertyID int64, r DateRange, bookedBy time.Time) ([]Reservation, error)
}

type QuoteClient interface {
	GetPriceBreakdown(ctx context.Context, hotelID string, checkin, checkout time.Time) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
