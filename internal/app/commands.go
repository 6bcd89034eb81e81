package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_revenue/internal/domain"
)

// SnapshotCollector pulls price breakdowns from the booking site and stores
// them as price_history rows.
type SnapshotCollector struct {
	quotes domain.QuoteClient
	store  domain.SnapshotStore
	now    func() time.Time
}

func NewSnapshotCollector(q domain.QuoteClient, s domain.SnapshotStore) *SnapshotCollector {
	return &SnapshotCollector{quotes: q, store: s, now: time.Now}
}

// CollectProperty fetches 1-night quotes for the next days check-in dates and
// returns how many snapshots were stored. 404s are recorded as misses and
// skipped; 401/403 stop the property without failing the run.
func (s *SnapshotCollector) CollectProperty(ctx context.Context, p domain.Property, days int) (int, error) {
	if p.BookingHotelID == nil || *p.BookingHotelID == "" {
		return 0, nil
	}
	hotelID := *p.BookingHotelID
	asOf := s.now().UTC().Truncate(time.Second)
	today := truncateDay(asOf)

	out := make([]domain.PriceSnapshot, 0, days)
	for i := 0; i < days; i++ {
		checkin := today.AddDate(0, 0, i)
		checkout := checkin.AddDate(0, 0, 1)

		payload, err := s.quotes.GetPriceBreakdown(ctx, hotelID, checkin, checkout)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				// no availability for that night; keep going
				_ = s.store.LogMiss(ctx, p.ID, 404, "quote:"+dateKey(checkin))
				continue
			case errors.Is(err, domain.ErrUnauthorized):
				_ = s.store.LogMiss(ctx, p.ID, 403, "inactive")
				log.Warn().Int64("property", p.ID).Str("hotel", hotelID).Msg("booking site refused hotel; skipping")
				return 0, nil
			default:
				return 0, fmt.Errorf("quote %s %s: %w", hotelID, dateKey(checkin), err)
			}
		}
		out = append(out, mapSnapshot(p.ID, hotelID, checkin, checkout, asOf, payload))
	}

	if err := s.store.UpsertSnapshots(ctx, out); err != nil {
		return 0, fmt.Errorf("upsert snapshots for %d: %w", p.ID, err)
	}
	return len(out), nil
}
