package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"hotel_revenue/internal/domain"
)

const day = 24 * time.Hour

// AnalyticsService serves the chart endpoints. Every call first checks the
// caller owns the property, then answers from cache or the analytics schema.
type AnalyticsService struct {
	props    domain.PropertyRepository
	reader   domain.AnalyticsReader
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewAnalyticsService(p domain.PropertyRepository, r domain.AnalyticsReader, c domain.Cache, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{props: p, reader: r, cache: c, cacheTTL: ttl}
}

func (s *AnalyticsService) Summary(ctx context.Context, profileID, propertyID int64, r domain.DateRange) (domain.Summary, error) {
	r = normalizeRange(r)
	if err := validateRange(r, "start_date", "end_date"); err != nil {
		return domain.Summary{}, err
	}
	if _, err := s.props.GetProperty(ctx, profileID, propertyID); err != nil {
		return domain.Summary{}, err
	}

	key := fmt.Sprintf("analytics:summary:%d:%s:%s", propertyID, dateKey(r.Start), dateKey(r.End))
	var out domain.Summary
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rows, err := s.reader.DailyPerformance(ctx, propertyID, r)
	if err != nil {
		return domain.Summary{}, err
	}
	out = buildSummary(propertyID, r, rows)
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// Pickup compares what was on the books for each stay date at the end of
// asOf against window days earlier.
func (s *AnalyticsService) Pickup(ctx context.Context, profileID, propertyID int64, r domain.DateRange, asOf time.Time, window int) (domain.Pickup, error) {
	r = normalizeRange(r)
	if err := validateRange(r, "start_date", "end_date"); err != nil {
		return domain.Pickup{}, err
	}
	if window < 1 || window > 365 {
		return domain.Pickup{}, &domain.ValidationError{Fields: map[string]string{"window": "must be between 1 and 365"}}
	}
	if _, err := s.props.GetProperty(ctx, profileID, propertyID); err != nil {
		return domain.Pickup{}, err
	}

	asOf = truncateDay(asOf)
	key := fmt.Sprintf("analytics:pickup:%d:%s:%s:%s:%d", propertyID, dateKey(r.Start), dateKey(r.End), dateKey(asOf), window)
	var out domain.Pickup
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	cutNow := asOf.Add(day - time.Nanosecond)
	cutPrev := cutNow.AddDate(0, 0, -window)

	var nowRes, prevRes []domain.Reservation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nowRes, err = s.reader.Reservations(gctx, propertyID, r, cutNow)
		return err
	})
	g.Go(func() error {
		var err error
		prevRes, err = s.reader.Reservations(gctx, propertyID, r, cutPrev)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Pickup{}, err
	}

	out = buildPickup(propertyID, r, asOf, window, onBooks(nowRes, r, cutNow), onBooks(prevRes, r, cutPrev))
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// Occupancy returns the rate on date, bounded by the lowest and highest
// daily rate of the trailing window ending on date. Value stays nil when
// the analytics schema has no row for date.
func (s *AnalyticsService) Occupancy(ctx context.Context, profileID, propertyID int64, date time.Time, window int) (domain.Occupancy, error) {
	if window < 1 || window > maxRangeDays {
		return domain.Occupancy{}, &domain.ValidationError{Fields: map[string]string{"window": "must be between 1 and 366"}}
	}
	if _, err := s.props.GetProperty(ctx, profileID, propertyID); err != nil {
		return domain.Occupancy{}, err
	}

	date = truncateDay(date)
	r := domain.DateRange{Start: date.AddDate(0, 0, -(window - 1)), End: date}
	key := fmt.Sprintf("analytics:occupancy:%d:%s:%d", propertyID, dateKey(date), window)
	var out domain.Occupancy
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rows, err := s.reader.DailyPerformance(ctx, propertyID, r)
	if err != nil {
		return domain.Occupancy{}, err
	}
	out = buildOccupancy(propertyID, date, r, rows)
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func buildSummary(propertyID int64, r domain.DateRange, rows []domain.DailyPerformance) domain.Summary {
	byDay := make(map[string]domain.DailyPerformance, len(rows))
	for _, d := range rows {
		byDay[dateKey(d.Date)] = d
	}

	n := r.Days()
	out := domain.Summary{
		PropertyID: propertyID,
		Range:      r,
		ADR:        make([]domain.ChartPoint, 0, n),
		RevPAR:     make([]domain.ChartPoint, 0, n),
		Revenue:    make([]domain.ChartPoint, 0, n),
		Occupancy:  make([]domain.ChartPoint, 0, n),
	}
	revenue := decimal.Zero
	sold, available := 0, 0
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		row := byDay[dateKey(d)] // zero value for missing days
		out.ADR = append(out.ADR, domain.ChartPoint{Date: d, Value: row.ADR.Round(2)})
		out.RevPAR = append(out.RevPAR, domain.ChartPoint{Date: d, Value: row.RevPAR.Round(2)})
		out.Revenue = append(out.Revenue, domain.ChartPoint{Date: d, Value: row.Revenue.Round(2)})
		out.Occupancy = append(out.Occupancy, domain.ChartPoint{Date: d, Value: row.OccupancyRate.Round(4)})
		revenue = revenue.Add(row.Revenue)
		sold += row.RoomsSold
		available += row.RoomsAvailable
	}

	out.Totals = domain.SummaryTotals{
		Revenue:   revenue.Round(2),
		RoomsSold: sold,
		ADR:       ratio(revenue, sold).Round(2),
		RevPAR:    ratio(revenue, available).Round(2),
		Occupancy: ratio(decimal.NewFromInt(int64(sold)), available).Round(4),
	}
	return out
}

// onBooks spreads each reservation's revenue evenly over its nights and sums
// rooms and revenue per stay date inside r, as known at cutoff.
func onBooks(rs []domain.Reservation, r domain.DateRange, cutoff time.Time) map[string]domain.StayOnBooks {
	out := map[string]domain.StayOnBooks{}
	for _, res := range rs {
		if res.BookedAt.After(cutoff) {
			continue
		}
		if res.CancelledAt != nil && !res.CancelledAt.After(cutoff) {
			continue
		}
		checkin, checkout := truncateDay(res.Checkin), truncateDay(res.Checkout)
		nights := int(checkout.Sub(checkin) / day)
		if nights <= 0 {
			continue
		}
		perNight := res.Revenue.Div(decimal.NewFromInt(int64(nights)))
		for d := checkin; d.Before(checkout); d = d.AddDate(0, 0, 1) {
			if d.Before(r.Start) || d.After(r.End) {
				continue
			}
			k := dateKey(d)
			cur := out[k]
			cur.Date = d
			cur.Rooms += res.Rooms
			cur.Revenue = cur.Revenue.Add(perNight)
			out[k] = cur
		}
	}
	return out
}

func buildPickup(propertyID int64, r domain.DateRange, asOf time.Time, window int, now, prev map[string]domain.StayOnBooks) domain.Pickup {
	out := domain.Pickup{
		PropertyID:   propertyID,
		Range:        r,
		AsOf:         asOf,
		Window:       window,
		Series:       make([]domain.PickupPoint, 0, r.Days()),
		TotalRevenue: decimal.Zero,
	}
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		k := dateKey(d)
		a, b := now[k], prev[k]
		pt := domain.PickupPoint{
			Date:    d,
			Rooms:   a.Rooms - b.Rooms,
			Revenue: a.Revenue.Sub(b.Revenue).Round(2),
		}
		out.Series = append(out.Series, pt)
		out.TotalRooms += pt.Rooms
		out.TotalRevenue = out.TotalRevenue.Add(pt.Revenue)
	}
	return out
}

func buildOccupancy(propertyID int64, date time.Time, r domain.DateRange, rows []domain.DailyPerformance) domain.Occupancy {
	out := domain.Occupancy{PropertyID: propertyID, Date: date, Range: r}
	for i, d := range rows {
		rate := d.OccupancyRate
		if i == 0 || rate.LessThan(out.Left) {
			out.Left = rate
		}
		if i == 0 || rate.GreaterThan(out.Right) {
			out.Right = rate
		}
		if truncateDay(d.Date).Equal(date) {
			v := rate.Round(4)
			out.Value = &v
		}
	}
	out.Left, out.Right = out.Left.Round(4), out.Right.Round(4)
	return out
}

func ratio(num decimal.Decimal, den int) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	return num.Div(decimal.NewFromInt(int64(den)))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalizeRange(r domain.DateRange) domain.DateRange {
	return domain.DateRange{Start: truncateDay(r.Start), End: truncateDay(r.End)}
}

func dateKey(t time.Time) string { return t.UTC().Format(time.DateOnly) }
