package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"hotel_revenue/internal/domain"
)

var schemaName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Analytics reads tables owned by the external analytics pipeline. Nothing in
// this repository writes to that schema.
type Analytics struct {
	db             *sql.DB
	dailySQL       string
	reservationSQL string
}

func NewAnalytics(db *sql.DB, schema string) (*Analytics, error) {
	if !schemaName.MatchString(schema) {
		return nil, fmt.Errorf("invalid analytics schema name %q", schema)
	}
	qualify := func(q string) string { return strings.ReplaceAll(q, "{schema}", "`"+schema+"`") }
	return &Analytics{
		db:             db,
		dailySQL:       qualify(dailyPerformanceSQL),
		reservationSQL: qualify(reservationsSQL),
	}, nil
}

func (a *Analytics) DailyPerformance(ctx context.Context, propertyID int64, r domain.DateRange) ([]domain.DailyPerformance, error) {
	rows, err := a.db.QueryContext(ctx, a.dailySQL, propertyID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("daily performance: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyPerformance
	for rows.Next() {
		var d domain.DailyPerformance
		if err := rows.Scan(
			&d.PropertyID, &d.Date, &d.RoomsAvailable, &d.RoomsSold,
			&d.Revenue, &d.OccupancyRate, &d.ADR, &d.RevPAR,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (a *Analytics) Reservations(ctx context.Context, propertyID int64, r domain.DateRange, bookedBy time.Time) ([]domain.Reservation, error) {
	rows, err := a.db.QueryContext(ctx, a.reservationSQL, propertyID, r.End, r.Start, bookedBy)
	if err != nil {
		return nil, fmt.Errorf("reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		var cancelled sql.NullTime
		if err := rows.Scan(
			&res.ID, &res.PropertyID, &res.BookedAt, &cancelled, &res.Checkin, &res.Checkout,
			&res.Rooms, &res.Revenue, &res.Status,
		); err != nil {
			return nil, err
		}
		res.CancelledAt = timePtr(cancelled)
		out = append(out, res)
	}
	return out, rows.Err()
}
