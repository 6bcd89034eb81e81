package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hotel_revenue/internal/domain"
)

// MySQL caps a statement at 65535 placeholders.
const maxPlaceholders = 65535

func (r *Repo) InTx(ctx context.Context, fn func(domain.PriceStore) error) error {
	return r.withTx(ctx, func(q dbtx) error {
		return fn(&Repo{q: q})
	})
}

func (r *Repo) FindCompetitor(ctx context.Context, externalID string) (domain.Competitor, error) {
	var c domain.Competitor
	var from, to sql.NullTime
	err := r.q.QueryRowContext(ctx, findCompetitorSQL, externalID).
		Scan(&c.ID, &c.ExternalID, &c.Name, &from, &to)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Competitor{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Competitor{}, err
	}
	c.ValidFrom, c.ValidTo = timePtr(from), timePtr(to)
	return c, nil
}

// GetOrCreateCompetitor is keyed by ExternalID. An existing row is not
// overwritten and is returned as stored.
func (r *Repo) GetOrCreateCompetitor(ctx context.Context, c domain.Competitor) (domain.Competitor, bool, error) {
	res, err := r.q.ExecContext(ctx, getOrCreateCompetitorSQL,
		c.ExternalID, c.Name, valTime(c.ValidFrom), valTime(c.ValidTo))
	if err != nil {
		return domain.Competitor{}, false, fmt.Errorf("upsert competitor %s: %w", c.ExternalID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Competitor{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Competitor{}, false, err
	}
	if n != 1 {
		stored, err := r.FindCompetitor(ctx, c.ExternalID)
		return stored, false, err
	}
	c.ID = id
	return c, true, nil
}

func (r *Repo) LinkCompetitor(ctx context.Context, l domain.PropertyCompetitor) (bool, error) {
	res, err := r.q.ExecContext(ctx, linkCompetitorSQL, l.PropertyID, l.CompetitorID, l.OnlyFollow)
	if err != nil {
		return false, fmt.Errorf("link competitor %d to property %d: %w", l.CompetitorID, l.PropertyID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Repo) IsLinked(ctx context.Context, propertyID, competitorID int64) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx, isLinkedSQL, propertyID, competitorID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertPrices writes rows in multi-row INSERTs of at most batchSize rows.
// The first failing batch aborts; earlier batches stay written unless the
// caller runs inside InTx.
func (r *Repo) InsertPrices(ctx context.Context, rows []domain.HistoricalCompetitorPrice, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if limit := maxPlaceholders / pricesPerRow; batchSize <= 0 || batchSize > limit {
		batchSize = limit
	}

	var total int64
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		values := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*pricesPerRow)
		for _, p := range batch {
			values = append(values, priceRowPlaceholders)
			args = append(args,
				p.CompetitorID,
				p.CheckinDate,
				p.RoomName,
				p.RawPrice,
				p.Currency,
				p.CancellationType,
				p.MaxPersons,
				p.MinLengthOfStay,
				p.IsAvailable,
				p.ScrapedAt,
			)
		}
		res, err := r.q.ExecContext(ctx, insertPricesPrefix+strings.Join(values, ","), args...)
		if err != nil {
			return total, fmt.Errorf("insert prices batch at row %d: %w", start, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DeleteCompetitorData removes prices, links and the competitors themselves,
// children first to satisfy foreign keys.
func (r *Repo) DeleteCompetitorData(ctx context.Context, externalIDs []string) (domain.DeleteCounts, error) {
	var out domain.DeleteCounts
	if len(externalIDs) == 0 {
		return out, nil
	}
	in := "(" + strings.TrimSuffix(strings.Repeat("?,", len(externalIDs)), ",") + ")"
	args := make([]any, len(externalIDs))
	for i, id := range externalIDs {
		args[i] = id
	}

	steps := []struct {
		sql string
		dst *int64
	}{
		{deletePricesByExternalPrefix + in, &out.Prices},
		{deleteLinksByExternalPrefix + in, &out.Links},
		{deleteCompetitorsByExternalPrefix + in, &out.Competitors},
	}
	for _, st := range steps {
		res, err := r.q.ExecContext(ctx, st.sql, args...)
		if err != nil {
			return out, err
		}
		if *st.dst, err = res.RowsAffected(); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (r *Repo) ListCompetitors(ctx context.Context, propertyID int64) ([]domain.LinkedCompetitor, error) {
	rows, err := r.q.QueryContext(ctx, listLinkedCompetitorsSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.LinkedCompetitor{}
	for rows.Next() {
		var lc domain.LinkedCompetitor
		var from, to sql.NullTime
		if err := rows.Scan(&lc.ID, &lc.ExternalID, &lc.Name, &from, &to, &lc.OnlyFollow); err != nil {
			return nil, err
		}
		lc.ValidFrom, lc.ValidTo = timePtr(from), timePtr(to)
		out = append(out, lc)
	}
	return out, rows.Err()
}

func (r *Repo) ListCompetitorPrices(ctx context.Context, q domain.CompetitorPriceQuery) ([]domain.HistoricalCompetitorPrice, error) {
	rows, err := r.q.QueryContext(ctx, listCompetitorPricesSQL, q.PropertyID, q.From, q.To, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.HistoricalCompetitorPrice{}
	for rows.Next() {
		var h domain.HistoricalCompetitorPrice
		if err := rows.Scan(
			&h.ID, &h.CompetitorID, &h.CheckinDate, &h.RoomName, &h.RawPrice, &h.Currency,
			&h.CancellationType, &h.MaxPersons, &h.MinLengthOfStay, &h.IsAvailable, &h.ScrapedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
