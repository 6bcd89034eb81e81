package mysql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"hotel_revenue/internal/domain"
)

func valDec(p *decimal.Decimal) any {
	if p == nil {
		return nil
	}
	return *p
}
func valBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}
func decPtr(nd decimal.NullDecimal) *decimal.Decimal {
	if !nd.Valid {
		return nil
	}
	d := nd.Decimal
	return &d
}

func (r *Repo) UpsertSnapshots(ctx context.Context, ss []domain.PriceSnapshot) error {
	if len(ss) == 0 {
		return nil
	}
	values := make([]string, 0, len(ss))
	args := make([]any, 0, len(ss)*16)
	for _, s := range ss {
		values = append(values, snapshotRowPlaceholders)
		args = append(args,
			s.PropertyID,
			s.HotelID,
			s.CheckinDate,
			s.CheckoutDate,
			s.AsOf,
			valStr(s.Currency),
			valDec(s.GrossPrice),
			valDec(s.NetPrice),
			valDec(s.BasePrice),
			valDec(s.IncludedTaxes),
			valDec(s.ExcludedTaxes),
			valDec(s.Discount),
			valStr(s.RoomName),
			valStr(s.Board),
			valBool(s.Refundable),
			valJSON(s.RawJSON),
		)
	}
	_, err := r.q.ExecContext(ctx, insertSnapshotsPrefix+strings.Join(values, ",")+snapshotsOnDup, args...)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, propertyID int64, status int, reason string) error {
	_, err := r.q.ExecContext(ctx, insertMissSQL, propertyID, reason, status)
	return err
}

func (r *Repo) ListSnapshots(ctx context.Context, q domain.SnapshotQuery) ([]domain.PriceSnapshot, error) {
	checkin := valTime(q.CheckinDate)
	rows, err := r.q.QueryContext(ctx, listSnapshotsSQL, q.PropertyID, checkin, checkin, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.PriceSnapshot{}
	for rows.Next() {
		var s domain.PriceSnapshot
		var (
			currency, room, board             sql.NullString
			gross, net, base, incl, excl, dis decimal.NullDecimal
			refundable                        sql.NullBool
			raw                               sql.RawBytes
		)
		if err := rows.Scan(
			&s.ID, &s.PropertyID, &s.HotelID, &s.CheckinDate, &s.CheckoutDate, &s.AsOf, &currency,
			&gross, &net, &base, &incl, &excl, &dis,
			&room, &board, &refundable, &raw,
		); err != nil {
			return nil, err
		}
		s.Currency = strPtr(currency)
		s.GrossPrice, s.NetPrice, s.BasePrice = decPtr(gross), decPtr(net), decPtr(base)
		s.IncludedTaxes, s.ExcludedTaxes, s.Discount = decPtr(incl), decPtr(excl), decPtr(dis)
		s.RoomName, s.Board = strPtr(room), strPtr(board)
		if refundable.Valid {
			b := refundable.Bool
			s.Refundable = &b
		}
		if len(raw) > 0 {
			s.RawJSON = append([]byte(nil), raw...)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
