package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotel_revenue/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repo struct {
	db *sql.DB // nil when bound to a transaction
	q  dbtx
}

func New(db *sql.DB) *Repo { return &Repo{db: db, q: db} }

// withTx runs fn in a transaction, or directly when r is already bound to one.
func (r *Repo) withTx(ctx context.Context, fn func(q dbtx) error) error {
	if r.db == nil {
		return fn(r.q)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanProperty(s rowScanner) (domain.Property, error) {
	var p domain.Property
	var address, country, postal, pmsName, pmsHotel, booking sql.NullString
	var deletedAt sql.NullTime
	if err := s.Scan(
		&p.ID, &p.Name, &address, &p.City, &country, &postal, &p.RoomCount,
		&pmsName, &pmsHotel, &booking, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt, &deletedAt,
	); err != nil {
		return domain.Property{}, err
	}
	p.Address = strPtr(address)
	p.Country = strPtr(country)
	p.PostalCode = strPtr(postal)
	p.PMSName = strPtr(pmsName)
	p.PMSHotelID = strPtr(pmsHotel)
	p.BookingHotelID = strPtr(booking)
	p.DeletedAt = timePtr(deletedAt)
	return p, nil
}

func scanProperties(rows *sql.Rows) ([]domain.Property, error) {
	defer rows.Close()
	out := []domain.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateProperty inserts p and links it to profileID atomically.
func (r *Repo) CreateProperty(ctx context.Context, profileID int64, p domain.Property) (domain.Property, error) {
	var id int64
	err := r.withTx(ctx, func(q dbtx) error {
		res, err := q.ExecContext(ctx, insertPropertySQL,
			p.Name,
			valStr(p.Address),
			p.City,
			valStr(p.Country),
			valStr(p.PostalCode),
			p.RoomCount,
			valStr(p.PMSName),
			valStr(p.PMSHotelID),
			valStr(p.BookingHotelID),
		)
		if err != nil {
			return fmt.Errorf("insert property: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, linkProfilePropertySQL, profileID, id); err != nil {
			return fmt.Errorf("link property to profile %d: %w", profileID, err)
		}
		return nil
	})
	if err != nil {
		return domain.Property{}, err
	}
	return r.GetProperty(ctx, profileID, id)
}

func (r *Repo) UpdateProperty(ctx context.Context, profileID int64, p domain.Property) (domain.Property, error) {
	// ownership check; MySQL reports 0 affected rows for unchanged values,
	// so RowsAffected can't tell "not found" apart from "no-op".
	if _, err := r.GetProperty(ctx, profileID, p.ID); err != nil {
		return domain.Property{}, err
	}
	if _, err := r.q.ExecContext(ctx, updatePropertySQL,
		p.Name,
		valStr(p.Address),
		p.City,
		valStr(p.Country),
		valStr(p.PostalCode),
		p.RoomCount,
		valStr(p.PMSName),
		valStr(p.PMSHotelID),
		valStr(p.BookingHotelID),
		p.ID,
	); err != nil {
		return domain.Property{}, fmt.Errorf("update property %d: %w", p.ID, err)
	}
	return r.GetProperty(ctx, profileID, p.ID)
}

func (r *Repo) SoftDeleteProperty(ctx context.Context, profileID, id int64, at time.Time) error {
	res, err := r.q.ExecContext(ctx, softDeletePropertySQL, at, profileID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) GetProperty(ctx context.Context, profileID, id int64) (domain.Property, error) {
	p, err := scanProperty(r.q.QueryRowContext(ctx, getOwnedPropertySQL, profileID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Property{}, domain.ErrNotFound
	}
	return p, err
}

func (r *Repo) ListProperties(ctx context.Context, profileID int64) ([]domain.Property, error) {
	rows, err := r.q.QueryContext(ctx, listOwnedPropertiesSQL, profileID)
	if err != nil {
		return nil, err
	}
	return scanProperties(rows)
}

// ActiveProperties lists every live property regardless of owner. Batch jobs only.
func (r *Repo) ActiveProperties(ctx context.Context) ([]domain.Property, error) {
	rows, err := r.q.QueryContext(ctx, listActivePropertiesSQL)
	if err != nil {
		return nil, err
	}
	return scanProperties(rows)
}

func (r *Repo) ProfileByUser(ctx context.Context, userID int64) (domain.Profile, error) {
	var pr domain.Profile
	err := r.q.QueryRowContext(ctx, profileByUserSQL, userID).Scan(&pr.ID, &pr.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}

	rows, err := r.q.QueryContext(ctx, profilePropertyIDsSQL, pr.ID)
	if err != nil {
		return domain.Profile{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return domain.Profile{}, err
		}
		pr.PropertyIDs = append(pr.PropertyIDs, id)
	}
	return pr, rows.Err()
}
