package domain

import "time"

type Property struct {
	ID             int64
	Name           string
	Address        *string
	City           string
	Country        *string
	PostalCode     *string
	RoomCount      int
	PMSName        *string
	PMSHotelID     *string
	BookingHotelID *string // id on the external booking site, used by the snapshot collector
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// PropertyInput carries client-supplied fields. Nil means "not provided",
// which on update keeps the stored value.
type PropertyInput struct {
	Name           *string
	Address        *string
	City           *string
	Country        *string
	PostalCode     *string
	RoomCount      *int
	PMSName        *string
	PMSHotelID     *string
	BookingHotelID *string
}

type PMSChange struct {
	From    *string
	To      *string
	Changed bool
}

type Profile struct {
	ID          int64
	UserID      int64
	PropertyIDs []int64
}
