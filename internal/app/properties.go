package app

import (
	"context"
	"strings"
	"time"

	"hotel_revenue/internal/domain"
)

const (
	maxCompetitorPriceRows = 5000
	defaultSnapshotLimit   = 100
	maxRangeDays           = 366
)

type PropertyService struct {
	repo domain.PropertyRepository
	now  func() time.Time
}

func NewPropertyService(r domain.PropertyRepository) *PropertyService {
	return &PropertyService{repo: r, now: time.Now}
}

func (s *PropertyService) Create(ctx context.Context, profileID int64, in domain.PropertyInput) (domain.Property, error) {
	if err := validatePropertyInput(in, true); err != nil {
		return domain.Property{}, err
	}
	p := applyPropertyInput(domain.Property{IsActive: true}, in)
	return s.repo.CreateProperty(ctx, profileID, p)
}

func (s *PropertyService) List(ctx context.Context, profileID int64) ([]domain.Property, error) {
	return s.repo.ListProperties(ctx, profileID)
}

func (s *PropertyService) Get(ctx context.Context, profileID, id int64) (domain.Property, error) {
	return s.repo.GetProperty(ctx, profileID, id)
}

// Update applies only the fields present in the input.
func (s *PropertyService) Update(ctx context.Context, profileID, id int64, in domain.PropertyInput) (domain.Property, error) {
	if err := validatePropertyInput(in, false); err != nil {
		return domain.Property{}, err
	}
	cur, err := s.repo.GetProperty(ctx, profileID, id)
	if err != nil {
		return domain.Property{}, err
	}
	return s.repo.UpdateProperty(ctx, profileID, applyPropertyInput(cur, in))
}

// UpdatePMS switches the property's PMS integration and reports what changed.
func (s *PropertyService) UpdatePMS(ctx context.Context, profileID, id int64, pmsName string, pmsHotelID *string) (domain.Property, domain.PMSChange, error) {
	v := &domain.ValidationError{}
	pmsName = strings.TrimSpace(pmsName)
	switch {
	case pmsName == "":
		v.Add("pms_name", "this field is required")
	case len(pmsName) > 64:
		v.Add("pms_name", "must be at most 64 characters")
	}
	if err := v.OrNil(); err != nil {
		return domain.Property{}, domain.PMSChange{}, err
	}

	cur, err := s.repo.GetProperty(ctx, profileID, id)
	if err != nil {
		return domain.Property{}, domain.PMSChange{}, err
	}
	change := domain.PMSChange{From: cur.PMSName, To: &pmsName}
	change.Changed = cur.PMSName == nil || *cur.PMSName != pmsName

	cur.PMSName = &pmsName
	if pmsHotelID != nil {
		cur.PMSHotelID = trimmedOrNil(*pmsHotelID)
	}
	out, err := s.repo.UpdateProperty(ctx, profileID, cur)
	if err != nil {
		return domain.Property{}, domain.PMSChange{}, err
	}
	return out, change, nil
}

func (s *PropertyService) SoftDelete(ctx context.Context, profileID, id int64) error {
	return s.repo.SoftDeleteProperty(ctx, profileID, id, s.now().UTC())
}

func (s *PropertyService) Competitors(ctx context.Context, profileID, id int64) ([]domain.LinkedCompetitor, error) {
	if _, err := s.repo.GetProperty(ctx, profileID, id); err != nil {
		return nil, err
	}
	return s.repo.ListCompetitors(ctx, id)
}

// CompetitorPrices lists observations with a check-in inside r.
func (s *PropertyService) CompetitorPrices(ctx context.Context, profileID, id int64, r domain.DateRange) ([]domain.HistoricalCompetitorPrice, error) {
	r = normalizeRange(r)
	if err := validateRange(r, "start_date", "end_date"); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetProperty(ctx, profileID, id); err != nil {
		return nil, err
	}
	return s.repo.ListCompetitorPrices(ctx, domain.CompetitorPriceQuery{
		PropertyID: id,
		From:       r.Start,
		To:         r.End.AddDate(0, 0, 1),
		Limit:      maxCompetitorPriceRows,
	})
}

func (s *PropertyService) PriceHistory(ctx context.Context, profileID, id int64, checkin *time.Time) ([]domain.PriceSnapshot, error) {
	if _, err := s.repo.GetProperty(ctx, profileID, id); err != nil {
		return nil, err
	}
	return s.repo.ListSnapshots(ctx, domain.SnapshotQuery{PropertyID: id, CheckinDate: checkin, Limit: defaultSnapshotLimit})
}

func validatePropertyInput(in domain.PropertyInput, create bool) error {
	v := &domain.ValidationError{}
	required := func(field string, p *string, limit int) {
		if p == nil {
			if create {
				v.Add(field, "this field is required")
			}
			return
		}
		t := strings.TrimSpace(*p)
		if t == "" {
			v.Add(field, "this field may not be blank")
		} else if len(t) > limit {
			v.Add(field, "too long")
		}
	}
	optional := func(field string, p *string, limit int) {
		if p != nil && len(strings.TrimSpace(*p)) > limit {
			v.Add(field, "too long")
		}
	}

	required("name", in.Name, 255)
	required("city", in.City, 128)
	optional("address", in.Address, 512)
	optional("country", in.Country, 64)
	optional("postal_code", in.PostalCode, 32)
	optional("pms_name", in.PMSName, 64)
	optional("pms_hotel_id", in.PMSHotelID, 128)
	optional("booking_hotel_id", in.BookingHotelID, 64)
	if in.RoomCount != nil && *in.RoomCount < 0 {
		v.Add("room_count", "must be zero or greater")
	}
	return v.OrNil()
}

func applyPropertyInput(p domain.Property, in domain.PropertyInput) domain.Property {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.City != nil {
		p.City = strings.TrimSpace(*in.City)
	}
	if in.Address != nil {
		p.Address = trimmedOrNil(*in.Address)
	}
	if in.Country != nil {
		p.Country = trimmedOrNil(*in.Country)
	}
	if in.PostalCode != nil {
		p.PostalCode = trimmedOrNil(*in.PostalCode)
	}
	if in.RoomCount != nil {
		p.RoomCount = *in.RoomCount
	}
	if in.PMSName != nil {
		p.PMSName = trimmedOrNil(*in.PMSName)
	}
	if in.PMSHotelID != nil {
		p.PMSHotelID = trimmedOrNil(*in.PMSHotelID)
	}
	if in.BookingHotelID != nil {
		p.BookingHotelID = trimmedOrNil(*in.BookingHotelID)
	}
	return p
}

func trimmedOrNil(s string) *string {
	if t := strings.TrimSpace(s); t != "" {
		return &t
	}
	return nil
}

func validateRange(r domain.DateRange, startField, endField string) error {
	v := &domain.ValidationError{}
	switch {
	case r.End.Before(r.Start):
		v.Add(endField, "must not be before "+startField)
	case r.Days() > maxRangeDays:
		v.Add(endField, "range must not exceed 366 days")
	}
	return v.OrNil()
}
