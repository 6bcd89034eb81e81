package httpserver_test

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"hotel_revenue/internal/domain"
)

// memRepo is an in-memory PropertyRepository + ProfileRepository.
type memRepo struct {
	mu       sync.Mutex
	nextID   int64
	props    map[int64]domain.Property
	owner    map[int64]int64 // property id -> profile id
	profiles map[int64]domain.Profile
}

func newMemRepo(profiles ...domain.Profile) *memRepo {
	r := &memRepo{
		props:    map[int64]domain.Property{},
		owner:    map[int64]int64{},
		profiles: map[int64]domain.Profile{},
	}
	for _, p := range profiles {
		r.profiles[p.UserID] = p
	}
	return r
}

func (r *memRepo) CreateProperty(_ context.Context, profileID int64, p domain.Property) (domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.UpdatedAt = p.CreatedAt
	r.props[p.ID] = p
	r.owner[p.ID] = profileID
	return p, nil
}

func (r *memRepo) UpdateProperty(_ context.Context, profileID int64, p domain.Property) (domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.visible(profileID, p.ID); err != nil {
		return domain.Property{}, err
	}
	r.props[p.ID] = p
	return p, nil
}

func (r *memRepo) SoftDeleteProperty(_ context.Context, profileID, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.visible(profileID, id)
	if err != nil {
		return err
	}
	p.IsActive = false
	p.DeletedAt = &at
	r.props[id] = p
	return nil
}

func (r *memRepo) GetProperty(_ context.Context, profileID, id int64) (domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible(profileID, id)
}

func (r *memRepo) visible(profileID, id int64) (domain.Property, error) {
	p, ok := r.props[id]
	if !ok || !p.IsActive || r.owner[id] != profileID {
		return domain.Property{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *memRepo) ListProperties(_ context.Context, profileID int64) ([]domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Property
	for id, p := range r.props {
		if p.IsActive && r.owner[id] == profileID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) ListCompetitors(context.Context, int64) ([]domain.LinkedCompetitor, error) {
	return []domain.LinkedCompetitor{{Competitor: domain.Competitor{ID: 1, ExternalID: "ext-1", Name: "Competitor 1"}}}, nil
}

func (r *memRepo) ListCompetitorPrices(context.Context, domain.CompetitorPriceQuery) ([]domain.HistoricalCompetitorPrice, error) {
	return nil, nil
}

func (r *memRepo) ListSnapshots(context.Context, domain.SnapshotQuery) ([]domain.PriceSnapshot, error) {
	return nil, nil
}

func (r *memRepo) ProfileByUser(_ context.Context, userID int64) (domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

type fakeReader struct {
	daily        []domain.DailyPerformance
	reservations []domain.Reservation
}

func (f *fakeReader) DailyPerformance(_ context.Context, propertyID int64, r domain.DateRange) ([]domain.DailyPerformance, error) {
	var out []domain.DailyPerformance
	for _, d := range f.daily {
		if d.PropertyID == propertyID && !d.Date.Before(r.Start) && !d.Date.After(r.End) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeReader) Reservations(_ context.Context, propertyID int64, _ domain.DateRange, bookedBy time.Time) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, res := range f.reservations {
		if res.PropertyID == propertyID && !res.BookedAt.After(bookedBy) {
			out = append(out, res)
		}
	}
	return out, nil
}

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCache() *memCache { return &memCache{m: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	b, ok := c.m[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any, _ int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.m[key] = b
	c.mu.Unlock()
	return nil
}

func (c *memCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
	return nil
}
