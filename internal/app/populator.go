package app

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hotel_revenue/internal/domain"
)

// Generated competitor ids are UUIDv5 names under this namespace, so reruns
// resolve to the same rows.
var competitorNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("hotel-revenue/generated-competitors"))

const (
	minGeneratedPrice = 80.0
	maxGeneratedPrice = 300.0
	generatedCurrency = "EUR"
	generatedPolicy   = "free_cancellation"
	generatedPersons  = 2
)

var generatedRoomNames = []string{
	"Standard Double Room",
	"Superior Double Room",
	"Deluxe King Room",
	"Classic Twin Room",
}

type PopulateOptions struct {
	DryRun         bool
	DeleteExisting bool
	DaysBack       int
	DaysForward    int
	Competitors    int
	BatchSize      int
	PropertyID     int64 // 0 means every active property
}

func DefaultPopulateOptions() PopulateOptions {
	return PopulateOptions{DaysBack: 100, DaysForward: 100, Competitors: 3, BatchSize: 1000}
}

type PopulateReport struct {
	DryRun              bool
	Properties          int
	CompetitorsCreated  int
	CompetitorsExisting int
	LinksCreated        int
	PricesCreated       int64
	Deleted             domain.DeleteCounts
}

// PricePopulator fills historical_competitor_prices with generated data.
// Progress goes to out as plain text.
type PricePopulator struct {
	store domain.PriceStore
	out   io.Writer
	now   func() time.Time
}

func NewPricePopulator(store domain.PriceStore, out io.Writer) *PricePopulator {
	return &PricePopulator{store: store, out: out, now: time.Now}
}

func (p *PricePopulator) Run(ctx context.Context, opts PopulateOptions) (PopulateReport, error) {
	rep := PopulateReport{DryRun: opts.DryRun}
	if opts.Competitors < 1 || opts.DaysBack < 0 || opts.DaysForward < 0 || opts.DaysBack+opts.DaysForward == 0 {
		return rep, fmt.Errorf("invalid options: competitors=%d days-back=%d days-forward=%d",
			opts.Competitors, opts.DaysBack, opts.DaysForward)
	}

	props, err := p.store.ActiveProperties(ctx)
	if err != nil {
		return rep, fmt.Errorf("list properties: %w", err)
	}
	if opts.PropertyID != 0 {
		props = filterProperty(props, opts.PropertyID)
		if len(props) == 0 {
			return rep, fmt.Errorf("property %d: %w", opts.PropertyID, domain.ErrNotFound)
		}
	}

	today := truncateDay(p.now())
	start := today.AddDate(0, 0, -opts.DaysBack)
	days := opts.DaysBack + opts.DaysForward
	prefix := ""
	if opts.DryRun {
		prefix = "[dry-run] "
	}
	p.printf("%sPopulating %d day(s) from %s for %d propert(ies)\n", prefix, days, dateKey(start), len(props))

	for _, prop := range props {
		rep.Properties++
		var err error
		if opts.DryRun {
			err = p.planProperty(ctx, prop, opts, days, &rep)
		} else {
			err = p.store.InTx(ctx, func(tx domain.PriceStore) error {
				return p.populateProperty(ctx, tx, prop, opts, start, days, &rep)
			})
		}
		if err != nil {
			return rep, fmt.Errorf("property %d: %w", prop.ID, err)
		}
	}

	p.printf("%sDone: %d properties, %d competitors created (%d existing), %d links created, %d price rows\n",
		prefix, rep.Properties, rep.CompetitorsCreated, rep.CompetitorsExisting, rep.LinksCreated, rep.PricesCreated)
	if opts.DeleteExisting && !opts.DryRun {
		p.printf("Deleted: %d price rows, %d links, %d competitors\n",
			rep.Deleted.Prices, rep.Deleted.Links, rep.Deleted.Competitors)
	}
	return rep, nil
}

// planProperty counts what a real run would write without touching the store.
func (p *PricePopulator) planProperty(ctx context.Context, prop domain.Property, opts PopulateOptions, days int, rep *PopulateReport) error {
	for n := 1; n <= opts.Competitors; n++ {
		c, err := p.store.FindCompetitor(ctx, GeneratedCompetitorID(prop.ID, n))
		switch {
		case errors.Is(err, domain.ErrNotFound) || (err == nil && opts.DeleteExisting):
			rep.CompetitorsCreated++
			rep.LinksCreated++
		case err != nil:
			return err
		default:
			rep.CompetitorsExisting++
			linked, err := p.store.IsLinked(ctx, prop.ID, c.ID)
			if err != nil {
				return err
			}
			if !linked {
				rep.LinksCreated++
			}
		}
	}
	rows := int64(opts.Competitors * days)
	rep.PricesCreated += rows
	p.printf("[dry-run] Property %d (%s): would write %d price rows\n", prop.ID, prop.Name, rows)
	return nil
}

func (p *PricePopulator) populateProperty(ctx context.Context, store domain.PriceStore, prop domain.Property, opts PopulateOptions, start time.Time, days int, rep *PopulateReport) error {
	ids := make([]string, opts.Competitors)
	for i := range ids {
		ids[i] = GeneratedCompetitorID(prop.ID, i+1)
	}

	if opts.DeleteExisting {
		extra, err := generatedBeyond(ctx, store, prop.ID, opts.Competitors)
		if err != nil {
			return fmt.Errorf("delete existing: %w", err)
		}
		del, err := store.DeleteCompetitorData(ctx, append(append([]string(nil), ids...), extra...))
		if err != nil {
			return fmt.Errorf("delete existing: %w", err)
		}
		rep.Deleted.Prices += del.Prices
		rep.Deleted.Links += del.Links
		rep.Deleted.Competitors += del.Competitors
	}

	scrapedAt := p.now().UTC()
	rows := make([]domain.HistoricalCompetitorPrice, 0, opts.Competitors*days)
	for i, ext := range ids {
		validFrom := start
		c, created, err := store.GetOrCreateCompetitor(ctx, domain.Competitor{
			ExternalID: ext,
			Name:       fmt.Sprintf("%s Competitor %d", prop.Name, i+1),
			ValidFrom:  &validFrom,
		})
		if err != nil {
			return err
		}
		if created {
			rep.CompetitorsCreated++
		} else {
			rep.CompetitorsExisting++
		}

		linked, err := store.LinkCompetitor(ctx, domain.PropertyCompetitor{PropertyID: prop.ID, CompetitorID: c.ID})
		if err != nil {
			return err
		}
		if linked {
			rep.LinksCreated++
		}

		rows = append(rows, generatePrices(c, start, days, scrapedAt)...)
	}

	n, err := store.InsertPrices(ctx, rows, opts.BatchSize)
	if err != nil {
		return err
	}
	rep.PricesCreated += n
	p.printf("Property %d (%s): %d competitors, %d price rows\n", prop.ID, prop.Name, len(ids), n)
	return nil
}

// generatePrices returns one observation per day starting at start. Prices are
// pseudo-random but stable for a given competitor.
func generatePrices(c domain.Competitor, start time.Time, days int, scrapedAt time.Time) []domain.HistoricalCompetitorPrice {
	f := gofakeit.New(seedFor(c.ExternalID))
	room := f.RandomString(generatedRoomNames)

	out := make([]domain.HistoricalCompetitorPrice, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, domain.HistoricalCompetitorPrice{
			CompetitorID:     c.ID,
			CheckinDate:      start.AddDate(0, 0, i),
			RoomName:         room,
			RawPrice:         decimal.NewFromFloat(f.Float64Range(minGeneratedPrice, maxGeneratedPrice)).Round(2),
			Currency:         generatedCurrency,
			CancellationType: generatedPolicy,
			MaxPersons:       generatedPersons,
			MinLengthOfStay:  1,
			IsAvailable:      true,
			ScrapedAt:        scrapedAt,
		})
	}
	return out
}

// GeneratedCompetitorID is the deterministic external id of the n-th generated
// competitor of a property.
func GeneratedCompetitorID(propertyID int64, n int) string {
	return uuid.NewSHA1(competitorNamespace, []byte(fmt.Sprintf("property:%d:competitor:%d", propertyID, n))).String()
}

// generatedBeyond returns the external ids of generated competitors numbered
// above n, left behind by an earlier run with a larger competitor count.
// Generated numbers are contiguous from 1, so the scan stops at the first gap.
func generatedBeyond(ctx context.Context, store domain.PriceStore, propertyID int64, n int) ([]string, error) {
	var out []string
	for i := n + 1; ; i++ {
		ext := GeneratedCompetitorID(propertyID, i)
		_, err := store.FindCompetitor(ctx, ext)
		if errors.Is(err, domain.ErrNotFound) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
}

func seedFor(externalID string) int64 {
	id, err := uuid.Parse(externalID)
	if err != nil {
		return int64(len(externalID))
	}
	return int64(binary.BigEndian.Uint64(id[:8]))
}

func filterProperty(props []domain.Property, id int64) []domain.Property {
	for _, p := range props {
		if p.ID == id {
			return []domain.Property{p}
		}
	}
	return nil
}

func (p *PricePopulator) printf(format string, args ...any) {
	if p.out != nil {
		fmt.Fprintf(p.out, format, args...)
	}
}
