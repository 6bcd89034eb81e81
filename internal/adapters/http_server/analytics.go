package httpserver

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hotel_revenue/internal/domain"
)

// ---- query parsing ----

// queryParser collects every bad parameter so one 400 reports them all.
type queryParser struct {
	q url.Values
	v domain.ValidationError
}

func newQueryParser(r *http.Request) *queryParser { return &queryParser{q: r.URL.Query()} }

func (p *queryParser) date(name string, def time.Time) time.Time {
	if t := p.optionalDate(name); t != nil {
		return *t
	}
	return def
}

func (p *queryParser) optionalDate(name string) *time.Time {
	s := strings.TrimSpace(p.q.Get(name))
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		p.v.Add(name, "must be a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}

func (p *queryParser) integer(name string, def int) int {
	s := strings.TrimSpace(p.q.Get(name))
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.v.Add(name, "must be an integer")
		return def
	}
	return n
}

func (p *queryParser) requiredID(name string) int64 {
	s := strings.TrimSpace(p.q.Get(name))
	if s == "" {
		p.v.Add(name, "this field is required")
		return 0
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		p.v.Add(name, "must be a positive integer")
		return 0
	}
	return id
}

// failed writes the 400 when any parameter was rejected.
func (p *queryParser) failed(w http.ResponseWriter) bool {
	if err := p.v.OrNil(); err != nil {
		writeValidation(w, p.v.Fields)
		return true
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func decString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// ---- response shapes ----

type rangeJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toRangeJSON(r domain.DateRange) rangeJSON {
	return rangeJSON{Start: r.Start.Format(time.DateOnly), End: r.End.Format(time.DateOnly)}
}

type pointJSON struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

func toPoints(ps []domain.ChartPoint) []pointJSON {
	out := make([]pointJSON, 0, len(ps))
	for _, p := range ps {
		out = append(out, pointJSON{Date: p.Date.Format(time.DateOnly), Value: p.Value.InexactFloat64()})
	}
	return out
}

type summaryJSON struct {
	Property int64                  `json:"property"`
	Range    rangeJSON              `json:"range"`
	Charts   map[string][]pointJSON `json:"charts"`
	Totals   summaryTotalsJSON      `json:"totals"`
}

type summaryTotalsJSON struct {
	Revenue   float64 `json:"revenue"`
	RoomsSold int     `json:"rooms_sold"`
	ADR       float64 `json:"adr"`
	RevPAR    float64 `json:"revpar"`
	Occupancy float64 `json:"occupancy"`
}

type pickupPointJSON struct {
	Date    string  `json:"date"`
	Rooms   int     `json:"rooms"`
	Revenue float64 `json:"revenue"`
}

type pickupJSON struct {
	Property int64             `json:"property"`
	Range    rangeJSON         `json:"range"`
	AsOf     string            `json:"as_of"`
	Window   int               `json:"window"`
	Days     int               `json:"days"`
	Series   []pickupPointJSON `json:"series"`
	Totals   pickupTotalsJSON  `json:"totals"`
}

type pickupTotalsJSON struct {
	Rooms   int     `json:"rooms"`
	Revenue float64 `json:"revenue"`
}

type occupancyJSON struct {
	Property  int64     `json:"property"`
	Date      string    `json:"date"`
	Range     rangeJSON `json:"range"`
	Occupancy struct {
		Value *float64 `json:"value"`
		Left  float64  `json:"left"`
		Right float64  `json:"right"`
	} `json:"occupancy"`
}

// ---- handlers ----

func (h *Handlers) summary(w http.ResponseWriter, r *http.Request) {
	profileID, ok := caller(w, r)
	if !ok {
		return
	}
	qp := newQueryParser(r)
	pid := qp.requiredID("property_id")
	end := qp.date("end_date", truncateDay(h.now()))
	start := qp.date("start_date", end.AddDate(0, 0, -29))
	if qp.failed(w) {
		return
	}

	s, err := h.Analytics.Summary(r.Context(), profileID, pid, domain.DateRange{Start: start, End: end})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summaryJSON{
		Property: s.PropertyID,
		Range:    toRangeJSON(s.Range),
		Charts: map[string][]pointJSON{
			"adr":       toPoints(s.ADR),
			"revpar":    toPoints(s.RevPAR),
			"revenue":   toPoints(s.Revenue),
			"occupancy": toPoints(s.Occupancy),
		},
		Totals: summaryTotalsJSON{
			Revenue:   s.Totals.Revenue.InexactFloat64(),
			RoomsSold: s.Totals.RoomsSold,
			ADR:       s.Totals.ADR.InexactFloat64(),
			RevPAR:    s.Totals.RevPAR.InexactFloat64(),
			Occupancy: s.Totals.Occupancy.InexactFloat64(),
		},
	})
}

func (h *Handlers) pickup(w http.ResponseWriter, r *http.Request) {
	profileID, ok := caller(w, r)
	if !ok {
		return
	}
	qp := newQueryParser(r)
	today := truncateDay(h.now())
	pid := qp.requiredID("property_id")
	start := qp.date("start_date", today)
	end := qp.date("end_date", start.AddDate(0, 0, 29))
	asOf := qp.date("as_of", today)
	window := qp.integer("window", 1)
	if qp.failed(w) {
		return
	}

	p, err := h.Analytics.Pickup(r.Context(), profileID, pid, domain.DateRange{Start: start, End: end}, asOf, window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	series := make([]pickupPointJSON, 0, len(p.Series))
	for _, pt := range p.Series {
		series = append(series, pickupPointJSON{
			Date:    pt.Date.Format(time.DateOnly),
			Rooms:   pt.Rooms,
			Revenue: pt.Revenue.InexactFloat64(),
		})
	}
	writeJSON(w, r, http.StatusOK, pickupJSON{
		Property: p.PropertyID,
		Range:    toRangeJSON(p.Range),
		AsOf:     p.AsOf.Format(time.DateOnly),
		Window:   p.Window,
		Days:     len(series),
		Series:   series,
		Totals:   pickupTotalsJSON{Rooms: p.TotalRooms, Revenue: p.TotalRevenue.InexactFloat64()},
	})
}

func (h *Handlers) occupancy(w http.ResponseWriter, r *http.Request) {
	profileID, ok := caller(w, r)
	if !ok {
		return
	}
	qp := newQueryParser(r)
	pid := qp.requiredID("property_id")
	date := qp.date("date", truncateDay(h.now()))
	window := qp.integer("window", 7)
	if qp.failed(w) {
		return
	}

	o, err := h.Analytics.Occupancy(r.Context(), profileID, pid, date, window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := occupancyJSON{
		Property: o.PropertyID,
		Date:     o.Date.Format(time.DateOnly),
		Range:    toRangeJSON(o.Range),
	}
	if o.Value != nil {
		v := o.Value.InexactFloat64()
		out.Occupancy.Value = &v
	}
	out.Occupancy.Left = o.Left.InexactFloat64()
	out.Occupancy.Right = o.Right.InexactFloat64()
	writeJSON(w, r, http.StatusOK, out)
}
