package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"hotel_revenue/internal/domain"
)

type propertyJSON struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Address        *string   `json:"address"`
	City           string    `json:"city"`
	Country        *string   `json:"country"`
	PostalCode     *string   `json:"postal_code"`
	RoomCount      int       `json:"room_count"`
	PMSName        *string   `json:"pms_name"`
	PMSHotelID     *string   `json:"pms_hotel_id"`
	BookingHotelID *string   `json:"booking_hotel_id"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toPropertyJSON(p domain.Property) propertyJSON {
	return propertyJSON{
		ID:             p.ID,
		Name:           p.Name,
		Address:        p.Address,
		City:           p.City,
		Country:        p.Country,
		PostalCode:     p.PostalCode,
		RoomCount:      p.RoomCount,
		PMSName:        p.PMSName,
		PMSHotelID:     p.PMSHotelID,
		BookingHotelID: p.BookingHotelID,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type propertyRequest struct {
	Name           *string `json:"name"`
	Address        *string `json:"address"`
	City           *string `json:"city"`
	Country        *string `json:"country"`
	PostalCode     *string `json:"postal_code"`
	RoomCount      *int    `json:"room_count"`
	PMSName        *string `json:"pms_name"`
	PMSHotelID     *string `json:"pms_hotel_id"`
	BookingHotelID *string `json:"booking_hotel_id"`
}

func (b propertyRequest) input() domain.PropertyInput {
	return domain.PropertyInput{
		Name:           b.Name,
		Address:        b.Address,
		City:           b.City,
		Country:        b.Country,
		PostalCode:     b.PostalCode,
		RoomCount:      b.RoomCount,
		PMSName:        b.PMSName,
		PMSHotelID:     b.PMSHotelID,
		BookingHotelID: b.BookingHotelID,
	}
}

type pmsRequest struct {
	PMSName    string  `json:"pms_name"`
	PMSHotelID *string `json:"pms_hotel_id"`
}

type pmsChangeJSON struct {
	From    *string `json:"from"`
	To      *string `json:"to"`
	Changed bool    `json:"changed"`
}

type pmsResponse struct {
	propertyJSON
	PMSChange pmsChangeJSON `json:"pms_change"`
}

type competitorJSON struct {
	ID         int64      `json:"id"`
	ExternalID string     `json:"external_id"`
	Name       string     `json:"name"`
	OnlyFollow bool       `json:"only_follow"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidTo    *time.Time `json:"valid_to,omitempty"`
}

type competitorPriceJSON struct {
	CompetitorID     int64     `json:"competitor_id"`
	CheckinDate      string    `json:"checkin_date"`
	RoomName         string    `json:"room_name"`
	RawPrice         string    `json:"raw_price"`
	Currency         string    `json:"currency"`
	CancellationType string    `json:"cancellation_type"`
	MaxPersons       int       `json:"max_persons"`
	MinLengthOfStay  int       `json:"min_length_of_stay"`
	IsAvailable      bool      `json:"is_available"`
	ScrapedAt        time.Time `json:"scraped_at"`
}

type snapshotJSON struct {
	HotelID       string          `json:"hotel_id"`
	CheckinDate   string          `json:"checkin_date"`
	CheckoutDate  string          `json:"checkout_date"`
	AsOf          time.Time       `json:"as_of"`
	Currency      *string         `json:"currency"`
	GrossPrice    *string         `json:"gross_price"`
	NetPrice      *string         `json:"net_price"`
	BasePrice     *string         `json:"base_price"`
	IncludedTaxes *string         `json:"included_taxes"`
	ExcludedTaxes *string         `json:"excluded_taxes"`
	Discount      *string         `json:"discount"`
	RoomName      *string         `json:"room_name"`
	Board         *string         `json:"board"`
	Refundable    *bool           `json:"refundable"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

// decodeBody reports a malformed body as a 400 with a "body" field error.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeValidation(w, map[string]string{"body": "malformed JSON: " + err.Error()})
		return false
	}
	return true
}

func (h *Handlers) createProperty(w http.ResponseWriter, r *http.Request) {
	profileID, ok := caller(w, r)
	if !ok {
		return
	}
	var body propertyRequest
	if !decodeBody(w, r, &body) {
		return
	}
	p, err := h.Props.Create(r.Context(), profileID, body.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toPropertyJSON(p))
}

func (h *Handlers) listProperties(w http.ResponseWriter, r *http.Request) {
	profileID, ok := caller(w, r)
	if !ok {
		return
	}
	ps, err := h.Props.List(r.Context(), profileID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]propertyJSON, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPropertyJSON(p))
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"properties": out})
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	profileID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Props.Get(r.Context(), profileID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPropertyJSON(p))
}

func (h *Handlers) updateProperty(w http.ResponseWriter, r *http.Request) {
	profileID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body propertyRequest
	if !decodeBody(w, r, &body) {
		return
	}
	p, err := h.Props.Update(r.Context(), profileID, id, body.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPropertyJSON(p))
}

func (h *Handlers) updatePMS(w http.ResponseWriter, r *http.Request) {
	profileID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body pmsRequest
	if !decodeBody(w, r, &body) {
		return
	}
	p, change, err := h.Props.UpdatePMS(r.Context(), profileID, id, body.PMSName, body.PMSHotelID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pmsResponse{
		propertyJSON: toPropertyJSON(p),
		PMSChange:    pmsChangeJSON{From: change.From, To: change.To, Changed: change.Changed},
	})
}

func (h *Handlers) deleteProperty(w http.ResponseWriter, r *http.Request) {
	profileID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Props.SoftDelete(r.Context(), profileID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "property deleted"})
}

func (h *Handlers) listCompetitors(w http.ResponseWriter, r *http.Request) {
	profileID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	cs, err := h.Props.Competitors(r.Context(), profileID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]competitorJSON, 0, len(cs))
	for _, c := range cs {
		out = append(out, competitorJSON{
			ID:         c.ID,
			ExternalID: c.ExternalID,
			Name:       c.Name,
			OnlyFollow: c.OnlyFollow,
			ValidFrom:  c.ValidFrom,
			ValidTo:    c.ValidTo,
		})
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"property": id, "competitors": out})
}

func (h *Handlers) listCompetitorPrices(w http.ResponseWriter, r *http.Request) {
	profileID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	qp := newQueryParser(r)
	today := truncateDay(h.now())
	start := qp.date("start_date", today)
	end := qp.date("end_date", start.AddDate(0, 0, 29))
	if qp.failed(w) {
		return
	}

	rows, err := h.Props.CompetitorPrices(r.Context(), profileID, id, domain.DateRange{Start: start, End: end})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]competitorPriceJSON, 0, len(rows))
	for _, p := range rows {
		out = append(out, competitorPriceJSON{
			CompetitorID:     p.CompetitorID,
			CheckinDate:      p.CheckinDate.Format(time.DateOnly),
			RoomName:         p.RoomName,
			RawPrice:         p.RawPrice.StringFixed(2),
			Currency:         p.Currency,
			CancellationType: p.CancellationType,
			MaxPersons:       p.MaxPersons,
			MinLengthOfStay:  p.MinLengthOfStay,
			IsAvailable:      p.IsAvailable,
			ScrapedAt:        p.ScrapedAt,
		})
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"property": id,
		"range":    rangeJSON{Start: start.Format(time.DateOnly), End: end.Format(time.DateOnly)},
		"prices":   out,
	})
}

func (h *Handlers) listPriceHistory(w http.ResponseWriter, r *http.Request) {
	profileID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	qp := newQueryParser(r)
	checkin := qp.optionalDate("checkin")
	if qp.failed(w) {
		return
	}

	ss, err := h.Props.PriceHistory(r.Context(), profileID, id, checkin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]snapshotJSON, 0, len(ss))
	for _, s := range ss {
		out = append(out, snapshotJSON{
			HotelID:       s.HotelID,
			CheckinDate:   s.CheckinDate.Format(time.DateOnly),
			CheckoutDate:  s.CheckoutDate.Format(time.DateOnly),
			AsOf:          s.AsOf,
			Currency:      s.Currency,
			GrossPrice:    decString(s.GrossPrice),
			NetPrice:      decString(s.NetPrice),
			BasePrice:     decString(s.BasePrice),
			IncludedTaxes: decString(s.IncludedTaxes),
			ExcludedTaxes: decString(s.ExcludedTaxes),
			Discount:      decString(s.Discount),
			RoomName:      s.RoomName,
			Board:         s.Board,
			Refundable:    s.Refundable,
			Raw:           rawOrNil(s.RawJSON),
		})
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"property": id, "snapshots": out})
}

func rawOrNil(b []byte) json.RawMessage {
	if len(b) == 0 || !json.Valid(b) {
		return nil
	}
	return json.RawMessage(b)
}
