package mysql

const propertyCols = `
  p.id, p.name, p.address, p.city, p.country, p.postal_code, p.room_count,
  p.pms_name, p.pms_hotel_id, p.booking_hotel_id, p.is_active,
  p.created_at, p.updated_at, p.deleted_at`

const insertPropertySQL = `
INSERT INTO properties
  (name, address, city, country, postal_code, room_count, pms_name, pms_hotel_id, booking_hotel_id)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const linkProfilePropertySQL = `
INSERT INTO profile_properties (profile_id, property_id) VALUES (?, ?)
`

const updatePropertySQL = `
UPDATE properties SET
  name             = ?,
  address          = ?,
  city             = ?,
  country          = ?,
  postal_code      = ?,
  room_count       = ?,
  pms_name         = ?,
  pms_hotel_id     = ?,
  booking_hotel_id = ?
WHERE id = ? AND is_active = TRUE
`

// is_active flips on every match, so RowsAffected is 0 only when nothing matched.
const softDeletePropertySQL = `
UPDATE properties p
JOIN profile_properties pp ON pp.property_id = p.id
SET p.is_active = FALSE, p.deleted_at = ?
WHERE pp.profile_id = ? AND p.id = ? AND p.is_active = TRUE
`

const getOwnedPropertySQL = `
SELECT` + propertyCols + `
FROM properties p
JOIN profile_properties pp ON pp.property_id = p.id
WHERE pp.profile_id = ? AND p.id = ? AND p.is_active = TRUE AND p.deleted_at IS NULL
`

const listOwnedPropertiesSQL = `
SELECT` + propertyCols + `
FROM properties p
JOIN profile_properties pp ON pp.property_id = p.id
WHERE pp.profile_id = ? AND p.is_active = TRUE AND p.deleted_at IS NULL
ORDER BY p.id
`

const listActivePropertiesSQL = `
SELECT` + propertyCols + `
FROM properties p
WHERE p.is_active = TRUE AND p.deleted_at IS NULL
ORDER BY p.id
`

const profileByUserSQL = `
SELECT pr.id, pr.user_id
FROM profiles pr
JOIN users u ON u.id = pr.user_id
WHERE pr.user_id = ? AND u.is_active = TRUE
`

const profilePropertyIDsSQL = `
SELECT pp.property_id
FROM profile_properties pp
JOIN properties p ON p.id = pp.property_id
WHERE pp.profile_id = ? AND p.is_active = TRUE
ORDER BY pp.property_id
`

// -----------------------------------------------------------------------------
// COMPETITORS & PRICES
// -----------------------------------------------------------------------------

const findCompetitorSQL = `
SELECT id, external_id, name, valid_from, valid_to
FROM competitors
WHERE external_id = ?
`

// LAST_INSERT_ID(id) makes LastInsertId report the existing row on a duplicate.
// The no-op update leaves RowsAffected at 0, so 1 means "inserted".
const getOrCreateCompetitorSQL = `
INSERT INTO competitors (external_id, name, valid_from, valid_to)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)
`

const linkCompetitorSQL = `
INSERT INTO property_competitors (property_id, competitor_id, only_follow)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE id = id
`

const isLinkedSQL = `
SELECT 1 FROM property_competitors WHERE property_id = ? AND competitor_id = ?
`

const listLinkedCompetitorsSQL = `
SELECT c.id, c.external_id, c.name, c.valid_from, c.valid_to, pc.only_follow
FROM property_competitors pc
JOIN competitors c ON c.id = pc.competitor_id
WHERE pc.property_id = ?
ORDER BY c.id
`

const insertPricesPrefix = "INSERT INTO historical_competitor_prices\n" +
	"  (competitor_id, checkin_date, room_name, raw_price, currency, cancellation_type, max_persons, min_los, is_available, scraped_at)\nVALUES "

const priceRowPlaceholders = "(?,?,?,?,?,?,?,?,?,?)"

const pricesPerRow = 10

const listCompetitorPricesSQL = `
SELECT h.id, h.competitor_id, h.checkin_date, h.room_name, h.raw_price, h.currency,
       h.cancellation_type, h.max_persons, h.min_los, h.is_available, h.scraped_at
FROM historical_competitor_prices h
JOIN property_competitors pc ON pc.competitor_id = h.competitor_id
WHERE pc.property_id = ? AND h.checkin_date >= ? AND h.checkin_date < ?
ORDER BY h.checkin_date, h.competitor_id, h.id
LIMIT ?
`

// The IN list is appended at call time.
const deletePricesByExternalPrefix = `
DELETE h FROM historical_competitor_prices h
JOIN competitors c ON c.id = h.competitor_id
WHERE c.external_id IN `

const deleteLinksByExternalPrefix = `
DELETE pc FROM property_competitors pc
JOIN competitors c ON c.id = pc.competitor_id
WHERE c.external_id IN `

const deleteCompetitorsByExternalPrefix = `
DELETE FROM competitors WHERE external_id IN `

// -----------------------------------------------------------------------------
// PRICE SNAPSHOTS
// -----------------------------------------------------------------------------

const insertSnapshotsPrefix = "INSERT INTO price_history\n" +
	"  (property_id, hotel_id, checkin_date, checkout_date, as_of, currency, gross_price, net_price, base_price,\n" +
	"   included_taxes, excluded_taxes, discount, room_name, board, refundable, raw)\nVALUES "

const snapshotRowPlaceholders = "(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)"

const snapshotsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  currency       = COALESCE(VALUES(currency), price_history.currency),\n" +
	"  gross_price    = COALESCE(VALUES(gross_price), price_history.gross_price),\n" +
	"  net_price      = COALESCE(VALUES(net_price), price_history.net_price),\n" +
	"  base_price     = COALESCE(VALUES(base_price), price_history.base_price),\n" +
	"  included_taxes = COALESCE(VALUES(included_taxes), price_history.included_taxes),\n" +
	"  excluded_taxes = COALESCE(VALUES(excluded_taxes), price_history.excluded_taxes),\n" +
	"  discount       = COALESCE(VALUES(discount), price_history.discount),\n" +
	"  room_name      = COALESCE(VALUES(room_name), price_history.room_name),\n" +
	"  board          = COALESCE(VALUES(board), price_history.board),\n" +
	"  refundable     = COALESCE(VALUES(refundable), price_history.refundable),\n" +
	"  raw            = COALESCE(VALUES(raw), price_history.raw)\n"

const listSnapshotsSQL = `
SELECT id, property_id, hotel_id, checkin_date, checkout_date, as_of, currency,
       gross_price, net_price, base_price, included_taxes, excluded_taxes, discount,
       room_name, board, refundable, raw
FROM price_history
WHERE property_id = ? AND (? IS NULL OR checkin_date = ?)
ORDER BY as_of DESC, id DESC
LIMIT ?
`

const insertMissSQL = `
INSERT INTO ingest_misses (property_id, reason, http_status)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE http_status = VALUES(http_status), seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// EXTERNAL ANALYTICS SCHEMA (read only, "{schema}" is substituted once)
// -----------------------------------------------------------------------------

const dailyPerformanceSQL = `
SELECT property_id, date, rooms_available, rooms_sold, revenue, occupancy_rate, adr, revpar
FROM {schema}.daily_performance
WHERE property_id = ? AND date BETWEEN ? AND ?
ORDER BY date
`

// A reservation touches the range when it checks in on or before the last day
// and checks out after the first one.
const reservationsSQL = `
SELECT id, property_id, booked_at, cancelled_at, checkin, checkout, rooms, revenue, status
FROM {schema}.unified_reservations
WHERE property_id = ? AND checkin <= ? AND checkout > ? AND booked_at <= ?
ORDER BY checkin, id
`
