//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/shopspring/decimal"

	"hotel_revenue/internal/app"
	"hotel_revenue/internal/domain"
	mysqlrepo "hotel_revenue/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string { return &s }

func pdec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func execFile(t *testing.T, db *sql.DB, f string) {
	t.Helper()
	sqlBytes, err := os.ReadFile(f)
	if err != nil {
		t.Fatalf("read %s: %v", f, err)
	}
	if _, err := db.Exec(string(sqlBytes)); err != nil {
		t.Fatalf("exec %s: %v", f, err)
	}
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		execFile(t, db, f)
	}
	// the analytics schema belongs to another team; tests carry its shape
	execFile(t, db, filepath.Join("testdata", "analytics_schema.sql"))
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=revenue",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "revenue")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// seedProfile creates a user with a profile and returns the profile id.
func seedProfile(t *testing.T, db *sql.DB, email string) (userID, profileID int64) {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (email) VALUES (?)`, email)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	userID, _ = res.LastInsertId()
	res, err = db.Exec(`INSERT INTO profiles (user_id) VALUES (?)`, userID)
	if err != nil {
		t.Fatalf("insert profile: %v", err)
	}
	profileID, _ = res.LastInsertId()
	return userID, profileID
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// ---------- the test ----------
func TestRepo_MySQL(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	userID, profileID := seedProfile(t, db, "owner@example.com")
	_, strangerID := seedProfile(t, db, "stranger@example.com")

	var propID int64
	t.Run("properties", func(t *testing.T) {
		p, err := repo.CreateProperty(ctx, profileID, domain.Property{
			Name:           "Hotel Test",
			City:           "Lisbon",
			Country:        pstr("PT"),
			RoomCount:      42,
			BookingHotelID: pstr("bk-1"),
			IsActive:       true,
		})
		if err != nil {
			t.Fatalf("CreateProperty: %v", err)
		}
		propID = p.ID
		if p.Name != "Hotel Test" || p.City != "Lisbon" || !p.IsActive || p.Country == nil || *p.Country != "PT" {
			t.Fatalf("created: %+v", p)
		}

		prof, err := repo.ProfileByUser(ctx, userID)
		if err != nil {
			t.Fatalf("ProfileByUser: %v", err)
		}
		if prof.ID != profileID || len(prof.PropertyIDs) != 1 || prof.PropertyIDs[0] != propID {
			t.Fatalf("profile: %+v", prof)
		}
		if _, err := repo.ProfileByUser(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("unknown user: %v", err)
		}

		if _, err := repo.GetProperty(ctx, strangerID, propID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("stranger can read property: %v", err)
		}

		p.PMSName = pstr("mews")
		p.RoomCount = 40
		up, err := repo.UpdateProperty(ctx, profileID, p)
		if err != nil {
			t.Fatalf("UpdateProperty: %v", err)
		}
		if up.PMSName == nil || *up.PMSName != "mews" || up.RoomCount != 40 {
			t.Fatalf("updated: %+v", up)
		}

		tmp, err := repo.CreateProperty(ctx, profileID, domain.Property{Name: "Temp", City: "Porto", IsActive: true})
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.SoftDeleteProperty(ctx, profileID, tmp.ID, time.Now().UTC()); err != nil {
			t.Fatalf("SoftDeleteProperty: %v", err)
		}
		if err := repo.SoftDeleteProperty(ctx, profileID, tmp.ID, time.Now().UTC()); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("second delete: %v", err)
		}
		list, err := repo.ListProperties(ctx, profileID)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 1 || list[0].ID != propID {
			t.Fatalf("list: %+v", list)
		}
		active, err := repo.ActiveProperties(ctx)
		if err != nil || len(active) != 1 {
			t.Fatalf("active: %+v %v", active, err)
		}
	})

	t.Run("populator", func(t *testing.T) {
		pop := app.NewPricePopulator(repo, io.Discard)
		rep, err := pop.Run(ctx, app.DefaultPopulateOptions())
		if err != nil {
			t.Fatalf("populate: %v", err)
		}
		if rep.CompetitorsCreated != 3 || rep.LinksCreated != 3 || rep.PricesCreated != 600 {
			t.Fatalf("report: %+v", rep)
		}
		if n := countRows(t, db, "historical_competitor_prices"); n != 600 {
			t.Fatalf("price rows: %d", n)
		}

		opts := app.DefaultPopulateOptions()
		opts.DeleteExisting = true
		opts.BatchSize = 250
		rep, err = pop.Run(ctx, opts)
		if err != nil {
			t.Fatalf("populate --delete-existing: %v", err)
		}
		if rep.Deleted.Prices != 600 || rep.Deleted.Competitors != 3 {
			t.Fatalf("deleted: %+v", rep.Deleted)
		}
		if n := countRows(t, db, "historical_competitor_prices"); n != 600 {
			t.Fatalf("price rows after rerun: %d", n)
		}
		if n := countRows(t, db, "competitors"); n != 3 {
			t.Fatalf("competitors after rerun: %d", n)
		}

		var minIn, maxIn time.Time
		if err := db.QueryRow(`SELECT MIN(checkin_date), MAX(checkin_date) FROM historical_competitor_prices`).Scan(&minIn, &maxIn); err != nil {
			t.Fatal(err)
		}
		today := time.Now().UTC().Truncate(24 * time.Hour)
		if !minIn.Equal(today.AddDate(0, 0, -100)) || !maxIn.Equal(today.AddDate(0, 0, 99)) {
			t.Fatalf("checkin span %s..%s", minIn, maxIn)
		}

		cs, err := repo.ListCompetitors(ctx, propID)
		if err != nil || len(cs) != 3 {
			t.Fatalf("competitors: %+v %v", cs, err)
		}
		if cs[0].ExternalID != app.GeneratedCompetitorID(propID, 1) || cs[0].OnlyFollow {
			t.Fatalf("first competitor: %+v", cs[0])
		}

		prices, err := repo.ListCompetitorPrices(ctx, domain.CompetitorPriceQuery{
			PropertyID: propID, From: today, To: today.AddDate(0, 0, 7), Limit: 100,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(prices) != 21 {
			t.Fatalf("week of prices for 3 competitors: %d", len(prices))
		}

		stored, created, err := repo.GetOrCreateCompetitor(ctx, domain.Competitor{
			ExternalID: app.GeneratedCompetitorID(propID, 1),
			Name:       "renamed",
		})
		if err != nil || created {
			t.Fatalf("GetOrCreateCompetitor on existing: created=%v err=%v", created, err)
		}
		if stored.ID != cs[0].ID || stored.Name != cs[0].Name || stored.ValidFrom == nil {
			t.Fatalf("existing competitor not returned as stored: %+v want %+v", stored, cs[0])
		}
		if linked, err := repo.IsLinked(ctx, propID, stored.ID); err != nil || !linked {
			t.Fatalf("IsLinked: %v %v", linked, err)
		}

		wide := app.DefaultPopulateOptions()
		wide.Competitors = 5
		if _, err := pop.Run(ctx, wide); err != nil {
			t.Fatalf("populate 5 competitors: %v", err)
		}
		rep, err = pop.Run(ctx, opts)
		if err != nil {
			t.Fatalf("populate --delete-existing after wider run: %v", err)
		}
		if n := countRows(t, db, "competitors"); n != 3 {
			t.Fatalf("competitors after shrinking: %d", n)
		}
		if n := countRows(t, db, "property_competitors"); n != 3 {
			t.Fatalf("links after shrinking: %d", n)
		}
		if n := countRows(t, db, "historical_competitor_prices"); n != 600 {
			t.Fatalf("price rows after shrinking: %d", n)
		}
	})

	t.Run("snapshots", func(t *testing.T) {
		in := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		asOf := time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC)
		s := domain.PriceSnapshot{
			PropertyID: propID, HotelID: "bk-1", CheckinDate: in, CheckoutDate: in.AddDate(0, 0, 1), AsOf: asOf,
			Currency: pstr("EUR"), GrossPrice: pdec("120.00"), RawJSON: []byte(`{"gross_price":120}`),
		}
		if err := repo.UpsertSnapshots(ctx, []domain.PriceSnapshot{s}); err != nil {
			t.Fatalf("UpsertSnapshots: %v", err)
		}
		s.GrossPrice = pdec("125.50")
		if err := repo.UpsertSnapshots(ctx, []domain.PriceSnapshot{s}); err != nil {
			t.Fatalf("UpsertSnapshots again: %v", err)
		}

		got, err := repo.ListSnapshots(ctx, domain.SnapshotQuery{PropertyID: propID, CheckinDate: &in, Limit: 10})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].GrossPrice == nil || got[0].GrossPrice.StringFixed(2) != "125.50" {
			t.Fatalf("snapshots: %+v", got)
		}
		if err := repo.LogMiss(ctx, propID, 404, "quote:2026-05-02"); err != nil {
			t.Fatalf("LogMiss: %v", err)
		}
		if err := repo.LogMiss(ctx, propID, 404, "quote:2026-05-02"); err != nil {
			t.Fatalf("LogMiss twice: %v", err)
		}
	})

	t.Run("analytics", func(t *testing.T) {
		if _, err := db.Exec(`INSERT INTO analytics.daily_performance
			(property_id, date, rooms_available, rooms_sold, revenue, occupancy_rate, adr, revpar) VALUES
			(?, '2026-03-01', 40, 30, 3000.00, 0.7500, 100.00, 75.00),
			(?, '2026-03-02', 40, 20, 1800.00, 0.5000, 90.00, 45.00)`, propID, propID); err != nil {
			t.Fatal(err)
		}
		if _, err := db.Exec(`INSERT INTO analytics.unified_reservations
			(id, property_id, booked_at, cancelled_at, checkin, checkout, rooms, revenue, status) VALUES
			(1, ?, '2026-02-01 10:00:00', NULL, '2026-03-01', '2026-03-03', 1, 200.00, 'confirmed'),
			(2, ?, '2026-02-20 10:00:00', '2026-02-25 10:00:00', '2026-03-02', '2026-03-03', 2, 300.00, 'cancelled'),
			(3, ?, '2026-03-05 10:00:00', NULL, '2026-03-01', '2026-03-02', 1, 100.00, 'confirmed')`, propID, propID, propID); err != nil {
			t.Fatal(err)
		}

		if _, err := mysqlrepo.NewAnalytics(db, "analytics; DROP TABLE x"); err == nil {
			t.Fatal("schema name with SQL accepted")
		}
		a, err := mysqlrepo.NewAnalytics(db, "analytics")
		if err != nil {
			t.Fatal(err)
		}
		r := domain.DateRange{
			Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		}
		daily, err := a.DailyPerformance(ctx, propID, r)
		if err != nil {
			t.Fatal(err)
		}
		if len(daily) != 2 || daily[0].RoomsSold != 30 || daily[1].OccupancyRate.StringFixed(2) != "0.50" {
			t.Fatalf("daily: %+v", daily)
		}

		res, err := a.Reservations(ctx, propID, r, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatal(err)
		}
		if len(res) != 2 {
			t.Fatalf("reservations booked by Mar 1: %+v", res)
		}
		if res[1].CancelledAt == nil || res[1].Rooms != 2 {
			t.Fatalf("cancelled reservation: %+v", res[1])
		}
	})
}
