//go:build integration || !unit

package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"

	server "hotel_revenue/internal/adapters/http_server"
	redisad "hotel_revenue/internal/adapters/redis"
	"hotel_revenue/internal/app"
	"hotel_revenue/internal/auth"
	mysqlrepo "hotel_revenue/internal/storage/mysql"
)

// ---------- helpers ----------
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
	execFile(t, db, filepath.Join("..", "storage", "mysql", "testdata", "analytics_schema.sql"))
}

type client struct {
	base  string
	token string
}

func (c client) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

// ---------- the test ----------
func TestHTTP_EndToEnd_PropertyLifecycleAndSummary(t *testing.T) {
	// Start isolated MySQL container
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

	res, err := db.Exec(`INSERT INTO users (email) VALUES ('e2e@example.com')`)
	if err != nil {
		t.Fatal(err)
	}
	userID, _ := res.LastInsertId()
	if _, err := db.Exec(`INSERT INTO profiles (user_id) VALUES (?)`, userID); err != nil {
		t.Fatal(err)
	}

	// real wiring, as cmd/api does it, with an in-process redis
	mr := miniredis.RunT(t)
	cache := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	repo := mysqlrepo.New(db)
	analytics, err := mysqlrepo.NewAnalytics(db, "analytics")
	if err != nil {
		t.Fatal(err)
	}
	verifier, err := auth.NewVerifier("e2e-secret")
	if err != nil {
		t.Fatal(err)
	}
	srv := server.New(server.Options{Timeout: 10 * time.Second})
	srv.MountHandlers(&server.Handlers{
		Props:     app.NewPropertyService(repo),
		Analytics: app.NewAnalyticsService(repo, analytics, cache, time.Minute),
	}, server.Authenticate(verifier, repo))
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	token, err := auth.Sign("e2e-secret", userID, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	c := client{base: ts.URL, token: token}

	if code, _ := (client{base: ts.URL}).do(t, http.MethodGet, "/properties", nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: %d", code)
	}

	code, body := c.do(t, http.MethodPost, "/properties", map[string]any{})
	if code != http.StatusBadRequest || body["errors"] == nil {
		t.Fatalf("empty create: %d %v", code, body)
	}

	code, body = c.do(t, http.MethodPost, "/properties", map[string]any{"name": "E2E Hotel", "city": "Lisbon", "room_count": 40})
	if code != http.StatusCreated || body["name"] != "E2E Hotel" || body["city"] != "Lisbon" {
		t.Fatalf("create: %d %v", code, body)
	}
	id := int64(body["id"].(float64))

	code, body = c.do(t, http.MethodPut, fmt.Sprintf("/properties/%d/pms", id), map[string]any{"pms_name": "mews"})
	if code != http.StatusOK || body["pms_name"] != "mews" || body["pms_change"] == nil {
		t.Fatalf("pms: %d %v", code, body)
	}

	if _, err := db.Exec(`INSERT INTO analytics.daily_performance
		(property_id, date, rooms_available, rooms_sold, revenue, occupancy_rate, adr, revpar) VALUES
		(?, '2026-03-01', 40, 30, 3000.00, 0.7500, 100.00, 75.00)`, id); err != nil {
		t.Fatal(err)
	}
	code, body = c.do(t, http.MethodGet, fmt.Sprintf("/analytics/summary?property_id=%d&start_date=2026-03-01&end_date=2026-03-07", id), nil)
	if code != http.StatusOK {
		t.Fatalf("summary: %d %v", code, body)
	}
	charts := body["charts"].(map[string]any)
	if len(charts["revenue"].([]any)) != 7 {
		t.Fatalf("revenue chart: %v", charts["revenue"])
	}
	if tot := body["totals"].(map[string]any); tot["revenue"] != 3000.0 || tot["adr"] != 100.0 {
		t.Fatalf("totals: %v", tot)
	}
	if keys := mr.Keys(); len(keys) != 1 {
		t.Fatalf("summary not cached in redis: %v", keys)
	}

	code, body = c.do(t, http.MethodDelete, fmt.Sprintf("/properties/%d", id), nil)
	if code != http.StatusOK || body["message"] == nil {
		t.Fatalf("delete: %d %v", code, body)
	}
	code, body = c.do(t, http.MethodGet, "/properties", nil)
	if code != http.StatusOK || len(body["properties"].([]any)) != 0 {
		t.Fatalf("list after delete: %d %v", code, body)
	}
	if code, _ := c.do(t, http.MethodGet, fmt.Sprintf("/analytics/occupancy?property_id=%d", id), nil); code != http.StatusNotFound {
		t.Fatalf("analytics on deleted property: %d", code)
	}
}
