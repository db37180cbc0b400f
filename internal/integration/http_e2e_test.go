//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
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

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"kos_service/internal/adapters/authsvc"
	httpserver "kos_service/internal/adapters/http_server"
	"kos_service/internal/app"
	"kos_service/internal/domain"
	mysqlrepo "kos_service/internal/storage/mysql"
)

const (
	ownerID  = "5b1f0c3e-7a8d-4c2e-9f1a-0d6c2b7e4a11"
	internal = "internal-secret"
)

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = filepath.Join("..", "..", "migrations")
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
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
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// authStub plays the auth service: "owner-token" is a PEMILIK, anything else is rejected.
func authStub() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer owner-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Invalid token"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"userId": ownerID, "role": "PEMILIK"}})
	}))
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, method, url, body string, hdr map[string]string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	var env envelope
	if res.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
	}
	return res.StatusCode, env
}

// ---------- the test ----------
func TestHTTP_EndToEnd_KosLifecycle(t *testing.T) {
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
			"MYSQL_DATABASE=kos",
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
		"root", hostPort, "kos")

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

	// Wire the real stack; only the auth service is stubbed
	auth := authStub()
	defer auth.Close()
	verifier, err := authsvc.New(authsvc.Options{VerifyURL: auth.URL + "/api/v1/verify", Timeout: time.Second})
	if err != nil {
		t.Fatalf("auth client: %v", err)
	}
	repo := mysqlrepo.New(db)
	cmd := app.NewCommandService(repo, nil)
	srv := httpserver.New()
	srv.Use(httpserver.Authenticate(verifier, internal, time.Second))
	srv.MountHandlers(&httpserver.Handlers{Cmd: cmd, Q: app.NewQueryService(repo)})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	owner := map[string]string{"Authorization": "Bearer owner-token"}
	base := ts.URL + "/api/v1/kos"

	// create
	code, env := call(t, http.MethodPost, base,
		`{"name":"Kos Anggrek","address":"Jl. Margonda 12","description":"AC, wifi","numRooms":8,"monthlyRentPrice":"1250000.00"}`, owner)
	if code != http.StatusCreated {
		t.Fatalf("create: status %d (%s)", code, env.Message)
	}
	var created domain.Kos
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode kos: %v", err)
	}

	// rejected token never reaches the handler
	if code, _ := call(t, http.MethodGet, base, "", map[string]string{"Authorization": "Bearer stolen"}); code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d", code)
	}

	// public search
	code, env = call(t, http.MethodGet, base+"?keyword=wifi", "", nil)
	var found []domain.Kos
	_ = json.Unmarshal(env.Data, &found)
	if code != http.StatusOK || len(found) != 1 || found[0].ID != created.ID {
		t.Fatalf("search: status %d, %d results", code, len(found))
	}

	// partial update
	code, env = call(t, http.MethodPatch, base+"/"+created.ID, `{"monthlyRentPrice":"1300000"}`, owner)
	var updated domain.Kos
	_ = json.Unmarshal(env.Data, &updated)
	if code != http.StatusOK || updated.MonthlyRentPrice.String() != "1300000" || updated.Name != "Kos Anggrek" {
		t.Fatalf("update: status %d, got %+v", code, updated)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updatedAt did not advance: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}

	// a rental event bumps occupancy by one
	consumer := app.NewEventConsumer(cmd, "test", 2)
	evt := fmt.Sprintf(`{"kosId":%q,"rentalId":"r-1","userId":"u-1","price":1300000,"timestamp":"2024-05-20T10:00:00Z"}`, created.ID)
	if outcome := consumer.Handle(context.Background(), []byte(evt)); outcome != app.OutcomeOK {
		t.Fatalf("event outcome %s", outcome)
	}
	code, env = call(t, http.MethodGet, base+"/"+created.ID, "", nil)
	var got domain.Kos
	_ = json.Unmarshal(env.Data, &got)
	if code != http.StatusOK || got.OccupiedRooms != 1 {
		t.Fatalf("get after event: status %d, occupied %d", code, got.OccupiedRooms)
	}

	// internal caller adjusts occupancy directly
	code, env = call(t, http.MethodPost, base+"/"+created.ID+"/occupancy", `{"delta":-5}`,
		map[string]string{httpserver.InternalTokenHeader: internal})
	_ = json.Unmarshal(env.Data, &got)
	if code != http.StatusOK || got.OccupiedRooms != 0 {
		t.Fatalf("occupancy: status %d, occupied %d", code, got.OccupiedRooms)
	}

	// delete
	if code, _ := call(t, http.MethodDelete, base+"/"+created.ID, "", owner); code != http.StatusNoContent {
		t.Fatalf("delete: status %d", code)
	}
	if code, _ := call(t, http.MethodGet, base+"/"+created.ID, "", nil); code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", code)
	}
}
