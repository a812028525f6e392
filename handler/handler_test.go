package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stevemurr/movie-catalog/handler"
	"github.com/stevemurr/movie-catalog/movie"
	"github.com/stevemurr/movie-catalog/store"
)

func sequentialIDs() store.IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func seedMovies() []movie.Movie {
	return []movie.Movie{
		{ID: "m1", Title: "Heat", Year: 1995, Director: "Michael Mann", Duration: 170, Rate: 8.3, Poster: "https://img.example.com/heat.jpg", Genre: []movie.Genre{movie.Crime, movie.Drama}},
		{ID: "m2", Title: "Airplane!", Year: 1980, Director: "Jim Abrahams", Duration: 88, Rate: 7.7, Poster: "https://img.example.com/airplane.jpg", Genre: []movie.Genre{movie.Comedy}},
	}
}

func setup(opts handler.Options) (*httptest.Server, *store.MemoryStore) {
	s := store.NewMemoryStore(seedMovies(), store.WithIDFunc(sequentialIDs()))
	h := handler.New(s, opts)
	ts := httptest.NewServer(h)
	return ts, s
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func decodeJSON(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func decodeJSONArray(t *testing.T, r io.Reader) []any {
	t.Helper()
	var v []any
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func do(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, body)
	}
}

func newMovie() map[string]any {
	return map[string]any{
		"title":    "X",
		"year":     2000,
		"director": "D",
		"duration": 90,
		"poster":   "http://x/p.jpg",
		"genre":    []string{"Drama"},
	}
}

func TestRootAndHealth(t *testing.T) {
	ts, _ := setup(handler.Options{})
	defer ts.Close()

	resp := do(t, "GET", ts.URL+"/", nil)
	expectStatus(t, resp, 200)
	body := decodeJSON(t, resp.Body)
	if body["status"] != "ok" {
		t.Fatalf("expected status=ok, got %v", body["status"])
	}

	resp = do(t, "GET", ts.URL+"/health", nil)
	expectStatus(t, resp, 200)
}

func TestListMovies(t *testing.T) {
	ts, _ := setup(handler.Options{})
	defer ts.Close()

	resp := do(t, "GET", ts.URL+"/movies", nil)
	expectStatus(t, resp, 200)
	items := decodeJSONArray(t, resp.Body)
	if len(items) != 2 {
		t.Fatalf("expected 2 movies, got %d", len(items))
	}
	if items[0].(map[string]any)["id"] != "m1" {
		t.Fatalf("expected seed order, got %v", items)
	}
}

func TestListMoviesByGenre(t *testing.T) {
	ts, _ := setup(handler.Options{})
	defer ts.Close()

	for _, q := range []string{"comedy", "COMEDY", "Comedy"} {
		resp := do(t, "GET", ts.URL+"/movies?genre="+q, nil)
		expectStatus(t, resp, 200)
		items := decodeJSONArray(t, resp.Body)
		if len(items) != 1 || items[0].(map[string]any)["id"] != "m2" {
			t.Fatalf("genre=%s: expected only m2, got %v", q, items)
		}
	}

	// No match is an empty list, distinct from the unfiltered list.
	resp := do(t, "GET", ts.URL+"/movies?genre=Horror", nil)
	expectStatus(t, resp, 200)
	if items := decodeJSONArray(t, resp.Body); len(items) != 0 {
		t.Fatalf("expected empty list, got %v", items)
	}

	// An empty parameter means no filter.
	resp = do(t, "GET", ts.URL+"/movies?genre=", nil)
	if items := decodeJSONArray(t, resp.Body); len(items) != 2 {
		t.Fatalf("expected all movies, got %d", len(items))
	}
}

func TestMoviesCRUD(t *testing.T) {
	ts, _ := setup(handler.Options{})
	defer ts.Close()

	// POST /movies
	resp := do(t, "POST", ts.URL+"/movies", mustJSON(t, newMovie()))
	expectStatus(t, resp, 201)
	created := decodeJSON(t, resp.Body)
	if created["id"] != "id-1" {
		t.Fatalf("expected id-1, got %v", created["id"])
	}
	if created["rate"] != float64(1) {
		t.Fatalf("expected default rate=1, got %v", created["rate"])
	}

	// GET /movies/id-1
	resp = do(t, "GET", ts.URL+"/movies/id-1", nil)
	expectStatus(t, resp, 200)
	got := decodeJSON(t, resp.Body)
	if got["title"] != "X" {
		t.Fatalf("expected title=X, got %v", got["title"])
	}

	// Appended at the end
	resp = do(t, "GET", ts.URL+"/movies", nil)
	items := decodeJSONArray(t, resp.Body)
	if len(items) != 3 || items[2].(map[string]any)["id"] != "id-1" {
		t.Fatalf("expected new movie last, got %v", items)
	}

	// PATCH /movies/id-1
	resp = do(t, "PATCH", ts.URL+"/movies/id-1", mustJSON(t, map[string]any{"year": 2001, "rate": 9}))
	expectStatus(t, resp, 200)
	got = decodeJSON(t, resp.Body)
	if got["year"] != float64(2001) || got["rate"] != float64(9) {
		t.Fatalf("expected patched fields, got %v", got)
	}
	if got["title"] != "X" || got["director"] != "D" {
		t.Fatalf("expected untouched fields retained, got %v", got)
	}

	// DELETE /movies/id-1
	resp = do(t, "DELETE", ts.URL+"/movies/id-1", nil)
	expectStatus(t, resp, 200)
	if body := decodeJSON(t, resp.Body); body["message"] != "Movie deleted" {
		t.Fatalf("unexpected delete body %v", body)
	}

	// GET should return 404
	resp = do(t, "GET", ts.URL+"/movies/id-1", nil)
	expectStatus(t, resp, 404)

	// DELETE again is 404
	resp = do(t, "DELETE", ts.URL+"/movies/id-1", nil)
	expectStatus(t, resp, 404)
}

func TestCreateValidation(t *testing.T) {
	ts, s := setup(handler.Options{})
	defer ts.Close()

	bad := newMovie()
	bad["year"] = 2025
	delete(bad, "poster")
	resp := do(t, "POST", ts.URL+"/movies", mustJSON(t, bad))
	expectStatus(t, resp, 400)

	body := decodeJSON(t, resp.Body)
	issues, ok := body["error"].([]any)
	if !ok || len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %v", body["error"])
	}
	fields := map[string]bool{}
	for _, is := range issues {
		fields[is.(map[string]any)["field"].(string)] = true
	}
	if !fields["year"] || !fields["poster"] {
		t.Fatalf("expected year and poster issues, got %v", issues)
	}
	if s.Len() != 2 {
		t.Fatalf("store must be unchanged, has %d movies", s.Len())
	}
}

func TestCreateInvalidJSON(t *testing.T) {
	ts, _ := setup(handler.Options{})
	defer ts.Close()

	for _, body := range []string{"{", "[1, 2]", "null", ""} {
		resp := do(t, "POST", ts.URL+"/movies", []byte(body))
		expectStatus(t, resp, 400)
	}
}

func TestUpdateOutcomes(t *testing.T) {
	ts, s := setup(handler.Options{})
	defer ts.Close()

	// Unknown id
	resp := do(t, "PATCH", ts.URL+"/movies/nope", mustJSON(t, map[string]any{"year": 2001}))
	expectStatus(t, resp, 404)

	// Invalid patch is reported before the id is looked up
	resp = do(t, "PATCH", ts.URL+"/movies/nope", mustJSON(t, map[string]any{"year": "2001"}))
	expectStatus(t, resp, 400)

	// Invalid patch on a known id leaves it unchanged
	resp = do(t, "PATCH", ts.URL+"/movies/m1", mustJSON(t, map[string]any{"genre": []string{}}))
	expectStatus(t, resp, 400)

	// Empty patch is a no-op
	before, _ := s.Get("m1")
	resp = do(t, "PATCH", ts.URL+"/movies/m1", []byte(`{}`))
	expectStatus(t, resp, 200)
	after, _ := s.Get("m1")
	if fmt.Sprint(before) != fmt.Sprint(after) {
		t.Fatalf("empty patch changed record: %v -> %v", before, after)
	}

	// The id cannot be patched
	resp = do(t, "PATCH", ts.URL+"/movies/m1", mustJSON(t, map[string]any{"id": "other"}))
	expectStatus(t, resp, 200)
	if got := decodeJSON(t, resp.Body); got["id"] != "m1" {
		t.Fatalf("expected id to stay m1, got %v", got["id"])
	}
}

// logBuffer collects log output written from server goroutines.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// entries returns the decoded log records with the given message.
func (b *logBuffer) entries(t *testing.T, msg string) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		if rec["msg"] == msg {
			out = append(out, rec)
		}
	}
	return out
}

func debugLogger(b *logBuffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(b, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestUpdateEmptyPatchIsRead(t *testing.T) {
	logs := &logBuffer{}
	ts, s := setup(handler.Options{Logger: debugLogger(logs)})
	defer ts.Close()

	resp := do(t, "PATCH", ts.URL+"/movies/m1", []byte(`{"unknown": true}`))
	expectStatus(t, resp, 200)
	want, _ := s.Get("m1")
	if got := decodeJSON(t, resp.Body); got["id"] != "m1" || got["title"] != want.Title {
		t.Fatalf("expected stored movie back, got %v", got)
	}
	if n := len(logs.entries(t, "movie updated")); n != 0 {
		t.Fatalf("empty patch logged %d updates", n)
	}

	resp = do(t, "PATCH", ts.URL+"/movies/nope", []byte(`{}`))
	expectStatus(t, resp, 404)

	resp = do(t, "PATCH", ts.URL+"/movies/m1", mustJSON(t, map[string]any{"rate": 9}))
	expectStatus(t, resp, 200)
	if n := len(logs.entries(t, "movie updated")); n != 1 {
		t.Fatalf("expected 1 update logged, got %d", n)
	}
}

func TestValidationFailureLogsFields(t *testing.T) {
	logs := &logBuffer{}
	ts, _ := setup(handler.Options{Logger: debugLogger(logs)})
	defer ts.Close()

	resp := do(t, "POST", ts.URL+"/movies", mustJSON(t, map[string]any{"year": 1800}))
	expectStatus(t, resp, 400)

	recs := logs.entries(t, "validation failed")
	if len(recs) != 1 {
		t.Fatalf("expected 1 validation log, got %d", len(recs))
	}
	fields, ok := recs[0]["fields"].(map[string]any)
	if !ok {
		t.Fatalf("expected fields object, got %v", recs[0]["fields"])
	}
	for _, f := range []string{"title", "year", "director", "duration", "poster", "genre"} {
		if _, ok := fields[f]; !ok {
			t.Fatalf("expected %s in logged fields, got %v", f, fields)
		}
	}
	if recs[0]["path"] != "/movies" {
		t.Fatalf("expected path /movies, got %v", recs[0]["path"])
	}
}

func TestCORS(t *testing.T) {
	ts, _ := setup(handler.Options{AllowedOrigins: []string{"http://localhost:1234"}})
	defer ts.Close()

	req, _ := http.NewRequest("OPTIONS", ts.URL+"/movies", nil)
	req.Header.Set("Origin", "http://localhost:1234")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:1234" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}

	req, _ = http.NewRequest("GET", ts.URL+"/movies", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header, got %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	ts, _ := setup(handler.Options{RateLimit: 0.001, RateLimitBurst: 1})
	defer ts.Close()

	resp := do(t, "GET", ts.URL+"/health", nil)
	expectStatus(t, resp, 200)
	resp = do(t, "GET", ts.URL+"/health", nil)
	expectStatus(t, resp, http.StatusTooManyRequests)
}
