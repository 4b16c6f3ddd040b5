package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/server"
	"github.com/idilsaglam/todo/internal/store"
	"github.com/idilsaglam/todo/internal/store/jsonstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// startBackend runs the bundled dev backend and returns its collection URL.
func startBackend(t *testing.T) string {
	t.Helper()
	st := jsonstore.Open(filepath.Join(t.TempDir(), "todos.json"))
	srv := server.New(st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return ts.URL + server.BasePath
}

func newClient(t *testing.T, base string) *Client {
	t.Helper()
	c, err := New(base)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestClientAgainstDevBackend(t *testing.T) {
	ctx := context.Background()
	c := newClient(t, startBackend(t))

	milk, err := c.Add(ctx, "Buy milk")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if milk.Title != "Buy milk" || milk.Completed || milk.ID == "" {
		t.Fatalf("unexpected item: %#v", milk)
	}
	bread, err := c.Add(ctx, "Buy bread")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if _, err := c.Update(ctx, milk.ID, model.CompletedPatch(true)); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	renamed, err := c.Update(ctx, bread.ID, model.TitlePatch("New title"))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if renamed.Title != "New title" {
		t.Fatalf("expected renamed item, got %#v", renamed)
	}

	list, err := c.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	type row struct {
		Title     string
		Completed bool
	}
	var got []row
	for _, it := range list {
		got = append(got, row{it.Title, it.Completed})
	}
	want := []row{{"Buy milk", true}, {"New title", false}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	if err := c.Remove(ctx, milk.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := c.Remove(ctx, milk.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	list, err = c.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != bread.ID {
		t.Fatalf("expected only %s to remain, got %#v", bread.ID, list)
	}
}

func TestClientValidatesLocally(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()
	c := newClient(t, ts.URL)

	if _, err := c.Add(context.Background(), "   "); !errors.Is(err, store.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if _, err := c.Update(context.Background(), "1", model.TitlePatch(" ")); !errors.Is(err, store.ErrNoChange) {
		t.Fatalf("expected ErrNoChange, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no request, got %d", calls)
	}
}

func TestClientErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "title too long"})
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "<html>upstream down</html>")
		}
	}))
	defer ts.Close()
	c := newClient(t, ts.URL)

	_, err := c.Add(context.Background(), "Buy milk")
	apiErr, ok := IsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Message != "title too long" {
		t.Fatalf("unexpected APIError: %#v", apiErr)
	}

	_, err = c.FetchAll(context.Background())
	apiErr, ok = IsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("expected status text fallback, got %q", apiErr.Message)
	}
}

func TestClientDecodesBackendVariants(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"_id": "665f", "title": "Mongo", "description": "", "completed": true, "createdAt": "2024-06-01T10:00:00.000Z"},
			{"id": "42", "title": "Plain", "createdAt": 1717236000000},
			{"id": "43", "title": "No timestamp"}
		]`)
	}))
	defer ts.Close()
	c := newClient(t, ts.URL)

	got, err := c.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	want := []model.Item{
		{ID: "665f", Title: "Mongo", Completed: true, CreatedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC).UnixMilli()},
		{ID: "42", Title: "Plain", CreatedAt: 1717236000000},
		{ID: "43", Title: "No timestamp"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestClientMalformedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"not": "a list"}`)
	}))
	defer ts.Close()

	if _, err := newClient(t, ts.URL).FetchAll(context.Background()); err == nil {
		t.Fatal("expected an error for a malformed response")
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("ftp://example.com/todos"); err == nil {
		t.Fatal("expected an error for a non-http scheme")
	}
}
