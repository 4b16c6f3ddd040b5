package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/go-cmp/cmp"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store"
)

func TestDecodeDefaults(t *testing.T) {
	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		data map[string]any
		want model.Item
	}{
		{
			name: "full record",
			data: map[string]any{"text": "Buy milk", "completed": true, "createdAt": int64(1717236000000)},
			want: model.Item{ID: "x", Title: "Buy milk", Completed: true, CreatedAt: 1717236000000},
		},
		{
			name: "float timestamp",
			data: map[string]any{"text": "Buy milk", "createdAt": float64(1717236000000)},
			want: model.Item{ID: "x", Title: "Buy milk", CreatedAt: 1717236000000},
		},
		{
			name: "server timestamp",
			data: map[string]any{"text": "Buy milk", "createdAt": created},
			want: model.Item{ID: "x", Title: "Buy milk", CreatedAt: created.UnixMilli()},
		},
		{
			name: "missing fields",
			data: map[string]any{},
			want: model.Item{ID: "x"},
		},
		{
			name: "wrong types",
			data: map[string]any{"text": 12, "completed": "yes", "createdAt": "soon"},
			want: model.Item{ID: "x"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, decode("x", tc.data)); diff != "" {
				t.Fatalf("decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpdatesOnlyCarryPatchedFields(t *testing.T) {
	ups := updates(model.CompletedPatch(true))
	if len(ups) != 1 || ups[0].Path != "completed" || ups[0].Value != true {
		t.Fatalf("unexpected updates: %#v", ups)
	}
	title := "New title"
	ups = updates(model.Patch{Title: &title})
	if len(ups) != 1 || ups[0].Path != "text" || ups[0].Value != "New title" {
		t.Fatalf("unexpected updates: %#v", ups)
	}
}

// The rest of the file needs a running emulator:
//
//	gcloud emulators firestore start --host-port=localhost:8086
//	FIRESTORE_EMULATOR_HOST=localhost:8086 go test ./internal/store/firestoredb
func emulatorStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "demo-todo")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	s := New(client, fmt.Sprintf("todos-%d", time.Now().UnixNano()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEmulatorCRUD(t *testing.T) {
	s := emulatorStore(t)
	ctx := context.Background()

	if _, err := s.Add(ctx, " "); !errors.Is(err, store.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}

	milk, err := s.Add(ctx, "Buy milk")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	bread, err := s.Add(ctx, "Buy bread")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if _, err := s.Update(ctx, milk.ID, model.CompletedPatch(true)); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := s.Update(ctx, "missing", model.CompletedPatch(true)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	items, err := s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != bread.ID || !items[1].Completed {
		t.Fatalf("unexpected items: %#v", items)
	}

	if err := s.Remove(ctx, bread.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	items, err = s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != milk.ID {
		t.Fatalf("unexpected items after delete: %#v", items)
	}
}

func TestEmulatorSubscribe(t *testing.T) {
	s := emulatorStore(t)
	ctx := context.Background()

	snaps := make(chan store.Snapshot, 16)
	unsubscribe, err := s.Subscribe(ctx, func(snap store.Snapshot) { snaps <- snap })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubscribe()

	waitFor := func(pred func([]model.Item) bool) {
		t.Helper()
		deadline := time.After(10 * time.Second)
		for {
			select {
			case snap := <-snaps:
				if snap.Err != nil {
					t.Fatalf("snapshot error: %v", snap.Err)
				}
				if pred(snap.Items) {
					return
				}
			case <-deadline:
				t.Fatal("timed out waiting for snapshot")
			}
		}
	}

	waitFor(func(items []model.Item) bool { return len(items) == 0 })
	if _, err := s.Add(ctx, "Buy milk"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	waitFor(func(items []model.Item) bool { return len(items) == 1 && items[0].Title == "Buy milk" })
}
