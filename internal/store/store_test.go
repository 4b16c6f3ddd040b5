package store

import (
	"errors"
	"testing"

	"github.com/idilsaglam/todo/internal/model"
)

func TestPrepareTitle(t *testing.T) {
	if _, err := PrepareTitle("   "); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	got, err := PrepareTitle("  Buy milk ")
	if err != nil {
		t.Fatalf("PrepareTitle failed: %v", err)
	}
	if got != "Buy milk" {
		t.Fatalf("expected trimmed title, got %q", got)
	}
}

func TestPreparePatch(t *testing.T) {
	if _, err := PreparePatch(model.Patch{}); !errors.Is(err, ErrNoChange) {
		t.Fatalf("empty patch: expected ErrNoChange, got %v", err)
	}
	if _, err := PreparePatch(model.TitlePatch(" ")); !errors.Is(err, ErrNoChange) {
		t.Fatalf("blank title: expected ErrNoChange, got %v", err)
	}

	p, err := PreparePatch(model.TitlePatch(" New title "))
	if err != nil {
		t.Fatalf("PreparePatch failed: %v", err)
	}
	if *p.Title != "New title" {
		t.Fatalf("expected trimmed title, got %q", *p.Title)
	}

	done := true
	p, err = PreparePatch(model.Patch{Title: ptr("   "), Completed: &done})
	if err != nil {
		t.Fatalf("blank title next to completed: %v", err)
	}
	if p.Title != nil || p.Completed == nil || !*p.Completed {
		t.Fatalf("expected only the completed change to survive, got %#v", p)
	}

	p, err = PreparePatch(model.CompletedPatch(false))
	if err != nil {
		t.Fatalf("PreparePatch failed: %v", err)
	}
	if p.Completed == nil || *p.Completed {
		t.Fatalf("expected completed=false to survive, got %#v", p)
	}
}

func TestOnceUnsubscribe(t *testing.T) {
	calls := 0
	stop := OnceUnsubscribe(func() { calls++ })
	stop()
	stop()
	if calls != 1 {
		t.Fatalf("expected stop to run once, ran %d times", calls)
	}
}

func ptr(s string) *string { return &s }
