package model

import (
	"sort"
	"strings"
)

// Item is the domain model for a todo entry.
// ID is opaque and assigned by whichever store holds the item.
type Item struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"createdAt"` // unix millis
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

func TitlePatch(title string) Patch { return Patch{Title: &title} }

func CompletedPatch(done bool) Patch { return Patch{Completed: &done} }

// Empty reports whether the patch carries no field at all.
func (p Patch) Empty() bool { return p.Title == nil && p.Completed == nil }

// Apply returns a copy of it with the patch fields set.
func (p Patch) Apply(it Item) Item {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Completed != nil {
		it.Completed = *p.Completed
	}
	return it
}

// NormalizeTitle trims surrounding whitespace and reports whether
// anything is left.
func NormalizeTitle(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// SortNewestFirst orders items by CreatedAt descending, ties by ID so the
// order is stable across snapshots.
func SortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt > items[j].CreatedAt
		}
		return items[i].ID < items[j].ID
	})
}

// IndexOf returns the position of id in items, or -1.
func IndexOf(items []Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Stats counts done and pending items; used by headers.
func Stats(items []Item) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}
