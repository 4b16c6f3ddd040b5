package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/idilsaglam/todo/internal/model"
)

// record is an item as backends send it. Mongo-style backends use _id,
// others id; both end up in model.Item.ID.
type record struct {
	MongoID   string    `json:"_id"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt timestamp `json:"createdAt"`
}

func (r record) item() (model.Item, error) {
	id := r.MongoID
	if id == "" {
		id = r.ID
	}
	if id == "" {
		return model.Item{}, fmt.Errorf("record %q has no identifier", r.Title)
	}
	return model.Item{ID: id, Title: r.Title, Completed: r.Completed, CreatedAt: int64(r.CreatedAt)}, nil
}

func items(recs []record) ([]model.Item, error) {
	out := make([]model.Item, 0, len(recs))
	for _, r := range recs {
		it, err := r.item()
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

// timestamp is unix millis. It decodes from a JSON number, a numeric
// string or an RFC 3339 string.
type timestamp int64

func (t *timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = 0
		return nil
	}
	if b[0] != '"' {
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
		*t = timestamp(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("createdAt: %w", err)
	}
	if s == "" {
		*t = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*t = timestamp(n)
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("createdAt: %w", err)
	}
	*t = timestamp(parsed.UnixMilli())
	return nil
}
