package rest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/idilsaglam/todo/internal/store"
)

// Feed subscribes to the backend's websocket snapshot stream at
// <base>/ws. Each frame is a full list: {"items": [...]}.
type Feed struct {
	url    string
	dialer *websocket.Dialer
}

func NewFeed(baseURL string) (*Feed, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("base url %q: unsupported scheme", baseURL)
	}
	return &Feed{url: u.JoinPath("ws").String(), dialer: websocket.DefaultDialer}, nil
}

func (f *Feed) Subscribe(ctx context.Context, fn func(store.Snapshot)) (store.Unsubscribe, error) {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", f.url, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer cancel()
		for {
			var msg struct {
				Items []record `json:"items"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				if ctx.Err() == nil {
					fn(store.Snapshot{Err: fmt.Errorf("read snapshot: %w", err)})
				}
				return
			}
			list, err := items(msg.Items)
			if err != nil {
				fn(store.Snapshot{Err: fmt.Errorf("decode snapshot: %w", err)})
				return
			}
			fn(store.Snapshot{Items: list})
		}
	}()

	return store.OnceUnsubscribe(cancel), nil
}
