package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/config"
	"github.com/idilsaglam/todo/internal/store"
	"github.com/idilsaglam/todo/internal/store/firestoredb"
	"github.com/idilsaglam/todo/internal/store/rest"
)

// backend is the adapter pair the commands run against. feed is nil for
// the pull-only REST backend.
type backend struct {
	store  store.Store
	feed   store.Subscriber
	closer func() error
}

func (b *backend) Close() {
	if b.closer != nil {
		_ = b.closer()
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Backend {
	case config.BackendFirestore:
		fs, err := firestoredb.Open(ctx, firestoredb.Config{
			ProjectID:       cfg.Firestore.ProjectID,
			CredentialsFile: cfg.Firestore.CredentialsFile,
			Collection:      cfg.Firestore.Collection,
		})
		if err != nil {
			return nil, err
		}
		return &backend{store: fs, feed: fs, closer: fs.Close}, nil

	case config.BackendREST, config.BackendRESTLive:
		timeout, err := cfg.RESTTimeout()
		if err != nil {
			return nil, err
		}
		c, err := rest.New(cfg.REST.URL, rest.WithHTTPClient(&http.Client{Timeout: timeout}))
		if err != nil {
			return nil, err
		}
		b := &backend{store: c}
		if cfg.Backend == config.BackendRESTLive {
			f, err := rest.NewFeed(cfg.REST.URL)
			if err != nil {
				return nil, err
			}
			b.feed = f
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// newLogger sends logs to path while the terminal is owned by the
// interactive view. An empty path discards them.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := tea.LogToFile(path, "todo")
	if err != nil {
		return nil, nil, err
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return log, func() { _ = f.Close() }, nil
}
