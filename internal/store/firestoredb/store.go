// Package firestoredb is the realtime store adapter. Items live as
// documents of a single collection; a snapshot listener pushes the whole
// collection on every change.
package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store"
)

const DefaultCollection = "todos"

// Document field names.
const (
	fieldText      = "text"
	fieldCompleted = "completed"
	fieldCreatedAt = "createdAt"
)

type Config struct {
	ProjectID       string
	CredentialsFile string // empty means application default credentials
	Collection      string
}

type Store struct {
	client *firestore.Client
	col    *firestore.CollectionRef
	now    func() time.Time
}

// Open bootstraps a Firebase app and returns a store bound to
// cfg.Collection. The FIRESTORE_EMULATOR_HOST variable is honoured by the
// underlying client.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore: %w", err)
	}
	return New(client, cfg.Collection), nil
}

func New(client *firestore.Client, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{client: client, col: client.Collection(collection), now: time.Now}
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Add(ctx context.Context, title string) (model.Item, error) {
	title, err := store.PrepareTitle(title)
	if err != nil {
		return model.Item{}, err
	}
	created := s.now().UnixMilli()
	ref, _, err := s.col.Add(ctx, map[string]any{
		fieldText:      title,
		fieldCompleted: false,
		fieldCreatedAt: created,
	})
	if err != nil {
		return model.Item{}, fmt.Errorf("add todo: %w", err)
	}
	return model.Item{ID: ref.ID, Title: title, CreatedAt: created}, nil
}

func (s *Store) Update(ctx context.Context, id string, p model.Patch) (model.Item, error) {
	p, err := store.PreparePatch(p)
	if err != nil {
		return model.Item{}, err
	}
	if _, err := s.col.Doc(id).Update(ctx, updates(p)); err != nil {
		if status.Code(err) == codes.NotFound {
			return model.Item{}, fmt.Errorf("update todo %s: %w", id, store.ErrNotFound)
		}
		return model.Item{}, fmt.Errorf("update todo %s: %w", id, err)
	}
	// the listener delivers the full document; only the patch is known here
	return p.Apply(model.Item{ID: id}), nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.col.Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	return nil
}

func (s *Store) FetchAll(ctx context.Context) ([]model.Item, error) {
	docs, err := s.col.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("fetch todos: %w", err)
	}
	items := toItems(docs)
	model.SortNewestFirst(items)
	return items, nil
}

// Subscribe starts a snapshot listener on the collection. The first
// snapshot carries the current contents.
func (s *Store) Subscribe(ctx context.Context, fn func(store.Snapshot)) (store.Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)
	it := s.col.Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return
				}
				fn(store.Snapshot{Err: fmt.Errorf("listen %s: %w", s.col.ID, err)})
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				fn(store.Snapshot{Err: fmt.Errorf("read snapshot: %w", err)})
				return
			}
			fn(store.Snapshot{Items: toItems(docs)})
		}
	}()

	return store.OnceUnsubscribe(cancel), nil
}

func updates(p model.Patch) []firestore.Update {
	var ups []firestore.Update
	if p.Title != nil {
		ups = append(ups, firestore.Update{Path: fieldText, Value: *p.Title})
	}
	if p.Completed != nil {
		ups = append(ups, firestore.Update{Path: fieldCompleted, Value: *p.Completed})
	}
	return ups
}

func toItems(docs []*firestore.DocumentSnapshot) []model.Item {
	items := make([]model.Item, 0, len(docs))
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		items = append(items, decode(doc.Ref.ID, doc.Data()))
	}
	return items
}

// decode is lenient: missing or mistyped fields become zero values.
func decode(id string, data map[string]any) model.Item {
	it := model.Item{ID: id}
	if v, ok := data[fieldText].(string); ok {
		it.Title = v
	}
	if v, ok := data[fieldCompleted].(bool); ok {
		it.Completed = v
	}
	switch v := data[fieldCreatedAt].(type) {
	case int64:
		it.CreatedAt = v
	case float64:
		it.CreatedAt = int64(v)
	case time.Time:
		it.CreatedAt = v.UnixMilli()
	}
	return it
}
