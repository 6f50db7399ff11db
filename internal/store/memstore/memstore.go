// Package memstore is an in-memory DocumentStore used by tests and local
// development. Mutations notify collection subscribers synchronously from
// the mutating goroutine, which keeps test interleavings reproducible.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/foroapp/server/internal/store"
)

type Store struct {
	mu   sync.Mutex
	docs map[string]map[string]interface{}
	subs map[string][]*subscription
}

func New() *Store {
	return &Store{
		docs: make(map[string]map[string]interface{}),
		subs: make(map[string][]*subscription),
	}
}

var _ store.DocumentStore = (*Store)(nil)

func (s *Store) Get(ctx context.Context, path string) (store.Document, error) {
	_, id, err := store.SplitDocPath(path)
	if err != nil {
		return store.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.docs[path]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return store.Document{ID: id, Fields: copyFields(fields)}, nil
}

func (s *Store) Set(ctx context.Context, path string, fields map[string]interface{}) error {
	col, _, err := store.SplitDocPath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[path] = copyFields(fields)
	s.mu.Unlock()
	s.notify(ctx, col)
	return nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	col, _, err := store.SplitDocPath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	_, existed := s.docs[path]
	delete(s.docs, path)
	s.mu.Unlock()
	if existed {
		s.notify(ctx, col)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, collectionPath string, fields map[string]interface{}) (string, error) {
	if err := store.ValidateCollectionPath(collectionPath); err != nil {
		return "", err
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.docs[collectionPath+"/"+id] = copyFields(fields)
	s.mu.Unlock()
	s.notify(ctx, collectionPath)
	return id, nil
}

func (s *Store) List(ctx context.Context, collectionPath string) ([]store.Document, error) {
	if err := store.ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(collectionPath), nil
}

func (s *Store) Subscribe(ctx context.Context, collectionPath string, fn store.SnapshotFunc) (store.Subscription, error) {
	if err := store.ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}
	sub := &subscription{s: s, col: collectionPath, fn: fn}
	s.mu.Lock()
	s.subs[collectionPath] = append(s.subs[collectionPath], sub)
	initial := s.snapshotLocked(collectionPath)
	s.mu.Unlock()
	fn(initial, nil)
	return sub, nil
}

// notify re-delivers the collection snapshot to every subscriber. Runs
// outside the store lock so a callback may call back into the store.
func (s *Store) notify(ctx context.Context, collectionPath string) {
	s.mu.Lock()
	listeners := append([]*subscription(nil), s.subs[collectionPath]...)
	snapshot := s.snapshotLocked(collectionPath)
	s.mu.Unlock()
	for _, sub := range listeners {
		sub.fn(snapshot, nil)
	}
}

func (s *Store) snapshotLocked(collectionPath string) []store.Document {
	var out []store.Document
	for path, fields := range s.docs {
		col, id, err := store.SplitDocPath(path)
		if err != nil || col != collectionPath {
			continue
		}
		out = append(out, store.Document{ID: id, Fields: copyFields(fields)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type subscription struct {
	s    *Store
	col  string
	fn   store.SnapshotFunc
	once sync.Once
}

func (sub *subscription) Unsubscribe() {
	sub.once.Do(func() {
		sub.s.mu.Lock()
		defer sub.s.mu.Unlock()
		listeners := sub.s.subs[sub.col]
		for i, l := range listeners {
			if l == sub {
				sub.s.subs[sub.col] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	})
}

// SubscriberCount reports the number of open subscriptions on a
// collection. Exposed for leak checks in tests.
func (s *Store) SubscriberCount(collectionPath string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[collectionPath])
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
