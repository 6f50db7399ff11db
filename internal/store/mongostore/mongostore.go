// Package mongostore backs the DocumentStore contract with MongoDB. The
// hierarchical path space is flattened into a single Mongo collection:
// each record's _id is its full document path and a "collection" field
// names its parent collection, so subcollections need no schema of their
// own. Live subscriptions ride on change streams, falling back to polling
// when the deployment has no replica set.
package mongostore

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/foroapp/server/internal/store"
)

const pollInterval = 2 * time.Second

type Store struct {
	col *mongo.Collection
}

// New wires the store onto dbName.colName of the given client.
func New(client *mongo.Client, dbName, colName string) *Store {
	return &Store{col: client.Database(dbName).Collection(colName)}
}

var _ store.DocumentStore = (*Store)(nil)

type record struct {
	Path       string                 `bson:"_id"`
	Collection string                 `bson:"collection"`
	Fields     map[string]interface{} `bson:"fields"`
}

func (s *Store) Get(ctx context.Context, path string) (store.Document, error) {
	_, id, err := store.SplitDocPath(path)
	if err != nil {
		return store.Document{}, err
	}
	var rec record
	if err := s.col.FindOne(ctx, bson.M{"_id": path}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return store.Document{}, store.ErrNotFound
		}
		return store.Document{}, fmt.Errorf("get %s: %w", path, err)
	}
	return store.Document{ID: id, Fields: rec.Fields}, nil
}

func (s *Store) Set(ctx context.Context, path string, fields map[string]interface{}) error {
	col, _, err := store.SplitDocPath(path)
	if err != nil {
		return err
	}
	rec := record{Path: path, Collection: col, Fields: fields}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.col.ReplaceOne(ctx, bson.M{"_id": path}, rec, opts); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if _, _, err := store.SplitDocPath(path); err != nil {
		return err
	}
	// DeleteOne on an absent path matches zero documents and is a no-op.
	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": path}); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, collectionPath string, fields map[string]interface{}) (string, error) {
	if err := store.ValidateCollectionPath(collectionPath); err != nil {
		return "", err
	}
	id := primitive.NewObjectID().Hex()
	if err := s.Set(ctx, collectionPath+"/"+id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) List(ctx context.Context, collectionPath string) ([]store.Document, error) {
	if err := store.ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}
	cursor, err := s.col.Find(ctx, bson.M{"collection": collectionPath})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collectionPath, err)
	}
	defer cursor.Close(ctx)

	var docs []store.Document
	for cursor.Next(ctx) {
		var rec record
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collectionPath, err)
		}
		_, id, err := store.SplitDocPath(rec.Path)
		if err != nil {
			continue
		}
		docs = append(docs, store.Document{ID: id, Fields: rec.Fields})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", collectionPath, err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *Store) Subscribe(ctx context.Context, collectionPath string, fn store.SnapshotFunc) (store.Subscription, error) {
	if err := store.ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{cancel: cancel}

	initial, err := s.List(ctx, collectionPath)
	if err != nil {
		cancel()
		return nil, err
	}
	fn(initial, nil)

	// Document paths carry the collection, so a regex on the change's
	// documentKey identifies the collection even for deletes, which have
	// no fullDocument.
	pattern := "^" + regexp.QuoteMeta(collectionPath) + "/[^/]+$"
	pipeline := mongo.Pipeline{bson.D{{Key: "$match", Value: bson.M{
		"documentKey._id": primitive.Regex{Pattern: pattern},
	}}}}

	stream, err := s.col.Watch(subCtx, pipeline)
	if err != nil {
		// Standalone deployments have no oplog; degrade to polling.
		go s.poll(subCtx, collectionPath, initial, fn)
		return sub, nil
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(subCtx) {
			snapshot, err := s.List(subCtx, collectionPath)
			if err != nil {
				if subCtx.Err() != nil {
					return
				}
				fn(nil, err)
				continue
			}
			fn(snapshot, nil)
		}
		if err := stream.Err(); err != nil && subCtx.Err() == nil {
			fn(nil, err)
		}
	}()
	return sub, nil
}

func (s *Store) poll(ctx context.Context, collectionPath string, last []store.Document, fn store.SnapshotFunc) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot, err := s.List(ctx, collectionPath)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				fn(nil, err)
				continue
			}
			if !reflect.DeepEqual(snapshot, last) {
				last = snapshot
				fn(snapshot, nil)
			}
		}
	}
}

type subscription struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (sub *subscription) Unsubscribe() {
	sub.once.Do(sub.cancel)
}
