// Package mongo stores diagrams in a MongoDB collection.
//
// Each diagram is one document keyed by a uuid _id, with a unique index on
// the filename. Summary fields (name, description, counts) are kept at the
// top level so List never decodes whole diagrams.
package mongo

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/crewboard/pkg/cache"
	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/errors"
	"github.com/matzehuels/crewboard/pkg/store"
)

// Defaults for the database and collection names.
const (
	DefaultDatabase   = "crewboard"
	DefaultCollection = "diagrams"
)

// record is the stored document.
type record struct {
	ID          string           `bson:"_id"`
	Filename    string           `bson:"filename"`
	Name        string           `bson:"name"`
	Description string           `bson:"description"`
	Nodes       int              `bson:"nodes"`
	Links       int              `bson:"links"`
	Diagram     *diagram.Diagram `bson:"diagram,omitempty"`
	CreatedAt   time.Time        `bson:"created_at"`
	UpdatedAt   time.Time        `bson:"updated_at"`
}

// Store is a diagram library backed by a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// Open connects to uri, pings the primary (retrying connection failures with
// backoff) and ensures the filename index. Empty names use the defaults.
func Open(ctx context.Context, uri, database, collection string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect mongo")
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return cache.Retryable(fmt.Errorf("%w: ping mongo: %v", cache.ErrNetwork, err))
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect mongo")
	}

	s, err := NewFromClient(ctx, client, database, collection)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewFromClient uses an existing client. Close leaves the client connected.
func NewFromClient(ctx context.Context, client *mongo.Client, database, collection string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}
	coll := client.Database(database).Collection(collection)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "filename", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create filename index")
	}
	return &Store{client: client, coll: coll}, nil
}

// Collection returns the underlying collection.
func (s *Store) Collection() *mongo.Collection { return s.coll }

// List returns every diagram, sorted by filename.
func (s *Store) List(ctx context.Context) ([]store.Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "filename", Value: 1}}).
		SetProjection(bson.D{{Key: "diagram", Value: 0}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list diagrams")
	}
	var records []record
	if err := cur.All(ctx, &records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list diagrams")
	}

	entries := make([]store.Entry, len(records))
	for i, r := range records {
		entries[i] = store.Entry{
			ID:          r.ID,
			Filename:    r.Filename,
			Name:        r.Name,
			Description: r.Description,
			Nodes:       r.Nodes,
			Links:       r.Links,
			UpdatedAt:   r.UpdatedAt.UTC(),
		}
	}
	return entries, nil
}

// Get loads the diagram stored under filename.
func (s *Store) Get(ctx context.Context, filename string) (*diagram.Diagram, error) {
	filename, err := store.FileName(filename)
	if err != nil {
		return nil, err
	}
	var r record
	err = s.coll.FindOne(ctx, bson.D{{Key: "filename", Value: filename}}).Decode(&r)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.NotFound(filename)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get %s", filename)
	}
	if r.Diagram == nil {
		return &diagram.Diagram{}, nil
	}
	return r.Diagram, nil
}

// Save upserts the diagram. A replaced diagram keeps its _id.
func (s *Store) Save(ctx context.Context, name string, d *diagram.Diagram) (string, error) {
	filename, err := store.FileName(name)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "name", Value: d.Name},
			{Key: "description", Value: d.Description},
			{Key: "nodes", Value: len(d.Nodes)},
			{Key: "links", Value: len(d.Links)},
			{Key: "diagram", Value: d},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "_id", Value: uuid.NewString()},
			{Key: "created_at", Value: now},
		}},
	}
	_, err = s.coll.UpdateOne(ctx,
		bson.D{{Key: "filename", Value: filename}},
		update,
		options.Update().SetUpsert(true))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "save %s", filename)
	}
	return filename, nil
}

// Delete removes the diagram stored under filename.
func (s *Store) Delete(ctx context.Context, filename string) error {
	filename, err := store.FileName(filename)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "filename", Value: filename}})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete %s", filename)
	}
	if res.DeletedCount == 0 {
		return store.NotFound(filename)
	}
	return nil
}

// Close disconnects the client if the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)
