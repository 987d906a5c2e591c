package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoDocument is returned by FindOne when the filter matches nothing.
var ErrNoDocument = errors.New("no document")

// Collection is a typed view over a mongo collection.
type Collection[T any] struct {
	coll *mongo.Collection
}

func NewCollection[T any](coll *mongo.Collection) *Collection[T] {
	return &Collection[T]{coll: coll}
}

func (c *Collection[T]) Raw() *mongo.Collection {
	return c.coll
}

func (c *Collection[T]) Insert(ctx context.Context, doc *T) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting into %s: %w", c.coll.Name(), err)
	}

	return nil
}

func (c *Collection[T]) InsertMany(ctx context.Context, docs []*T) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]any, len(docs))
	for i, d := range docs {
		items[i] = d
	}

	if _, err := c.coll.InsertMany(ctx, items); err != nil {
		return fmt.Errorf("inserting into %s: %w", c.coll.Name(), err)
	}

	return nil
}

func (c *Collection[T]) FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var doc T

	err := c.coll.FindOne(ctx, filter, opts...).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoDocument
		}

		return nil, fmt.Errorf("finding in %s: %w", c.coll.Name(), err)
	}

	return &doc, nil
}

func (c *Collection[T]) Find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var docs []*T

	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", c.coll.Name(), err)
		}

		docs = append(docs, &doc)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", c.coll.Name(), err)
	}

	return docs, nil
}

// Set applies a $set update to the first matching document and reports
// whether one matched.
func (c *Collection[T]) Set(ctx context.Context, filter any, fields bson.M) (bool, error) {
	res, err := c.coll.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return false, fmt.Errorf("updating %s: %w", c.coll.Name(), err)
	}

	return res.MatchedCount > 0, nil
}

// SetMany applies a $set update to every matching document.
func (c *Collection[T]) SetMany(ctx context.Context, filter any, fields bson.M) (int64, error) {
	res, err := c.coll.UpdateMany(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return 0, fmt.Errorf("updating %s: %w", c.coll.Name(), err)
	}

	return res.ModifiedCount, nil
}

func (c *Collection[T]) Replace(ctx context.Context, filter any, doc *T) (bool, error) {
	res, err := c.coll.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return false, fmt.Errorf("replacing in %s: %w", c.coll.Name(), err)
	}

	return res.MatchedCount > 0, nil
}
