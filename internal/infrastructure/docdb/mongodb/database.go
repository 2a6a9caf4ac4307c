// Package mongodb provides MongoDB collection implementation.
package mongodb

import (
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unifiedui/docdb-connection/internal/core/docdb"
	"github.com/unifiedui/docdb-connection/internal/domain/errors"
)

// Collection implements the docdb.Collection interface for MongoDB.
type Collection struct {
	collection *mongo.Collection
}

// NewCollection creates a new MongoDB collection wrapper.
func NewCollection(collection *mongo.Collection) *Collection {
	return &Collection{
		collection: collection,
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.collection.Name()
}

// Find finds all documents matching the filter.
func (c *Collection) Find(ctx context.Context, filter docdb.Filter, opts *docdb.FindOptions) ([]docdb.Document, error) {
	findOpts := options.Find()
	if opts != nil {
		if len(opts.Projection) > 0 {
			findOpts.SetProjection(opts.Projection)
		}
		if len(opts.Sort) > 0 {
			findOpts.SetSort(SortDocument(opts.Sort))
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
		if opts.Skip > 0 {
			findOpts.SetSkip(opts.Skip)
		}
	}

	cursor, err := c.collection.Find(ctx, normalizeFilter(filter), findOpts)
	if err != nil {
		return nil, translateError("find", err)
	}
	defer cursor.Close(ctx)

	documents := make([]docdb.Document, 0)
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, translateError("decode documents", err)
	}
	return documents, nil
}

// FindOne finds a single document matching the filter. A missing document is not an error.
func (c *Collection) FindOne(ctx context.Context, filter docdb.Filter, projection docdb.Document) (docdb.Document, error) {
	findOpts := options.FindOne()
	if len(projection) > 0 {
		findOpts.SetProjection(projection)
	}

	var document docdb.Document
	err := c.collection.FindOne(ctx, normalizeFilter(filter), findOpts).Decode(&document)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, translateError("find one", err)
	}
	return document, nil
}

// InsertOne inserts a single document.
func (c *Collection) InsertOne(ctx context.Context, document docdb.Document) (*docdb.InsertOneResult, error) {
	result, err := c.collection.InsertOne(ctx, document)
	if err != nil {
		return nil, translateError("insert document", err)
	}
	return &docdb.InsertOneResult{InsertedID: result.InsertedID}, nil
}

// InsertMany inserts multiple documents.
func (c *Collection) InsertMany(ctx context.Context, documents []docdb.Document) (*docdb.InsertManyResult, error) {
	batch := make([]interface{}, len(documents))
	for i, d := range documents {
		batch[i] = d
	}

	result, err := c.collection.InsertMany(ctx, batch)
	if err != nil {
		return nil, translateError("insert documents", err)
	}
	return &docdb.InsertManyResult{InsertedIDs: result.InsertedIDs}, nil
}

// UpdateOne sets the given fields on the first document matching the filter.
func (c *Collection) UpdateOne(ctx context.Context, filter docdb.Filter, update docdb.Document) (*docdb.UpdateResult, error) {
	result, err := c.collection.UpdateOne(ctx, normalizeFilter(filter), bson.M{"$set": update})
	if err != nil {
		return nil, translateError("update document", err)
	}

	return &docdb.UpdateResult{
		MatchedCount:  result.MatchedCount,
		ModifiedCount: result.ModifiedCount,
	}, nil
}

// UpdateMany sets the given fields on all documents matching the filter.
func (c *Collection) UpdateMany(ctx context.Context, filter docdb.Filter, update docdb.Document) (*docdb.UpdateResult, error) {
	result, err := c.collection.UpdateMany(ctx, normalizeFilter(filter), bson.M{"$set": update})
	if err != nil {
		return nil, translateError("update documents", err)
	}

	return &docdb.UpdateResult{
		MatchedCount:  result.MatchedCount,
		ModifiedCount: result.ModifiedCount,
	}, nil
}

// DeleteOne deletes a single document matching the filter.
func (c *Collection) DeleteOne(ctx context.Context, filter docdb.Filter) (*docdb.DeleteResult, error) {
	result, err := c.collection.DeleteOne(ctx, normalizeFilter(filter))
	if err != nil {
		return nil, translateError("delete document", err)
	}

	return &docdb.DeleteResult{
		DeletedCount: result.DeletedCount,
	}, nil
}

// DeleteMany deletes all documents matching the filter.
func (c *Collection) DeleteMany(ctx context.Context, filter docdb.Filter) (*docdb.DeleteResult, error) {
	result, err := c.collection.DeleteMany(ctx, normalizeFilter(filter))
	if err != nil {
		return nil, translateError("delete documents", err)
	}

	return &docdb.DeleteResult{
		DeletedCount: result.DeletedCount,
	}, nil
}

// CountDocuments counts documents matching the filter.
func (c *Collection) CountDocuments(ctx context.Context, filter docdb.Filter) (int64, error) {
	count, err := c.collection.CountDocuments(ctx, normalizeFilter(filter))
	if err != nil {
		return 0, translateError("count documents", err)
	}
	return count, nil
}

// Distinct returns the distinct values for field among documents matching the filter.
func (c *Collection) Distinct(ctx context.Context, field string, filter docdb.Filter) ([]interface{}, error) {
	values, err := c.collection.Distinct(ctx, field, normalizeFilter(filter))
	if err != nil {
		return nil, translateError("distinct", err)
	}
	if values == nil {
		values = []interface{}{}
	}
	return values, nil
}

// SortDocument converts a sort specification into an ordered BSON document.
func SortDocument(fields []docdb.SortField) bson.D {
	sortDoc := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := f.Direction
		if dir != docdb.Descending {
			dir = docdb.Ascending
		}
		sortDoc = append(sortDoc, bson.E{Key: f.Field, Value: int(dir)})
	}
	return sortDoc
}

// normalizeFilter maps a nil filter to the empty "match all" document; the driver rejects nil.
func normalizeFilter(filter docdb.Filter) interface{} {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

// translateError classifies driver errors. Network failures and timeouts become
// connection errors, everything else passes through as a store error.
func translateError(operation string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || stderrors.Is(err, mongo.ErrClientDisconnected) {
		return errors.NewConnectionError(operation+" failed", err)
	}
	return errors.NewStoreError(operation, err)
}
