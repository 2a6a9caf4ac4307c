// Package docdb defines the document database interface.
package docdb

import (
	"context"
)

// Document is a schemaless record: field name to dynamically typed value.
type Document map[string]interface{}

// Filter expresses field-match and comparison predicates.
// It is opaque to this package and handed to the store unchanged.
// A nil or empty Filter matches every document.
type Filter map[string]interface{}

// Direction is a sort direction.
type Direction int

const (
	// Ascending sorts from lowest to highest.
	Ascending Direction = 1
	// Descending sorts from highest to lowest.
	Descending Direction = -1
)

// SortField is one (field, direction) pair of a sort specification.
type SortField struct {
	Field     string
	Direction Direction
}

// FindOptions represents options for Find operations.
// Limit and Skip apply after Sort. A zero Limit means no limit.
type FindOptions struct {
	Projection Document
	Sort       []SortField
	Limit      int64
	Skip       int64
}

// InsertOneResult represents the result of an InsertOne operation.
type InsertOneResult struct {
	InsertedID interface{} `json:"insertedId" bson:"insertedId"`
}

// InsertManyResult represents the result of an InsertMany operation.
type InsertManyResult struct {
	InsertedIDs []interface{} `json:"insertedIds" bson:"insertedIds"`
}

// UpdateResult represents the result of an update operation.
type UpdateResult struct {
	MatchedCount  int64 `json:"matchedCount" bson:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount" bson:"modifiedCount"`
}

// DeleteResult represents the result of a delete operation.
type DeleteResult struct {
	DeletedCount int64 `json:"deletedCount" bson:"deletedCount"`
}

// Collection defines the interface for document collection operations.
//
// Update documents are field-set operations: every given field is set or
// overwritten on the matched documents.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Find returns the documents matching the filter in store order.
	Find(ctx context.Context, filter Filter, opts *FindOptions) ([]Document, error)

	// FindOne returns the first matching document, or nil when nothing matches.
	FindOne(ctx context.Context, filter Filter, projection Document) (Document, error)

	// InsertOne inserts a single document.
	InsertOne(ctx context.Context, document Document) (*InsertOneResult, error)

	// InsertMany inserts multiple documents.
	InsertMany(ctx context.Context, documents []Document) (*InsertManyResult, error)

	// UpdateOne updates the first document matching the filter.
	UpdateOne(ctx context.Context, filter Filter, update Document) (*UpdateResult, error)

	// UpdateMany updates every document matching the filter.
	UpdateMany(ctx context.Context, filter Filter, update Document) (*UpdateResult, error)

	// DeleteOne deletes the first document matching the filter.
	DeleteOne(ctx context.Context, filter Filter) (*DeleteResult, error)

	// DeleteMany deletes every document matching the filter.
	DeleteMany(ctx context.Context, filter Filter) (*DeleteResult, error)

	// CountDocuments counts documents matching the filter.
	CountDocuments(ctx context.Context, filter Filter) (int64, error)

	// Distinct returns the distinct values of field among matching documents.
	Distinct(ctx context.Context, field string, filter Filter) ([]interface{}, error)
}
