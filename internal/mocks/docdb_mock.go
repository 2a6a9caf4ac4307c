// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/unifiedui/docdb-connection/internal/core/docdb"
)

// MockCollection is a mock implementation of docdb.Collection.
type MockCollection struct {
	mock.Mock
}

// Name returns the collection name.
func (m *MockCollection) Name() string {
	args := m.Called()
	return args.String(0)
}

// Find finds multiple documents.
func (m *MockCollection) Find(ctx context.Context, filter docdb.Filter, opts *docdb.FindOptions) ([]docdb.Document, error) {
	args := m.Called(ctx, filter, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]docdb.Document), args.Error(1)
}

// FindOne finds a single document.
func (m *MockCollection) FindOne(ctx context.Context, filter docdb.Filter, projection docdb.Document) (docdb.Document, error) {
	args := m.Called(ctx, filter, projection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(docdb.Document), args.Error(1)
}

// InsertOne inserts a single document.
func (m *MockCollection) InsertOne(ctx context.Context, document docdb.Document) (*docdb.InsertOneResult, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docdb.InsertOneResult), args.Error(1)
}

// InsertMany inserts multiple documents.
func (m *MockCollection) InsertMany(ctx context.Context, documents []docdb.Document) (*docdb.InsertManyResult, error) {
	args := m.Called(ctx, documents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docdb.InsertManyResult), args.Error(1)
}

// UpdateOne updates a single document.
func (m *MockCollection) UpdateOne(ctx context.Context, filter docdb.Filter, update docdb.Document) (*docdb.UpdateResult, error) {
	args := m.Called(ctx, filter, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docdb.UpdateResult), args.Error(1)
}

// UpdateMany updates multiple documents.
func (m *MockCollection) UpdateMany(ctx context.Context, filter docdb.Filter, update docdb.Document) (*docdb.UpdateResult, error) {
	args := m.Called(ctx, filter, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docdb.UpdateResult), args.Error(1)
}

// DeleteOne deletes a single document.
func (m *MockCollection) DeleteOne(ctx context.Context, filter docdb.Filter) (*docdb.DeleteResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docdb.DeleteResult), args.Error(1)
}

// DeleteMany deletes multiple documents.
func (m *MockCollection) DeleteMany(ctx context.Context, filter docdb.Filter) (*docdb.DeleteResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docdb.DeleteResult), args.Error(1)
}

// CountDocuments counts documents.
func (m *MockCollection) CountDocuments(ctx context.Context, filter docdb.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// Distinct returns distinct values of a field.
func (m *MockCollection) Distinct(ctx context.Context, field string, filter docdb.Filter) ([]interface{}, error) {
	args := m.Called(ctx, field, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interface{}), args.Error(1)
}

// MockClient is a mock implementation of docdb.Client.
type MockClient struct {
	mock.Mock
	collection *MockCollection
}

// NewMockClient creates a new MockClient bound to a collection mock that
// answers Name with name.
func NewMockClient(name string) *MockClient {
	collection := &MockCollection{}
	collection.On("Name").Return(name).Maybe()
	return &MockClient{collection: collection}
}

// Collection returns the bound collection.
func (m *MockClient) Collection() docdb.Collection {
	return m.collection
}

// MockCollection returns the bound collection as its mock type.
func (m *MockClient) MockCollection() *MockCollection {
	return m.collection
}

// Ping checks the database connection.
func (m *MockClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close closes the database connection.
func (m *MockClient) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
