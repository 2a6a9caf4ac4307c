package connection_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/unifiedui/docdb-connection/internal/core/docdb"
	"github.com/unifiedui/docdb-connection/internal/domain/errors"
	"github.com/unifiedui/docdb-connection/internal/infrastructure/docdb/memory"
	"github.com/unifiedui/docdb-connection/internal/mocks"
	"github.com/unifiedui/docdb-connection/internal/pkg/memo"
	"github.com/unifiedui/docdb-connection/internal/services/connection"
	"github.com/unifiedui/docdb-connection/internal/testutils"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemoryConnection(t *testing.T, seed []docdb.Document) *connection.Connection {
	t.Helper()

	client, err := memory.NewClient(context.Background(), &memory.ClientConfig{
		CollectionName: "student",
		Seed:           seed,
	})
	require.NoError(t, err)

	conn, err := connection.New(&connection.Config{Client: client})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })
	return conn
}

func newMockConnection(t *testing.T, opts ...memo.Option) (*connection.Connection, *mocks.MockClient, *mocks.MockCollection) {
	t.Helper()

	client := mocks.NewMockClient("student")
	conn, err := connection.New(&connection.Config{
		Client:   client,
		Memoizer: memo.New(nil, opts...),
	})
	require.NoError(t, err)
	return conn, client, client.MockCollection()
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := connection.New(&connection.Config{})
	assert.Error(t, err)

	_, err = connection.New(nil)
	assert.Error(t, err)
}

func TestCloseTwiceIsSafe(t *testing.T) {
	conn, client, _ := newMockConnection(t)
	client.On("Close", mock.Anything).Return(nil).Once()
	ctx := context.Background()

	assert.NoError(t, conn.Close(ctx))
	assert.NoError(t, conn.Close(ctx))
	client.AssertExpectations(t)
}

func TestRead_SecondCallWithinTTLSkipsStore(t *testing.T) {
	conn, _, coll := newMockConnection(t)
	ctx := context.Background()
	filter := docdb.Filter{"major": "Physics"}
	documents := []docdb.Document{{"name": "Ada"}}

	coll.On("Find", mock.Anything, filter, mock.Anything).Return(documents, nil).Once()
	coll.On("CountDocuments", mock.Anything, filter).Return(int64(1), nil).Once()
	coll.On("Distinct", mock.Anything, "name", filter).Return([]interface{}{"Ada"}, nil).Once()

	for i := 0; i < 2; i++ {
		got, err := conn.Find(ctx, filter, nil, connection.WithTTL(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, documents, got)

		count, err := conn.Count(ctx, filter, connection.WithTTL(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		values, err := conn.DistinctValues(ctx, "name", filter, connection.WithTTL(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, []interface{}{"Ada"}, values)
	}

	coll.AssertNumberOfCalls(t, "Find", 1)
	coll.AssertNumberOfCalls(t, "CountDocuments", 1)
	coll.AssertNumberOfCalls(t, "Distinct", 1)
	assert.Equal(t, memo.Stats{Hits: 3, Misses: 3}, conn.Stats())
}

func TestRead_EquivalentFiltersShareAnEntry(t *testing.T) {
	conn, _, coll := newMockConnection(t)
	ctx := context.Background()

	coll.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(4), nil).Once()

	_, err := conn.Count(ctx, docdb.Filter{"major": "Physics", "age": 20})
	require.NoError(t, err)
	_, err = conn.Count(ctx, docdb.Filter{"age": 20, "major": "Physics"})
	require.NoError(t, err)

	coll.AssertNumberOfCalls(t, "CountDocuments", 1)
}

func TestRead_ZeroTTLAlwaysReachesStore(t *testing.T) {
	conn, _, coll := newMockConnection(t)
	ctx := context.Background()

	coll.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]docdb.Document{}, nil)

	for i := 0; i < 3; i++ {
		_, err := conn.FindAll(ctx, connection.WithTTL(0))
		require.NoError(t, err)
	}
	// A cached read does not make later uncached reads hit the cache.
	_, err := conn.FindAll(ctx)
	require.NoError(t, err)
	_, err = conn.FindAll(ctx, connection.WithTTL(0))
	require.NoError(t, err)

	coll.AssertNumberOfCalls(t, "Find", 5)
}

func TestRead_DefaultTTLs(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	conn, _, coll := newMockConnection(t, memo.WithClock(clock.Now))
	ctx := context.Background()

	coll.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	coll.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]docdb.Document{}, nil)

	_, err := conn.Count(ctx, nil)
	require.NoError(t, err)
	_, err = conn.Query(ctx, docdb.Filter{"a": 1})
	require.NoError(t, err)

	clock.Advance(connection.DefaultTTL - time.Second)
	_, err = conn.Count(ctx, nil)
	require.NoError(t, err)
	coll.AssertNumberOfCalls(t, "CountDocuments", 1)

	clock.Advance(time.Second)
	_, err = conn.Count(ctx, nil)
	require.NoError(t, err)
	coll.AssertNumberOfCalls(t, "CountDocuments", 2)

	// Query keeps its longer default.
	_, err = conn.Query(ctx, docdb.Filter{"a": 1})
	require.NoError(t, err)
	coll.AssertNumberOfCalls(t, "Find", 1)

	clock.Advance(connection.DefaultQueryTTL)
	_, err = conn.Query(ctx, docdb.Filter{"a": 1})
	require.NoError(t, err)
	coll.AssertNumberOfCalls(t, "Find", 2)
}

func TestRead_StoreErrorsAreReturnedAndNotCached(t *testing.T) {
	conn, _, coll := newMockConnection(t)
	ctx := context.Background()
	storeErr := errors.NewStoreError("count documents", assert.AnError)

	coll.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), storeErr).Once()
	coll.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(3), nil).Once()

	_, err := conn.Count(ctx, nil)
	assert.True(t, errors.IsStoreError(err))
	assert.ErrorIs(t, err, assert.AnError)

	count, err := conn.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestFindOne_IsNotCachedAndReportsAbsence(t *testing.T) {
	conn, _, coll := newMockConnection(t)
	ctx := context.Background()

	coll.On("FindOne", mock.Anything, docdb.Filter{"name": "Ada"}, docdb.Document(nil)).Return(docdb.Document{"name": "Ada"}, nil)
	coll.On("FindOne", mock.Anything, docdb.Filter{"name": "nobody"}, docdb.Document(nil)).Return(nil, nil)

	for i := 0; i < 2; i++ {
		document, found, err := conn.FindOne(ctx, docdb.Filter{"name": "Ada"}, nil)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "Ada", document["name"])
	}
	coll.AssertNumberOfCalls(t, "FindOne", 2)

	document, found, err := conn.FindOne(ctx, docdb.Filter{"name": "nobody"}, nil)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, document)
}

func TestPaginate(t *testing.T) {
	conn := newMemoryConnection(t, testutils.Students(12))
	ctx := context.Background()

	page, err := conn.Paginate(ctx, 2, 5)
	require.NoError(t, err)
	require.Len(t, page, 5)
	for i, d := range page {
		assert.EqualValues(t, 5+i, d["offset"])
	}

	last, err := conn.Paginate(ctx, 3, 5)
	require.NoError(t, err)
	assert.Len(t, last, 2)

	beyond, err := conn.Paginate(ctx, 4, 5)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestPaginate_InvalidArguments(t *testing.T) {
	conn, _, coll := newMockConnection(t)
	ctx := context.Background()

	for _, tc := range []struct{ page, per int64 }{{1, 0}, {0, 5}, {-1, 5}, {1, -3}} {
		_, err := conn.Paginate(ctx, tc.page, tc.per)
		assert.True(t, errors.IsInvalidArgument(err), "page=%d per=%d", tc.page, tc.per)
	}
	coll.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

func TestFind_InvalidOptions(t *testing.T) {
	conn, _, _ := newMockConnection(t)

	_, err := conn.Find(context.Background(), nil, &docdb.FindOptions{Limit: -1})
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = conn.DistinctValues(context.Background(), "", nil)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestFind_OptionsArePartOfTheKey(t *testing.T) {
	conn := newMemoryConnection(t, testutils.Students(6))
	ctx := context.Background()

	asc, err := conn.Find(ctx, nil, &docdb.FindOptions{
		Sort: []docdb.SortField{{Field: "offset", Direction: docdb.Ascending}}, Limit: 1,
	})
	require.NoError(t, err)
	desc, err := conn.Find(ctx, nil, &docdb.FindOptions{
		Sort: []docdb.SortField{{Field: "offset", Direction: docdb.Descending}}, Limit: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "student-00", asc[0]["name"])
	assert.Equal(t, "student-05", desc[0]["name"])
}

func TestInsertMany(t *testing.T) {
	conn := newMemoryConnection(t, nil)
	ctx := context.Background()

	_, err := conn.InsertMany(ctx, []docdb.Document{})
	assert.True(t, errors.IsInvalidArgument(err))

	result, err := conn.InsertMany(ctx, []docdb.Document{{"a": 1}, {"a": 2}})
	require.NoError(t, err)
	assert.Len(t, result.InsertedIDs, 2)

	all, err := conn.FindAll(ctx, connection.WithTTL(0))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.EqualValues(t, 1, all[0]["a"])
	assert.EqualValues(t, 2, all[1]["a"])
	assert.Equal(t, result.InsertedIDs[0], all[0]["_id"])
}

func TestInsertOne_RequiresDocument(t *testing.T) {
	conn := newMemoryConnection(t, nil)

	_, err := conn.InsertOne(context.Background(), nil)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestUpdateOne_ModifiesFirstMatchOnly(t *testing.T) {
	conn := newMemoryConnection(t, []docdb.Document{
		{"_id": 1, "name": "X", "age": 30},
		{"_id": 2, "name": "X", "age": 40},
	})
	ctx := context.Background()

	result, err := conn.UpdateOne(ctx, docdb.Filter{"name": "X"}, docdb.Document{"age": 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.ModifiedCount)

	all, err := conn.FindAll(ctx, connection.WithTTL(0))
	require.NoError(t, err)
	assert.EqualValues(t, 5, all[0]["age"])
	assert.EqualValues(t, 40, all[1]["age"])
}

func TestUpdate_RequiresFields(t *testing.T) {
	conn := newMemoryConnection(t, nil)
	ctx := context.Background()

	_, err := conn.UpdateOne(ctx, nil, docdb.Document{})
	assert.True(t, errors.IsInvalidArgument(err))
	_, err = conn.UpdateMany(ctx, nil, nil)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestWrites_DoNotInvalidateCachedReads(t *testing.T) {
	conn := newMemoryConnection(t, testutils.Students(3))
	ctx := context.Background()

	before, err := conn.Count(ctx, nil)
	require.NoError(t, err)

	_, err = conn.DeleteMany(ctx, docdb.Filter{"major": "Physics"})
	require.NoError(t, err)

	cached, err := conn.Count(ctx, nil)
	require.NoError(t, err)
	fresh, err := conn.Count(ctx, nil, connection.WithTTL(0))
	require.NoError(t, err)

	assert.Equal(t, int64(3), before)
	assert.Equal(t, int64(3), cached)
	assert.Equal(t, int64(2), fresh)
}

func TestDelete(t *testing.T) {
	conn := newMemoryConnection(t, testutils.Students(6))
	ctx := context.Background()

	one, err := conn.DeleteOne(ctx, docdb.Filter{"major": "Biology"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), one.DeletedCount)

	many, err := conn.DeleteMany(ctx, docdb.Filter{"major": docdb.Filter{"$in": []interface{}{"Physics", "History"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), many.DeletedCount)
}

func TestUpdateMany(t *testing.T) {
	conn := newMemoryConnection(t, testutils.Students(6))

	result, err := conn.UpdateMany(context.Background(), docdb.Filter{"major": "History"}, docdb.Document{"graduated": true})
	require.NoError(t, err)
	assert.Equal(t, &docdb.UpdateResult{MatchedCount: 2, ModifiedCount: 2}, result)
}

func TestEveryOperationFailsAfterClose(t *testing.T) {
	conn := newMemoryConnection(t, testutils.Students(2))
	ctx := context.Background()
	require.NoError(t, conn.Close(ctx))

	operations := map[string]func() error{
		"find_all": func() error { _, err := conn.FindAll(ctx); return err },
		"find":     func() error { _, err := conn.Find(ctx, nil, nil); return err },
		"query":    func() error { _, err := conn.Query(ctx, nil); return err },
		"find_one": func() error { _, _, err := conn.FindOne(ctx, nil, nil); return err },
		"count":    func() error { _, err := conn.Count(ctx, nil); return err },
		"distinct": func() error { _, err := conn.DistinctValues(ctx, "name", nil); return err },
		"paginate": func() error { _, err := conn.Paginate(ctx, 1, 5); return err },
		"uncached": func() error { _, err := conn.FindAll(ctx, connection.WithTTL(0)); return err },
		"insert_one": func() error {
			_, err := conn.InsertOne(ctx, docdb.Document{"a": 1})
			return err
		},
		"insert_many": func() error {
			_, err := conn.InsertMany(ctx, []docdb.Document{{"a": 1}})
			return err
		},
		"update_one": func() error {
			_, err := conn.UpdateOne(ctx, nil, docdb.Document{"a": 1})
			return err
		},
		"update_many": func() error {
			_, err := conn.UpdateMany(ctx, nil, docdb.Document{"a": 1})
			return err
		},
		"delete_one":  func() error { _, err := conn.DeleteOne(ctx, nil); return err },
		"delete_many": func() error { _, err := conn.DeleteMany(ctx, nil); return err },
		"ping":        func() error { return conn.Ping(ctx) },
	}

	for name, op := range operations {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.IsClosedConnection(op()))
		})
	}
}

func TestClosedConnectionIgnoresWarmCache(t *testing.T) {
	conn := newMemoryConnection(t, testutils.Students(2))
	ctx := context.Background()

	_, err := conn.FindAll(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Close(ctx))

	_, err = conn.FindAll(ctx)
	assert.True(t, errors.IsClosedConnection(err))
}
