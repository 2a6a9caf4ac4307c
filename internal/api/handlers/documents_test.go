package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifiedui/docdb-connection/internal/api/dto"
	"github.com/unifiedui/docdb-connection/internal/api/handlers"
	"github.com/unifiedui/docdb-connection/internal/api/middleware"
	"github.com/unifiedui/docdb-connection/internal/api/routes"
	"github.com/unifiedui/docdb-connection/internal/core/docdb"
	domainerrors "github.com/unifiedui/docdb-connection/internal/domain/errors"
	"github.com/unifiedui/docdb-connection/internal/infrastructure/docdb/memory"
	"github.com/unifiedui/docdb-connection/internal/services/connection"
	"github.com/unifiedui/docdb-connection/internal/testutils"
)

const base = "/api/v1/connections/mongodb/documents"

func setupRouter(t *testing.T, seed []docdb.Document) (*gin.Engine, *connection.Connection) {
	t.Helper()

	client, err := memory.NewClient(context.Background(), &memory.ClientConfig{
		CollectionName: "student",
		Seed:           seed,
	})
	require.NoError(t, err)

	conn, err := connection.New(&connection.Config{Client: client})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	router := testutils.SetupTestRouter()
	routes.SetupWithMiddleware(router, &routes.Config{
		HealthHandler:    handlers.NewHealthHandler(conn, nil),
		DocumentsHandler: handlers.NewDocumentsHandler("mongodb", conn),
	}, middleware.NewLoggingMiddleware(), middleware.NewErrorMiddleware(), middleware.DefaultCORSConfig())

	return router, conn
}

func get(router *gin.Engine, path string, query url.Values) *httptest.ResponseRecorder {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return testutils.PerformRequest(router, http.MethodGet, path, nil, nil)
}

func TestDocumentsHandler_FindWithFilterSortAndLimit(t *testing.T) {
	router, _ := setupRouter(t, testutils.Students(9))

	w := get(router, base, url.Values{
		"filter":     {`{"major": "Physics"}`},
		"sort":       {"offset:desc"},
		"limit":      {"2"},
		"projection": {`{"name": 1, "_id": 0}`},
	})
	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response dto.DocumentsResponse
	testutils.ParseJSONResponse(t, w, &response)
	assert.Equal(t, 2, response.Count)
	assert.Equal(t, []docdb.Document{{"name": "student-06"}, {"name": "student-03"}}, response.Documents)
}

func TestDocumentsHandler_FindRejectsUnsafeFilter(t *testing.T) {
	router, _ := setupRouter(t, testutils.Students(1))

	w := get(router, base, url.Values{"filter": {`{"$where": "this.age > 1"}`}})
	testutils.AssertStatusCode(t, http.StatusBadRequest, w)

	var response dto.ErrorResponse
	testutils.ParseJSONResponse(t, w, &response)
	assert.Equal(t, domainerrors.ErrCodeInvalidArgument, response.Code)
}

func TestDocumentsHandler_InvalidParameters(t *testing.T) {
	router, _ := setupRouter(t, testutils.Students(1))

	for _, query := range []url.Values{
		{"filter": {`{"a":`}},
		{"limit": {"-1"}},
		{"skip": {"x"}},
		{"sort": {"name:up"}},
		{"ttl": {"-5"}},
		{"ttl": {"9300000000"}},
	} {
		w := get(router, base, query)
		assert.Equal(t, http.StatusBadRequest, w.Code, query.Encode())
	}
}

func TestDocumentsHandler_UnknownConnection(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := get(router, "/api/v1/connections/other/documents", nil)
	testutils.AssertStatusCode(t, http.StatusNotFound, w)
}

func TestDocumentsHandler_TTLQueryParameter(t *testing.T) {
	router, conn := setupRouter(t, testutils.Students(3))

	get(router, base+"/count", nil)
	get(router, base+"/count", nil)
	get(router, base+"/count", url.Values{"ttl": {"0"}})

	stats := conn.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Bypassed)

	w := get(router, "/api/v1/connections/mongodb/cache/stats", nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)
	var response dto.CacheStatsResponse
	testutils.ParseJSONResponse(t, w, &response)
	assert.Equal(t, dto.CacheStatsResponse{Hits: 1, Misses: 1, Bypassed: 1}, response)
}

func TestDocumentsHandler_FindAllAndCount(t *testing.T) {
	router, _ := setupRouter(t, testutils.Students(4))

	w := get(router, base+"/all", nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)
	var all dto.DocumentsResponse
	testutils.ParseJSONResponse(t, w, &all)
	assert.Equal(t, 4, all.Count)

	w = get(router, base+"/count", url.Values{"filter": {`{"offset": {"$gte": 2}}`}})
	testutils.AssertStatusCode(t, http.StatusOK, w)
	var count dto.CountResponse
	testutils.ParseJSONResponse(t, w, &count)
	assert.Equal(t, int64(2), count.Count)
}

func TestDocumentsHandler_Paginate(t *testing.T) {
	router, _ := setupRouter(t, testutils.Students(12))

	w := get(router, base+"/page/2", url.Values{"per": {"5"}})
	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response dto.PageResponse
	testutils.ParseJSONResponse(t, w, &response)
	assert.Equal(t, int64(2), response.Page)
	require.Len(t, response.Documents, 5)
	for i, d := range response.Documents {
		assert.EqualValues(t, 5+i, d["offset"])
	}

	w = get(router, base+"/page/1", url.Values{"per": {"0"}})
	testutils.AssertStatusCode(t, http.StatusBadRequest, w)

	w = get(router, base+"/page/first", nil)
	testutils.AssertStatusCode(t, http.StatusBadRequest, w)
}

func TestDocumentsHandler_FindOne(t *testing.T) {
	router, _ := setupRouter(t, testutils.Students(3))

	w := get(router, base+"/one", url.Values{"filter": {`{"name": "student-01"}`}})
	testutils.AssertStatusCode(t, http.StatusOK, w)
	var found dto.DocumentResponse
	testutils.ParseJSONResponse(t, w, &found)
	assert.True(t, found.Found)
	assert.Equal(t, "History", found.Document["major"])

	w = get(router, base+"/one", url.Values{"filter": {`{"name": "nobody"}`}})
	testutils.AssertStatusCode(t, http.StatusOK, w)
	var missing dto.DocumentResponse
	testutils.ParseJSONResponse(t, w, &missing)
	assert.False(t, missing.Found)
	assert.Nil(t, missing.Document)
}

func TestDocumentsHandler_Distinct(t *testing.T) {
	router, _ := setupRouter(t, testutils.Students(6))

	w := get(router, base+"/distinct/major", nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response dto.DistinctResponse
	testutils.ParseJSONResponse(t, w, &response)
	assert.Equal(t, "major", response.Field)
	assert.Equal(t, []interface{}{"Physics", "History", "Biology"}, response.Values)
}

func TestDocumentsHandler_WriteLifecycle(t *testing.T) {
	router, conn := setupRouter(t, nil)
	ctx := context.Background()

	w := testutils.PerformRequest(router, http.MethodPost, base, `{"name": "X", "age": 30}`, nil)
	testutils.AssertStatusCode(t, http.StatusCreated, w)
	var one docdb.InsertOneResult
	testutils.ParseJSONResponse(t, w, &one)
	assert.NotEmpty(t, one.InsertedID)

	w = testutils.PerformRequest(router, http.MethodPost, base+"/batch",
		`{"documents": [{"name": "X", "age": 40}, {"name": "Y", "born": {"$date": "2001-02-03T00:00:00Z"}}]}`, nil)
	testutils.AssertStatusCode(t, http.StatusCreated, w)
	var many docdb.InsertManyResult
	testutils.ParseJSONResponse(t, w, &many)
	assert.Len(t, many.InsertedIDs, 2)

	w = testutils.PerformRequest(router, http.MethodPatch, base,
		`{"filter": {"name": "X"}, "update": {"age": 5}}`, nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)
	var updated docdb.UpdateResult
	testutils.ParseJSONResponse(t, w, &updated)
	assert.Equal(t, docdb.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, updated)

	w = testutils.PerformRequest(router, http.MethodPatch, base+"?many=true",
		`{"filter": {"name": "X"}, "update": {"team": "blue"}}`, nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)
	testutils.ParseJSONResponse(t, w, &updated)
	assert.Equal(t, int64(2), updated.ModifiedCount)

	w = testutils.PerformRequest(router, http.MethodDelete, base+"?many=true", `{"filter": {"name": "X"}}`, nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)
	var deleted docdb.DeleteResult
	testutils.ParseJSONResponse(t, w, &deleted)
	assert.Equal(t, int64(2), deleted.DeletedCount)

	remaining, err := conn.FindAll(ctx, connection.WithTTL(0))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Y", remaining[0]["name"])
}

func TestDocumentsHandler_WriteValidation(t *testing.T) {
	router, _ := setupRouter(t, testutils.Students(2))

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"empty insert body", http.MethodPost, base, nil},
		{"empty batch", http.MethodPost, base + "/batch", `{"documents": []}`},
		{"batch with code", http.MethodPost, base + "/batch", `{"documents": [{"$where": "1"}]}`},
		{"update without fields", http.MethodPatch, base, `{"filter": {}, "update": {}}`},
		{"update with where", http.MethodPatch, base, `{"filter": {"$where": "1"}, "update": {"a": 1}}`},
		{"delete without filter", http.MethodDelete, base, `{}`},
		{"malformed body", http.MethodDelete, base, `{"filter": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutils.PerformRequest(router, tt.method, tt.path, tt.body, nil)
			testutils.AssertStatusCode(t, http.StatusBadRequest, w)
		})
	}
}

func TestDocumentsHandler_ClosedConnection(t *testing.T) {
	router, conn := setupRouter(t, testutils.Students(1))
	require.NoError(t, conn.Close(context.Background()))

	w := get(router, base, nil)
	testutils.AssertStatusCode(t, http.StatusServiceUnavailable, w)

	var response dto.ErrorResponse
	testutils.ParseJSONResponse(t, w, &response)
	assert.Equal(t, domainerrors.ErrCodeClosedConnection, response.Code)
}

func TestRouter_RequestIDAndCORS(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := testutils.PerformRequest(router, http.MethodGet, "/api/v1/live", nil, map[string]string{
		"Origin":                   "http://localhost:8501",
		middleware.RequestIDHeader: "req-123",
	})
	testutils.AssertStatusCode(t, http.StatusOK, w)
	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "http://localhost:8501", w.Header().Get("Access-Control-Allow-Origin"))

	w = testutils.PerformRequest(router, http.MethodGet, "/api/v1/live", nil, nil)
	assert.Len(t, w.Header().Get(middleware.RequestIDHeader), 36)
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := testutils.PerformRequest(router, http.MethodGet, "/api/v1/nowhere", nil, nil)
	testutils.AssertStatusCode(t, http.StatusNotFound, w)

	w = testutils.PerformRequest(router, http.MethodPut, base, `{}`, nil)
	testutils.AssertStatusCode(t, http.StatusMethodNotAllowed, w)
}
