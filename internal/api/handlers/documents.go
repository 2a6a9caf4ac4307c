// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/unifiedui/docdb-connection/internal/api/dto"
	"github.com/unifiedui/docdb-connection/internal/api/middleware"
	"github.com/unifiedui/docdb-connection/internal/core/docdb"
	"github.com/unifiedui/docdb-connection/internal/domain/errors"
	"github.com/unifiedui/docdb-connection/internal/services/connection"
	"github.com/unifiedui/docdb-connection/internal/services/filter"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// maxTTLSeconds is the largest ttl that fits in a time.Duration.
const maxTTLSeconds = math.MaxInt64 / int64(time.Second)

// DocumentsHandler exposes the cached access façade of one named connection.
type DocumentsHandler struct {
	name string
	conn *connection.Connection
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(name string, conn *connection.Connection) *DocumentsHandler {
	return &DocumentsHandler{
		name: name,
		conn: conn,
	}
}

// RequireConnection rejects requests addressed to another connection name.
func (h *DocumentsHandler) RequireConnection() gin.HandlerFunc {
	return func(c *gin.Context) {
		if name := c.Param("connection"); name != h.name {
			middleware.HandleError(c, errors.NewNotFoundError("connection", name))
			return
		}
		c.Next()
	}
}

// readOptions turns the optional ttl query parameter (seconds) into read options.
func readOptions(c *gin.Context) ([]connection.ReadOption, error) {
	raw, ok := c.GetQuery("ttl")
	if !ok {
		return nil, nil
	}
	seconds, err := filter.ParseInt("ttl", raw, 0)
	if err != nil {
		return nil, err
	}
	if seconds > maxTTLSeconds {
		return nil, errors.NewInvalidArgumentError("ttl is too large", raw)
	}
	return []connection.ReadOption{connection.WithTTL(time.Duration(seconds) * time.Second)}, nil
}

// FindDocuments handles GET /documents
// @Summary Find documents
// @Description Returns documents matching an Extended JSON filter. Results are cached for ttl seconds.
// @Tags Documents
// @Produce json
// @Param connection path string true "Connection name"
// @Param filter query string false "Extended JSON filter"
// @Param projection query string false "Extended JSON projection"
// @Param sort query string false "Sort, e.g. name:asc,age:desc"
// @Param limit query int false "Maximum number of documents"
// @Param skip query int false "Number of documents to skip"
// @Param ttl query int false "Cache TTL in seconds, 0 bypasses the cache"
// @Success 200 {object} dto.DocumentsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/connections/{connection}/documents [get]
func (h *DocumentsHandler) FindDocuments(c *gin.Context) {
	opts, err := readOptions(c)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	f, err := filter.Parse(c.Query("filter"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	projection, err := filter.ParseDocument(c.Query("projection"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	sortFields, err := filter.ParseSort(c.Query("sort"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	limit, err := filter.ParseInt("limit", c.Query("limit"), 0)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	skip, err := filter.ParseInt("skip", c.Query("skip"), 0)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	findOpts := &docdb.FindOptions{
		Projection: projection,
		Sort:       sortFields,
		Limit:      limit,
		Skip:       skip,
	}

	documents, err := h.conn.Find(c.Request.Context(), f, findOpts, opts...)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDocumentsResponse(documents))
}

// FindAllDocuments handles GET /documents/all
// @Summary List every document
// @Tags Documents
// @Produce json
// @Param connection path string true "Connection name"
// @Param ttl query int false "Cache TTL in seconds, 0 bypasses the cache"
// @Success 200 {object} dto.DocumentsResponse
// @Router /api/v1/connections/{connection}/documents/all [get]
func (h *DocumentsHandler) FindAllDocuments(c *gin.Context) {
	opts, err := readOptions(c)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	documents, err := h.conn.FindAll(c.Request.Context(), opts...)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDocumentsResponse(documents))
}

// FindOneDocument handles GET /documents/one
// @Summary Find the first matching document
// @Tags Documents
// @Produce json
// @Param connection path string true "Connection name"
// @Param filter query string false "Extended JSON filter"
// @Param projection query string false "Extended JSON projection"
// @Success 200 {object} dto.DocumentResponse
// @Router /api/v1/connections/{connection}/documents/one [get]
func (h *DocumentsHandler) FindOneDocument(c *gin.Context) {
	f, err := filter.Parse(c.Query("filter"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	projection, err := filter.ParseDocument(c.Query("projection"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	document, found, err := h.conn.FindOne(c.Request.Context(), f, projection)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DocumentResponse{Found: found, Document: document})
}

// PaginateDocuments handles GET /documents/page/:page
// @Summary Get one page of documents
// @Tags Documents
// @Produce json
// @Param connection path string true "Connection name"
// @Param page path int true "1-based page number"
// @Param per query int false "Items per page" default(10)
// @Param ttl query int false "Cache TTL in seconds, 0 bypasses the cache"
// @Success 200 {object} dto.PageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/connections/{connection}/documents/page/{page} [get]
func (h *DocumentsHandler) PaginateDocuments(c *gin.Context) {
	opts, err := readOptions(c)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	page, err := strconv.ParseInt(c.Param("page"), 10, 64)
	if err != nil {
		middleware.HandleError(c, errors.NewInvalidArgumentError("invalid page", c.Param("page")))
		return
	}
	per, err := strconv.ParseInt(c.DefaultQuery("per", "10"), 10, 64)
	if err != nil {
		middleware.HandleError(c, errors.NewInvalidArgumentError("invalid per", c.Query("per")))
		return
	}

	documents, err := h.conn.Paginate(c.Request.Context(), page, per, opts...)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if documents == nil {
		documents = []docdb.Document{}
	}
	c.JSON(http.StatusOK, dto.PageResponse{Page: page, ItemsPerPage: per, Documents: documents})
}

// CountDocuments handles GET /documents/count
// @Summary Count matching documents
// @Tags Documents
// @Produce json
// @Param connection path string true "Connection name"
// @Param filter query string false "Extended JSON filter"
// @Param ttl query int false "Cache TTL in seconds, 0 bypasses the cache"
// @Success 200 {object} dto.CountResponse
// @Router /api/v1/connections/{connection}/documents/count [get]
func (h *DocumentsHandler) CountDocuments(c *gin.Context) {
	opts, err := readOptions(c)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	f, err := filter.Parse(c.Query("filter"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	count, err := h.conn.Count(c.Request.Context(), f, opts...)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}

// DistinctValues handles GET /documents/distinct/:field
// @Summary Distinct values of a field
// @Tags Documents
// @Produce json
// @Param connection path string true "Connection name"
// @Param field path string true "Field name"
// @Param filter query string false "Extended JSON filter"
// @Param ttl query int false "Cache TTL in seconds, 0 bypasses the cache"
// @Success 200 {object} dto.DistinctResponse
// @Router /api/v1/connections/{connection}/documents/distinct/{field} [get]
func (h *DocumentsHandler) DistinctValues(c *gin.Context) {
	opts, err := readOptions(c)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	f, err := filter.Parse(c.Query("filter"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	field := c.Param("field")
	values, err := h.conn.DistinctValues(c.Request.Context(), field, f, opts...)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DistinctResponse{Field: field, Values: values})
}

// InsertDocument handles POST /documents
// @Summary Insert one document
// @Tags Documents
// @Accept json
// @Produce json
// @Param connection path string true "Connection name"
// @Success 201 {object} docdb.InsertOneResult
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/connections/{connection}/documents [post]
func (h *DocumentsHandler) InsertDocument(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	document, err := filter.ParseDocument(string(body))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	result, err := h.conn.InsertOne(c.Request.Context(), document)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// InsertDocuments handles POST /documents/batch
// @Summary Insert several documents
// @Tags Documents
// @Accept json
// @Produce json
// @Param connection path string true "Connection name"
// @Param request body dto.InsertManyRequest true "Documents to insert"
// @Success 201 {object} docdb.InsertManyResult
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/connections/{connection}/documents/batch [post]
func (h *DocumentsHandler) InsertDocuments(c *gin.Context) {
	var req dto.InsertManyRequest
	if err := decodeBody(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	documents := make([]docdb.Document, len(req.Documents))
	for i, d := range req.Documents {
		documents[i] = docdb.Document(d)
	}

	result, err := h.conn.InsertMany(c.Request.Context(), documents)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// UpdateDocuments handles PATCH /documents
// @Summary Set fields on matching documents
// @Description Updates the first match, or every match when many=true.
// @Tags Documents
// @Accept json
// @Produce json
// @Param connection path string true "Connection name"
// @Param many query bool false "Update every match"
// @Param request body dto.UpdateRequest true "Filter and fields to set"
// @Success 200 {object} docdb.UpdateResult
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/connections/{connection}/documents [patch]
func (h *DocumentsHandler) UpdateDocuments(c *gin.Context) {
	var req dto.UpdateRequest
	if err := decodeBody(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	f, update := docdb.Filter(req.Filter), docdb.Document(req.Update)

	var (
		result *docdb.UpdateResult
		err    error
	)
	if c.Query("many") == "true" {
		result, err = h.conn.UpdateMany(ctx, f, update)
	} else {
		result, err = h.conn.UpdateOne(ctx, f, update)
	}
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteDocuments handles DELETE /documents
// @Summary Delete matching documents
// @Description Deletes the first match, or every match when many=true. The filter is required; pass {} to match all.
// @Tags Documents
// @Accept json
// @Produce json
// @Param connection path string true "Connection name"
// @Param many query bool false "Delete every match"
// @Param request body dto.DeleteRequest true "Filter"
// @Success 200 {object} docdb.DeleteResult
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/connections/{connection}/documents [delete]
func (h *DocumentsHandler) DeleteDocuments(c *gin.Context) {
	var req dto.DeleteRequest
	if err := decodeBody(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}
	if req.Filter == nil {
		middleware.HandleError(c, errors.NewInvalidArgumentError("filter is required", "pass {} to match all documents"))
		return
	}

	ctx := c.Request.Context()
	var (
		result *docdb.DeleteResult
		err    error
	)
	if c.Query("many") == "true" {
		result, err = h.conn.DeleteMany(ctx, docdb.Filter(req.Filter))
	} else {
		result, err = h.conn.DeleteOne(ctx, docdb.Filter(req.Filter))
	}
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CacheStats handles GET /cache/stats
// @Summary Cache counters
// @Tags Documents
// @Produce json
// @Param connection path string true "Connection name"
// @Success 200 {object} dto.CacheStatsResponse
// @Router /api/v1/connections/{connection}/cache/stats [get]
func (h *DocumentsHandler) CacheStats(c *gin.Context) {
	stats := h.conn.Stats()
	c.JSON(http.StatusOK, dto.CacheStatsResponse{
		Hits:     stats.Hits,
		Misses:   stats.Misses,
		Bypassed: stats.Bypassed,
	})
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewInvalidArgumentError("failed to read request body", err.Error())
	}
	if len(body) == 0 {
		return nil, errors.NewInvalidArgumentError("request body is required", "")
	}
	return body, nil
}

// decodeBody reads an Extended JSON body into v and rejects code-executing operators.
func decodeBody(c *gin.Context, v interface{}) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}
	if err := bson.UnmarshalExtJSON(body, false, v); err != nil {
		return errors.NewInvalidArgumentError("invalid request body", err.Error())
	}

	var raw bson.M
	if err := bson.UnmarshalExtJSON(body, false, &raw); err != nil {
		return errors.NewInvalidArgumentError("invalid request body", err.Error())
	}
	return filter.Validate(raw)
}
