// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/unifiedui/docdb-connection/internal/core/docdb"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// DocumentsResponse carries a list of documents.
type DocumentsResponse struct {
	Documents []docdb.Document `json:"documents"`
	Count     int              `json:"count"`
}

// NewDocumentsResponse wraps documents, rendering nil as an empty list.
func NewDocumentsResponse(documents []docdb.Document) *DocumentsResponse {
	if documents == nil {
		documents = []docdb.Document{}
	}
	return &DocumentsResponse{Documents: documents, Count: len(documents)}
}

// PageResponse carries one page of documents.
type PageResponse struct {
	Page         int64            `json:"page"`
	ItemsPerPage int64            `json:"itemsPerPage"`
	Documents    []docdb.Document `json:"documents"`
}

// DocumentResponse carries a single lookup result.
type DocumentResponse struct {
	Found    bool           `json:"found"`
	Document docdb.Document `json:"document,omitempty"`
}

// CountResponse carries a document count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// DistinctResponse carries the distinct values of a field.
type DistinctResponse struct {
	Field  string        `json:"field"`
	Values []interface{} `json:"values"`
}

// CacheStatsResponse reports memoizer counters.
type CacheStatsResponse struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Bypassed int64 `json:"bypassed"`
}
