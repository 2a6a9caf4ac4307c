// Package docs registers the OpenAPI description served at /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/health": {
            "get": {"tags": ["Health"], "summary": "Health check", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.HealthResponse"}},
                              "503": {"description": "Unavailable", "schema": {"$ref": "#/definitions/dto.HealthResponse"}}}}
        },
        "/api/v1/ready": {
            "get": {"tags": ["Health"], "summary": "Readiness check", "responses": {"200": {"description": "Service ready"}}}
        },
        "/api/v1/live": {
            "get": {"tags": ["Health"], "summary": "Liveness check", "responses": {"200": {"description": "Service alive"}}}
        },
        "/api/v1/connections/{connection}/documents": {
            "get": {
                "tags": ["Documents"], "summary": "Find documents", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "connection", "in": "path", "required": true},
                    {"type": "string", "description": "Extended JSON filter", "name": "filter", "in": "query"},
                    {"type": "string", "description": "Extended JSON projection", "name": "projection", "in": "query"},
                    {"type": "string", "description": "Sort, e.g. name:asc,age:desc", "name": "sort", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "skip", "in": "query"},
                    {"type": "integer", "description": "Cache TTL in seconds, 0 bypasses the cache", "name": "ttl", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DocumentsResponse"}},
                              "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}}
            },
            "post": {
                "tags": ["Documents"], "summary": "Insert one document", "consumes": ["application/json"],
                "parameters": [{"type": "string", "name": "connection", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/docdb.InsertOneResult"}}}
            },
            "patch": {
                "tags": ["Documents"], "summary": "Set fields on matching documents",
                "parameters": [
                    {"type": "string", "name": "connection", "in": "path", "required": true},
                    {"type": "boolean", "name": "many", "in": "query"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/docdb.UpdateResult"}}}
            },
            "delete": {
                "tags": ["Documents"], "summary": "Delete matching documents",
                "parameters": [
                    {"type": "string", "name": "connection", "in": "path", "required": true},
                    {"type": "boolean", "name": "many", "in": "query"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.DeleteRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/docdb.DeleteResult"}}}
            }
        },
        "/api/v1/connections/{connection}/documents/all": {
            "get": {"tags": ["Documents"], "summary": "List every document",
                "parameters": [{"type": "string", "name": "connection", "in": "path", "required": true},
                               {"type": "integer", "name": "ttl", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DocumentsResponse"}}}}
        },
        "/api/v1/connections/{connection}/documents/one": {
            "get": {"tags": ["Documents"], "summary": "Find the first matching document",
                "parameters": [{"type": "string", "name": "connection", "in": "path", "required": true},
                               {"type": "string", "name": "filter", "in": "query"},
                               {"type": "string", "name": "projection", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DocumentResponse"}}}}
        },
        "/api/v1/connections/{connection}/documents/page/{page}": {
            "get": {"tags": ["Documents"], "summary": "Get one page of documents",
                "parameters": [{"type": "string", "name": "connection", "in": "path", "required": true},
                               {"type": "integer", "name": "page", "in": "path", "required": true},
                               {"type": "integer", "default": 10, "name": "per", "in": "query"},
                               {"type": "integer", "name": "ttl", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PageResponse"}}}}
        },
        "/api/v1/connections/{connection}/documents/count": {
            "get": {"tags": ["Documents"], "summary": "Count matching documents",
                "parameters": [{"type": "string", "name": "connection", "in": "path", "required": true},
                               {"type": "string", "name": "filter", "in": "query"},
                               {"type": "integer", "name": "ttl", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.CountResponse"}}}}
        },
        "/api/v1/connections/{connection}/documents/distinct/{field}": {
            "get": {"tags": ["Documents"], "summary": "Distinct values of a field",
                "parameters": [{"type": "string", "name": "connection", "in": "path", "required": true},
                               {"type": "string", "name": "field", "in": "path", "required": true},
                               {"type": "string", "name": "filter", "in": "query"},
                               {"type": "integer", "name": "ttl", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DistinctResponse"}}}}
        },
        "/api/v1/connections/{connection}/documents/batch": {
            "post": {"tags": ["Documents"], "summary": "Insert several documents",
                "parameters": [{"type": "string", "name": "connection", "in": "path", "required": true},
                               {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.InsertManyRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/docdb.InsertManyResult"}}}}
        },
        "/api/v1/connections/{connection}/cache/stats": {
            "get": {"tags": ["Documents"], "summary": "Cache counters",
                "parameters": [{"type": "string", "name": "connection", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.CacheStatsResponse"}}}}
        }
    },
    "definitions": {
        "docdb.InsertOneResult": {"type": "object", "properties": {"insertedId": {}}},
        "docdb.InsertManyResult": {"type": "object", "properties": {"insertedIds": {"type": "array", "items": {}}}},
        "docdb.UpdateResult": {"type": "object", "properties": {"matchedCount": {"type": "integer"}, "modifiedCount": {"type": "integer"}}},
        "docdb.DeleteResult": {"type": "object", "properties": {"deletedCount": {"type": "integer"}}},
        "dto.ErrorResponse": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "details": {"type": "string"}}},
        "dto.HealthResponse": {"type": "object", "properties": {"status": {"type": "string"}, "components": {"type": "object", "additionalProperties": {"type": "string"}}}},
        "dto.DocumentsResponse": {"type": "object", "properties": {"documents": {"type": "array", "items": {"type": "object"}}, "count": {"type": "integer"}}},
        "dto.DocumentResponse": {"type": "object", "properties": {"found": {"type": "boolean"}, "document": {"type": "object"}}},
        "dto.PageResponse": {"type": "object", "properties": {"page": {"type": "integer"}, "itemsPerPage": {"type": "integer"}, "documents": {"type": "array", "items": {"type": "object"}}}},
        "dto.CountResponse": {"type": "object", "properties": {"count": {"type": "integer"}}},
        "dto.DistinctResponse": {"type": "object", "properties": {"field": {"type": "string"}, "values": {"type": "array", "items": {}}}},
        "dto.CacheStatsResponse": {"type": "object", "properties": {"hits": {"type": "integer"}, "misses": {"type": "integer"}, "bypassed": {"type": "integer"}}},
        "dto.InsertManyRequest": {"type": "object", "properties": {"documents": {"type": "array", "items": {"type": "object"}}}},
        "dto.UpdateRequest": {"type": "object", "properties": {"filter": {"type": "object"}, "update": {"type": "object"}}},
        "dto.DeleteRequest": {"type": "object", "properties": {"filter": {"type": "object"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "DocDB Connection API",
	Description:      "Cached access façade over one document collection.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
