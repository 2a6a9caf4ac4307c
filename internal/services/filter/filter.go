// Package filter parses user-supplied query text into structured filters.
//
// Input is MongoDB Extended JSON decoded by the BSON library; nothing is ever
// evaluated as code, and operators that run server-side JavaScript are rejected.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/unifiedui/docdb-connection/internal/core/docdb"
	"github.com/unifiedui/docdb-connection/internal/domain/errors"
)

// forbiddenOperators execute code on the server.
var forbiddenOperators = map[string]struct{}{
	"$where":       {},
	"$function":    {},
	"$accumulator": {},
	"$expr":        {},
}

// Parse decodes an Extended JSON object into a Filter. Blank input matches all documents.
func Parse(text string) (docdb.Filter, error) {
	m, err := parseObject("filter", text)
	if err != nil || m == nil {
		return nil, err
	}
	return docdb.Filter(m), nil
}

// ParseDocument decodes an Extended JSON object into a Document, used for
// projections, inserted documents and update field sets.
func ParseDocument(text string) (docdb.Document, error) {
	m, err := parseObject("document", text)
	if err != nil || m == nil {
		return nil, err
	}
	return docdb.Document(m), nil
}

func parseObject(kind, text string) (map[string]interface{}, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var m bson.M
	if err := bson.UnmarshalExtJSON([]byte(text), false, &m); err != nil {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("invalid %s", kind), err.Error())
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate rejects code-executing operators anywhere in value.
func Validate(value interface{}) error {
	switch t := value.(type) {
	case bson.M:
		return validateMap(t)
	case map[string]interface{}:
		return validateMap(t)
	case docdb.Filter:
		return validateMap(t)
	case docdb.Document:
		return validateMap(t)
	case bson.D:
		for _, e := range t {
			if err := checkKey(e.Key); err != nil {
				return err
			}
			if err := Validate(e.Value); err != nil {
				return err
			}
		}
	case bson.A:
		for _, v := range t {
			if err := Validate(v); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, v := range t {
			if err := Validate(v); err != nil {
				return err
			}
		}
	case primitive.JavaScript, primitive.CodeWithScope:
		return errors.NewInvalidArgumentError("javascript values are not allowed", "filter")
	}
	return nil
}

func validateMap(m map[string]interface{}) error {
	for k, v := range m {
		if err := checkKey(k); err != nil {
			return err
		}
		if err := Validate(v); err != nil {
			return err
		}
	}
	return nil
}

func checkKey(key string) error {
	if _, ok := forbiddenOperators[key]; ok {
		return errors.NewInvalidArgumentError("operator not allowed", key)
	}
	return nil
}

// ParseSort reads "field:asc,other:desc". Directions accept asc/desc, 1/-1;
// a bare field sorts ascending.
func ParseSort(text string) ([]docdb.SortField, error) {
	var fields []docdb.SortField
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, dir, _ := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.NewInvalidArgumentError("invalid sort", part)
		}

		field := docdb.SortField{Field: name, Direction: docdb.Ascending}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc", "1":
		case "desc", "-1":
			field.Direction = docdb.Descending
		default:
			return nil, errors.NewInvalidArgumentError("invalid sort direction", part)
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// ParseInt reads an optional non-negative integer parameter.
func ParseInt(name, text string, fallback int64) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || n < 0 {
		return 0, errors.NewInvalidArgumentError(fmt.Sprintf("invalid %s", name), text)
	}
	return n, nil
}
