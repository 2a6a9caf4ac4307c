package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/unifiedui/docdb-connection/internal/core/docdb"
	"github.com/unifiedui/docdb-connection/internal/domain/errors"
)

const idField = "_id"

// Collection implements docdb.Collection. Natural order is insertion order.
type Collection struct {
	name   string
	closed *atomic.Bool

	mu        sync.RWMutex
	documents []docdb.Document
}

func newCollection(name string, closed *atomic.Bool) *Collection {
	return &Collection{
		name:   name,
		closed: closed,
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) checkOpen(operation string) error {
	if c.closed.Load() {
		return errors.NewClosedConnectionError(operation)
	}
	return nil
}

// Find returns copies of the documents matching the filter.
func (c *Collection) Find(ctx context.Context, filter docdb.Filter, opts *docdb.FindOptions) ([]docdb.Document, error) {
	if err := c.checkOpen("find"); err != nil {
		return nil, err
	}

	// matched holds the stored maps, so the read lock covers sorting and projection.
	c.mu.RLock()
	defer c.mu.RUnlock()

	matched, err := c.matchAll(filter)
	if err != nil {
		return nil, err
	}

	if opts == nil {
		opts = &docdb.FindOptions{}
	}
	if len(opts.Sort) > 0 {
		sortDocuments(matched, opts.Sort)
	}
	if opts.Skip > 0 {
		if opts.Skip >= int64(len(matched)) {
			matched = matched[:0]
		} else {
			matched = matched[opts.Skip:]
		}
	}
	if opts.Limit > 0 && opts.Limit < int64(len(matched)) {
		matched = matched[:opts.Limit]
	}

	result := make([]docdb.Document, len(matched))
	for i, d := range matched {
		result[i] = project(d, opts.Projection)
	}
	return result, nil
}

// FindOne returns the first matching document, or nil.
func (c *Collection) FindOne(ctx context.Context, filter docdb.Filter, projection docdb.Document) (docdb.Document, error) {
	if err := c.checkOpen("find one"); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, d := range c.documents {
		ok, err := matches(d, filter)
		if err != nil {
			return nil, errors.NewStoreError("find one", err)
		}
		if ok {
			return project(d, projection), nil
		}
	}
	return nil, nil
}

// InsertOne stores a copy of the document, assigning an ObjectID when _id is absent.
func (c *Collection) InsertOne(ctx context.Context, document docdb.Document) (*docdb.InsertOneResult, error) {
	if err := c.checkOpen("insert document"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.insertLocked(document)
	if err != nil {
		return nil, err
	}
	return &docdb.InsertOneResult{InsertedID: id}, nil
}

// InsertMany stores copies of the documents in order. It stops at the first duplicate key.
func (c *Collection) InsertMany(ctx context.Context, documents []docdb.Document) (*docdb.InsertManyResult, error) {
	if err := c.checkOpen("insert documents"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]interface{}, 0, len(documents))
	for _, d := range documents {
		id, err := c.insertLocked(d)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return &docdb.InsertManyResult{InsertedIDs: ids}, nil
}

func (c *Collection) insertLocked(document docdb.Document) (interface{}, error) {
	stored := docdb.Document(deepCopy(map[string]interface{}(document)).(map[string]interface{}))
	if _, ok := stored[idField]; !ok {
		stored[idField] = primitive.NewObjectID()
	}

	id := stored[idField]
	for _, existing := range c.documents {
		if valuesEqual(existing[idField], id) {
			return nil, errors.NewStoreError("insert document", fmt.Errorf("duplicate key error: _id %v", id))
		}
	}

	c.documents = append(c.documents, stored)
	return id, nil
}

// UpdateOne sets the given fields on the first matching document.
func (c *Collection) UpdateOne(ctx context.Context, filter docdb.Filter, update docdb.Document) (*docdb.UpdateResult, error) {
	return c.update("update document", filter, update, false)
}

// UpdateMany sets the given fields on every matching document.
func (c *Collection) UpdateMany(ctx context.Context, filter docdb.Filter, update docdb.Document) (*docdb.UpdateResult, error) {
	return c.update("update documents", filter, update, true)
}

func (c *Collection) update(operation string, filter docdb.Filter, update docdb.Document, many bool) (*docdb.UpdateResult, error) {
	if err := c.checkOpen(operation); err != nil {
		return nil, err
	}
	if _, ok := update[idField]; ok {
		return nil, errors.NewStoreError(operation, fmt.Errorf("performing an update on the path '_id' would modify the immutable field '_id'"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result := &docdb.UpdateResult{}
	for _, d := range c.documents {
		ok, err := matches(d, filter)
		if err != nil {
			return nil, errors.NewStoreError(operation, err)
		}
		if !ok {
			continue
		}

		result.MatchedCount++
		if setFields(d, update) {
			result.ModifiedCount++
		}
		if !many {
			break
		}
	}
	return result, nil
}

// DeleteOne removes the first matching document.
func (c *Collection) DeleteOne(ctx context.Context, filter docdb.Filter) (*docdb.DeleteResult, error) {
	return c.delete("delete document", filter, false)
}

// DeleteMany removes every matching document.
func (c *Collection) DeleteMany(ctx context.Context, filter docdb.Filter) (*docdb.DeleteResult, error) {
	return c.delete("delete documents", filter, true)
}

func (c *Collection) delete(operation string, filter docdb.Filter, many bool) (*docdb.DeleteResult, error) {
	if err := c.checkOpen(operation); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]docdb.Document, 0, len(c.documents))
	var deleted int64
	for _, d := range c.documents {
		if many || deleted == 0 {
			ok, err := matches(d, filter)
			if err != nil {
				return nil, errors.NewStoreError(operation, err)
			}
			if ok {
				deleted++
				continue
			}
		}
		kept = append(kept, d)
	}
	c.documents = kept

	return &docdb.DeleteResult{DeletedCount: deleted}, nil
}

// CountDocuments counts documents matching the filter.
func (c *Collection) CountDocuments(ctx context.Context, filter docdb.Filter) (int64, error) {
	if err := c.checkOpen("count documents"); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	matched, err := c.matchAll(filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Distinct returns distinct values of field in order of first appearance.
// Array values contribute their elements.
func (c *Collection) Distinct(ctx context.Context, field string, filter docdb.Filter) ([]interface{}, error) {
	if err := c.checkOpen("distinct"); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	matched, err := c.matchAll(filter)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, 0)
	add := func(v interface{}) {
		for _, existing := range values {
			if valuesEqual(existing, v) {
				return
			}
		}
		values = append(values, deepCopy(v))
	}

	for _, d := range matched {
		v, ok := lookup(d, field)
		if !ok {
			continue
		}
		if arr, isArr := asSlice(v); isArr {
			for _, elem := range arr {
				add(elem)
			}
			continue
		}
		add(v)
	}
	return values, nil
}

// matchAll must be called with the read lock held.
func (c *Collection) matchAll(filter docdb.Filter) ([]docdb.Document, error) {
	matched := make([]docdb.Document, 0, len(c.documents))
	for _, d := range c.documents {
		ok, err := matches(d, filter)
		if err != nil {
			return nil, errors.NewStoreError("match filter", err)
		}
		if ok {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

// setFields applies a field-set update and reports whether anything changed.
func setFields(d docdb.Document, update docdb.Document) bool {
	changed := false
	for path, value := range update {
		parts := strings.Split(path, ".")
		target := map[string]interface{}(d)
		for _, p := range parts[:len(parts)-1] {
			next, ok := asMap(target[p])
			if !ok {
				next = map[string]interface{}{}
				target[p] = next
			}
			target = next
		}

		last := parts[len(parts)-1]
		if current, ok := target[last]; ok && valuesEqual(current, value) {
			continue
		}
		target[last] = deepCopy(value)
		changed = true
	}
	return changed
}

// project returns a copy of d restricted by an inclusion or exclusion projection
// on top-level fields.
func project(d docdb.Document, projection docdb.Document) docdb.Document {
	out := docdb.Document(deepCopy(map[string]interface{}(d)).(map[string]interface{}))
	if len(projection) == 0 {
		return out
	}

	inclusion := false
	for k, v := range projection {
		if k != idField && truthy(v) {
			inclusion = true
			break
		}
	}

	if inclusion {
		projected := docdb.Document{}
		for k, v := range projection {
			if truthy(v) {
				if val, ok := out[k]; ok {
					projected[k] = val
				}
			}
		}
		if v, ok := projection[idField]; !ok || truthy(v) {
			if id, ok := out[idField]; ok {
				projected[idField] = id
			}
		}
		return projected
	}

	for k, v := range projection {
		if !truthy(v) {
			delete(out, k)
		}
	}
	return out
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case nil:
		return false
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

func sortDocuments(documents []docdb.Document, fields []docdb.SortField) {
	sort.SliceStable(documents, func(i, j int) bool {
		for _, f := range fields {
			a, _ := lookup(documents[i], f.Field)
			b, _ := lookup(documents[j], f.Field)
			cmp := compareValues(a, b)
			if cmp == 0 {
				continue
			}
			if f.Direction == docdb.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}
