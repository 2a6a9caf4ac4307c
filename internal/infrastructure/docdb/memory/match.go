package memory

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/unifiedui/docdb-connection/internal/core/docdb"
)

// matches evaluates a filter against a document. Supported: implicit equality,
// $eq $ne $gt $gte $lt $lte $in $nin $exists on fields and $and $or $nor at any level.
func matches(d docdb.Document, filter docdb.Filter) (bool, error) {
	for key, cond := range filter {
		var (
			ok  bool
			err error
		)
		switch key {
		case "$and", "$or", "$nor":
			ok, err = matchLogical(d, key, cond)
		default:
			if strings.HasPrefix(key, "$") {
				return false, fmt.Errorf("unknown top level operator: %s", key)
			}
			ok, err = matchField(d, key, cond)
		}
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchLogical(d docdb.Document, op string, cond interface{}) (bool, error) {
	clauses, ok := asSlice(cond)
	if !ok || len(clauses) == 0 {
		return false, fmt.Errorf("%s must be a nonempty array", op)
	}

	for _, clause := range clauses {
		sub, ok := asMap(clause)
		if !ok {
			return false, fmt.Errorf("%s entries must be documents", op)
		}
		matched, err := matches(d, docdb.Filter(sub))
		if err != nil {
			return false, err
		}
		switch {
		case op == "$and" && !matched:
			return false, nil
		case op == "$or" && matched:
			return true, nil
		case op == "$nor" && matched:
			return false, nil
		}
	}
	return op != "$or", nil
}

func matchField(d docdb.Document, path string, cond interface{}) (bool, error) {
	value, exists := lookup(d, path)

	ops, isOps := operatorMap(cond)
	if !isOps {
		return equalsOrContains(value, exists, cond), nil
	}

	for op, arg := range ops {
		var ok bool
		switch op {
		case "$eq":
			ok = equalsOrContains(value, exists, arg)
		case "$ne":
			ok = !equalsOrContains(value, exists, arg)
		case "$gt", "$gte", "$lt", "$lte":
			ok = exists && anyElement(value, func(v interface{}) bool {
				cmp, comparable := compareSameKind(v, arg)
				if !comparable {
					return false
				}
				switch op {
				case "$gt":
					return cmp > 0
				case "$gte":
					return cmp >= 0
				case "$lt":
					return cmp < 0
				default:
					return cmp <= 0
				}
			})
		case "$in", "$nin":
			candidates, isList := asSlice(arg)
			if !isList {
				return false, fmt.Errorf("%s needs an array", op)
			}
			found := false
			for _, c := range candidates {
				if equalsOrContains(value, exists, c) {
					found = true
					break
				}
			}
			ok = found == (op == "$in")
		case "$exists":
			ok = exists == truthy(arg)
		default:
			return false, fmt.Errorf("unknown operator: %s", op)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// operatorMap reports whether cond is an operator document such as {"$gt": 3}.
func operatorMap(cond interface{}) (map[string]interface{}, bool) {
	m, ok := asMap(cond)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

// equalsOrContains implements query equality: null matches missing fields and
// an array field matches when any element is equal.
func equalsOrContains(value interface{}, exists bool, target interface{}) bool {
	if target == nil {
		return !exists || value == nil
	}
	if !exists {
		return false
	}
	if valuesEqual(value, target) {
		return true
	}
	if arr, ok := asSlice(value); ok {
		for _, elem := range arr {
			if valuesEqual(elem, target) {
				return true
			}
		}
	}
	return false
}

func anyElement(value interface{}, fn func(interface{}) bool) bool {
	if arr, ok := asSlice(value); ok {
		for _, elem := range arr {
			if fn(elem) {
				return true
			}
		}
		return false
	}
	return fn(value)
}

// lookup resolves a dotted path through nested documents.
func lookup(d docdb.Document, path string) (interface{}, bool) {
	var current interface{} = map[string]interface{}(d)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case docdb.Document:
		return t, true
	case docdb.Filter:
		return t, true
	case primitive.M:
		return t, true
	case primitive.D:
		return t.Map(), true
	}
	return nil, false
}

func asSlice(v interface{}) ([]interface{}, bool) {
	switch t := v.(type) {
	case []interface{}:
		return t, true
	case primitive.A:
		return t, true
	case []docdb.Document:
		out := make([]interface{}, len(t))
		for i, d := range t {
			out[i] = d
		}
		return out, true
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// valuesEqual compares numbers by value regardless of width, and everything else
// structurally after normalizing nested documents and arrays.
func valuesEqual(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ma, ok := asMap(a); ok {
		mb, ok := asMap(b)
		if !ok || len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !valuesEqual(va, vb) {
				return false
			}
		}
		return true
	}
	if sa, ok := asSlice(a); ok {
		sb, ok := asSlice(b)
		if !ok || len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !valuesEqual(sa[i], sb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// compareSameKind orders two values of the same kind (number, string, time, ObjectID).
func compareSameKind(a, b interface{}) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		return compareFloats(fa, fb), true
	}

	switch ta := a.(type) {
	case string:
		tb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(ta, tb), true
	case time.Time:
		tb, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	case primitive.DateTime:
		tb, ok := b.(primitive.DateTime)
		if !ok {
			return 0, false
		}
		return compareFloats(float64(ta), float64(tb)), true
	case primitive.ObjectID:
		tb, ok := b.(primitive.ObjectID)
		if !ok {
			return 0, false
		}
		return strings.Compare(ta.Hex(), tb.Hex()), true
	case bool:
		tb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		return compareFloats(boolRank(ta), boolRank(tb)), true
	}
	return 0, false
}

// compareValues is the total order used for sorting: missing/null, numbers,
// strings, then everything else by kind rank.
func compareValues(a, b interface{}) int {
	if cmp, ok := compareSameKind(a, b); ok {
		return cmp
	}
	return compareFloats(kindRank(a), kindRank(b))
}

func kindRank(v interface{}) float64 {
	if v == nil {
		return 0
	}
	if _, ok := toFloat(v); ok {
		return 1
	}
	switch v.(type) {
	case string:
		return 2
	case primitive.ObjectID:
		return 5
	case bool:
		return 6
	case time.Time, primitive.DateTime:
		return 7
	}
	if _, ok := asMap(v); ok {
		return 3
	}
	if _, ok := asSlice(v); ok {
		return 4
	}
	return 8
}

func boolRank(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// deepCopy clones nested documents and arrays so stored data never aliases caller data.
func deepCopy(v interface{}) interface{} {
	if m, ok := asMap(v); ok {
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[k] = deepCopy(val)
		}
		return out
	}
	if s, ok := asSlice(v); ok {
		out := make([]interface{}, len(s))
		for i, val := range s {
			out[i] = deepCopy(val)
		}
		return out
	}
	return v
}
