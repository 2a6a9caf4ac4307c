package memo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Key derives a stable cache key from an operation and its arguments.
// Mappings are canonicalized by sorting their keys at every depth, so argument
// maps that differ only in iteration order produce the same key. bson.D values
// keep their order since it is significant (sort specifications).
func Key(namespace, operation string, args ...interface{}) (string, error) {
	canonical := make(bson.A, len(args))
	for i, a := range args {
		canonical[i] = canonicalize(a)
	}

	data, err := bson.MarshalExtJSON(bson.D{{Key: "args", Value: canonical}}, true, false)
	if err != nil {
		return "", fmt.Errorf("failed to encode arguments for %s: %w", operation, err)
	}

	sum := sha256.Sum256(data)
	return fmt.Sprintf("memo:%s:%s:%s", namespace, operation, hex.EncodeToString(sum[:])), nil
}

func canonicalize(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case primitive.ObjectID, time.Time, primitive.DateTime, []byte, primitive.Decimal128, primitive.Regex:
		return t
	case bson.D:
		out := make(bson.D, len(t))
		for i, e := range t {
			out[i] = bson.E{Key: e.Key, Value: canonicalize(e.Value)}
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return canonicalize(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() || rv.Len() == 0 {
			return bson.D{}
		}
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Sprintf("%v", v)
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		out := make(bson.D, 0, len(keys))
		for _, k := range keys {
			val := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
			out = append(out, bson.E{Key: k, Value: canonicalize(val.Interface())})
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make(bson.A, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = canonicalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Struct:
		rt := rv.Type()
		out := make(bson.D, 0, rt.NumField())
		for i := 0; i < rt.NumField(); i++ {
			if !rt.Field(i).IsExported() {
				continue
			}
			out = append(out, bson.E{Key: rt.Field(i).Name, Value: canonicalize(rv.Field(i).Interface())})
		}
		return out
	}
	return v
}
