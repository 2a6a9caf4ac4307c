package testutils

import (
	"fmt"

	"github.com/unifiedui/docdb-connection/internal/core/docdb"
)

// Students returns n student documents with offsets 0..n-1 in the "offset"
// field, so page contents can be checked by value.
func Students(n int) []docdb.Document {
	majors := []string{"Physics", "History", "Biology"}
	documents := make([]docdb.Document, n)
	for i := 0; i < n; i++ {
		documents[i] = docdb.Document{
			"name":   fmt.Sprintf("student-%02d", i),
			"offset": int32(i),
			"age":    int32(18 + i%5),
			"major":  majors[i%len(majors)],
			"address": docdb.Document{
				"city": fmt.Sprintf("city-%d", i%2),
			},
		}
	}
	return documents
}
