package dto

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Request bodies are Extended JSON, so {"$oid": "..."} and {"$date": "..."}
// round-trip with their BSON types.

// InsertManyRequest is the body of a batch insert.
type InsertManyRequest struct {
	Documents []bson.M `bson:"documents" json:"documents"`
}

// UpdateRequest is the body of an update. Update fields are set on matching documents.
type UpdateRequest struct {
	Filter bson.M `bson:"filter" json:"filter"`
	Update bson.M `bson:"update" json:"update"`
}

// DeleteRequest is the body of a delete.
type DeleteRequest struct {
	Filter bson.M `bson:"filter" json:"filter"`
}
