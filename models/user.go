package models

// User represents a user entity in the friend graph.
// The `crud` struct tags provide metadata to the persistence layer for
// mapping this struct to a `:User` node in Neo4j.
type User struct {
	// Name is the user's unique key.
	// The `pk` tag designates it as the primary key for MERGE and MATCH operations.
	Name string `crud:"pk,property:name" json:"name"`
}

// UserLabel is the node label users are stored under.
const UserLabel = "User"

// FriendRelation is the relationship type a friendship is stored as.
// A friendship is materialized as one FRIEND relationship in each direction.
const FriendRelation = "FRIEND"
