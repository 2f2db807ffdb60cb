package models

// FriendsResult is the answer to a friends / friends-of-friends query.
// Both sequences are sorted and disjoint, and neither contains the queried user.
type FriendsResult struct {
	Friends          []string `json:"friends"`
	FriendsOfFriends []string `json:"friendsOfFriends"`
}

// PathResult is the answer to a shortest path query.
// Path runs from source to target inclusive; it is empty when no path exists.
type PathResult struct {
	Path []string `json:"path"`
	Hops int      `json:"hops"`
}

// NewPathResult wraps path, counting hops as the number of edges traversed.
func NewPathResult(path []string) PathResult {
	if path == nil {
		path = []string{}
	}
	hops := 0
	if len(path) > 1 {
		hops = len(path) - 1
	}
	return PathResult{Path: path, Hops: hops}
}
