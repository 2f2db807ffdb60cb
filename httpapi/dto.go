package httpapi

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name string `json:"name" validate:"required,max=256"`
}

// FriendshipRequest is the body of POST /friendship.
type FriendshipRequest struct {
	User1 string `json:"user1" validate:"required,max=256"`
	User2 string `json:"user2" validate:"required,max=256"`
}

// MessageResponse acknowledges a successful mutation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the body of /health and /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
