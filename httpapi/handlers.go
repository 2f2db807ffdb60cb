package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
)

const maxBodyBytes = 1 << 20

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", friendgraph.ErrInvalidRequest, err)
	}
	return s.validate.Struct(dst)
}

// urlParam returns the decoded route parameter key. chi routes on RawPath
// when the request carries one (an encoded "/" in a name), and on the already
// decoded Path otherwise, so only the former needs unescaping.
func urlParam(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, nil
	}
	value, err := url.PathUnescape(value)
	if err != nil {
		return "", fmt.Errorf("%w: bad %s: %v", friendgraph.ErrInvalidRequest, key, err)
	}
	return value, nil
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.AddNode(r.Context(), req.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User created"})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.ListNodes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	name, err := urlParam(r, "name")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.RemoveNode(r.Context(), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User and all friendships deleted"})
}

func (s *Server) createFriendship(w http.ResponseWriter, r *http.Request) {
	var req FriendshipRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.AddEdge(r.Context(), req.User1, req.User2); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Friendship created"})
}

func (s *Server) deleteFriendship(w http.ResponseWriter, r *http.Request) {
	user1, err := urlParam(r, "user1")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	user2, err := urlParam(r, "user2")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.RemoveEdge(r.Context(), user1, user2); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friendship removed"})
}

func (s *Server) friends(w http.ResponseWriter, r *http.Request) {
	name, err := urlParam(r, "name")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.engine.Friends(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) path(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	path, err := s.engine.ShortestPath(r.Context(), query.Get("from"), query.Get("to"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewPathResult(path))
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	pinger, ok := s.store.(friendgraph.Pinger)
	if !ok {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}
