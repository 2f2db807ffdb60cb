package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
)

// Error types reported in ErrorResponse.Type.
const (
	typeValidation  = "VALIDATION_ERROR"
	typeNotFound    = "NOT_FOUND"
	typeConflict    = "CONFLICT"
	typeUnavailable = "SERVICE_UNAVAILABLE"
	typeInternal    = "INTERNAL_ERROR"
)

// classify maps an error to its HTTP status and error type.
func classify(err error) (int, string) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, friendgraph.ErrInvalidRequest),
		errors.Is(err, friendgraph.ErrSelfLoop),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest, typeValidation
	case errors.Is(err, friendgraph.ErrUnknownNode):
		return http.StatusNotFound, typeNotFound
	case errors.Is(err, friendgraph.ErrDuplicateNode):
		return http.StatusConflict, typeConflict
	case errors.Is(err, friendgraph.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, typeUnavailable
	default:
		return http.StatusInternalServerError, typeInternal
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, errType := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		message = "internal server error"
	}
	writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Type:      errType,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
