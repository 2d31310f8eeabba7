package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/betterrecipe/internal/domain"
)

// ErrorResponse is the JSON envelope returned for every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errBodyTooLarge is returned by decodeJSON when the body exceeds the limit
// set by middleware.NewMaxBodySizeHandler.
var errBodyTooLarge = errors.New("request body too large")

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorBody writes the error envelope.
func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeError maps a service error onto a status code and error envelope.
// Unclassified errors are logged and reported as a bare 500 so internal
// details never reach the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, "not_found", unwrapMessage(err))
	case errors.Is(err, domain.ErrIndexOutOfRange):
		writeErrorBody(w, http.StatusNotFound, "index_out_of_range", unwrapMessage(err))
	case errors.Is(err, domain.ErrInvalidState):
		writeErrorBody(w, http.StatusConflict, "invalid_state", unwrapMessage(err))
	case errors.Is(err, domain.ErrStore):
		writeErrorBody(w, http.StatusConflict, "store_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrValidation):
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, errBodyTooLarge):
		writeErrorBody(w, http.StatusRequestEntityTooLarge, "body_too_large", err.Error())
	case errors.Is(err, domain.ErrPersistence):
		s.log.ErrorContext(r.Context(), "persistence failure", "error", err, "path", r.URL.Path)
		writeErrorBody(w, http.StatusInternalServerError, "persistence_error", "changes could not be saved and were not applied")
	default:
		s.log.ErrorContext(r.Context(), "unhandled error", "error", err, "path", r.URL.Path)
		writeErrorBody(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// unwrapMessage strips the "pkg.Type.Method: " prefixes that error wrapping
// adds on the way up, leaving the human-readable part.
// e.g. "service.Catalog.DeleteAt: index out of range: 4 not in [0,2)" → "index out of range: 4 not in [0,2)"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for {
		head, rest, ok := strings.Cut(msg, ": ")
		if !ok || !strings.Contains(head, ".") || strings.ContainsAny(head, " \t") {
			return msg
		}
		msg = rest
	}
}

// decodeJSON decodes a required JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	err := decodeBody(r, v)
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: request body is required", domain.ErrValidation)
	}
	return err
}

// decodeOptionalJSON decodes a JSON body into v; an empty body leaves v untouched.
func decodeOptionalJSON(r *http.Request, v any) error {
	if err := decodeBody(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return err
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrValidation, err)
}

// uuidParam parses the named chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", domain.ErrValidation, name)
	}
	return id, nil
}

// intParam parses the named chi URL parameter as an integer.
func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return n, nil
}

// intQuery parses an optional integer query parameter. Absent yields nil.
func intQuery(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return &n, nil
}
