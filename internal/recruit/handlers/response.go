package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const maxJSONBody = 1 << 20

// envelope is the default response body.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) ok(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

// fail writes err as an error envelope with the HTTP status of its gRPC code.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	st := a.mapServiceError(err)
	message := st.Message()
	if st.Code() == codes.Internal {
		message = "internal server error"
	}
	a.logger.Debug("Request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("code", st.Code().String()),
		zap.Error(err),
	)
	writeJSON(w, runtime.HTTPStatusFromCode(st.Code()), envelope{
		Success: false,
		Message: message,
		Error:   errorLabel(err),
	})
}

// mapServiceError translates service errors into gRPC statuses.
func (a *API) mapServiceError(err error) *status.Status {
	switch {
	case errors.Is(err, e.ErrAuthenticationRequired):
		return status.New(codes.Unauthenticated, err.Error())
	case errors.Is(err, e.ErrNoOrganization):
		return status.New(codes.PermissionDenied, err.Error())
	case errors.Is(err, e.ErrNotFound):
		return status.New(codes.NotFound, err.Error())
	case errors.Is(err, e.ErrInvalidInput), errors.Is(err, e.ErrInvalidTransition):
		return status.New(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrExternalService):
		return status.New(codes.Unavailable, err.Error())
	default:
		a.logger.Error("Internal server error", zap.Error(err))
		return status.New(codes.Internal, err.Error())
	}
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, e.ErrAuthenticationRequired):
		return "UNAUTHENTICATED"
	case errors.Is(err, e.ErrNoOrganization):
		return "NO_ORGANIZATION"
	case errors.Is(err, e.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, e.ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, e.ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, e.ErrExternalService):
		return "EXTERNAL_SERVICE"
	default:
		return "INTERNAL"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", e.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON: %v", e.ErrInvalidInput, err)
	}
	return nil
}

func pathID(params map[string]string, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(params[name])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", e.ErrInvalidInput, name)
	}
	return id, nil
}

func queryID(r *http.Request, name string, required bool) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" && !required {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", e.ErrInvalidInput, name)
	}
	return id, nil
}
