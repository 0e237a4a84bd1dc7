// pkg/gateway/errors.go
package gateway

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-rpc/pkg/codec"
	"github.com/joeydtaylor/steeze-rpc/pkg/rpc"
	"github.com/joeydtaylor/steeze-rpc/pkg/sample"
)

var errNotFound = errors.New("sample not found")

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps call and validation failures onto HTTP status codes.
func statusFor(err error) int {
	var (
		verr   *sample.ValidationError
		remote *rpc.RemoteError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, rpc.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, rpc.ErrPublish), errors.As(err, &remote):
		return http.StatusBadGateway
	case errors.Is(err, rpc.ErrCancelled), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, rpc.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var verr *sample.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		log.Warn("sample call failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := codec.JSON.Marshal(v)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", codec.JSON.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
