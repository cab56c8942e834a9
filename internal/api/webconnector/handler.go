// Package webconnector exposes the Web Connector endpoint over HTTP.
package webconnector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/qbsync/internal/soap"
)

// DefaultMaxBodyBytes caps a request envelope. receiveResponseXML carries
// a whole qbXML response document, so the limit is generous.
const DefaultMaxBodyBytes = 8 << 20

// Dispatcher runs one decoded call.
// *qbwc.Dispatcher satisfies this interface.
type Dispatcher interface {
	Handle(ctx context.Context, call soap.Call) (soap.Result, error)
}

// Handler serves POST /qbwc.
type Handler struct {
	dispatcher Dispatcher
	maxBytes   int64
}

// NewHandler returns a handler that rejects bodies larger than maxBytes.
// A non-positive maxBytes selects DefaultMaxBodyBytes.
func NewHandler(dispatcher Dispatcher, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return &Handler{dispatcher: dispatcher, maxBytes: maxBytes}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			serverError(w, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		serverError(w, fmt.Errorf("read request body: %w", err))
		return
	}

	call, err := soap.Parse(raw)
	if err != nil {
		serverError(w, err)
		return
	}

	log.Debug().Str("method", call.Method).Msg("webconnector.Handler: call received")

	result, err := h.dispatcher.Handle(r.Context(), call)
	if err != nil {
		serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", soap.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(soap.Wrap(call.Method, result)); err != nil {
		log.Warn().Err(err).Str("method", call.Method).Msg("webconnector.Handler: write response failed")
	}
}

// serverError answers with the plain-text 500 the Web Connector shows in its
// log window.
func serverError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("webconnector.Handler: request failed")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintf(w, "Server Error: %v", err)
}
