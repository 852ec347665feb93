// Package httpapi is the thin stdlib net/http adapter over storage.Facade
// (spec.md §6 HTTP surface). Routing, middleware, TLS, and server lifecycle
// beyond ListenAndServe are external contracts (spec.md §1): this package
// is deliberately minimal, translating four verbs into Facade calls and
// back into status codes.
package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/hawkingrei/greenhouse/cmn/cos"
	"github.com/hawkingrei/greenhouse/storage"
)

// Handler dispatches PUT/GET/HEAD/DELETE against a Facade.
type Handler struct {
	facade *storage.Facade
}

func NewHandler(facade *storage.Facade) *Handler {
	return &Handler{facade: facade}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	if key == "" {
		http.Error(w, "empty key", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.put(w, r, key)
	case http.MethodGet:
		h.get(w, key)
	case http.MethodHead:
		h.head(w, key)
	case http.MethodDelete:
		h.delete(w, key)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// PUT /<path...> body=blob -> 200 ok, 400 error (spec §6).
func (h *Handler) put(w http.ResponseWriter, r *http.Request, key string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if err := h.facade.Write(key, body); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GET /<path...> -> 200 + body, 404 miss, 503 transient (spec §6).
func (h *Handler) get(w http.ResponseWriter, key string) {
	data, err := h.facade.Read(key)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HEAD /<path...> -> 200 if present, 404 else (spec §6).
func (h *Handler) head(w http.ResponseWriter, key string) {
	if h.facade.Head(key) {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

// DELETE /<path...> -> 200 ok, 400 error (spec §6).
func (h *Handler) delete(w http.ResponseWriter, key string) {
	if err := h.facade.Delete(key); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case cos.IsErrNotFound(err):
		http.Error(w, "not found", http.StatusNotFound)
	case cos.IsErrTransient(err):
		http.Error(w, "transient", http.StatusServiceUnavailable)
	case errors.Is(err, cos.ErrCorrupted):
		http.Error(w, "corrupted", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusBadRequest)
	}
}
