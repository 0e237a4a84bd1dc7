// pkg/gateway/handlers.go
package gateway

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-rpc/pkg/codec"
	"github.com/joeydtaylor/steeze-rpc/pkg/sample"
	"github.com/joeydtaylor/steeze-rpc/pkg/transport/httpx"
)

const maxBody = 1 << 20

// sampleBody is the create/update payload; the id of an update comes
// from the path.
type sampleBody struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	Count       int    `json:"count"`
}

type handlers struct {
	api     SampleAPI
	timeout time.Duration
	log     *zap.Logger
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	var body sampleBody
	if !decodeBody(w, r, &body) {
		return
	}
	ev := sample.WantsCreateSampleEvent{Name: body.Name, Description: body.Description, Type: body.Type, Count: body.Count}
	if err := ev.Validate(); err != nil {
		writeError(w, h.log, err)
		return
	}
	res, err := h.api.Create(r.Context(), ev, h.timeout)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res.SampleData)
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	var body sampleBody
	if !decodeBody(w, r, &body) {
		return
	}
	ev := sample.WantsUpdateSampleEvent{SampleData: sample.SampleData{
		ID:          httpx.URLParam(r, "id"),
		Name:        body.Name,
		Description: body.Description,
		Type:        body.Type,
		Count:       body.Count,
	}}
	if err := ev.Validate(); err != nil {
		writeError(w, h.log, err)
		return
	}
	res, err := h.api.Update(r.Context(), ev, h.timeout)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if !res.Found {
		writeError(w, h.log, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res.SampleData)
}

func (h *handlers) delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.api.Delete(r.Context(), sample.WantsDeleteSampleEvent{ID: httpx.URLParam(r, "id")}, h.timeout)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if !res.Found {
		writeError(w, h.log, errNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	res, err := h.api.Get(r.Context(), sample.WantsGetSampleEvent{ID: httpx.URLParam(r, "id")}, h.timeout)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if !res.Found {
		writeError(w, h.log, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res.SampleData)
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err1 := intParam(q.Get("page"))
	size, err2 := intParam(q.Get("pageSize"))
	if err := errors.Join(err1, err2); err != nil {
		writeError(w, h.log, &sample.ValidationError{Fields: map[string]string{"page": "page and pageSize must be integers"}})
		return
	}
	page, size = sample.NormalizePage(page, size)
	res, err := h.api.GetAll(r.Context(), sample.WantsGetAllSampleEvent{
		Page:        page,
		PageSize:    size,
		SearchField: q.Get("searchField"),
		SearchTerm:  q.Get("searchTerm"),
	}, h.timeout)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err == nil {
		err = codec.JSONStrict.Unmarshal(b, v)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
