// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"kos_service/internal/app"
	"kos_service/internal/domain"
)

type Handlers struct {
	Cmd *app.CommandService
	Q   *app.QueryService
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api/v1/kos", func(r chi.Router) {
		r.Get("/", h.list)
		r.With(RequireCapability(domain.CapabilityOwner)).Post("/", h.create)
		r.With(RequireCapability(domain.CapabilityOwner)).Get("/my", h.listMine)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.With(RequireCapability(domain.CapabilityOwner)).Patch("/", h.update)
			r.With(RequireCapability(domain.CapabilityOwner)).Delete("/", h.delete)
			r.With(RequireCapability(domain.CapabilityInternal)).Post("/occupancy", h.adjustOccupancy)
		})
	})
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in domain.KosInput
	if !decodeBody(w, r, &in) {
		return
	}
	k, err := h.Cmd.Create(r.Context(), in, owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Kos created successfully", k)
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if strings.TrimSpace(keyword) == "" {
		ks, err := h.Q.FindAll(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, "Kos list fetched successfully", ks)
		return
	}
	ks, err := h.Q.Search(r.Context(), keyword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Kos search results fetched successfully", ks)
}

func (h *Handlers) listMine(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	ks, err := h.Q.FindByOwner(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Owner's Kos list fetched successfully", ks)
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := kosID(w, r)
	if !ok {
		return
	}
	k, err := h.Q.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Kos details fetched successfully", k)
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := kosID(w, r)
	if !ok {
		return
	}
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in domain.KosInput
	if !decodeBody(w, r, &in) {
		return
	}
	k, err := h.Cmd.Update(r.Context(), id, in, owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Kos updated successfully", k)
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := kosID(w, r)
	if !ok {
		return
	}
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := h.Cmd.Delete(r.Context(), id, owner); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type occupancyRequest struct {
	Delta int `json:"delta"`
}

func (h *Handlers) adjustOccupancy(w http.ResponseWriter, r *http.Request) {
	id, ok := kosID(w, r)
	if !ok {
		return
	}
	var req occupancyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	k, err := h.Cmd.AdjustOccupancy(r.Context(), id, req.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Kos occupancy updated successfully", k)
}

// kosID parses the {id} path parameter; malformed ids answer 400.
func kosID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, "Invalid Kos id format.", nil)
		return "", false
	}
	return id.String(), true
}

func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := userID(r)
	switch {
	case errors.Is(err, errInvalidIdentity):
		writeJSON(w, http.StatusUnauthorized, "Invalid user identifier format in authentication token.", nil)
		return "", false
	case err != nil:
		writeError(w, r, err)
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, "Malformed request body.", nil)
		return false
	}
	return true
}
