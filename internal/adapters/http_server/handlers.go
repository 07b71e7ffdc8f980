// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"pms_bridge/internal/app"
	"pms_bridge/internal/domain"
)

const maxWebhookBody = 1 << 20 // PMS webhooks are small; anything bigger is junk

type Handlers struct{ Deps app.Deps }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/pms/{pms}/webhook", h.receiveWebhook)
	s.mux.Get("/v1/stays/{id}/breakfast", h.stayBreakfast)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func (h *Handlers) receiveWebhook(w http.ResponseWriter, r *http.Request) {
	vendor := chi.URLParam(r, "pms")
	adapter, ok := app.Get(vendor, h.Deps)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Unknown PMS", "no adapter registered for "+vendor)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Unreadable body", err.Error())
		return
	}

	payload, err := adapter.CleanWebhookPayload(string(body))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid payload", err.Error())
		return
	}

	result, err := adapter.HandleWebhook(r.Context(), payload)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Unknown hotel", "no hotel for PMS id "+payload.HotelID)
			return
		}
		log.Error().Err(err).Str("pms", adapter.Name()).Msg("webhook handling failed")
		writeProblem(w, http.StatusInternalServerError, "Webhook failed", "")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) stayBreakfast(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}

	stay, err := h.Deps.Repo.GetStay(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "stay not found")
		return
	}

	hotel, err := h.Deps.Repo.GetHotel(r.Context(), stay.HotelID)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found for stay")
		return
	}
	adapter, ok := app.Get(hotel.PMS, h.Deps)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Unknown PMS", "no adapter registered for "+hotel.PMS)
		return
	}

	status := adapter.StayHasBreakfast(r.Context(), stay)
	writeJSON(w, http.StatusOK, map[string]any{
		"stay_id":   stay.ID,
		"breakfast": status.String(),
	})
}
