package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coverlinehq/coverline/internal/agents"
	"github.com/coverlinehq/coverline/internal/booking"
	"github.com/coverlinehq/coverline/pkg/logging"
)

// AdminBookingHandler serves the agent booking-settings API.
type AdminBookingHandler struct {
	agents agents.Repository
	logger *logging.Logger
}

func NewAdminBookingHandler(repo agents.Repository, logger *logging.Logger) *AdminBookingHandler {
	if repo == nil {
		panic("handlers: agents repository is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminBookingHandler{agents: repo, logger: logger}
}

// GetSettings returns the agent's booking settings.
func (h *AdminBookingHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	agent, err := h.agents.GetByID(r.Context(), agentID)
	if err != nil {
		if errors.Is(err, agents.ErrAgentNotFound) {
			http.Error(w, "agent not found", http.StatusNotFound)
			return
		}
		h.logger.Error("load agent failed", "error", err, "agent_id", agentID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, agent.Booking)
}

// PutSettings validates and replaces the agent's booking settings.
func (h *AdminBookingHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	var settings booking.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := validateSettings(&settings); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.agents.UpdateBookingSettings(r.Context(), agentID, &settings); err != nil {
		if errors.Is(err, agents.ErrAgentNotFound) {
			http.Error(w, "agent not found", http.StatusNotFound)
			return
		}
		h.logger.Error("update booking settings failed", "error", err, "agent_id", agentID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("booking settings updated", "agent_id", agentID)
	writeJSON(w, http.StatusOK, settings)
}

func validateSettings(s *booking.Settings) error {
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return errors.New("unknown timezone")
		}
	}
	for day := range s.WorkingHours {
		if !validWeekday(day) {
			return errors.New("working_hours keys must be lowercase weekday names")
		}
	}
	for _, d := range []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	} {
		if _, ok := s.WorkingHours[strings.ToLower(d.String())]; !ok {
			continue
		}
		if _, _, ok := s.WindowFor(d); !ok {
			return errors.New("working_hours windows must be \"15:04\" clock strings with end after start")
		}
	}
	return nil
}

func validWeekday(day string) bool {
	switch day {
	case "sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday":
		return true
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
