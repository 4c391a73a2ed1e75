package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/usecase/recovery"
)

// AdminHandler is the operator surface: failure dashboards, the
// dead-letter queue, manual retry/fail, and campaign status controls.
type AdminHandler struct {
	engine         recovery.Engine
	orderRepo      domain.OrderRepository
	assignmentRepo domain.AssignmentRepository
	gateway        domain.AdPlatformGateway
	router         chi.Router
}

func NewAdminHandler(
	engine recovery.Engine,
	orderRepo domain.OrderRepository,
	assignmentRepo domain.AssignmentRepository,
	gateway domain.AdPlatformGateway,
) *AdminHandler {
	h := &AdminHandler{
		engine:         engine,
		orderRepo:      orderRepo,
		assignmentRepo: assignmentRepo,
		gateway:        gateway,
	}

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/recovery/stats", h.handleRecoveryStats)
		r.Get("/orders/dead-lettered", h.handleDeadLetteredOrders)
		r.Get("/orders/{id}", h.handleGetOrder)
		r.Get("/orders/{id}/assignments", h.handleOrderAssignments)
		r.Post("/orders/{id}/retry", h.handleManualRetry)
		r.Post("/orders/{id}/fail", h.handleManualFail)
		r.Post("/campaigns/{id}/pause", h.handleCampaignAction("pause"))
		r.Post("/campaigns/{id}/resume", h.handleCampaignAction("resume"))
		r.Post("/campaigns/{id}/stop", h.handleCampaignAction("stop"))
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *AdminHandler) Router() http.Handler {
	return h.router
}

func (h *AdminHandler) handleRecoveryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		slog.Error("failed to build recovery stats", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) handleDeadLetteredOrders(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 50)
	if page < 1 || limit < 1 || limit > 500 {
		http.Error(w, "invalid pagination", http.StatusBadRequest)
		return
	}

	orders, total, err := h.orderRepo.FindDeadLetteredOrders(page, limit)
	if err != nil {
		slog.Error("failed to list dead-lettered orders", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

func (h *AdminHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderRepo.GetOrderByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to load order", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *AdminHandler) handleOrderAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.assignmentRepo.GetByOrderID(chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("failed to load assignments", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

type manualRetryRequest struct {
	Operator        string `json:"operator"`
	Notes           string `json:"notes"`
	ResetRetryCount bool   `json:"reset_retry_count"`
}

func (h *AdminHandler) handleManualRetry(w http.ResponseWriter, r *http.Request) {
	var req manualRetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Operator == "" {
		http.Error(w, "operator is required", http.StatusBadRequest)
		return
	}

	if err := h.engine.ManualRetry(r.Context(), chi.URLParam(r, "id"), req.Operator, req.Notes, req.ResetRetryCount); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "retry scheduled"})
}

type manualFailRequest struct {
	Operator string `json:"operator"`
	Reason   string `json:"reason"`
}

func (h *AdminHandler) handleManualFail(w http.ResponseWriter, r *http.Request) {
	var req manualFailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Operator == "" || req.Reason == "" {
		http.Error(w, "operator and reason are required", http.StatusBadRequest)
		return
	}

	if err := h.engine.ManualFail(r.Context(), chi.URLParam(r, "id"), req.Operator, req.Reason); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		slog.Error("manual fail error", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "failed permanently"})
}

// handleCampaignAction accepts the request and fires the platform call in
// the background; the platform's v2 API gives nothing to wait on.
func (h *AdminHandler) handleCampaignAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaignID := chi.URLParam(r, "id")
		switch action {
		case "pause":
			h.gateway.PauseCampaign(campaignID)
		case "resume":
			h.gateway.ResumeCampaign(campaignID)
		case "stop":
			h.gateway.StopCampaign(campaignID)
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"campaign_id": campaignID,
			"action":      action,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err.Error())
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}
