package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/yooncheol/pricewatch/internal/domain"
	"github.com/yooncheol/pricewatch/internal/usecase"
	"go.uber.org/zap"
)

// Handlers exposes the alert inbox, condition management and the monitoring
// trigger over JSON. The caller identifies the acting user with the
// X-User-ID header; authentication proper is an upstream concern.
type Handlers struct {
	conditions *usecase.ConditionUsecase
	inbox      *usecase.InboxUsecase
	monitor    *usecase.Monitor
	logger     *zap.Logger
}

func NewHandlers(conditions *usecase.ConditionUsecase, inbox *usecase.InboxUsecase, monitor *usecase.Monitor, logger *zap.Logger) *Handlers {
	return &Handlers{conditions: conditions, inbox: inbox, monitor: monitor, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handlers) writeUsecaseError(w http.ResponseWriter, err error) {
	switch err {
	case usecase.ErrAlertNotFound, usecase.ErrConditionNotFound, usecase.ErrWatchEntryNotFound:
		h.writeError(w, http.StatusNotFound, err)
	case usecase.ErrNotConditionOwner:
		h.writeError(w, http.StatusForbidden, err)
	case usecase.ErrConditionExists:
		h.writeError(w, http.StatusConflict, err)
	case usecase.ErrInvalidThreshold, usecase.ErrUnknownConditionType, usecase.ErrConditionInactive:
		h.writeError(w, http.StatusBadRequest, err)
	default:
		h.logger.Error("request failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, err)
	}
}

func userID(r *http.Request) (uint, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		raw = r.URL.Query().Get("userId")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func pathID(r *http.Request) (uint, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *Handlers) requireUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := userID(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID"})
	}
	return id, ok
}

// --- alerts ---

func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	alerts, err := h.inbox.List(r.Context(), uid)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapAlerts(alerts))
}

func (h *Handlers) ListUnreadAlerts(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	alerts, err := h.inbox.ListUnread(r.Context(), uid)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapAlerts(alerts))
}

func (h *Handlers) CountUnreadAlerts(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	count, err := h.inbox.CountUnread(r.Context(), uid)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func (h *Handlers) ListRecentAlerts(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	alerts, err := h.inbox.ListRecent(r.Context(), uid)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapAlerts(alerts))
}

func (h *Handlers) ListHighPriorityAlerts(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	alerts, err := h.inbox.ListHighPriority(r.Context(), uid)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapAlerts(alerts))
}

func (h *Handlers) GetAlert(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid alert id"})
		return
	}
	alert, err := h.inbox.Get(r.Context(), uid, id)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapAlert(*alert))
}

func (h *Handlers) MarkAlertRead(w http.ResponseWriter, r *http.Request) {
	h.alertAction(w, r, h.inbox.MarkRead)
}

func (h *Handlers) MarkAlertUnread(w http.ResponseWriter, r *http.Request) {
	h.alertAction(w, r, h.inbox.MarkUnread)
}

func (h *Handlers) DismissAlert(w http.ResponseWriter, r *http.Request) {
	h.alertAction(w, r, h.inbox.Dismiss)
}

func (h *Handlers) alertAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, userID, alertID uint) error) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid alert id"})
		return
	}
	if err := action(r.Context(), uid, id); err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) MarkAllAlertsRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := h.inbox.MarkAllRead(r.Context(), uid); err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AlertStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	stats, err := h.inbox.StatsByUser(r.Context(), uid)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// --- conditions ---

type createConditionRequest struct {
	SymbolCode  string `json:"symbolCode"`
	Type        string `json:"type"`
	Threshold   string `json:"threshold"`
	Description string `json:"description"`
}

type updateConditionRequest struct {
	Threshold   *string `json:"threshold"`
	Description *string `json:"description"`
}

func (h *Handlers) CreateCondition(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req createConditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	threshold, err := decimal.NewFromString(req.Threshold)
	if err != nil {
		h.writeUsecaseError(w, usecase.ErrInvalidThreshold)
		return
	}
	condition, err := h.conditions.Create(r.Context(), uid, req.SymbolCode, domain.ConditionType(req.Type), threshold, req.Description)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, mapCondition(*condition))
}

func (h *Handlers) ListConditions(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	conditions, err := h.conditions.ListByUser(r.Context(), uid)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapConditions(conditions))
}

func (h *Handlers) GetCondition(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid condition id"})
		return
	}
	condition, err := h.conditions.Get(r.Context(), uid, id)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapCondition(*condition))
}

func (h *Handlers) UpdateCondition(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid condition id"})
		return
	}
	var req updateConditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	var threshold *decimal.Decimal
	if req.Threshold != nil {
		parsed, err := decimal.NewFromString(*req.Threshold)
		if err != nil {
			h.writeUsecaseError(w, usecase.ErrInvalidThreshold)
			return
		}
		threshold = &parsed
	}
	condition, err := h.conditions.Update(r.Context(), uid, id, threshold, req.Description)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapCondition(*condition))
}

func (h *Handlers) DeleteCondition(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid condition id"})
		return
	}
	if err := h.conditions.Deactivate(r.Context(), uid, id); err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ToggleCondition(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid condition id"})
		return
	}
	active, err := h.conditions.Toggle(r.Context(), uid, id)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (h *Handlers) ConditionStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	stats, err := h.conditions.StatsByUser(r.Context(), uid)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// --- watch entries ---

type notificationsRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handlers) SetWatchEntryNotifications(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	symbol := mux.Vars(r)["symbol"]
	var req notificationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	affected, err := h.conditions.SetWatchEntryNotifications(r.Context(), uid, symbol, req.Enabled)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"conditions": affected})
}

func (h *Handlers) ListWatchEntryConditions(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	symbol := mux.Vars(r)["symbol"]
	conditions, err := h.conditions.ListForWatchEntry(r.Context(), uid, symbol)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapConditions(conditions))
}

// --- monitoring ---

func (h *Handlers) RunMonitoring(w http.ResponseWriter, r *http.Request) {
	fired, err := h.monitor.RunOnce(r.Context())
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"fired": fired})
}

func (h *Handlers) RunMonitoringForSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	fired, err := h.monitor.RunSymbol(r.Context(), symbol)
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"fired": fired})
}

func (h *Handlers) MonitoringStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.monitor.Stats(r.Context())
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}
