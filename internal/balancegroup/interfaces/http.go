package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"balancegrid/internal/audit"
	"balancegrid/internal/auth"
	"balancegrid/internal/balancegroup/application"
	balancegroup "balancegrid/internal/balancegroup/domain"
	"balancegrid/internal/validation"
)

// GroupHandler handles balance group APIs under /api/v1/balance-groups.
type GroupHandler struct {
	service     *application.Service
	auditLogger audit.Logger
}

// NewGroupHandler constructs a handler.
func NewGroupHandler(service *application.Service, auditLogger audit.Logger) (*GroupHandler, error) {
	if service == nil {
		return nil, errors.New("balance group handler: nil service")
	}
	return &GroupHandler{service: service, auditLogger: auditLogger}, nil
}

type groupResponse struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	Name           string    `json:"name"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Status         string    `json:"status"`
	SettlementRule string    `json:"settlementRule,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toGroupResponse(group *balancegroup.Group) groupResponse {
	return groupResponse{
		ID:             group.ID,
		TenantID:       group.TenantID,
		Name:           group.Name,
		StartTime:      group.StartTime,
		EndTime:        group.EndTime,
		Status:         group.Status,
		SettlementRule: group.SettlementRule,
		CreatedAt:      group.CreatedAt,
		UpdatedAt:      group.UpdatedAt,
	}
}

// ServeHTTP routes balance group requests.
func (h *GroupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/balance-groups" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/balance-groups/"); ok && rest != "" {
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *GroupHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		Name           string    `json:"name"`
		StartTime      time.Time `json:"startTime"`
		EndTime        time.Time `json:"endTime"`
		SettlementRule string    `json:"settlementRule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	group, err := h.service.Create(r.Context(), req.Name, tenantID, req.StartTime, req.EndTime, req.SettlementRule)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toGroupResponse(group))
	h.logAudit(r, group.ID, "balance-group.create")
}

func (h *GroupHandler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	groups, err := h.service.ListByTenant(r.Context(), tenantID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	responses := make([]groupResponse, 0, len(groups))
	for i := range groups {
		responses = append(responses, toGroupResponse(&groups[i]))
	}
	respondJSON(w, http.StatusOK, responses)
}

func (h *GroupHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, action, _ := strings.Cut(rest, "/")

	switch {
	case action == "" && r.Method == http.MethodGet:
		group, err := h.service.FindByID(r.Context(), id, tenantID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toGroupResponse(group))
	case action == "" && r.Method == http.MethodPut:
		var req struct {
			Name           string `json:"name"`
			SettlementRule string `json:"settlementRule"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		group, err := h.service.Update(r.Context(), id, tenantID, req.Name, req.SettlementRule)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toGroupResponse(group))
		h.logAudit(r, id, "balance-group.update")
	case action == "final" && r.Method == http.MethodPost:
		group, err := h.service.SetFinal(r.Context(), id, tenantID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toGroupResponse(group))
		h.logAudit(r, id, "balance-group.set-final")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *GroupHandler) logAudit(r *http.Request, groupID, action string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     auth.TenantIDFromContext(r.Context()),
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "balance-group",
		ResourceID:   groupID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, balancegroup.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, balancegroup.ErrAlreadyFinal),
		errors.Is(err, validation.ErrInvalidTimeframe),
		errors.Is(err, validation.ErrInvalidAlignment),
		errors.Is(err, validation.ErrInvalidSettlementRule),
		errors.Is(err, validation.ErrInvalidTenantReference):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
