package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"balancegrid/internal/audit"
	"balancegrid/internal/auth"
	"balancegrid/internal/tenant/application"
	tenant "balancegrid/internal/tenant/domain"
)

// TenantHandler handles tenant administration under /api/v1/tenants.
// The route is admin-only via the auth policy.
type TenantHandler struct {
	service     *application.Service
	auditLogger audit.Logger
}

// NewTenantHandler constructs a handler.
func NewTenantHandler(service *application.Service, auditLogger audit.Logger) (*TenantHandler, error) {
	if service == nil {
		return nil, errors.New("tenant handler: nil service")
	}
	return &TenantHandler{service: service, auditLogger: auditLogger}, nil
}

type tenantResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Identifier string         `json:"identifier"`
	Status     string         `json:"status"`
	Settings   map[string]any `json:"settings,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func toTenantResponse(t *tenant.Tenant) tenantResponse {
	return tenantResponse{
		ID:         t.ID,
		Name:       t.Name,
		Identifier: t.Identifier,
		Status:     t.Status,
		Settings:   t.Settings,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// ServeHTTP routes tenant requests.
func (h *TenantHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/tenants" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleCreate(w, r)
		return
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/tenants/"); ok && rest != "" {
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *TenantHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string         `json:"name"`
		Identifier string         `json:"identifier"`
		Settings   map[string]any `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	t, err := h.service.Create(r.Context(), req.Name, req.Identifier, req.Settings)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTenantResponse(t))
	h.logAudit(r, t.ID, "tenant.create")
}

func (h *TenantHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	id, action, _ := strings.Cut(rest, "/")

	switch {
	case action == "" && r.Method == http.MethodGet:
		t, err := h.service.Get(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toTenantResponse(t))
	case action == "" && r.Method == http.MethodPut:
		var req struct {
			Name     string         `json:"name"`
			Settings map[string]any `json:"settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		t, err := h.service.Update(r.Context(), id, req.Name, req.Settings)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toTenantResponse(t))
		h.logAudit(r, id, "tenant.update")
	case action == "status" && r.Method == http.MethodPost:
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		t, err := h.service.SetStatus(r.Context(), id, req.Status)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toTenantResponse(t))
		h.logAudit(r, id, "tenant.set-status")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *TenantHandler) logAudit(r *http.Request, tenantID, action string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     auth.TenantIDFromContext(r.Context()),
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "tenant",
		ResourceID:   tenantID,
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
	case errors.Is(err, tenant.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, tenant.ErrInvalidStatus), errors.Is(err, tenant.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
