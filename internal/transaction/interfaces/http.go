package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"balancegrid/internal/audit"
	"balancegrid/internal/auth"
	balancegroup "balancegrid/internal/balancegroup/domain"
	"balancegrid/internal/interval"
	"balancegrid/internal/transaction/application"
	transaction "balancegrid/internal/transaction/domain"
	"balancegrid/internal/validation"
)

// TransactionHandler handles transaction APIs under /api/v1/transactions.
type TransactionHandler struct {
	service     *application.Service
	auditLogger audit.Logger
}

// NewTransactionHandler constructs a handler.
func NewTransactionHandler(service *application.Service, auditLogger audit.Logger) (*TransactionHandler, error) {
	if service == nil {
		return nil, errors.New("transaction handler: nil service")
	}
	return &TransactionHandler{service: service, auditLogger: auditLogger}, nil
}

type transactionResponse struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenantId"`
	Name          string    `json:"name"`
	SourceID      string    `json:"sourceId"`
	DestinationID string    `json:"destinationId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	EnergyAmount  float64   `json:"energyAmount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toTransactionResponse(t *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		TenantID:      t.TenantID,
		Name:          t.Name,
		SourceID:      t.SourceID,
		DestinationID: t.DestinationID,
		StartTime:     t.StartTime,
		EndTime:       t.EndTime,
		EnergyAmount:  t.EnergyAmount,
		Status:        t.Status,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

type intervalResponse struct {
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	EnergyAmount float64   `json:"energyAmount"`
}

// ServeHTTP routes transaction requests.
func (h *TransactionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/transactions" {
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
	if rest, ok := strings.CutPrefix(path, "/api/v1/transactions/"); ok && rest != "" {
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *TransactionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		Name          string    `json:"name"`
		SourceID      string    `json:"sourceId"`
		DestinationID string    `json:"destinationId"`
		StartTime     time.Time `json:"startTime"`
		EndTime       time.Time `json:"endTime"`
		EnergyAmount  float64   `json:"energyAmount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	t, err := h.service.Create(r.Context(), application.CreateInput{
		Name:          req.Name,
		SourceID:      req.SourceID,
		DestinationID: req.DestinationID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		EnergyAmount:  req.EnergyAmount,
		TenantID:      tenantID,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTransactionResponse(t))
	h.logAudit(r, t.ID, "transaction.create")
}

func (h *TransactionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	q := transaction.Query{
		GroupID: r.URL.Query().Get("balanceGroupId"),
		Status:  r.URL.Query().Get("status"),
	}
	var err error
	if q.WindowStart, q.WindowEnd, err = parseWindow(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	transactions, err := h.service.List(r.Context(), q, tenantID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	responses := make([]transactionResponse, 0, len(transactions))
	for i := range transactions {
		responses = append(responses, toTransactionResponse(&transactions[i]))
	}
	respondJSON(w, http.StatusOK, responses)
}

func (h *TransactionHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, action, _ := strings.Cut(rest, "/")

	switch {
	case action == "" && r.Method == http.MethodGet:
		t, err := h.service.Get(r.Context(), id, tenantID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toTransactionResponse(t))
	case action == "finalize" && r.Method == http.MethodPost:
		t, err := h.service.Finalize(r.Context(), id, tenantID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toTransactionResponse(t))
		h.logAudit(r, id, "transaction.finalize")
	case action == "intervals" && r.Method == http.MethodGet:
		slices, err := h.service.GetIntervals(r.Context(), id, tenantID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		responses := make([]intervalResponse, 0, len(slices))
		for _, slice := range slices {
			responses = append(responses, intervalResponse(slice))
		}
		respondJSON(w, http.StatusOK, responses)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *TransactionHandler) logAudit(r *http.Request, transactionID, action string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     auth.TenantIDFromContext(r.Context()),
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "transaction",
		ResourceID:   transactionID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	var start, end time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, errors.New("invalid from timestamp")
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, errors.New("invalid to timestamp")
		}
		end = parsed
	}
	return start, end, nil
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transaction.ErrNotFound), errors.Is(err, balancegroup.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, transaction.ErrInvalidTenant):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, validation.ErrInvalidTimeframe),
		errors.Is(err, validation.ErrInvalidAlignment),
		errors.Is(err, validation.ErrInvalidEnergyAmount),
		errors.Is(err, validation.ErrSameBalanceGroup),
		errors.Is(err, validation.ErrBalanceGroupFinal),
		errors.Is(err, interval.ErrInvalidRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
