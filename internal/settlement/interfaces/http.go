package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"balancegrid/internal/audit"
	"balancegrid/internal/auth"
	balancegroup "balancegrid/internal/balancegroup/domain"
	"balancegrid/internal/interval"
	"balancegrid/internal/observability/metrics"
	"balancegrid/internal/settlement/application"
	settlement "balancegrid/internal/settlement/domain"
	transaction "balancegrid/internal/transaction/domain"
	"balancegrid/internal/validation"
)

// SettlementHandler handles settlement APIs under /api/v1/settlements.
type SettlementHandler struct {
	calculator  *application.CalculatorService
	auditLogger audit.Logger
}

// NewSettlementHandler constructs a handler.
func NewSettlementHandler(calculator *application.CalculatorService, auditLogger audit.Logger) (*SettlementHandler, error) {
	if calculator == nil {
		return nil, errors.New("settlement handler: nil calculator")
	}
	return &SettlementHandler{calculator: calculator, auditLogger: auditLogger}, nil
}

type entryResponse struct {
	ID             string    `json:"id"`
	TransactionID  string    `json:"transactionId"`
	BalanceGroupID string    `json:"balanceGroupId"`
	TargetGroupID  string    `json:"targetGroupId"`
	TenantID       string    `json:"tenantId"`
	EnergyAmount   float64   `json:"energyAmount"`
	Status         string    `json:"status"`
	IntervalStart  time.Time `json:"intervalStart"`
	IntervalEnd    time.Time `json:"intervalEnd"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toEntryResponses(entries []settlement.Entry) []entryResponse {
	responses := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, entryResponse{
			ID:             entry.ID,
			TransactionID:  entry.TransactionID,
			BalanceGroupID: entry.BalanceGroupID,
			TargetGroupID:  entry.TargetGroupID,
			TenantID:       entry.TenantID,
			EnergyAmount:   entry.EnergyAmount,
			Status:         entry.Status,
			IntervalStart:  entry.IntervalStart,
			IntervalEnd:    entry.IntervalEnd,
			CreatedAt:      entry.CreatedAt,
			UpdatedAt:      entry.UpdatedAt,
		})
	}
	return responses
}

// ServeHTTP routes settlement requests.
func (h *SettlementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch {
	case r.URL.Path == "/api/v1/settlements" && r.Method == http.MethodGet:
		h.handleFindByTransaction(w, r, tenantID)
	case r.URL.Path == "/api/v1/settlements/calculate" && r.Method == http.MethodPost:
		h.handleCalculate(w, r, tenantID)
	case r.URL.Path == "/api/v1/settlements/balance" && r.Method == http.MethodGet:
		h.handleBalance(w, r, tenantID)
	case r.URL.Path == "/api/v1/settlements/balance/export" && r.Method == http.MethodGet:
		h.handleExport(w, r, tenantID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *SettlementHandler) handleFindByTransaction(w http.ResponseWriter, r *http.Request, tenantID string) {
	transactionID := r.URL.Query().Get("transactionId")
	if transactionID == "" {
		http.Error(w, "transactionId is required", http.StatusBadRequest)
		return
	}
	entries, err := h.calculator.FindByTransaction(r.Context(), transactionID, tenantID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toEntryResponses(entries))
}

func (h *SettlementHandler) handleCalculate(w http.ResponseWriter, r *http.Request, tenantID string) {
	var req struct {
		TransactionID string `json:"transactionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.TransactionID == "" {
		http.Error(w, "transactionId is required", http.StatusBadRequest)
		return
	}
	entries, err := h.calculator.Calculate(r.Context(), req.TransactionID, tenantID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toEntryResponses(entries))
	h.logAudit(r, req.TransactionID, "settlement.calculate")
}

func (h *SettlementHandler) handleBalance(w http.ResponseWriter, r *http.Request, tenantID string) {
	report, ok := h.queryBalance(w, r, tenantID)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *SettlementHandler) handleExport(w http.ResponseWriter, r *http.Request, tenantID string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}
	if format != "pdf" && format != "xlsx" {
		http.Error(w, "format must be pdf or xlsx", http.StatusBadRequest)
		return
	}

	report, ok := h.queryBalance(w, r, tenantID)
	if !ok {
		return
	}

	start := time.Now()
	result := metrics.ResultSuccess
	var (
		body        []byte
		contentType string
		filename    string
		err         error
	)
	switch format {
	case "pdf":
		body, err = BuildBalancePDF(report)
		contentType = "application/pdf"
		filename = "balance-report.pdf"
	case "xlsx":
		body, err = BuildBalanceXLSX(report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "balance-report.xlsx"
	}
	if err != nil {
		result = metrics.ResultError
		metrics.ObserveBalanceExport(format, result, time.Since(start))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	metrics.ObserveBalanceExport(format, result, time.Since(start))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	h.logAudit(r, report.BalanceGroupID, "settlement.export."+format)
}

func (h *SettlementHandler) queryBalance(w http.ResponseWriter, r *http.Request, tenantID string) (*settlement.BalanceReport, bool) {
	query := r.URL.Query()
	balanceGroupID := query.Get("balanceGroupId")
	if balanceGroupID == "" {
		http.Error(w, "balanceGroupId is required", http.StatusBadRequest)
		return nil, false
	}
	startTime, err := time.Parse(time.RFC3339, query.Get("from"))
	if err != nil {
		http.Error(w, "invalid from timestamp", http.StatusBadRequest)
		return nil, false
	}
	endTime, err := time.Parse(time.RFC3339, query.Get("to"))
	if err != nil {
		http.Error(w, "invalid to timestamp", http.StatusBadRequest)
		return nil, false
	}
	report, err := h.calculator.Balance(r.Context(), balanceGroupID, startTime, endTime, tenantID)
	if err != nil {
		respondServiceError(w, err)
		return nil, false
	}
	return report, true
}

func (h *SettlementHandler) logAudit(r *http.Request, resourceID, action string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     auth.TenantIDFromContext(r.Context()),
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "settlement",
		ResourceID:   resourceID,
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
	case errors.Is(err, settlement.ErrInvalidTenant), errors.Is(err, transaction.ErrInvalidTenant):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, transaction.ErrNotFound), errors.Is(err, balancegroup.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, settlement.ErrTransactionFinalized),
		errors.Is(err, validation.ErrInvalidTimeframe),
		errors.Is(err, validation.ErrInvalidAlignment),
		errors.Is(err, interval.ErrInvalidRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
