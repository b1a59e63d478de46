package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"balancegrid/internal/auth"
	"balancegrid/internal/validation"
)

// ValidationHandler exposes the cross-field checks as standalone
// endpoints under /api/v1/validate so clients can pre-check payloads
// before committing them.
type ValidationHandler struct {
	validator *validation.Validator
}

// NewValidationHandler constructs a handler.
func NewValidationHandler(validator *validation.Validator) (*ValidationHandler, error) {
	if validator == nil {
		return nil, errors.New("validation handler: nil validator")
	}
	return &ValidationHandler{validator: validator}, nil
}

type validationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// ServeHTTP routes validation requests.
func (h *ValidationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.URL.Path {
	case "/api/v1/validate/balance-group":
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
		h.respondResult(w, h.validator.ValidateBalanceGroup(r.Context(), validation.BalanceGroupInput{
			Name:           req.Name,
			StartTime:      req.StartTime,
			EndTime:        req.EndTime,
			SettlementRule: req.SettlementRule,
			TenantID:       tenantID,
		}))
	case "/api/v1/validate/transaction":
		var req struct {
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
		h.respondResult(w, h.validator.ValidateTransaction(r.Context(), validation.TransactionInput{
			SourceID:      req.SourceID,
			DestinationID: req.DestinationID,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			EnergyAmount:  req.EnergyAmount,
			TenantID:      tenantID,
		}))
	case "/api/v1/validate/settlement":
		var req struct {
			BalanceGroupID string    `json:"balanceGroupId"`
			TargetGroupID  string    `json:"targetGroupId"`
			EnergyAmount   float64   `json:"energyAmount"`
			IntervalStart  time.Time `json:"intervalStart"`
			IntervalEnd    time.Time `json:"intervalEnd"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		h.respondResult(w, h.validator.ValidateSettlement(r.Context(), validation.SettlementInput{
			BalanceGroupID: req.BalanceGroupID,
			TargetGroupID:  req.TargetGroupID,
			EnergyAmount:   req.EnergyAmount,
			IntervalStart:  req.IntervalStart,
			IntervalEnd:    req.IntervalEnd,
			TenantID:       tenantID,
		}))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ValidationHandler) respondResult(w http.ResponseWriter, err error) {
	result := validationResult{Valid: err == nil}
	if err != nil {
		result.Reason = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}
