package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-repair-shop/internal/repairs"
)

const (
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidStatus      = "invalid_status"
	codeInvalidTransition  = "invalid_status_transition"
	codeNoAvailableOrders  = "no_available_orders"
	codeInvalidOrderData   = "invalid_order_data"
	codeOrderNotFound      = "repair_order_not_found"
	codePartNotFound       = "part_not_found"
	codeInsufficientStock  = "insufficient_stock"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeDomainError maps domain errors to HTTP responses. Unknown errors are
// reported as internal without leaking their text.
func writeDomainError(w http.ResponseWriter, err error) {
	var invalid *repairs.InvalidOrderDataError
	switch {
	case errors.Is(err, repairs.ErrNoAvailableOrders):
		writeError(w, http.StatusNotFound, codeNoAvailableOrders, err.Error())
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, codeInvalidOrderData, err.Error())
	case errors.Is(err, repairs.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, repairs.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
	case errors.Is(err, repairs.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, repairs.ErrInsufficientStock):
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error())
	case errors.Is(err, repairs.ErrPartNotFound):
		var missing *repairs.MissingPartError
		if errors.As(err, &missing) {
			// a dangling line item is a data fault, not a missing resource
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		writeError(w, http.StatusNotFound, codePartNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
