package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/restopay/terminalflow/internal/flow"
	"github.com/restopay/terminalflow/internal/payment"
	"github.com/restopay/terminalflow/internal/provider"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := APIResponse{
		Success: status >= 200 && status < 300,
	}

	if response.Success {
		response.Data = data
	} else {
		if apiErr, ok := data.(*APIError); ok {
			response.Error = apiErr
		}
	}

	_ = json.NewEncoder(w).Encode(response)
}

func respondWithError(w http.ResponseWriter, err error) {
	code := "INTERNAL_ERROR"
	message := err.Error()
	status := http.StatusInternalServerError

	var actionErr *flow.InvalidActionError
	var attemptErr *payment.AttemptError
	var validationErrs validator.ValidationErrors
	var provErr *provider.Error

	switch {
	case errors.Is(err, flow.ErrFlowNotFound):
		code = "FLOW_NOT_FOUND"
		status = http.StatusNotFound

	case errors.Is(err, flow.ErrFlowActive):
		code = "FLOW_ACTIVE"
		status = http.StatusConflict

	case errors.Is(err, flow.ErrUnknownTerminal):
		code = "UNKNOWN_TERMINAL"
		status = http.StatusBadRequest

	case errors.As(err, &actionErr):
		code = "INVALID_ACTION"
		status = http.StatusConflict

	case errors.As(err, &validationErrs):
		code = "VALIDATION_ERROR"
		status = http.StatusBadRequest

	case errors.As(err, &attemptErr):
		code = string(attemptErr.Kind)
		message = attemptErr.Message
		status = http.StatusBadGateway
		if attemptErr.Kind == payment.KindConfiguration {
			status = http.StatusInternalServerError
		}

	case errors.As(err, &provErr):
		code = "PROVIDER_ERROR"
		status = http.StatusBadGateway
	}

	respondWithJSON(w, status, &APIError{
		Code:    code,
		Message: message,
	})
}
