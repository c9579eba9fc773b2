package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"currency-converter-service/internal/domain/model"
	"currency-converter-service/internal/domain/ports"
	"currency-converter-service/internal/metrics"
	"currency-converter-service/internal/service"
	"currency-converter-service/pkg/logger"

	"github.com/shopspring/decimal"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type Handler struct {
	service ports.ConverterService
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewHandler(service ports.ConverterService, log *logger.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		log:     log,
		metrics: metrics,
	}
}

func (h *Handler) ConvertHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.ConversionRequestsTotal.Inc()

	from := model.NormalizeCurrency(r.URL.Query().Get("from"))
	to := model.NormalizeCurrency(r.URL.Query().Get("to"))

	if from == "" || to == "" {
		h.sendErrorResponse(w, http.StatusBadRequest, "missing required parameters: from and to")
		return
	}

	amount := decimal.NewFromInt(1)
	if amountStr := r.URL.Query().Get("amount"); amountStr != "" {
		var err error
		amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			h.sendErrorResponse(w, http.StatusBadRequest, "invalid amount parameter")
			return
		}
	}

	request := model.ConversionRequest{
		From:   from,
		To:     to,
		Amount: amount,
	}

	ctx := r.Context()
	result, err := h.service.Convert(ctx, request)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.metrics.ConversionsByVia.WithLabelValues(string(result.Via)).Inc()
	h.sendJSON(w, http.StatusOK, result)
}

// sendJSON writes the payload directly, without the envelope; the convert
// response shape is part of the public contract.
func (h *Handler) sendJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := Response{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode error response", "error", err)
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	errorMessage := "internal server error"

	switch {
	case errors.Is(err, service.ErrUnsupportedPair),
		errors.Is(err, service.ErrUnsupportedCrypto),
		errors.Is(err, service.ErrUnsupportedTargetCrypto):
		statusCode = http.StatusBadRequest
		errorMessage = err.Error()
	case errors.Is(err, service.ErrUpstreamUnavailable):
		statusCode = http.StatusServiceUnavailable
		errorMessage = service.ErrUpstreamUnavailable.Error()
	}

	h.log.Error("Service error", "error", err, "status_code", statusCode)
	h.sendErrorResponse(w, statusCode, errorMessage)
}
