package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tiendaflex/collections-engine/internal/domain"
	"github.com/tiendaflex/collections-engine/internal/query"
	"github.com/tiendaflex/collections-engine/internal/service"
	customError "github.com/tiendaflex/collections-engine/pkg/errors"
	"github.com/tiendaflex/collections-engine/pkg/response"
)

type CollectionsHandler struct {
	service   *service.CollectionsService
	validator *validator.Validate
}

func NewCollectionsHandler(service *service.CollectionsService) *CollectionsHandler {
	return &CollectionsHandler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterSale handles POST /api/v1/sales
func (h *CollectionsHandler) RegisterSale(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	resp, err := h.service.RegisterSale(r.Context(), &req)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, resp)
}

// GetPlan handles GET /api/v1/sales/{saleId}/plan
func (h *CollectionsHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	saleID := mux.Vars(r)["saleId"]

	schedule, err := h.service.GetPlan(r.Context(), saleID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, domain.PlanResponse{SaleID: saleID, Schedule: schedule})
}

// RecordPayment handles POST /api/v1/payments
func (h *CollectionsHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), &req)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, payment)
}

// ProcessPayment handles POST /api/v1/payments/{paymentId}/process
func (h *CollectionsHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(mux.Vars(r)["paymentId"])
	if err != nil {
		response.BadRequest(w, "invalid payment id", err)
		return
	}

	var req domain.ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	payment, err := h.service.ProcessPayment(r.Context(), paymentID, &req)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, payment)
}

// CancelPayment handles POST /api/v1/payments/{paymentId}/cancel
func (h *CollectionsHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(mux.Vars(r)["paymentId"])
	if err != nil {
		response.BadRequest(w, "invalid payment id", err)
		return
	}

	payment, err := h.service.CancelPayment(r.Context(), paymentID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, payment)
}

// QueryPayments handles GET /api/v1/payments
func (h *CollectionsHandler) QueryPayments(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	filter := query.Filter{
		Search: params.Get("search"),
		Status: params.Get("status"),
	}
	sort := query.Sort{
		By:         params.Get("sort_by"),
		Descending: params.Get("sort_dir") == "desc",
	}

	views, err := h.service.QueryPayments(r.Context(), filter, sort)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, domain.QueryPaymentsResponse{Payments: views, Total: len(views)})
}

func writeBusinessError(w http.ResponseWriter, err error) {
	var bizErr *customError.BusinessError
	if !errors.As(err, &bizErr) {
		response.InternalServerError(w, "unexpected error", err)
		return
	}

	switch bizErr.Code {
	case customError.ErrCodeValidation, customError.ErrCodeInvalidPlan:
		response.Error(w, http.StatusBadRequest, bizErr.Message, bizErr.Err)
	case customError.ErrCodeNotFound:
		response.Error(w, http.StatusNotFound, bizErr.Message, bizErr.Err)
	case customError.ErrCodeDuplicateInstallment, customError.ErrCodeAlreadyProcessed, customError.ErrCodeSaleAlreadyExists:
		response.Error(w, http.StatusConflict, bizErr.Message, bizErr.Err)
	default:
		response.InternalServerError(w, bizErr.Message, bizErr.Err)
	}
}
