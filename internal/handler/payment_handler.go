package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/internal/service"
	"github.com/moneymap/payments/pkg/logger"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	service service.PaymentService
	logger  *logger.Logger
}

func NewPaymentHandler(svc service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: svc,
		logger:  log,
	}
}

type createPaymentRequest struct {
	SourceAccount      string          `json:"sourceAccount" validate:"required"`
	DestinationAccount string          `json:"destinationAccount" validate:"required"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency" validate:"required,len=3"`
	IdempotencyKey     string          `json:"idempotencyKey"`
	Reference          string          `json:"reference"`
	Description        string          `json:"description"`
}

type updatePaymentStatusRequest struct {
	Status       string `json:"status" validate:"required"`
	Notes        string `json:"notes"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (h *PaymentHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req createPaymentRequest
	if err := c.Bind(&req); err != nil {
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed), "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed), err.Error())
	}

	payment, replayed, err := h.service.Create(ctx, service.CreatePaymentInput{
		SourceAccount:      req.SourceAccount,
		DestinationAccount: req.DestinationAccount,
		Amount:             req.Amount,
		Currency:           req.Currency,
		IdempotencyKey:     req.IdempotencyKey,
		Reference:          req.Reference,
		Description:        req.Description,
	})
	if err != nil {
		h.logger.Error(ctx, "Failed to create payment",
			"error", err,
		)
		return respondError(c, err)
	}

	if replayed {
		return respond(c, http.StatusOK, "Payment already exists for idempotency key", payment)
	}
	return respond(c, http.StatusCreated, "Payment created", payment)
}

func (h *PaymentHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var req updatePaymentStatusRequest
	if err := c.Bind(&req); err != nil {
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed), "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed), err.Error())
	}

	payment, err := h.service.UpdateStatus(ctx, id, domain.StatusUpdate{
		Status:       domain.PaymentStatus(req.Status),
		Notes:        req.Notes,
		ErrorCode:    domain.PaymentErrorCode(req.ErrorCode),
		ErrorMessage: req.ErrorMessage,
	})
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, "Payment status updated", payment)
}

func (h *PaymentHandler) GetByID(c echo.Context) error {
	payment, err := h.service.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Payment retrieved", payment)
}

func (h *PaymentHandler) GetByReference(c echo.Context) error {
	payment, err := h.service.GetByReference(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Payment retrieved", payment)
}

func (h *PaymentHandler) GetHistory(c echo.Context) error {
	history, err := h.service.GetHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Payment history retrieved", history)
}

func (h *PaymentHandler) List(c echo.Context) error {
	filter := domain.PaymentFilter{
		SourceAccount: c.QueryParam("sourceAccount"),
		Page:          queryInt(c, "page", 1),
		PerPage:       queryInt(c, "perPage", 20),
	}

	if statusParam := c.QueryParam("status"); statusParam != "" {
		status := domain.PaymentStatus(statusParam)
		if !status.Valid() {
			return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed),
				"unknown payment status "+statusParam)
		}
		filter.Status = &status
	}

	payments, total, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, "Payments retrieved", pagedData{
		Items:   payments,
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Total:   total,
	})
}

func queryInt(c echo.Context, name string, defaultValue int) int {
	value, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || value < 1 {
		return defaultValue
	}
	return value
}
