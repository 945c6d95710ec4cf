package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/internal/service"
	"github.com/moneymap/payments/pkg/logger"
)

type AlertHandler struct {
	service service.AlertService
	logger  *logger.Logger
}

func NewAlertHandler(svc service.AlertService, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		service: svc,
		logger:  log,
	}
}

type acknowledgeAlertRequest struct {
	OperatorName string `json:"operatorName" validate:"required"`
}

type updateAlertStatusRequest struct {
	Status          string `json:"status" validate:"required"`
	OperatorName    string `json:"operatorName" validate:"required"`
	ResolutionNotes string `json:"resolutionNotes"`
}

func (h *AlertHandler) Acknowledge(c echo.Context) error {
	var req acknowledgeAlertRequest
	if err := c.Bind(&req); err != nil {
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed), "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed), err.Error())
	}

	alert, err := h.service.Acknowledge(c.Request().Context(), c.Param("id"), req.OperatorName)
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, "Alert acknowledged", alert)
}

func (h *AlertHandler) UpdateStatus(c echo.Context) error {
	var req updateAlertStatusRequest
	if err := c.Bind(&req); err != nil {
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed), "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed), err.Error())
	}

	alert, err := h.service.UpdateStatus(c.Request().Context(), c.Param("id"),
		domain.AlertStatus(req.Status), req.OperatorName, req.ResolutionNotes)
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, "Alert status updated", alert)
}

func (h *AlertHandler) GetByID(c echo.Context) error {
	alert, err := h.service.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Alert retrieved", alert)
}

func (h *AlertHandler) List(c echo.Context) error {
	filter := domain.AlertFilter{
		RuleID:    c.QueryParam("ruleId"),
		AccountID: c.QueryParam("accountId"),
		Page:      queryInt(c, "page", 1),
		PerPage:   queryInt(c, "perPage", 20),
	}

	if statusParam := c.QueryParam("status"); statusParam != "" {
		status := domain.AlertStatus(statusParam)
		if !status.Valid() {
			return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed),
				"unknown alert status "+statusParam)
		}
		filter.Status = &status
	}
	if severityParam := c.QueryParam("severity"); severityParam != "" {
		severity := domain.AlertSeverity(severityParam)
		if !severity.Valid() {
			return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed),
				"unknown severity "+severityParam)
		}
		filter.Severity = &severity
	}

	alerts, total, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, "Alerts retrieved", pagedData{
		Items:   alerts,
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Total:   total,
	})
}

func (h *AlertHandler) OpenPrioritized(c echo.Context) error {
	limit := queryInt(c, "limit", 20)

	alerts, err := h.service.OpenPrioritized(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, "Open alerts retrieved", alerts)
}

func (h *AlertHandler) Statistics(c echo.Context) error {
	stats, err := h.service.Statistics(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Alert statistics retrieved", stats)
}
