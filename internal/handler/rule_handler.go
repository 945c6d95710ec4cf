package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/internal/service"
	"github.com/moneymap/payments/pkg/logger"
	"github.com/shopspring/decimal"
)

type RuleHandler struct {
	service service.RuleService
	engine  service.RuleEngine
	logger  *logger.Logger
}

func NewRuleHandler(svc service.RuleService, engine service.RuleEngine, log *logger.Logger) *RuleHandler {
	return &RuleHandler{
		service: svc,
		engine:  engine,
		logger:  log,
	}
}

type ruleRequest struct {
	RuleName    string `json:"ruleName" validate:"required"`
	RuleType    string `json:"ruleType" validate:"required"`
	Severity    string `json:"severity"`
	Active      *bool  `json:"active"`
	Description string `json:"description"`

	ThresholdAmount   *decimal.Decimal `json:"thresholdAmount"`
	ThresholdCurrency string           `json:"thresholdCurrency"`
	MaxTransactions   *int             `json:"maxTransactions"`
	TimeWindowMinutes *int             `json:"timeWindowMinutes"`
	DailyLimitAmount  *decimal.Decimal `json:"dailyLimitAmount"`
	LookbackDays      *int             `json:"lookbackDays"`
}

func (r ruleRequest) toInput() service.RuleInput {
	return service.RuleInput{
		RuleName:          r.RuleName,
		RuleType:          domain.RuleType(r.RuleType),
		Severity:          domain.AlertSeverity(r.Severity),
		Active:            r.Active,
		Description:       r.Description,
		ThresholdAmount:   r.ThresholdAmount,
		ThresholdCurrency: r.ThresholdCurrency,
		MaxTransactions:   r.MaxTransactions,
		TimeWindowMinutes: r.TimeWindowMinutes,
		DailyLimitAmount:  r.DailyLimitAmount,
		LookbackDays:      r.LookbackDays,
	}
}

func (h *RuleHandler) Create(c echo.Context) error {
	var req ruleRequest
	if err := c.Bind(&req); err != nil {
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed), "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed), err.Error())
	}

	rule, err := h.service.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusCreated, "Rule created", rule)
}

func (h *RuleHandler) Update(c echo.Context) error {
	var req ruleRequest
	if err := c.Bind(&req); err != nil {
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed), "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeValidationFailed), err.Error())
	}

	rule, err := h.service.Update(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, "Rule updated", rule)
}

func (h *RuleHandler) GetByID(c echo.Context) error {
	rule, err := h.service.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Rule retrieved", rule)
}

func (h *RuleHandler) List(c echo.Context) error {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "perPage", 20)

	ruleList, total, err := h.service.List(c.Request().Context(), page, perPage)
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, "Rules retrieved", pagedData{
		Items:   ruleList,
		Page:    page,
		PerPage: perPage,
		Total:   total,
	})
}

func (h *RuleHandler) Activate(c echo.Context) error {
	rule, err := h.service.Activate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Rule activated", rule)
}

func (h *RuleHandler) Deactivate(c echo.Context) error {
	rule, err := h.service.Deactivate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Rule deactivated", rule)
}

func (h *RuleHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Rule deleted", nil)
}

func (h *RuleHandler) Types(c echo.Context) error {
	return respond(c, http.StatusOK, "Rule types retrieved", h.service.Types())
}

// ReEvaluate replays a rule against payments created within the trailing
// window, typically after activating a new rule.
func (h *RuleHandler) ReEvaluate(c echo.Context) error {
	hours := queryInt(c, "hours", 24)

	alerts, err := h.engine.ReEvaluateRecentPayments(c.Request().Context(), c.Param("id"), hours)
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, "Re-evaluation complete", alerts)
}
