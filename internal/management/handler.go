package management

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"riskgrade/internal/constants"
	"riskgrade/internal/logger"
	"riskgrade/pkg/errors"
)

type Handler struct {
	service Service
	logger  logger.Logger
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	rules := router.Group("/rules/thresholds")
	{
		rules.POST("", h.CreateThresholdRule)
		rules.GET("", h.ListThresholdRules)
		rules.GET("/:id", h.GetThresholdRule)
		rules.PUT("/:id", h.UpdateThresholdRule)
		rules.DELETE("/:id", h.DeleteThresholdRule)
		rules.GET("/:id/versions", h.GetRuleVersions)
		rules.GET("/:id/audit", h.GetRuleAuditLogs)
	}
	router.GET("/audit/logs", h.GetAuditLogs)
	router.POST("/classify/preview", h.PreviewClassification)
	router.GET("/status", h.ListEnvironmentStatuses)
	router.GET("/status/:environment", h.GetLatestStatus)
	router.GET("/history", h.ListHistory)
}

// CreateThresholdRule godoc
// @Summary Create a threshold rule
// @Description Creates a classification rule in operator or banded style
// @Tags rules
// @Accept json
// @Produce json
// @Param rule body CreateThresholdRuleRequest true "Rule to create"
// @Success 201 {object} ThresholdRule
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/rules/thresholds [post]
func (h *Handler) CreateThresholdRule(c *gin.Context) {
	var req CreateThresholdRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.ErrValidation.WithDetail("message", err.Error()))
		return
	}

	rule, err := h.service.CreateThresholdRule(c.Request.Context(), req, changedBy(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// ListThresholdRules godoc
// @Summary List threshold rules
// @Tags rules
// @Produce json
// @Param environment query string false "Filter by environment"
// @Param limit query int false "Page size" default(100)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/rules/thresholds [get]
func (h *Handler) ListThresholdRules(c *gin.Context) {
	limit, offset := pagination(c)
	rules, total, err := h.service.ListThresholdRules(c.Request.Context(), c.Query("environment"), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if rules == nil {
		rules = []ThresholdRule{}
	}
	c.JSON(http.StatusOK, gin.H{
		"rules":  rules,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetThresholdRule godoc
// @Summary Get a threshold rule by ID
// @Tags rules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} ThresholdRule
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/rules/thresholds/{id} [get]
func (h *Handler) GetThresholdRule(c *gin.Context) {
	rule, err := h.service.GetThresholdRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// UpdateThresholdRule godoc
// @Summary Update a threshold rule
// @Tags rules
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param rule body UpdateThresholdRuleRequest true "Fields to update"
// @Success 200 {object} ThresholdRule
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/rules/thresholds/{id} [put]
func (h *Handler) UpdateThresholdRule(c *gin.Context) {
	var req UpdateThresholdRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.ErrValidation.WithDetail("message", err.Error()))
		return
	}

	rule, err := h.service.UpdateThresholdRule(c.Request.Context(), c.Param("id"), req, changedBy(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// DeleteThresholdRule godoc
// @Summary Delete a threshold rule
// @Tags rules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/rules/thresholds/{id} [delete]
func (h *Handler) DeleteThresholdRule(c *gin.Context) {
	if err := h.service.DeleteThresholdRule(c.Request.Context(), c.Param("id"), changedBy(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetRuleVersions godoc
// @Summary List saved versions of a rule
// @Tags rules
// @Produce json
// @Param id path string true "Rule ID"
// @Param limit query int false "Maximum versions" default(100)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/rules/thresholds/{id}/versions [get]
func (h *Handler) GetRuleVersions(c *gin.Context) {
	limit, _ := pagination(c)
	versions, err := h.service.GetRuleVersions(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if versions == nil {
		versions = []RuleVersion{}
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// GetRuleAuditLogs godoc
// @Summary List audit entries for a rule
// @Tags rules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/rules/thresholds/{id}/audit [get]
func (h *Handler) GetRuleAuditLogs(c *gin.Context) {
	h.listAuditLogs(c, c.Param("id"))
}

// GetAuditLogs godoc
// @Summary List audit entries across all rules
// @Tags audit
// @Produce json
// @Param limit query int false "Page size" default(100)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/audit/logs [get]
func (h *Handler) GetAuditLogs(c *gin.Context) {
	h.listAuditLogs(c, "")
}

func (h *Handler) listAuditLogs(c *gin.Context, ruleID string) {
	limit, offset := pagination(c)
	logs, total, err := h.service.GetAuditLogs(c.Request.Context(), ruleID, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if logs == nil {
		logs = []AuditLog{}
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// PreviewClassification godoc
// @Summary Classify a single value against the stored rules
// @Tags classify
// @Accept json
// @Produce json
// @Param request body ClassifyPreviewRequest true "Value to classify"
// @Success 200 {object} ClassifyPreviewResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/classify/preview [post]
func (h *Handler) PreviewClassification(c *gin.Context) {
	var req ClassifyPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.ErrValidation.WithDetail("message", err.Error()))
		return
	}

	resp, err := h.service.PreviewClassification(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListEnvironmentStatuses godoc
// @Summary List environments with a classified snapshot
// @Tags status
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/status [get]
func (h *Handler) ListEnvironmentStatuses(c *gin.Context) {
	environments, err := h.service.ListEnvironmentStatuses(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if environments == nil {
		environments = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"environments": environments})
}

// GetLatestStatus godoc
// @Summary Get the latest classified record for an environment
// @Tags status
// @Produce json
// @Param environment path string true "Environment name"
// @Success 200 {object} models.RecordEnvelope
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/status/{environment} [get]
func (h *Handler) GetLatestStatus(c *gin.Context) {
	record, err := h.service.GetLatestStatus(c.Request.Context(), c.Param("environment"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListHistory godoc
// @Summary List recent classification results
// @Tags history
// @Produce json
// @Param environment query string false "Filter by environment"
// @Param limit query int false "Maximum entries" default(100)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/history [get]
func (h *Handler) ListHistory(c *gin.Context) {
	limit, _ := pagination(c)
	entries, err := h.service.ListHistory(c.Request.Context(), c.Query("environment"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "request failed",
		"error", err, "path", c.FullPath(), "method", c.Request.Method)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = constants.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > constants.MaxLimit {
		limit = constants.MaxLimit
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

func changedBy(c *gin.Context) string {
	if user := c.GetHeader("X-Changed-By"); user != "" {
		return user
	}
	return "api"
}
