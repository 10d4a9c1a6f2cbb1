package handler

import (
	"net/http"
	"strconv"

	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/dushixiang/marmot/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AlertHandler 告警查询处理器
type AlertHandler struct {
	logger       *zap.Logger
	alertService *service.AlertService
}

// NewAlertHandler 创建处理器
func NewAlertHandler(logger *zap.Logger, alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{
		logger:       logger,
		alertService: alertService,
	}
}

// GetAlerts 查询告警，默认只返回活动告警
// GET /api/alerts?activeOnly=false&limit=100
func (h *AlertHandler) GetAlerts(c echo.Context) error {
	activeOnly := true
	if raw := c.QueryParam("activeOnly"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "activeOnly 参数错误",
			})
		}
		activeOnly = parsed
	}

	var alerts []protocol.Alert
	if activeOnly {
		alerts = h.alertService.GetActiveAlerts()
	} else {
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		alerts = h.alertService.GetAlertHistory(limit)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// ClearAlerts 清空活动告警
// POST /api/alerts/clear
func (h *AlertHandler) ClearAlerts(c echo.Context) error {
	h.alertService.ClearAlerts()
	return c.JSON(http.StatusOK, map[string]string{
		"message": "告警已清空",
	})
}
