package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/dushixiang/marmot/internal/repo"
	"github.com/dushixiang/marmot/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HistoryHandler 历史数据查询处理器
type HistoryHandler struct {
	logger         *zap.Logger
	historyService *service.HistoryService
}

// NewHistoryHandler 创建处理器
func NewHistoryHandler(logger *zap.Logger, historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		logger:         logger,
		historyService: historyService,
	}
}

// parseHours 解析 hours 参数，默认 defaultHours
func parseHours(c echo.Context, defaultHours int) int {
	hours, err := strconv.Atoi(c.QueryParam("hours"))
	if err != nil || hours <= 0 {
		return defaultHours
	}
	return hours
}

// GetHistory 查询历史记录
// GET /api/history/:metric
func (h *HistoryHandler) GetHistory(c echo.Context) error {
	metricType := protocol.MetricType(c.Param("metric"))
	if !metricType.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "无效的指标类型",
		})
	}

	hours := parseHours(c, 24)
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	since := time.Now().Add(-time.Duration(hours) * time.Hour).UnixMilli()
	records, err := h.historyService.Query(c.Request().Context(), metricType, since, limit)
	if err != nil {
		h.logger.Error("查询历史记录失败",
			zap.String("metric", string(metricType)),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "查询失败",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"metric": metricType,
		"hours":  hours,
		"data":   records,
	})
}

// GetHistoryStats 查询历史统计
// GET /api/history/:metric/stats
func (h *HistoryHandler) GetHistoryStats(c echo.Context) error {
	metricType := protocol.MetricType(c.Param("metric"))
	if !metricType.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "无效的指标类型",
		})
	}

	hours := parseHours(c, 1)
	since := time.Now().Add(-time.Duration(hours) * time.Hour).UnixMilli()

	stats, err := h.historyService.Statistics(c.Request().Context(), metricType, since)
	if err != nil {
		if errors.Is(err, repo.ErrStatsUnsupported) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "该指标类型不支持统计",
			})
		}
		h.logger.Error("查询历史统计失败",
			zap.String("metric", string(metricType)),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "查询失败",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"metric":     metricType,
		"hours":      hours,
		"statistics": stats,
	})
}
