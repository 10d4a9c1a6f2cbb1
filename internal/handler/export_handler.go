package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/dushixiang/marmot/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ExportHandler 数据导出处理器
type ExportHandler struct {
	logger         *zap.Logger
	monitorService *service.MonitorService
	exportService  *service.ExportService
}

// NewExportHandler 创建处理器
func NewExportHandler(logger *zap.Logger, monitorService *service.MonitorService, exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{
		logger:         logger,
		monitorService: monitorService,
		exportService:  exportService,
	}
}

// Export 导出当前快照或历史数据
// POST /api/export?format=json&metric=cpu&hours=24
// 不带 metric 时导出快照，带 metric 时导出该指标的历史 CSV
func (h *ExportHandler) Export(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "不支持的导出格式",
		})
	}

	ctx := c.Request().Context()

	var filepath string
	var err error

	if raw := c.QueryParam("metric"); raw != "" {
		metricType := protocol.MetricType(raw)
		if !metricType.Valid() {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "无效的指标类型",
			})
		}
		hours := parseHours(c, 24)
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		since := time.Now().Add(-time.Duration(hours) * time.Hour).UnixMilli()
		filepath, err = h.exportService.ExportHistory(ctx, metricType, since, limit)
	} else {
		bundle := h.monitorService.Collect(ctx)
		filepath, err = h.exportService.ExportSnapshot(bundle, format)
	}

	if err != nil {
		h.logger.Error("导出数据失败", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "导出失败",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "导出成功",
		"filepath": filepath,
		"format":   format,
	})
}
