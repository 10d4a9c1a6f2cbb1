package handler

import (
	"net/http"
	"time"

	"github.com/dushixiang/marmot/internal/config"
	"github.com/dushixiang/marmot/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MonitorHandler 快照与指标抓取处理器
type MonitorHandler struct {
	logger            *zap.Logger
	cfg               *config.Config
	monitorService    *service.MonitorService
	alertService      *service.AlertService
	expositionService *service.ExpositionService
}

// NewMonitorHandler 创建处理器
func NewMonitorHandler(logger *zap.Logger, cfg *config.Config, monitorService *service.MonitorService, alertService *service.AlertService, expositionService *service.ExpositionService) *MonitorHandler {
	return &MonitorHandler{
		logger:            logger,
		cfg:               cfg,
		monitorService:    monitorService,
		alertService:      alertService,
		expositionService: expositionService,
	}
}

// GetSnapshot 获取完整系统快照并执行一轮阈值检查
// GET /api/snapshot
func (h *MonitorHandler) GetSnapshot(c echo.Context) error {
	bundle := h.monitorService.Collect(c.Request().Context())
	alerts := h.alertService.Evaluate(bundle)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   bundle,
		"alerts": alerts,
	})
}

// GetCPU 获取 CPU 指标
// GET /api/cpu
func (h *MonitorHandler) GetCPU(c echo.Context) error {
	bundle := h.monitorService.Latest(c.Request().Context())
	if bundle.CPU == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "CPU指标暂不可用",
		})
	}
	return c.JSON(http.StatusOK, bundle.CPU)
}

// GetMemory 获取内存指标
// GET /api/memory
func (h *MonitorHandler) GetMemory(c echo.Context) error {
	bundle := h.monitorService.Latest(c.Request().Context())
	if bundle.Memory == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "内存指标暂不可用",
		})
	}
	return c.JSON(http.StatusOK, bundle.Memory)
}

// GetDisk 获取磁盘指标
// GET /api/disk
func (h *MonitorHandler) GetDisk(c echo.Context) error {
	bundle := h.monitorService.Latest(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"partitions": bundle.Disk,
		"io":         bundle.DiskIO,
	})
}

// GetNetwork 获取网络指标
// GET /api/network
func (h *MonitorHandler) GetNetwork(c echo.Context) error {
	bundle := h.monitorService.Latest(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"interfaces": bundle.Network,
	})
}

// GetGPU 获取 GPU 指标
// GET /api/gpu
func (h *MonitorHandler) GetGPU(c echo.Context) error {
	bundle := h.monitorService.Latest(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"available": h.monitorService.GPUAvailable(),
		"count":     len(bundle.GPU),
		"gpus":      bundle.GPU,
	})
}

// GetConfig 获取当前配置
// GET /api/config
func (h *MonitorHandler) GetConfig(c echo.Context) error {
	// 不回传 SMTP 凭据
	return c.JSON(http.StatusOK, map[string]interface{}{
		"thresholds": h.cfg.Thresholds,
		"history":    h.cfg.History,
		"alert":      h.cfg.Alert,
		"server":     h.cfg.Server,
		"export":     h.cfg.Export,
	})
}

// Metrics 按 Prometheus 文本格式输出当前指标
// GET /metrics
func (h *MonitorHandler) Metrics(c echo.Context) error {
	body := h.expositionService.Render(c.Request().Context())
	return c.Blob(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(body))
}

// Health 健康检查
// GET /health
func (h *MonitorHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UnixMilli(),
		"monitors": map[string]bool{
			"cpu":     true,
			"memory":  true,
			"disk":    true,
			"network": true,
			"gpu":     h.monitorService.GPUAvailable(),
		},
	})
}
