package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Register 注册全部路由
func Register(e *echo.Echo, enableCORS bool, monitor *MonitorHandler, history *HistoryHandler, alert *AlertHandler, export *ExportHandler) {
	e.Use(middleware.Recover())
	if enableCORS {
		e.Use(middleware.CORS())
	}

	e.GET("/health", monitor.Health)
	e.GET("/metrics", monitor.Metrics)

	api := e.Group("/api")
	api.GET("/snapshot", monitor.GetSnapshot)
	api.GET("/cpu", monitor.GetCPU)
	api.GET("/memory", monitor.GetMemory)
	api.GET("/disk", monitor.GetDisk)
	api.GET("/network", monitor.GetNetwork)
	api.GET("/gpu", monitor.GetGPU)
	api.GET("/config", monitor.GetConfig)

	api.GET("/history/:metric", history.GetHistory)
	api.GET("/history/:metric/stats", history.GetHistoryStats)

	api.GET("/alerts", alert.GetAlerts)
	api.POST("/alerts/clear", alert.ClearAlerts)

	api.POST("/export", export.Export)
}
