package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"pulselink/internal/auth"
	"pulselink/internal/handlers"
)

// StartTime anchors the uptime reported by the health endpoint.
var StartTime = time.Now()

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(LoggerMiddleware)

	e.GET("/health", s.healthHandler)
	e.POST("/auth/token", auth.TokenHandler)

	// Protected routes
	protected := e.Group("/api")
	protected.Use(auth.JwtAuthMiddleware)

	// Telemetry views
	protected.GET("/status", handlers.StatusHandler)
	protected.GET("/position", handlers.PositionHandler)
	protected.GET("/vitals", handlers.VitalsHandler)
	protected.GET("/snapshot", handlers.SnapshotHandler)
	protected.GET("/history/gps", handlers.GPSHistoryHandler)
	protected.GET("/history/heartbeat", handlers.HeartbeatHistoryHandler)

	// Measurements & reporting
	protected.POST("/measurements", handlers.SaveMeasurementHandler)
	protected.GET("/reports/daily", handlers.DailyReportHandler)

	// Websocket status stream for dashboard clients
	protected.GET("/live", handlers.LiveHandler)

	return e
}

// healthHandler reports process, host and durable-store health.
func (s *Server) healthHandler(c echo.Context) error {
	v, _ := mem.VirtualMemory()
	cpuPercent, _ := cpu.Percent(0, false)
	hInfo, _ := host.Info()

	cpuUsage := "n/a"
	if len(cpuPercent) > 0 {
		cpuUsage = fmt.Sprintf("%.2f%%", cpuPercent[0])
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "online",
		"runtime": map[string]interface{}{
			"uptime":     time.Since(StartTime).String(),
			"start_time": StartTime.Format(time.RFC3339),
			"os":         hInfo.OS,
			"platform":   hInfo.Platform,
			"hostname":   hInfo.Hostname,
		},
		"cpu": map[string]interface{}{
			"usage_percent": cpuUsage,
			"cores":         hInfo.Procs,
		},
		"memory": map[string]interface{}{
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
		},
		"database": s.db.Health(),
	})
}

// LoggerMiddleware tags every request with an ID and injects a scoped
// logger into the context.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}
