package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"pulselink/internal/telemetry"
	"pulselink/internal/utility"
)

var (
	agg      *telemetry.Aggregator
	reporter *telemetry.Reporter
)

// InitTelemetryPackage wires the handler package to the aggregation core.
func InitTelemetryPackage(a *telemetry.Aggregator, r *telemetry.Reporter) {
	agg = a
	reporter = r
}

// StatusHandler handles GET /api/status. Served from the TTL cache; never
// fails, even when the live-data store is down.
func StatusHandler(c echo.Context) error {
	status := agg.Status(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{"data": status})
}

// PositionHandler handles GET /api/position.
func PositionHandler(c echo.Context) error {
	rec, err := agg.LatestPosition(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read latest position")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read position"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": rec})
}

// VitalsHandler handles GET /api/vitals. The response shape is identical
// on success and on upstream failure; clients render whatever they get.
func VitalsHandler(c echo.Context) error {
	view := agg.Vitals(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{"data": view})
}

// SnapshotHandler handles GET /api/snapshot, the strict combined view.
func SnapshotHandler(c echo.Context) error {
	snap, err := agg.Snapshot(c.Request().Context())
	if err != nil {
		if errors.Is(err, telemetry.ErrNoData) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No telemetry data available"})
		}
		log.Error().Err(err).Msg("Failed to read combined snapshot")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read snapshot"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": snap})
}

// GPSHistoryHandler handles GET /api/history/gps.
func GPSHistoryHandler(c echo.Context) error {
	return historyResponse(c, agg.GPSHistory)
}

// HeartbeatHistoryHandler handles GET /api/history/heartbeat.
func HeartbeatHistoryHandler(c echo.Context) error {
	return historyResponse(c, agg.HeartbeatHistory)
}

func historyResponse(c echo.Context, tail func(context.Context) ([]telemetry.HistoryEntry, error)) error {
	entries, err := tail(c.Request().Context())
	if err != nil {
		if errors.Is(err, telemetry.ErrNoData) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No history recorded yet"})
		}
		log.Error().Err(err).Msg("Failed to read history")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read history"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": entries})
}

// SaveMeasurementHandler handles POST /api/measurements.
func SaveMeasurementHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User identity required"})
	}

	var req telemetry.MeasurementInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	m, err := reporter.SaveMeasurement(ctx, userID, req)
	if err != nil {
		if errors.Is(err, telemetry.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "heartRate, systolic and diastolic are required"})
		}
		log.Error().Err(err).Msg("Failed to save measurement")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save measurement"})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"data": m})
}

// DailyReportHandler handles GET /api/reports/daily.
func DailyReportHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User identity required"})
	}

	averages, err := reporter.DailyAverages(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build daily report")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to build report"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": averages})
}

// LiveHandler handles GET /api/live: upgrades to a websocket and streams
// the cached status until the client hangs up.
func LiveHandler(c echo.Context) error {
	ws, err := utility.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	connID := uuid.New().String()
	utility.RegisterClient(connID, ws)
	defer utility.UnregisterClient(connID)

	// We do not expect messages from the client; the read loop only keeps
	// the socket open and detects the close.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return nil
		}
	}
}

// StartStatusBroadcast pushes the cached status view to all stream
// subscribers on a fixed interval until ctx is cancelled. Idle hubs skip
// the read entirely.
func StartStatusBroadcast(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Status broadcast stopped")
				return
			case <-ticker.C:
				if !utility.HasClients() {
					continue
				}
				status := agg.Status(ctx)
				utility.BroadcastJSON(map[string]interface{}{"data": status})
			}
		}
	}()
}
