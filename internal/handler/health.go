package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health reports process liveness for load balancers and uptime checks.
// It deliberately touches no dependencies: a wedged database or broker
// surfaces through request errors, not by failing the probe.
func Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
