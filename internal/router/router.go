package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/makshevelkin/MIPTORENT/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Load balancers and monitoring systems use this endpoint to verify
    // that the service is up and running.
    e.GET("/healthz", handler.Health)
}
