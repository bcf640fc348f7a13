package router

import (
    "github.com/labstack/echo/v4"

    "github.com/makshevelkin/MIPTORENT/internal/handler"
    "github.com/makshevelkin/MIPTORENT/internal/middleware"
    "github.com/makshevelkin/MIPTORENT/internal/model"
)

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while the profile endpoints live under /v1 behind JWT auth.
// limiter throttles the unauthenticated group; credential guessing is
// the one place brute force pays off, so only /v1/auth is rate limited.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
    // Session-less operations: anyone can register, log in, exchange a
    // refresh token or follow an emailed link.
    g := e.Group("/v1/auth", limiter)
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // /refresh rotates the refresh token; /refresh-access only issues a
    // new access token and keeps the refresh token alive.
    g.POST("/refresh", a.Refresh)
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout does not require JWT middleware: an expired access token
    // with a live refresh token in the body must still end the session.
    g.POST("/logout", a.Logout)
    // Emailed links.
    g.GET("/confirm/:token", a.Confirm)
    g.POST("/forgot-password", a.ForgotPassword)
    g.POST("/reset-password", a.ResetPassword)

    // Profile endpoints require a valid access token with any role.
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))
    auth.GET("/me", a.Me)
    auth.PUT("/me", a.UpdateMe)

    // Alias kept so clients can call either /v1/auth/logout or /v1/logout.
    e.POST("/v1/logout", a.Logout)
}
