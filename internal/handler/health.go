package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a simple liveness endpoint used by load balancers and
// monitoring systems.  It returns a plain text "ok" with status 200.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// readiness is satisfied by the snapshot cache.
type readiness interface {
    Ready() bool
}

// Ready reports 503 until the first seat snapshot has been published.
func Ready(r readiness) echo.HandlerFunc {
    return func(c echo.Context) error {
        if r == nil || !r.Ready() {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "warming_up"})
        }
        return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
    }
}
