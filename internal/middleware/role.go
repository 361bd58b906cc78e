package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// Roles carried in the token "role" claim.
const (
    RoleSensor = "sensor" // seat sensor gateways reporting occupancy
    RoleStaff  = "staff"  // library staff correcting seat state by hand
)

// RequireRole rejects requests whose token role is not one of roles with
// 403.  It must run after JWTAuth, which stores the role under "role".
// Like JWTAuth it is a no-op when secret is empty.
func RequireRole(secret string, roles ...string) echo.MiddlewareFunc {
    if secret == "" {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
