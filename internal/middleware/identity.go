package middleware

// identity.go resolves who is calling, for rate-limit keys.  JWTAuth
// stores the token subject under "user_id"; without a token the caller is
// "anon".

import (
    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// userID returns the authenticated subject or "anon".
func userID(c echo.Context) string {
    if s, ok := c.Get("user_id").(string); ok && s != "" {
        return s
    }
    if cl, ok := c.Get("claims").(jwt.MapClaims); ok {
        if v, ok := cl["user_id"].(string); ok && v != "" {
            return v
        }
    }
    return "anon"
}
