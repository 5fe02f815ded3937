package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apierrors "github.com/lectoria/lectoria/errors"
	"github.com/lectoria/lectoria/services"
)

const (
	// ContextUserID is the echo context key carrying the authenticated
	// user's ID.
	ContextUserID = "auth_user_id"
	// ContextUsername is the echo context key carrying the authenticated
	// user's handle.
	ContextUsername = "auth_username"
)

// RequireAccessToken guards routes behind a valid Bearer access token.
// Validation hits the token cache first; a verified token's identity is
// stored on the request context for handlers.
func RequireAccessToken(tokens *services.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return c.JSON(http.StatusUnauthorized, apierrors.NewAuthenticationFailed())
			}

			entry, err := tokens.ValidateAccessToken(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, apierrors.NewAuthenticationFailed())
			}

			c.Set(ContextUserID, entry.UserID)
			c.Set(ContextUsername, entry.Username)

			return next(c)
		}
	}
}

// UserID returns the authenticated user's ID from the request context.
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}

// Username returns the authenticated user's handle from the request context.
func Username(c echo.Context) string {
	name, _ := c.Get(ContextUsername).(string)
	return name
}
