package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/lectoria/lectoria/domain"
	apierrors "github.com/lectoria/lectoria/errors"
	"github.com/lectoria/lectoria/middleware"
)

// CurrentUserHandler returns the authenticated user's account.
func (a *BookingAPI) CurrentUserHandler(c echo.Context) error {
	user, err := a.users.GetByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("user not found"))
		}
		log.Error().Err(err).Msg("Failed to load current user")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("failed to load user"))
	}
	return c.JSON(http.StatusOK, user)
}

type updatePhoneRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// UpdatePhoneHandler stores a phone number on the authenticated account.
func (a *BookingAPI) UpdatePhoneHandler(c echo.Context) error {
	var req updatePhoneRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierrors.NewInvalidRequest("malformed request body"))
	}
	if !domain.ValidPhoneNumber(req.PhoneNumber) {
		return c.JSON(http.StatusBadRequest, apierrors.NewFieldValidation("phone_number",
			"Phone number must be entered in the format: '+999999999'. Up to 15 digits allowed."))
	}

	err := a.users.SetPhoneNumber(c.Request().Context(), middleware.UserID(c), req.PhoneNumber)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("user not found"))
		case errors.Is(err, domain.ErrDuplicateUser):
			return c.JSON(http.StatusConflict, apierrors.NewConflict("phone number already in use"))
		}
		log.Error().Err(err).Msg("Failed to update phone number")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("failed to update phone number"))
	}

	return c.NoContent(http.StatusNoContent)
}

// ListUsersHandler returns a page of accounts.
func (a *BookingAPI) ListUsersHandler(c echo.Context) error {
	users, nextPage, err := a.users.List(c.Request().Context(), c.QueryParam("page_token"), 0)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("failed to list users"))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"users":           users,
		"next_page_token": nextPage,
	})
}
