package echo

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/lectoria/lectoria/domain"
	apierrors "github.com/lectoria/lectoria/errors"
	"github.com/lectoria/lectoria/middleware"
)

type appointmentRequest struct {
	Date     time.Time `json:"date"`
	Online   bool      `json:"online"`
	Address  string    `json:"address,omitempty"`
	ZoomLink string    `json:"zoom_link,omitempty"`
}

// CreateAppointmentHandler books an appointment for the authenticated user.
func (a *BookingAPI) CreateAppointmentHandler(c echo.Context) error {
	var req appointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierrors.NewInvalidRequest("malformed request body"))
	}
	if req.Date.IsZero() {
		return c.JSON(http.StatusBadRequest, apierrors.NewFieldValidation("date", "date is required"))
	}

	appointment := &domain.Appointment{
		UserID:   middleware.UserID(c),
		Date:     req.Date,
		Online:   req.Online,
		Address:  req.Address,
		ZoomLink: req.ZoomLink,
	}
	if err := a.appointments.Create(c.Request().Context(), appointment); err != nil {
		log.Error().Err(err).Msg("Failed to create appointment")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("failed to create appointment"))
	}

	a.notifyUser(c, "Your appointment on "+appointment.Date.Format("2006-01-02 15:04")+" is booked")

	return c.JSON(http.StatusCreated, appointment)
}

// ListAppointmentsHandler returns the authenticated user's appointments.
func (a *BookingAPI) ListAppointmentsHandler(c echo.Context) error {
	list, err := a.appointments.ListByUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list appointments")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("failed to list appointments"))
	}
	return c.JSON(http.StatusOK, list)
}

// GetAppointmentHandler returns one of the authenticated user's
// appointments. Appointments of other users read as not found.
func (a *BookingAPI) GetAppointmentHandler(c echo.Context) error {
	appointment, err := a.ownAppointment(c)
	if err != nil {
		return a.appointmentError(c, err)
	}
	return c.JSON(http.StatusOK, appointment)
}

// UpdateAppointmentHandler reschedules an appointment.
func (a *BookingAPI) UpdateAppointmentHandler(c echo.Context) error {
	appointment, err := a.ownAppointment(c)
	if err != nil {
		return a.appointmentError(c, err)
	}

	var req appointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierrors.NewInvalidRequest("malformed request body"))
	}
	if req.Date.IsZero() {
		return c.JSON(http.StatusBadRequest, apierrors.NewFieldValidation("date", "date is required"))
	}

	appointment.Date = req.Date
	appointment.Online = req.Online
	appointment.Address = req.Address
	appointment.ZoomLink = req.ZoomLink

	if err := a.appointments.Update(c.Request().Context(), appointment); err != nil {
		return a.appointmentError(c, err)
	}
	return c.JSON(http.StatusOK, appointment)
}

// DeleteAppointmentHandler cancels an appointment.
func (a *BookingAPI) DeleteAppointmentHandler(c echo.Context) error {
	appointment, err := a.ownAppointment(c)
	if err != nil {
		return a.appointmentError(c, err)
	}

	if err := a.appointments.Delete(c.Request().Context(), appointment.ID); err != nil {
		return a.appointmentError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ownAppointment loads the appointment in the path and checks it belongs
// to the caller. Foreign appointments surface as ErrAppointmentNotFound.
func (a *BookingAPI) ownAppointment(c echo.Context) (*domain.Appointment, error) {
	appointment, err := a.appointments.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if appointment.UserID != middleware.UserID(c) {
		return nil, domain.ErrAppointmentNotFound
	}
	return appointment, nil
}

func (a *BookingAPI) appointmentError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrAppointmentNotFound) {
		return c.JSON(http.StatusNotFound, apierrors.NewNotFound("appointment not found"))
	}
	log.Error().Err(err).Msg("Appointment operation failed")
	return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("appointment operation failed"))
}

// notifyUser pushes a bot message to the authenticated user's Telegram
// chat. Best effort: lookup or delivery failures never fail the request.
func (a *BookingAPI) notifyUser(c echo.Context, text string) {
	user, err := a.users.GetByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		log.Warn().Err(err).Msg("Skipping notification, user lookup failed")
		return
	}
	a.notifier.Notify(user.TelegramID, text)
}
