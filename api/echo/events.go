package echo

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/lectoria/lectoria/domain"
	apierrors "github.com/lectoria/lectoria/errors"
	"github.com/lectoria/lectoria/middleware"
)

type eventRequest struct {
	Title         string    `json:"title"`
	ThumbnailText string    `json:"thumbnail_text,omitempty"`
	MainText      string    `json:"main_text,omitempty"`
	Date          time.Time `json:"date,omitempty"`
	Online        bool      `json:"online"`
	ZoomLink      string    `json:"zoom_link,omitempty"`
	Address       string    `json:"address,omitempty"`
}

// CreateEventHandler publishes a new event.
func (a *BookingAPI) CreateEventHandler(c echo.Context) error {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierrors.NewInvalidRequest("malformed request body"))
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, apierrors.NewFieldValidation("title", "title is required"))
	}

	event := &domain.Event{
		Title:         req.Title,
		ThumbnailText: req.ThumbnailText,
		MainText:      req.MainText,
		Date:          req.Date,
		Online:        req.Online,
		ZoomLink:      req.ZoomLink,
		Address:       req.Address,
	}
	if err := a.events.Create(c.Request().Context(), event); err != nil {
		if errors.Is(err, domain.ErrDuplicateEvent) {
			return c.JSON(http.StatusConflict, apierrors.NewConflict("event with this title already exists"))
		}
		log.Error().Err(err).Msg("Failed to create event")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("failed to create event"))
	}

	return c.JSON(http.StatusCreated, event)
}

// ListEventsHandler returns a page of events ordered by date.
func (a *BookingAPI) ListEventsHandler(c echo.Context) error {
	pageSize := 0
	if raw := c.QueryParam("page_size"); raw != "" {
		pageSize, _ = strconv.Atoi(raw)
	}

	events, nextPage, err := a.events.List(c.Request().Context(), c.QueryParam("page_token"), pageSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list events")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("failed to list events"))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events":          events,
		"next_page_token": nextPage,
	})
}

// GetEventHandler returns a single event.
func (a *BookingAPI) GetEventHandler(c echo.Context) error {
	event, err := a.events.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return a.eventError(c, err)
	}
	return c.JSON(http.StatusOK, event)
}

// UpdateEventHandler edits an event.
func (a *BookingAPI) UpdateEventHandler(c echo.Context) error {
	event, err := a.events.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return a.eventError(c, err)
	}

	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierrors.NewInvalidRequest("malformed request body"))
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, apierrors.NewFieldValidation("title", "title is required"))
	}

	event.Title = req.Title
	event.ThumbnailText = req.ThumbnailText
	event.MainText = req.MainText
	event.Date = req.Date
	event.Online = req.Online
	event.ZoomLink = req.ZoomLink
	event.Address = req.Address

	if err := a.events.Update(c.Request().Context(), event); err != nil {
		if errors.Is(err, domain.ErrDuplicateEvent) {
			return c.JSON(http.StatusConflict, apierrors.NewConflict("event with this title already exists"))
		}
		return a.eventError(c, err)
	}
	return c.JSON(http.StatusOK, event)
}

// DeleteEventHandler removes an event and its participations.
func (a *BookingAPI) DeleteEventHandler(c echo.Context) error {
	if err := a.events.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return a.eventError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// JoinEventHandler signs the authenticated user up for an event and greets
// them through the bot.
func (a *BookingAPI) JoinEventHandler(c echo.Context) error {
	ctx := c.Request().Context()

	event, err := a.events.GetByID(ctx, c.Param("id"))
	if err != nil {
		return a.eventError(c, err)
	}

	participation := &domain.Participation{
		EventID: event.ID,
		UserID:  middleware.UserID(c),
	}
	if err := a.events.AddParticipation(ctx, participation); err != nil {
		if errors.Is(err, domain.ErrDuplicateParticipant) {
			return c.JSON(http.StatusConflict, apierrors.NewConflict("already participating"))
		}
		return a.eventError(c, err)
	}

	a.notifyUser(c, "You signed up for "+event.Title)

	return c.JSON(http.StatusCreated, participation)
}

// LeaveEventHandler withdraws the authenticated user from an event.
func (a *BookingAPI) LeaveEventHandler(c echo.Context) error {
	err := a.events.RemoveParticipation(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrParticipationNotFound) {
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("participation not found"))
		}
		return a.eventError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListParticipationsHandler returns the sign-ups for an event.
func (a *BookingAPI) ListParticipationsHandler(c echo.Context) error {
	list, err := a.events.ListParticipations(c.Request().Context(), c.Param("id"))
	if err != nil {
		return a.eventError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (a *BookingAPI) eventError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrEventNotFound) {
		return c.JSON(http.StatusNotFound, apierrors.NewNotFound("event not found"))
	}
	log.Error().Err(err).Msg("Event operation failed")
	return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("event operation failed"))
}
