package echo

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/lectoria/lectoria/domain"
	apierrors "github.com/lectoria/lectoria/errors"
	"github.com/lectoria/lectoria/internal/bot"
	"github.com/lectoria/lectoria/internal/telegram"
	"github.com/lectoria/lectoria/middleware"
	"github.com/lectoria/lectoria/services"
)

// AuthService is the slice of services.AuthService the API needs.
type AuthService interface {
	LoginWithTelegram(ctx context.Context, ident telegram.Identity) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

// BookingAPI holds the dependencies of the HTTP surface.
type BookingAPI struct {
	verifier     *telegram.Verifier
	auth         AuthService
	tokens       *services.TokenService
	users        domain.UserRepository
	appointments domain.AppointmentRepository
	events       domain.EventRepository
	notifier     bot.Notifier
	ping         func(ctx context.Context) error
}

// NewBookingAPI initializes the booking API. ping may be nil when no
// datastore health probe is available.
func NewBookingAPI(
	verifier *telegram.Verifier,
	auth AuthService,
	tokens *services.TokenService,
	users domain.UserRepository,
	appointments domain.AppointmentRepository,
	events domain.EventRepository,
	notifier bot.Notifier,
	ping func(ctx context.Context) error,
) *BookingAPI {
	if notifier == nil {
		notifier = bot.NopNotifier{}
	}
	return &BookingAPI{
		verifier:     verifier,
		auth:         auth,
		tokens:       tokens,
		users:        users,
		appointments: appointments,
		events:       events,
		notifier:     notifier,
		ping:         ping,
	}
}

// RegisterRoutes registers all routes. Mutating resources sit behind the
// bearer-token middleware; login, refresh, event listing, and health stay
// public.
func (a *BookingAPI) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/telegram", a.TelegramLoginHandler)
	e.POST("/auth/refresh", a.RefreshHandler)
	e.GET("/healthz", a.HealthHandler)

	e.GET("/events", a.ListEventsHandler)
	e.GET("/events/:id", a.GetEventHandler)

	authed := e.Group("", middleware.RequireAccessToken(a.tokens))

	authed.GET("/users/me", a.CurrentUserHandler)
	authed.PATCH("/users/me", a.UpdatePhoneHandler)
	authed.GET("/users", a.ListUsersHandler)

	authed.POST("/appointments", a.CreateAppointmentHandler)
	authed.GET("/appointments", a.ListAppointmentsHandler)
	authed.GET("/appointments/:id", a.GetAppointmentHandler)
	authed.PUT("/appointments/:id", a.UpdateAppointmentHandler)
	authed.DELETE("/appointments/:id", a.DeleteAppointmentHandler)

	authed.POST("/events", a.CreateEventHandler)
	authed.PUT("/events/:id", a.UpdateEventHandler)
	authed.DELETE("/events/:id", a.DeleteEventHandler)
	authed.GET("/events/:id/participations", a.ListParticipationsHandler)
	authed.POST("/events/:id/participations", a.JoinEventHandler)
	authed.DELETE("/events/:id/participations", a.LeaveEventHandler)
}

// TelegramLoginHandler runs the passwordless login flow: the widget payload
// is verified against the bot token, the identity is upserted, and a fresh
// token pair is returned.
func (a *BookingAPI) TelegramLoginHandler(c echo.Context) error {
	var payload telegram.LoginPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, apierrors.NewInvalidRequest("malformed login payload"))
	}
	if err := payload.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, apierrors.NewInvalidRequest(err.Error()))
	}

	ident, err := a.verifier.Verify(payload)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierrors.NewFieldValidation("hash", "Hash is not valid"))
	}

	pair, err := a.auth.LoginWithTelegram(c.Request().Context(), ident)
	if err != nil {
		if errors.Is(err, services.ErrAuthenticationFailed) {
			return c.JSON(http.StatusUnauthorized, apierrors.NewAuthenticationFailed())
		}
		log.Error().Err(err).Msg("Telegram login failed")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("login failed"))
	}

	return c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshHandler exchanges a valid refresh token for a new pair.
func (a *BookingAPI) RefreshHandler(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.Refresh == "" {
		return c.JSON(http.StatusBadRequest, apierrors.NewInvalidRequest("refresh token is required"))
	}

	pair, err := a.auth.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, services.ErrAuthenticationFailed) {
			return c.JSON(http.StatusUnauthorized, apierrors.NewAuthenticationFailed())
		}
		log.Error().Err(err).Msg("Token refresh failed")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("refresh failed"))
	}

	return c.JSON(http.StatusOK, pair)
}

// HealthHandler reports liveness, probing the datastore when configured.
func (a *BookingAPI) HealthHandler(c echo.Context) error {
	if a.ping != nil {
		if err := a.ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
