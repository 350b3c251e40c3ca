package notification

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(doctorOnly *echo.Group) {
	doctorOnly.GET("/doctor/notifications", h.List)
	doctorOnly.POST("/doctor/notifications/:id/read", h.MarkRead)
}

func (h *Handler) List(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	items, err := h.svc.ListForDoctor(c.Request().Context(), principal.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching notifications")
	}
	if items == nil {
		items = []Notification{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "notifications": items})
}

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	err = h.svc.MarkRead(c.Request().Context(), id, principal.Email)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Notification marked as read"})
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Notification belongs to another doctor")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Error updating notification")
	}
}
