package messaging

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(authed *echo.Group) {
	authed.POST("/messages/send", h.Send)
	authed.GET("/messages/history", h.History)
	authed.POST("/messages/mark-read", h.MarkRead)
}

func (h *Handler) Send(c echo.Context) error {
	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	m, err := h.svc.Send(c.Request().Context(), req)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": m})
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAttachmentTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Attachment exceeds 5MB limit")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Error sending message")
	}
}

func (h *Handler) History(c echo.Context) error {
	sender := c.QueryParam("sender")
	receiver := c.QueryParam("receiver")

	messages, err := h.svc.History(c.Request().Context(), sender, receiver)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching messages")
	}
	if messages == nil {
		messages = []Message{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "messages": messages})
}

type markReadRequest struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
}

func (h *Handler) MarkRead(c echo.Context) error {
	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.MarkRead(c.Request().Context(), req.Sender, req.Receiver); err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Error updating messages")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Messages marked as read"})
}
