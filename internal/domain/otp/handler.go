package otp

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

func (h *Handler) RegisterRoutes(public *echo.Group) {
	public.POST("/otp/send", h.Send)
	public.POST("/otp/verify", h.Verify)
	public.POST("/otp/resend", h.Resend)
}

type sendRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *Handler) Send(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Send(c.Request().Context(), req.Email); err != nil {
		return mapError(err, "Failed to send OTP")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "OTP sent successfully"})
}

func (h *Handler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Verify(c.Request().Context(), req.Email, req.OTP); err != nil {
		return mapError(err, "Failed to verify OTP")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "OTP verified successfully"})
}

func (h *Handler) Resend(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Resend(c.Request().Context(), req.Email); err != nil {
		return mapError(err, "Failed to resend OTP")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "OTP resent successfully"})
}

func mapError(err error, fallback string) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrCodeInvalid),
		errors.Is(err, ErrCodeExpired), errors.Is(err, ErrEmailTaken):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, "Please wait before requesting another OTP")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback)
	}
}
