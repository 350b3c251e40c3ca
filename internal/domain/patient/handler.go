package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/domain/otp"
	"github.com/carelink/carelink/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(public, patientOnly *echo.Group) {
	public.POST("/patient/signup", h.Signup)
	public.POST("/patient/login", h.Login)

	patientOnly.GET("/patient/me", h.Me)
	patientOnly.PUT("/patient/profile", h.UpdateProfile)
	patientOnly.PUT("/patient/address", h.UpdateAddress)
	patientOnly.POST("/patient/assign-doctor", h.AssignDoctor)
}

func (h *Handler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	token, p, err := h.svc.Signup(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation), errors.Is(err, ErrEmailTaken),
			errors.Is(err, otp.ErrCodeInvalid), errors.Is(err, otp.ErrCodeExpired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "signup failed")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Signup successful",
		"token":   token,
		"user":    p,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	token, p, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    p,
	})
}

func (h *Handler) Me(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	p, err := h.svc.Get(c.Request().Context(), principal.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": p})
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	var upd ProfileUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdateProfile(c.Request().Context(), principal.Email, upd)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": p})
}

func (h *Handler) UpdateAddress(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	var upd AddressUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdateAddress(c.Request().Context(), principal.Email, upd)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Address updated successfully",
		"user":    p,
	})
}

type assignDoctorRequest struct {
	DoctorEmail string `json:"doctorEmail"`
}

func (h *Handler) AssignDoctor(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	var req assignDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ref, err := h.svc.AssignDoctor(c.Request().Context(), principal.Email, req.DoctorEmail)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to assign doctor")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":        true,
		"message":        "Doctor assigned successfully",
		"assignedDoctor": ref,
	})
}
