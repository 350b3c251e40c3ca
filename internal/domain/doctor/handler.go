package doctor

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/domain/otp"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(public, doctorOnly *echo.Group) {
	public.POST("/doctor/signup", h.Signup)
	public.POST("/doctor/login", h.Login)
	public.GET("/doctor/all", h.Directory)
	public.GET("/doctor/search", h.Search)

	doctorOnly.GET("/doctor/me", h.Me)
	doctorOnly.GET("/doctor/patients/assigned", h.AssignedPatients)

	// Param route registered last so the static paths above win.
	public.GET("/doctor/:email", h.GetByEmail)
}

func (h *Handler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	token, d, err := h.svc.Signup(c.Request().Context(), req)
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
		"doctor":  d,
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
	token, d, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
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
		"doctor":  d,
	})
}

func (h *Handler) Me(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	d, err := h.svc.Get(c.Request().Context(), principal.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "doctor": d})
}

func (h *Handler) Directory(c echo.Context) error {
	pg := pagination.FromContext(c)
	doctors, total, err := h.svc.Directory(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Doctors fetched successfully",
		"doctors": pagination.NewResponse(doctors, total, pg.Limit, pg.Offset),
	})
}

func (h *Handler) Search(c echo.Context) error {
	name := c.QueryParam("name")
	d, err := h.svc.Search(c.Request().Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "Doctor name is required")
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "doctor": d})
}

func (h *Handler) GetByEmail(c echo.Context) error {
	d, err := h.svc.Get(c.Request().Context(), c.Param("email"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "doctor": d})
}

func (h *Handler) AssignedPatients(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())
	patients, err := h.svc.AssignedPatients(c.Request().Context(), principal.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching assigned patients")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "patients": patients})
}
