package appointment

import (
	"errors"
	"net/http"
	"time"

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

func (h *Handler) RegisterRoutes(public, patientOnly, doctorOnly *echo.Group) {
	public.GET("/appointments/check", h.Check)

	patientOnly.POST("/appointments/book", h.Book)
	patientOnly.GET("/appointments/my", h.MyAppointments)

	doctorOnly.GET("/appointments/doctor", h.DoctorAppointments)
	doctorOnly.PUT("/appointments/:id/status", h.UpdateStatus)
}

func (h *Handler) Check(c echo.Context) error {
	doctorEmail := c.QueryParam("doctorEmail")
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	available, err := h.svc.CheckAvailability(c.Request().Context(), doctorEmail, date)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Error checking availability")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "available": available})
}

type bookRequest struct {
	DoctorEmail string `json:"doctorEmail"`
	Date        string `json:"appointmentDate"`
}

func (h *Handler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "appointmentDate must be YYYY-MM-DD")
	}
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	a, err := h.svc.Book(c.Request().Context(), BookRequest{
		PatientEmail: principal.Email,
		PatientName:  principal.Name,
		DoctorEmail:  req.DoctorEmail,
		Date:         date,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Appointment booked successfully", "appointment": a})
	case errors.Is(err, ErrSlotTaken):
		return echo.NewHTTPError(http.StatusConflict, "Doctor is not available on that date")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Error booking appointment")
	}
}

func (h *Handler) MyAppointments(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	items, err := h.svc.ListForPatient(c.Request().Context(), principal.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching appointments")
	}
	if items == nil {
		items = []Appointment{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "appointments": items})
}

func (h *Handler) DoctorAppointments(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	items, err := h.svc.ListForDoctor(c.Request().Context(), principal.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching appointments")
	}
	if items == nil {
		items = []Appointment{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "appointments": items})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	a, err := h.svc.UpdateStatus(c.Request().Context(), id, principal.Email, req.Status)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "appointment": a})
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Appointment belongs to another doctor")
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Error updating appointment")
	}
}
