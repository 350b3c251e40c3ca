package access

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(patientOnly, doctorOnly *echo.Group) {
	patientOnly.POST("/doctor-access/grant", h.Grant)
	patientOnly.POST("/doctor-access/revoke", h.Revoke)
	patientOnly.GET("/doctor-access/authorized", h.ListAuthorized)

	doctorOnly.GET("/doctor/patient/:patientEmail", h.ReadRecord)
	doctorOnly.GET("/doctor/check-access/:patientEmail", h.CheckAccess)
	doctorOnly.GET("/doctor/patients", h.ListPatients)
}

type grantRequest struct {
	DoctorEmail string `json:"doctorEmail"`
}

func (h *Handler) Grant(c echo.Context) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	err := h.svc.Grant(c.Request().Context(), principal.Email, req.DoctorEmail)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Access granted successfully"})
	case errors.Is(err, ErrAlreadyAuthorized):
		return echo.NewHTTPError(http.StatusBadRequest, "Doctor already has access")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Error granting access")
	}
}

func (h *Handler) Revoke(c echo.Context) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	err := h.svc.Revoke(c.Request().Context(), principal.Email, req.DoctorEmail)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Access revoked successfully"})
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Error revoking access")
	}
}

func (h *Handler) ListAuthorized(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	grants, err := h.svc.ListAuthorized(c.Request().Context(), principal.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching authorized doctors")
	}
	if grants == nil {
		grants = []Grant{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "authorizedDoctors": grants})
}

func (h *Handler) ReadRecord(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	res, err := h.svc.ReadAuthorizedRecord(c.Request().Context(), c.Param("patientEmail"), principal.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching patient record")
	}
	if !res.HasAccess {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "hasAccess": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "hasAccess": true, "patient": res.Patient})
}

func (h *Handler) CheckAccess(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	ok, err := h.svc.Check(c.Request().Context(), c.Param("patientEmail"), principal.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Error checking access")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "hasAccess": ok})
}

func (h *Handler) ListPatients(c echo.Context) error {
	principal, _ := auth.PrincipalFromContext(c.Request().Context())

	patients, err := h.svc.ListPatientsForDoctor(c.Request().Context(), principal.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching patients")
	}
	if patients == nil {
		patients = []PatientRef{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "patients": patients})
}
