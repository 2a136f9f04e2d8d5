package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/appointment-service/internal/api/dto"
	"github.com/spec-kit/appointment-service/internal/auth"
	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/service"
)

// AppointmentsHandler serves the public booking endpoints.
type AppointmentsHandler struct {
	bookings *service.BookingService
}

// NewAppointmentsHandler constructs handler.
func NewAppointmentsHandler(bookings *service.BookingService) *AppointmentsHandler {
	return &AppointmentsHandler{bookings: bookings}
}

// Create handles POST /api/appointments.
func (h *AppointmentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAppointmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	appt, err := h.bookings.CreateBooking(c.UserContext(), auth.ActorFromContext(c), service.CreateBookingInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		StaffID:       req.StaffID,
		Date:          req.Date,
		Time:          req.Time,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// GetByCode handles GET /api/appointments/:code.
func (h *AppointmentsHandler) GetByCode(c *fiber.Ctx) error {
	appt, err := h.bookings.GetByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Cancel handles POST /api/appointments/:code/cancel.
func (h *AppointmentsHandler) Cancel(c *fiber.Ctx) error {
	appt, err := h.bookings.TransitionBooking(c.UserContext(),
		service.BookingRef{Code: c.Params("code")},
		domain.AppointmentStatusCancelled,
		auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}
