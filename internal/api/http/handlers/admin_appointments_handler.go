package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/appointment-service/internal/api/dto"
	"github.com/spec-kit/appointment-service/internal/auth"
	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/service"
	apperrors "github.com/spec-kit/appointment-service/pkg/util/errorutil"
)

// AdminAppointmentsHandler exposes operator endpoints over appointments.
type AdminAppointmentsHandler struct {
	bookings *service.BookingService
}

// NewAdminAppointmentsHandler constructs handler.
func NewAdminAppointmentsHandler(bookings *service.BookingService) *AdminAppointmentsHandler {
	return &AdminAppointmentsHandler{bookings: bookings}
}

// List handles GET /api/admin/appointments.
func (h *AdminAppointmentsHandler) List(c *fiber.Ctx) error {
	page := parsePage(c, 50)
	filter := service.BookingFilter{
		Limit:  page.PageSize,
		Offset: (page.Page - 1) * page.PageSize,
	}
	if staffID := c.Query("staff_id"); staffID != "" {
		filter.StaffID = &staffID
	}
	if phone := c.Query("phone"); phone != "" {
		filter.Phone = &phone
	}
	for _, bound := range []struct {
		key string
		dst **time.Time
	}{
		{"date_from", &filter.DateFrom},
		{"date_to", &filter.DateTo},
	} {
		raw := c.Query(bound.key)
		if raw == "" {
			continue
		}
		date, err := domain.ParseDate(raw)
		if err != nil {
			return apperrors.NewInvalidInput(bound.key, bound.key+" must be formatted as YYYY-MM-DD")
		}
		*bound.dst = &date
	}
	for _, raw := range parseListQuery(c, "status") {
		status, err := parseStatus(raw)
		if err != nil {
			return err
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	list, err := h.bookings.ListBookings(c.UserContext(), auth.ActorFromContext(c), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.AppointmentResponse, 0, len(list))
	for i := range list {
		resp = append(resp, appointmentResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp, "page": page})
}

// Get handles GET /api/admin/appointments/:id.
func (h *AdminAppointmentsHandler) Get(c *fiber.Ctx) error {
	appt, err := h.bookings.GetByID(c.UserContext(), auth.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Update handles PATCH /api/admin/appointments/:id.
func (h *AdminAppointmentsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateAppointmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := service.UpdateBookingInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		StaffID:       req.StaffID,
		Date:          req.Date,
		Time:          req.Time,
		Notes:         req.Notes,
	}
	if req.Status != nil {
		status, err := parseStatus(*req.Status)
		if err != nil {
			return err
		}
		input.Status = &status
	}
	appt, err := h.bookings.UpdateBooking(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// ChangeStatus handles POST /api/admin/appointments/:id/status.
func (h *AdminAppointmentsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.StatusChangeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		return err
	}
	appt, err := h.bookings.TransitionBooking(c.UserContext(),
		service.BookingRef{ID: c.Params("id")}, status, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Delete handles DELETE /api/admin/appointments/:id.
func (h *AdminAppointmentsHandler) Delete(c *fiber.Ctx) error {
	if err := h.bookings.DeleteBooking(c.UserContext(), auth.ActorFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// History handles GET /api/admin/appointments/:id/history.
func (h *AdminAppointmentsHandler) History(c *fiber.Ctx) error {
	entries, err := h.bookings.ListHistory(c.UserContext(), auth.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.HistoryResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, historyResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}
