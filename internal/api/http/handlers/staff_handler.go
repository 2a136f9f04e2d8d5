package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/appointment-service/internal/api/dto"
	"github.com/spec-kit/appointment-service/internal/auth"
	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/service"
	apperrors "github.com/spec-kit/appointment-service/pkg/util/errorutil"
)

// StaffHandler exposes staff directory, availability and schedule endpoints.
type StaffHandler struct {
	staff    *service.StaffService
	bookings *service.BookingService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staff *service.StaffService, bookings *service.BookingService) *StaffHandler {
	return &StaffHandler{staff: staff, bookings: bookings}
}

// List handles GET /api/staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	list, err := h.staff.ListStaff(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, 0, len(list))
	for i := range list {
		resp = append(resp, staffResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Availability handles GET /api/staff/:id/availability?date=YYYY-MM-DD.
func (h *StaffHandler) Availability(c *fiber.Ctx) error {
	raw := c.Query("date")
	if raw == "" {
		return apperrors.NewInvalidInput("date", "date is required")
	}
	date, err := domain.ParseDate(raw)
	if err != nil {
		return apperrors.NewInvalidInput("date", "date must be formatted as YYYY-MM-DD")
	}
	staffID := c.Params("id")
	slots, err := h.bookings.GetAvailability(c.UserContext(), staffID, date)
	if err != nil {
		return err
	}
	if slots == nil {
		slots = []domain.TimeOfDay{}
	}
	return c.JSON(fiber.Map{"data": dto.AvailabilityResponse{
		StaffID: staffID,
		Date:    date.Format(domain.DateLayout),
		Slots:   slots,
	}})
}

// Create handles POST /api/admin/staff.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	var req dto.StaffCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	member := &domain.StaffMember{Name: req.Name, Title: req.Title, Rank: req.Rank, Active: true}
	if req.Active != nil {
		member.Active = *req.Active
	}
	created, err := h.staff.CreateStaff(c.UserContext(), auth.ActorFromContext(c), member)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(created)})
}

// Schedules handles GET /api/admin/staff/:id/schedules.
func (h *StaffHandler) Schedules(c *fiber.Ctx) error {
	rows, err := h.staff.GetSchedule(c.UserContext(), auth.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.ScheduleResponse, 0, len(rows))
	for i := range rows {
		resp = append(resp, scheduleResponse(&rows[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// PutSchedule handles PUT /api/admin/staff/:id/schedules/:weekday.
func (h *StaffHandler) PutSchedule(c *fiber.Ctx) error {
	weekday, err := domain.ParseWeekday(c.Params("weekday"))
	if err != nil {
		return apperrors.NewInvalidInput("weekday", "weekday must be MONDAY through SUNDAY")
	}
	var req dto.ScheduleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ws, err := h.staff.UpsertSchedule(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), weekday, service.ScheduleInput{
		IsWorking:           req.IsWorking,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		SlotIntervalMinutes: req.SlotIntervalMinutes,
		BreakStart:          req.BreakStart,
		BreakEnd:            req.BreakEnd,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": scheduleResponse(ws)})
}
