package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/appointment-service/internal/api/dto"
	"github.com/spec-kit/appointment-service/internal/domain"
	apperrors "github.com/spec-kit/appointment-service/pkg/util/errorutil"
)

const maxPageSize = 200

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewInvalidInput("", "invalid payload")
	}
	return nil
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

func parsePage(c *fiber.Ctx, defaultSize int) dto.Page {
	page := dto.Page{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", defaultSize),
	}
	if page.PageSize > maxPageSize {
		page.PageSize = maxPageSize
	}
	return page
}

// parseListQuery accepts both repeated keys and comma separated values.
func parseListQuery(c *fiber.Ctx, key string) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
		for _, part := range strings.Split(string(raw), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseStatus(raw string) (domain.AppointmentStatus, error) {
	status, err := domain.ParseAppointmentStatus(raw)
	if err != nil {
		return "", apperrors.NewInvalidInput("status", "status must be one of PENDING, CONFIRMED, CANCELLED, COMPLETED")
	}
	return status, nil
}

func appointmentResponse(appt *domain.Appointment) dto.AppointmentResponse {
	return dto.AppointmentResponse{
		ID:            appt.ID,
		Code:          appt.Code,
		CustomerName:  appt.CustomerName,
		CustomerPhone: appt.CustomerPhone,
		StaffID:       appt.StaffID,
		Date:          appt.Date.Format(domain.DateLayout),
		Time:          appt.Time,
		Notes:         appt.Notes,
		Status:        appt.Status,
		CreatedAt:     appt.CreatedAt,
		UpdatedAt:     appt.UpdatedAt,
	}
}

func historyResponse(entry *domain.AppointmentHistory) dto.HistoryResponse {
	return dto.HistoryResponse{
		ID:         entry.ID,
		ActorRole:  entry.ActorRole,
		ChangeType: entry.ChangeType,
		OldValue:   entry.OldValue,
		NewValue:   entry.NewValue,
		CreatedAt:  entry.CreatedAt,
	}
}

func staffResponse(staff *domain.StaffMember) dto.StaffResponse {
	return dto.StaffResponse{
		ID:     staff.ID,
		Name:   staff.Name,
		Title:  staff.Title,
		Rank:   staff.Rank,
		Active: staff.Active,
	}
}

func scheduleResponse(ws *domain.WorkSchedule) dto.ScheduleResponse {
	return dto.ScheduleResponse{
		Weekday:             ws.Weekday,
		IsWorking:           ws.IsWorking,
		StartTime:           ws.StartTime,
		EndTime:             ws.EndTime,
		SlotIntervalMinutes: ws.SlotIntervalMinutes,
		BreakStart:          ws.BreakStart,
		BreakEnd:            ws.BreakEnd,
		UpdatedAt:           ws.UpdatedAt,
	}
}
