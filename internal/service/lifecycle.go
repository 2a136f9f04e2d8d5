package service

import (
	"github.com/spec-kit/appointment-service/internal/domain"
	apperrors "github.com/spec-kit/appointment-service/pkg/util/errorutil"
)

var allowedTransitions = map[domain.AppointmentStatus][]domain.AppointmentStatus{
	domain.AppointmentStatusPending:   {domain.AppointmentStatusConfirmed, domain.AppointmentStatusCancelled},
	domain.AppointmentStatusConfirmed: {domain.AppointmentStatusCancelled, domain.AppointmentStatusCompleted},
	domain.AppointmentStatusCancelled: {},
	domain.AppointmentStatusCompleted: {},
}

func isValidTransition(current, next domain.AppointmentStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CheckTransition decides whether actor may move an appointment from current
// to next. Customers may only cancel a pending appointment.
func CheckTransition(current, next domain.AppointmentStatus, actor domain.Actor) error {
	if !isValidTransition(current, next) {
		return apperrors.NewInvalidTransition(string(current), string(next))
	}
	switch actor.Role {
	case domain.ActorRoleAdmin:
		return nil
	case domain.ActorRoleCustomer:
		if current == domain.AppointmentStatusPending && next == domain.AppointmentStatusCancelled {
			return nil
		}
		return apperrors.NewInvalidTransition(string(current), string(next))
	default:
		return apperrors.NewForbidden("unknown actor")
	}
}
