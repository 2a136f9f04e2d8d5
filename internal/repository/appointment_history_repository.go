package repository

import (
	"context"

	"github.com/spec-kit/appointment-service/internal/domain"
)

// AppointmentHistoryRepository stores audit entries.
type AppointmentHistoryRepository interface {
	Create(ctx context.Context, history *domain.AppointmentHistory) error
	ListByAppointment(ctx context.Context, appointmentID string) ([]domain.AppointmentHistory, error)
}

type appointmentHistoryRepository struct {
	db DB
}

// NewAppointmentHistoryRepository builds repository.
func NewAppointmentHistoryRepository(db DB) AppointmentHistoryRepository {
	return &appointmentHistoryRepository{db: db}
}

func (r *appointmentHistoryRepository) Create(ctx context.Context, history *domain.AppointmentHistory) error {
	const query = `
        INSERT INTO appointment_history (appointment_id, actor_role, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		history.AppointmentID,
		history.ActorRole,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *appointmentHistoryRepository) ListByAppointment(ctx context.Context, appointmentID string) ([]domain.AppointmentHistory, error) {
	const query = `
        SELECT id, appointment_id, actor_role, change_type, old_value, new_value, created_at
        FROM appointment_history WHERE appointment_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AppointmentHistory
	for rows.Next() {
		var history domain.AppointmentHistory
		if err := rows.Scan(
			&history.ID,
			&history.AppointmentID,
			&history.ActorRole,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
