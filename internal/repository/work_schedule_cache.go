package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/appointment-service/internal/domain"
)

// cachedSchedule is the Redis representation. Found=false records a missing row.
type cachedSchedule struct {
	Found               bool              `json:"found"`
	ID                  string            `json:"id,omitempty"`
	StaffID             string            `json:"staff_id"`
	Weekday             domain.Weekday    `json:"weekday"`
	IsWorking           bool              `json:"is_working"`
	StartTime           *domain.TimeOfDay `json:"start_time,omitempty"`
	EndTime             *domain.TimeOfDay `json:"end_time,omitempty"`
	SlotIntervalMinutes *int              `json:"slot_interval_minutes,omitempty"`
	BreakStart          *domain.TimeOfDay `json:"break_start,omitempty"`
	BreakEnd            *domain.TimeOfDay `json:"break_end,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

type cachedWorkScheduleRepository struct {
	next   WorkScheduleRepository
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedWorkScheduleRepository wraps next with a Redis read-through cache
// for single-day lookups. Cache errors are logged and fall through to next.
func NewCachedWorkScheduleRepository(next WorkScheduleRepository, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) WorkScheduleRepository {
	if client == nil || ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedWorkScheduleRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func scheduleCacheKey(staffID string, weekday domain.Weekday) string {
	return fmt.Sprintf("schedule:%s:%s", staffID, weekday)
}

// Upsert bumps the version key; a reader only fills the cache when the
// version it saw before loading from next is still current.
func scheduleVersionKey(key string) string {
	return key + ":v"
}

var storeIfVersion = redis.NewScript(`
if (redis.call("GET", KEYS[2]) or "0") == ARGV[1] then
  redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
  return 1
end
return 0
`)

func (c *cachedWorkScheduleRepository) GetByStaffAndWeekday(ctx context.Context, staffID string, weekday domain.Weekday) (*domain.WorkSchedule, error) {
	key := scheduleCacheKey(staffID, weekday)
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry cachedSchedule
		if err := json.Unmarshal(raw, &entry); err == nil {
			if !entry.Found {
				return nil, pgx.ErrNoRows
			}
			return entry.toDomain(), nil
		}
		c.logger.Warn("discarding corrupt schedule cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("schedule cache read failed", zap.String("key", key), zap.Error(err))
	}

	version, verr := c.client.Get(ctx, scheduleVersionKey(key)).Result()
	switch {
	case errors.Is(verr, redis.Nil):
		version = "0"
	case verr != nil:
		c.logger.Warn("schedule cache version read failed", zap.String("key", key), zap.Error(verr))
	}

	ws, err := c.next.GetByStaffAndWeekday(ctx, staffID, weekday)
	if verr != nil && !errors.Is(verr, redis.Nil) {
		return ws, err
	}
	switch {
	case err == nil:
		c.store(ctx, key, version, fromDomainSchedule(ws))
	case errors.Is(err, pgx.ErrNoRows):
		c.store(ctx, key, version, cachedSchedule{StaffID: staffID, Weekday: weekday})
	}
	return ws, err
}

func (c *cachedWorkScheduleRepository) ListByStaff(ctx context.Context, staffID string) ([]domain.WorkSchedule, error) {
	return c.next.ListByStaff(ctx, staffID)
}

func (c *cachedWorkScheduleRepository) Upsert(ctx context.Context, ws *domain.WorkSchedule) error {
	if err := c.next.Upsert(ctx, ws); err != nil {
		return err
	}
	key := scheduleCacheKey(ws.StaffID, ws.Weekday)
	if err := c.client.Incr(ctx, scheduleVersionKey(key)).Err(); err != nil {
		c.logger.Warn("schedule cache version bump failed", zap.String("key", key), zap.Error(err))
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("schedule cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (c *cachedWorkScheduleRepository) store(ctx context.Context, key, version string, entry cachedSchedule) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	keys := []string{key, scheduleVersionKey(key)}
	if err := storeIfVersion.Run(ctx, c.client, keys, version, payload, c.ttl.Milliseconds()).Err(); err != nil {
		c.logger.Warn("schedule cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func fromDomainSchedule(ws *domain.WorkSchedule) cachedSchedule {
	return cachedSchedule{
		Found:               true,
		ID:                  ws.ID,
		StaffID:             ws.StaffID,
		Weekday:             ws.Weekday,
		IsWorking:           ws.IsWorking,
		StartTime:           ws.StartTime,
		EndTime:             ws.EndTime,
		SlotIntervalMinutes: ws.SlotIntervalMinutes,
		BreakStart:          ws.BreakStart,
		BreakEnd:            ws.BreakEnd,
		CreatedAt:           ws.CreatedAt,
		UpdatedAt:           ws.UpdatedAt,
	}
}

func (e cachedSchedule) toDomain() *domain.WorkSchedule {
	return &domain.WorkSchedule{
		ID:                  e.ID,
		StaffID:             e.StaffID,
		Weekday:             e.Weekday,
		IsWorking:           e.IsWorking,
		StartTime:           e.StartTime,
		EndTime:             e.EndTime,
		SlotIntervalMinutes: e.SlotIntervalMinutes,
		BreakStart:          e.BreakStart,
		BreakEnd:            e.BreakEnd,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}
