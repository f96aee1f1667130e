package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	dbm "tripweave/internal/models/db_models"
)

type ScheduleRepository interface {
	// ReplaceActiveSchedule demotes any active record for the trip and
	// inserts the new one as active, in a single transaction.
	ReplaceActiveSchedule(ctx context.Context, record *dbm.TripScheduleRecord) error
	GetActiveSchedule(ctx context.Context, tripID string) (*dbm.TripScheduleRecord, error)
	ListSchedules(ctx context.Context, tripID string, limit int) ([]dbm.TripScheduleRecord, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) ReplaceActiveSchedule(ctx context.Context, record *dbm.TripScheduleRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&dbm.TripScheduleRecord{}).
			Where("trip_id = ? AND active = ?", record.TripID, true).
			Update("active", false).Error; err != nil {
			return err
		}
		record.Active = true
		return tx.Create(record).Error
	})
}

func (r *scheduleRepository) GetActiveSchedule(ctx context.Context, tripID string) (*dbm.TripScheduleRecord, error) {
	var rec dbm.TripScheduleRecord
	err := r.db.WithContext(ctx).
		Where("trip_id = ? AND active = ?", tripID, true).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *scheduleRepository) ListSchedules(ctx context.Context, tripID string, limit int) ([]dbm.TripScheduleRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var recs []dbm.TripScheduleRecord
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("generated_at desc").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}
