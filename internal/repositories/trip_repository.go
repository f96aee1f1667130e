package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbm "tripweave/internal/models/db_models"
)

// ScheduledMark is one place's scheduling assignment from a finished run.
type ScheduledMark struct {
	PlaceID   uuid.UUID
	DayIndex  int
	StartUnix int64
	EndUnix   int64
}

type TripRepository interface {
	GetTripByID(ctx context.Context, tripID string) (*dbm.Trip, error)
	GetMembersByTripID(ctx context.Context, tripID string) ([]dbm.Member, error)
	GetPlacesByTripID(ctx context.Context, tripID string) ([]dbm.CandidatePlace, error)

	// ApplyScheduling clears every scheduling flag for the trip, then applies
	// the new marks, all inside one transaction. Concurrent readers see either
	// the old fully-scheduled state or the new one.
	ApplyScheduling(ctx context.Context, tripID string, marks []ScheduledMark) error
}

type tripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) TripRepository {
	return &tripRepository{db: db}
}

func (r *tripRepository) GetTripByID(ctx context.Context, tripID string) (*dbm.Trip, error) {
	var trip dbm.Trip
	err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("Places").
		Where("id = ?", tripID).
		First(&trip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *tripRepository) GetMembersByTripID(ctx context.Context, tripID string) ([]dbm.Member, error) {
	var members []dbm.Member
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("created_at asc").
		Find(&members).Error
	return members, err
}

func (r *tripRepository) GetPlacesByTripID(ctx context.Context, tripID string) ([]dbm.CandidatePlace, error) {
	var places []dbm.CandidatePlace
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("created_at asc").
		Find(&places).Error
	return places, err
}

func (r *tripRepository) ApplyScheduling(ctx context.Context, tripID string, marks []ScheduledMark) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&dbm.CandidatePlace{}).
			Where("trip_id = ?", tripID).
			Updates(map[string]interface{}{
				"is_scheduled":    false,
				"scheduled_day":   0,
				"scheduled_start": nil,
				"scheduled_end":   nil,
			}).Error; err != nil {
			return err
		}

		for _, m := range marks {
			start, end := m.StartUnix, m.EndUnix
			if err := tx.Model(&dbm.CandidatePlace{}).
				Where("id = ? AND trip_id = ?", m.PlaceID, tripID).
				Updates(map[string]interface{}{
					"is_scheduled":    true,
					"scheduled_day":   m.DayIndex,
					"scheduled_start": start,
					"scheduled_end":   end,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
