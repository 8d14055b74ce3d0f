package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	eventmodel "github.com/campushub/campus-forum/internal/core/datamodel/event"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*eventmodel.Event, error) {
	var e eventmodel.Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListForMonth matches on the YYYY-MM prefix of the stored date.
func (r *EventRepository) ListForMonth(ctx context.Context, yearMonth string) ([]*eventmodel.Event, error) {
	var events []*eventmodel.Event
	err := r.db.WithContext(ctx).
		Where("date LIKE ?", yearMonth+"-%").
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) Create(ctx context.Context, e *eventmodel.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&eventmodel.Event{}).Error
}
