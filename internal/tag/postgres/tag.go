package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	tagmodel "github.com/campushub/campus-forum/internal/core/datamodel/tag"
)

type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) GetByID(ctx context.Context, id string) (*tagmodel.Tag, error) {
	var t tagmodel.Tag
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns global tags only.
func (r *TagRepository) List(ctx context.Context) ([]*tagmodel.Tag, error) {
	var tags []*tagmodel.Tag
	err := r.db.WithContext(ctx).
		Where("channel_id = '' OR channel_id IS NULL").
		Order("name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// ListForChannel returns global tags plus the channel's own.
func (r *TagRepository) ListForChannel(ctx context.Context, channelID string) ([]*tagmodel.Tag, error) {
	var tags []*tagmodel.Tag
	err := r.db.WithContext(ctx).
		Where("channel_id = '' OR channel_id IS NULL OR channel_id = ?", channelID).
		Order("name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *TagRepository) Create(ctx context.Context, t *tagmodel.Tag) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TagRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&tagmodel.Tag{}).Error
}
