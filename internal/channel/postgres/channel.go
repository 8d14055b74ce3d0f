package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	channelmodel "github.com/campushub/campus-forum/internal/core/datamodel/channel"
)

type ChannelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

func (r *ChannelRepository) GetByID(ctx context.Context, id string) (*channelmodel.Channel, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *ChannelRepository) GetBySlug(ctx context.Context, slug string) (*channelmodel.Channel, error) {
	return r.getOne(ctx, "slug = ?", slug)
}

func (r *ChannelRepository) getOne(ctx context.Context, query string, arg interface{}) (*channelmodel.Channel, error) {
	var ch channelmodel.Channel
	err := r.db.WithContext(ctx).Where(query, arg).First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.hydrateSets(ctx, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *ChannelRepository) List(ctx context.Context) ([]*channelmodel.Channel, error) {
	var channels []*channelmodel.Channel
	err := r.db.WithContext(ctx).
		Order("category ASC").
		Order("sort_index ASC").
		Order("name ASC").
		Find(&channels).Error
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		if err := r.hydrateSets(ctx, ch); err != nil {
			return nil, err
		}
	}
	return channels, nil
}

func (r *ChannelRepository) Create(ctx context.Context, ch *channelmodel.Channel) error {
	return r.db.WithContext(ctx).Create(ch).Error
}

func (r *ChannelRepository) Save(ctx context.Context, ch *channelmodel.Channel) error {
	return r.db.WithContext(ctx).Model(&channelmodel.Channel{}).
		Where("id = ?", ch.ID).
		Updates(map[string]interface{}{
			"slug":           ch.Slug,
			"name":           ch.Name,
			"description":    ch.Description,
			"category":       ch.Category,
			"sort_index":     ch.SortIndex,
			"type":           ch.Type,
			"hashed_passkey": ch.HashedPasskey,
			"posting_mode":   ch.PostingMode,
		}).Error
}

func (r *ChannelRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range []interface{}{
			&channelmodel.Member{},
			&channelmodel.Moderator{},
			&channelmodel.PendingModerator{},
			&channelmodel.PostingGroup{},
		} {
			if err := tx.Where("channel_id = ?", id).Delete(row).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&channelmodel.Channel{}).Error
	})
}

// Set mutations. Adds use ON CONFLICT DO NOTHING and removes are plain
// deletes, so each one is idempotent and atomic on its own.

func (r *ChannelRepository) AddMember(ctx context.Context, channelID, userID string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&channelmodel.Member{ChannelID: channelID, UserID: userID}).Error
}

func (r *ChannelRepository) RemoveMember(ctx context.Context, channelID, userID string) error {
	return r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Delete(&channelmodel.Member{}).Error
}

func (r *ChannelRepository) AddModerator(ctx context.Context, channelID, userID string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&channelmodel.Moderator{ChannelID: channelID, UserID: userID}).Error
}

func (r *ChannelRepository) RemoveModerator(ctx context.Context, channelID, userID string) error {
	return r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Delete(&channelmodel.Moderator{}).Error
}

func (r *ChannelRepository) AddPendingModerator(ctx context.Context, channelID, userID string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&channelmodel.PendingModerator{ChannelID: channelID, UserID: userID}).Error
}

func (r *ChannelRepository) RemovePendingModerator(ctx context.Context, channelID, userID string) error {
	return r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Delete(&channelmodel.PendingModerator{}).Error
}

// SetPostingGroups replaces the allow-list wholesale inside one transaction.
func (r *ChannelRepository) SetPostingGroups(ctx context.Context, channelID string, groupIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", channelID).Delete(&channelmodel.PostingGroup{}).Error; err != nil {
			return err
		}
		for _, gid := range groupIDs {
			row := &channelmodel.PostingGroup{ChannelID: channelID, GroupID: gid}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ChannelRepository) hydrateSets(ctx context.Context, ch *channelmodel.Channel) error {
	db := r.db.WithContext(ctx)

	var members []channelmodel.Member
	if err := db.Where("channel_id = ?", ch.ID).Find(&members).Error; err != nil {
		return err
	}
	ch.Members = make([]string, 0, len(members))
	for _, m := range members {
		ch.Members = append(ch.Members, m.UserID)
	}

	var moderators []channelmodel.Moderator
	if err := db.Where("channel_id = ?", ch.ID).Find(&moderators).Error; err != nil {
		return err
	}
	ch.Moderators = make([]string, 0, len(moderators))
	for _, m := range moderators {
		ch.Moderators = append(ch.Moderators, m.UserID)
	}

	var pending []channelmodel.PendingModerator
	if err := db.Where("channel_id = ?", ch.ID).Find(&pending).Error; err != nil {
		return err
	}
	ch.PendingModerators = make([]string, 0, len(pending))
	for _, p := range pending {
		ch.PendingModerators = append(ch.PendingModerators, p.UserID)
	}

	var groups []channelmodel.PostingGroup
	if err := db.Where("channel_id = ?", ch.ID).Find(&groups).Error; err != nil {
		return err
	}
	ch.AllowedPostingGroups = make([]string, 0, len(groups))
	for _, g := range groups {
		ch.AllowedPostingGroups = append(ch.AllowedPostingGroups, g.GroupID)
	}

	return nil
}
