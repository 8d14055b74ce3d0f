package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	groupmodel "github.com/campushub/campus-forum/internal/core/datamodel/group"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*groupmodel.Group, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *GroupRepository) GetBySlug(ctx context.Context, slug string) (*groupmodel.Group, error) {
	return r.getOne(ctx, "slug = ?", slug)
}

func (r *GroupRepository) getOne(ctx context.Context, query string, arg interface{}) (*groupmodel.Group, error) {
	var g groupmodel.Group
	err := r.db.WithContext(ctx).Where(query, arg).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) List(ctx context.Context) ([]*groupmodel.Group, error) {
	var groups []*groupmodel.Group
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	for _, g := range groups {
		if err := r.hydrate(ctx, g); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// GetUserGroups returns every group whose member set contains the user,
// hydrated with its channel grants. This feeds the access evaluator.
func (r *GroupRepository) GetUserGroups(ctx context.Context, userID string) ([]*groupmodel.Group, error) {
	var memberships []groupmodel.Member
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}
	groups := make([]*groupmodel.Group, 0, len(memberships))
	for _, m := range memberships {
		g, err := r.GetByID(ctx, m.GroupID)
		if err != nil {
			return nil, err
		}
		if g != nil {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (r *GroupRepository) Create(ctx context.Context, g *groupmodel.Group) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *GroupRepository) Save(ctx context.Context, g *groupmodel.Group) error {
	return r.db.WithContext(ctx).Model(&groupmodel.Group{}).
		Where("id = ?", g.ID).
		Updates(map[string]interface{}{
			"slug":        g.Slug,
			"name":        g.Name,
			"description": g.Description,
		}).Error
}

func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&groupmodel.Member{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&groupmodel.ChannelGrant{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&groupmodel.Group{}).Error
	})
}

func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&groupmodel.Member{GroupID: groupID, UserID: userID}).Error
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&groupmodel.Member{}).Error
}

func (r *GroupRepository) AddGrant(ctx context.Context, groupID, channelRef, grant string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&groupmodel.ChannelGrant{GroupID: groupID, ChannelRef: channelRef, Grant: grant}).Error
}

func (r *GroupRepository) RemoveGrant(ctx context.Context, groupID, channelRef, grant string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND channel_ref = ? AND grant_kind = ?", groupID, channelRef, grant).
		Delete(&groupmodel.ChannelGrant{}).Error
}

func (r *GroupRepository) hydrate(ctx context.Context, g *groupmodel.Group) error {
	db := r.db.WithContext(ctx)

	var members []groupmodel.Member
	if err := db.Where("group_id = ?", g.ID).Find(&members).Error; err != nil {
		return err
	}
	g.Members = make([]string, 0, len(members))
	for _, m := range members {
		g.Members = append(g.Members, m.UserID)
	}

	var grants []groupmodel.ChannelGrant
	if err := db.Where("group_id = ?", g.ID).Find(&grants).Error; err != nil {
		return err
	}
	g.CanViewChannels = nil
	g.CanPostIn = nil
	g.ModeratesChannels = nil
	for _, grant := range grants {
		switch grant.Grant {
		case groupmodel.GrantView:
			g.CanViewChannels = append(g.CanViewChannels, grant.ChannelRef)
		case groupmodel.GrantPost:
			g.CanPostIn = append(g.CanPostIn, grant.ChannelRef)
		case groupmodel.GrantModerate:
			g.ModeratesChannels = append(g.ModeratesChannels, grant.ChannelRef)
		}
	}

	return nil
}
