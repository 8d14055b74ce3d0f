package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	postmodel "github.com/campushub/campus-forum/internal/core/datamodel/post"
	"github.com/campushub/campus-forum/internal/post"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*postmodel.Post, error) {
	var p postmodel.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.hydrateVotes(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) List(ctx context.Context, params post.ListParams) ([]*postmodel.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&postmodel.Post{})

	if params.ChannelID != "" {
		q = q.Where("channel_id = ?", params.ChannelID)
	} else {
		if len(params.AllowedChannelIDs) == 0 {
			return nil, 0, nil
		}
		q = q.Where("channel_id IN ?", params.AllowedChannelIDs)
	}
	if !params.IncludeArchived {
		q = q.Where("archived = ?", false)
	}
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ? OR submitted_by_name ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch params.Sort {
	case post.SortTop:
		q = q.Order("points DESC").Order("submitted_at DESC")
	case post.SortComments:
		q = q.Order("comments_count DESC").Order("submitted_at DESC")
	default:
		q = q.Order("submitted_at DESC")
	}

	offset := (params.Page - 1) * params.PageSize
	var posts []*postmodel.Post
	if err := q.Offset(offset).Limit(params.PageSize).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	for _, p := range posts {
		if err := r.hydrateVotes(ctx, p); err != nil {
			return nil, 0, err
		}
	}
	return posts, total, nil
}

func (r *PostRepository) Create(ctx context.Context, p *postmodel.Post) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PostRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	return r.db.WithContext(ctx).Model(&postmodel.Post{}).
		Where("id = ?", id).
		Update("archived", archived).Error
}

// SetVote upserts the caller's vote row and refreshes the points column. The
// (post, user) primary key guarantees a user never holds both directions.
func (r *PostRepository) SetVote(ctx context.Context, postID, userID, direction string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vote := &postmodel.Vote{PostID: postID, UserID: userID, Direction: direction}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"direction"}),
		}).Create(vote).Error
		if err != nil {
			return err
		}
		return recountPoints(tx, postID)
	})
}

func (r *PostRepository) ClearVote(ctx context.Context, postID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).
			Delete(&postmodel.Vote{}).Error
		if err != nil {
			return err
		}
		return recountPoints(tx, postID)
	})
}

func (r *PostRepository) AdjustCommentsCount(ctx context.Context, postID string, delta int) error {
	return r.db.WithContext(ctx).Model(&postmodel.Post{}).
		Where("id = ?", postID).
		Update("comments_count", gorm.Expr("comments_count + ?", delta)).Error
}

func recountPoints(tx *gorm.DB, postID string) error {
	return tx.Model(&postmodel.Post{}).
		Where("id = ?", postID).
		Update("points", gorm.Expr(
			`(SELECT COUNT(*) FILTER (WHERE direction = 'up') - COUNT(*) FILTER (WHERE direction = 'down')
			  FROM post_votes WHERE post_id = ?)`, postID)).Error
}

func (r *PostRepository) hydrateVotes(ctx context.Context, p *postmodel.Post) error {
	var votes []postmodel.Vote
	if err := r.db.WithContext(ctx).Where("post_id = ?", p.ID).Find(&votes).Error; err != nil {
		return err
	}
	p.Upvotes = nil
	p.Downvotes = nil
	for _, v := range votes {
		switch v.Direction {
		case postmodel.VoteUp:
			p.Upvotes = append(p.Upvotes, v.UserID)
		case postmodel.VoteDown:
			p.Downvotes = append(p.Downvotes, v.UserID)
		}
	}
	return nil
}
