package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	commentmodel "github.com/campushub/campus-forum/internal/core/datamodel/comment"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*commentmodel.Comment, error) {
	var c commentmodel.Comment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.hydrateVotes(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]*commentmodel.Comment, error) {
	var comments []*commentmodel.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if err := r.hydrateVotes(ctx, c); err != nil {
			return nil, err
		}
	}
	return comments, nil
}

func (r *CommentRepository) Create(ctx context.Context, c *commentmodel.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&commentmodel.Vote{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&commentmodel.Comment{}).Error
	})
}

func (r *CommentRepository) SetVote(ctx context.Context, commentID, userID, direction string) error {
	vote := &commentmodel.Vote{CommentID: commentID, UserID: userID, Direction: direction}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"direction"}),
	}).Create(vote).Error
}

func (r *CommentRepository) ClearVote(ctx context.Context, commentID, userID string) error {
	return r.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&commentmodel.Vote{}).Error
}

func (r *CommentRepository) hydrateVotes(ctx context.Context, c *commentmodel.Comment) error {
	var votes []commentmodel.Vote
	if err := r.db.WithContext(ctx).Where("comment_id = ?", c.ID).Find(&votes).Error; err != nil {
		return err
	}
	c.Upvotes = nil
	c.Downvotes = nil
	for _, v := range votes {
		switch v.Direction {
		case "up":
			c.Upvotes = append(c.Upvotes, v.UserID)
		case "down":
			c.Downvotes = append(c.Downvotes, v.UserID)
		}
	}
	return nil
}
