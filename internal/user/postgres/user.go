package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	usermodel "github.com/campushub/campus-forum/internal/core/datamodel/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*usermodel.User, error) {
	var u usermodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail matches case-insensitively; emails are stored as entered but
// compared lowercased.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	var u usermodel.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *usermodel.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) Update(ctx context.Context, u *usermodel.User) error {
	return r.db.WithContext(ctx).Model(&usermodel.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"name":            u.Name,
			"bio":             u.Bio,
			"profile_pic_url": u.ProfilePicURL,
			"bg_class":        u.BgClass,
			"is_active":       u.IsActive,
		}).Error
}

// UpdateRole writes the role column alone; profile updates can never touch it.
func (r *UserRepository) UpdateRole(ctx context.Context, id, role string) error {
	return r.db.WithContext(ctx).Model(&usermodel.User{}).
		Where("id = ?", id).
		Update("role", role).Error
}

func (r *UserRepository) List(ctx context.Context) ([]*usermodel.User, error) {
	var users []*usermodel.User
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
