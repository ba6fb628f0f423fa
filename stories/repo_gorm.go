package stories

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/storytail/storytail-server/internal/database"
	apperrors "github.com/storytail/storytail-server/internal/errors"
)

var _ Repo = (*GormRepo)(nil)

type GormRepo struct {
	db *database.Database
}

func NewGormRepo(db *database.Database) *GormRepo {
	return &GormRepo{db: db}
}

func (r *GormRepo) Create(ctx context.Context, story *Story) error {
	if err := r.db.WithContext(ctx).Create(story).Error; err != nil {
		return errors.Wrap(err, "[stories.GormRepo.Create]")
	}
	return nil
}

func (r *GormRepo) Update(ctx context.Context, story *Story) error {
	if err := r.db.WithContext(ctx).Save(story).Error; err != nil {
		return errors.Wrap(err, "[stories.GormRepo.Update]")
	}
	return nil
}

func (r *GormRepo) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&Story{}, "id = ?", id).Error; err != nil {
		return errors.Wrap(err, "[stories.GormRepo.Delete]")
	}
	return nil
}

func (r *GormRepo) GetByID(ctx context.Context, id string) (*Story, error) {
	var story Story
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&story).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[stories.GormRepo.GetByID]")
	}
	return &story, nil
}

func (r *GormRepo) ListByUser(ctx context.Context, userID string) ([]*Story, error) {
	var list []*Story
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&list).Error
	if err != nil {
		return nil, errors.Wrap(err, "[stories.GormRepo.ListByUser]")
	}
	return list, nil
}
