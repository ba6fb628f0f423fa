package accounts

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

func (r *GormRepo) Create(ctx context.Context, account *Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return errors.Wrap(err, "[GormRepo.Create]")
	}
	return nil
}

func (r *GormRepo) Update(ctx context.Context, account *Account) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		return errors.Wrap(err, "[GormRepo.Update]")
	}
	return nil
}

func (r *GormRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[GormRepo.GetByEmail]")
	}
	return &account, nil
}

func (r *GormRepo) GetByID(ctx context.Context, id string) (*Account, error) {
	var account Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[GormRepo.GetByID]")
	}
	return &account, nil
}

func (r *GormRepo) GetByVerificationTokenHash(ctx context.Context, hash string) (*Account, error) {
	return r.getByColumn(ctx, "verification_token_hash", hash)
}

func (r *GormRepo) GetByResetTokenHash(ctx context.Context, hash string) (*Account, error) {
	return r.getByColumn(ctx, "reset_token_hash", hash)
}

func (r *GormRepo) getByColumn(ctx context.Context, column, value string) (*Account, error) {
	if value == "" {
		return nil, apperrors.ErrAccountNotFound
	}
	var account Account
	err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[GormRepo.getByColumn] %s", column)
	}
	return &account, nil
}
