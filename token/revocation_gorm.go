package token

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/storytail/storytail-server/internal/database"
)

// RevokedToken is a durable record of an invalidated jti. Rows are swept once
// the token they revoke would have expired anyway.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;column:jti"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

var _ RevocationStore = (*GormRevocationStore)(nil)

// GormRevocationStore persists revocations. The jti primary key keeps the
// IsRevoked point lookup indexed.
type GormRevocationStore struct {
	db      *database.Database
	nowFunc func() time.Time
}

type GormRevocationStoreOption func(*GormRevocationStore)

func WithGormStoreNowFunc(now func() time.Time) GormRevocationStoreOption {
	return func(s *GormRevocationStore) {
		s.nowFunc = now
	}
}

func NewGormRevocationStore(db *database.Database, options ...GormRevocationStoreOption) *GormRevocationStore {
	s := &GormRevocationStore{db: db, nowFunc: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *GormRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	// Existence check rather than upsert so re-revoking never resets expiry.
	var count int64
	if err := s.db.WithContext(ctx).Model(&RevokedToken{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
		return errors.Wrap(err, "[GormRevocationStore.Revoke] count")
	}
	if count > 0 {
		return nil
	}
	record := RevokedToken{JTI: jti, ExpiresAt: expiresAt, CreatedAt: s.nowFunc()}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return errors.Wrap(err, "[GormRevocationStore.Revoke] create")
	}
	return nil
}

func (s *GormRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&RevokedToken{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "[GormRevocationStore.IsRevoked]")
	}
	return count > 0, nil
}

func (s *GormRevocationStore) Sweep(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", s.nowFunc()).Delete(&RevokedToken{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "[GormRevocationStore.Sweep]")
	}
	return result.RowsAffected, nil
}
