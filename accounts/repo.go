package accounts

import "context"

type Repo interface {
	Create(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByVerificationTokenHash(ctx context.Context, hash string) (*Account, error)
	GetByResetTokenHash(ctx context.Context, hash string) (*Account, error)
}
