package fakeaccountrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/storytail/storytail-server/accounts"
	apperrors "github.com/storytail/storytail-server/internal/errors"
)

var _ accounts.Repo = (*FakeAccountRepo)(nil)

type FakeAccountRepo struct {
	accounts map[string]*accounts.Account
	emailIds map[string]string // email to account id
	lock     sync.RWMutex
}

func NewFakeAccountRepo() *FakeAccountRepo {
	return &FakeAccountRepo{
		accounts: make(map[string]*accounts.Account),
		emailIds: make(map[string]string),
	}
}

func (ar *FakeAccountRepo) Create(_ context.Context, account *accounts.Account) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	copied := *account
	ar.accounts[account.ID] = &copied
	ar.emailIds[account.Email] = account.ID
	return nil
}

func (ar *FakeAccountRepo) Update(_ context.Context, account *accounts.Account) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	if _, ok := ar.accounts[account.ID]; !ok {
		return apperrors.ErrAccountNotFound
	}
	copied := *account
	ar.accounts[account.ID] = &copied
	ar.emailIds[account.Email] = account.ID
	return nil
}

func (ar *FakeAccountRepo) GetByEmail(_ context.Context, email string) (*accounts.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	id, ok := ar.emailIds[accounts.NormalizeEmail(email)]
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	copied := *ar.accounts[id]
	return &copied, nil
}

func (ar *FakeAccountRepo) GetByID(_ context.Context, id string) (*accounts.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	account, ok := ar.accounts[id]
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (ar *FakeAccountRepo) GetByVerificationTokenHash(_ context.Context, hash string) (*accounts.Account, error) {
	return ar.findBy(func(a *accounts.Account) bool { return a.VerificationTokenHash == hash && hash != "" })
}

func (ar *FakeAccountRepo) GetByResetTokenHash(_ context.Context, hash string) (*accounts.Account, error) {
	return ar.findBy(func(a *accounts.Account) bool { return a.ResetTokenHash == hash && hash != "" })
}

func (ar *FakeAccountRepo) findBy(match func(*accounts.Account) bool) (*accounts.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	for _, account := range ar.accounts {
		if match(account) {
			copied := *account
			return &copied, nil
		}
	}
	return nil, apperrors.ErrAccountNotFound
}
