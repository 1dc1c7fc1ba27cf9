// Package gorm implements the persistent AccountStore on GORM. Open
// the DB with TranslateError enabled so unique-key violations surface
// as gorm.ErrDuplicatedKey.
package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/panyam/accounts"
)

// AutoMigrate runs database migrations for the account tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&AccountModel{})
}

// AccountStore implements accounts.AccountStore using GORM.
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) FindByID(ctx context.Context, id string) (*accounts.Account, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	return s.findOne(ctx, "email = ?", email)
}

func (s *AccountStore) FindByVerificationCode(ctx context.Context, code string) (*accounts.Account, error) {
	return s.findOne(ctx, "verification_code = ?", code)
}

func (s *AccountStore) FindByFederatedID(ctx context.Context, provider, subjectID string) (*accounts.Account, error) {
	switch provider {
	case accounts.ProviderFacebook:
		return s.findOne(ctx, "facebook_id = ?", subjectID)
	case accounts.ProviderGoogle:
		return s.findOne(ctx, "google_id = ?", subjectID)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

func (s *AccountStore) Insert(ctx context.Context, acct *accounts.Account) error {
	model := AccountToModel(acct)
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return accounts.ErrDuplicateEmail
		}
		return err
	}
	acct.CreatedAt = model.CreatedAt
	acct.UpdatedAt = model.UpdatedAt
	return nil
}

func (s *AccountStore) Update(ctx context.Context, acct *accounts.Account) error {
	model := AccountToModel(acct)
	// Save with a full model writes every column, including the NULLs
	// that clear a consumed verification code.
	res := s.db.WithContext(ctx).Model(&AccountModel{ID: acct.ID}).
		Select("*").Omit("id", "created_at").Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return accounts.ErrAccountNotFound
	}
	return nil
}

func (s *AccountStore) findOne(ctx context.Context, query string, args ...any) (*accounts.Account, error) {
	var model AccountModel
	if err := s.db.WithContext(ctx).First(&model, append([]any{query}, args...)...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounts.ErrAccountNotFound
		}
		return nil, err
	}
	return model.ToAccount(), nil
}
