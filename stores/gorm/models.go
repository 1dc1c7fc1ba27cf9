package gorm

import (
	"time"

	"github.com/panyam/accounts"
)

// AccountModel is the GORM model for accounts. Email carries the
// unique constraint that makes registration race-safe; the code and
// federated-id columns are nullable uniques so absent values never
// collide.
type AccountModel struct {
	ID    string `gorm:"primaryKey;size:64"`
	Name  string `gorm:"size:255"`
	Email string `gorm:"size:320;uniqueIndex"`

	Salt         string `gorm:"size:128"`
	PasswordHash string `gorm:"size:256"`

	Verified               bool    `gorm:"default:false"`
	VerificationCode       *string `gorm:"size:128;uniqueIndex"`
	LastVerificationSentAt time.Time

	FacebookID *string `gorm:"size:128;uniqueIndex"`
	GoogleID   *string `gorm:"size:128;uniqueIndex"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (AccountModel) TableName() string {
	return "accounts"
}

func (m *AccountModel) ToAccount() *accounts.Account {
	acct := &accounts.Account{
		ID:                     m.ID,
		Name:                   m.Name,
		Email:                  m.Email,
		Salt:                   m.Salt,
		PasswordHash:           m.PasswordHash,
		Verified:               m.Verified,
		LastVerificationSentAt: m.LastVerificationSentAt,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
	if m.VerificationCode != nil {
		acct.VerificationCode = *m.VerificationCode
	}
	if m.FacebookID != nil {
		acct.SetFederatedID(accounts.ProviderFacebook, *m.FacebookID)
	}
	if m.GoogleID != nil {
		acct.SetFederatedID(accounts.ProviderGoogle, *m.GoogleID)
	}
	return acct
}

func AccountToModel(acct *accounts.Account) *AccountModel {
	m := &AccountModel{
		ID:                     acct.ID,
		Name:                   acct.Name,
		Email:                  acct.Email,
		Salt:                   acct.Salt,
		PasswordHash:           acct.PasswordHash,
		Verified:               acct.Verified,
		LastVerificationSentAt: acct.LastVerificationSentAt,
		CreatedAt:              acct.CreatedAt,
		UpdatedAt:              acct.UpdatedAt,
	}
	if acct.VerificationCode != "" {
		m.VerificationCode = ptr(acct.VerificationCode)
	}
	if id := acct.FederatedID(accounts.ProviderFacebook); id != "" {
		m.FacebookID = ptr(id)
	}
	if id := acct.FederatedID(accounts.ProviderGoogle); id != "" {
		m.GoogleID = ptr(id)
	}
	return m
}

func ptr(s string) *string {
	return &s
}
