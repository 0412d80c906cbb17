package repository

import (
	"errors"
	"strings"

	"github.com/forsetihq/flowd/internal/database"
	"github.com/forsetihq/flowd/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicate       = errors.New("username or email already in use")
)

type AccountRepository interface {
	Create(account *domain.Account) error
	FindByID(id uint) (*domain.Account, error)
	FindByIdentifier(identifier string) (*domain.Account, error)
	First() (*domain.Account, error)
	Count() (int64, error)
	Update(account *domain.Account) error
	UpdateFields(id uint, fields map[string]any) error
	DeleteAll() (int64, error)
}

type GormAccountRepository struct{ store *database.Store }

func NewAccountRepository(store *database.Store) AccountRepository {
	return &GormAccountRepository{store: store}
}

func (r *GormAccountRepository) Create(account *domain.Account) error {
	if account.Email != nil {
		lower := strings.ToLower(*account.Email)
		account.Email = &lower
	}
	err := r.store.DB().Create(account).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *GormAccountRepository) FindByID(id uint) (*domain.Account, error) {
	var a domain.Account
	err := r.store.DB().First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByIdentifier resolves either the unique username or the
// case-insensitive email.
func (r *GormAccountRepository) FindByIdentifier(identifier string) (*domain.Account, error) {
	var a domain.Account
	err := r.store.DB().
		Where("username = ? OR (email IS NOT NULL AND email = ?)", identifier, strings.ToLower(identifier)).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// First returns the lowest-id account; single-admin deployments log in
// against it.
func (r *GormAccountRepository) First() (*domain.Account, error) {
	var a domain.Account
	err := r.store.DB().Order("id").First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAccountRepository) Count() (int64, error) {
	var n int64
	err := r.store.DB().Model(&domain.Account{}).Count(&n).Error
	return n, err
}

func (r *GormAccountRepository) Update(account *domain.Account) error {
	err := r.store.DB().Save(account).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// UpdateFields applies only the supplied columns in one statement so a
// uniqueness conflict aborts the whole update.
func (r *GormAccountRepository) UpdateFields(id uint, fields map[string]any) error {
	res := r.store.DB().Model(&domain.Account{}).Where("id = ?", id).Updates(fields)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// DeleteAll removes every account row. Only the operator purge utility
// calls this.
func (r *GormAccountRepository) DeleteAll() (int64, error) {
	res := r.store.DB().Where("1 = 1").Delete(&domain.Account{})
	return res.RowsAffected, res.Error
}
