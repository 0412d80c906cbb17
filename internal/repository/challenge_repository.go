package repository

import (
	"errors"
	"time"

	"github.com/forsetihq/flowd/internal/database"
	"github.com/forsetihq/flowd/internal/domain"

	"gorm.io/gorm"
)

var ErrChallengeNotFound = errors.New("login challenge not found")

type ChallengeRepository interface {
	Create(c *domain.LoginChallenge) error
	FindByToken(token string) (*domain.LoginChallenge, error)
	Redeem(token string, now time.Time) error
	PurgeExpired(now time.Time) (int64, error)
}

type GormChallengeRepository struct{ store *database.Store }

func NewChallengeRepository(store *database.Store) ChallengeRepository {
	return &GormChallengeRepository{store: store}
}

func (r *GormChallengeRepository) Create(c *domain.LoginChallenge) error {
	return r.store.DB().Create(c).Error
}

func (r *GormChallengeRepository) FindByToken(token string) (*domain.LoginChallenge, error) {
	var c domain.LoginChallenge
	err := r.store.DB().Where("token = ?", token).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Redeem marks the challenge used in a single conditional UPDATE so two
// concurrent completions of the same token cannot both succeed.
func (r *GormChallengeRepository) Redeem(token string, now time.Time) error {
	res := r.store.DB().Model(&domain.LoginChallenge{}).
		Where("token = ? AND redeemed_at IS NULL AND expires_at > ?", token, now).
		Update("redeemed_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrChallengeNotFound
	}
	return nil
}

// PurgeExpired is best-effort hygiene; expiry is enforced again at
// completion time regardless.
func (r *GormChallengeRepository) PurgeExpired(now time.Time) (int64, error) {
	res := r.store.DB().
		Where("expires_at <= ? OR redeemed_at IS NOT NULL", now).
		Delete(&domain.LoginChallenge{})
	return res.RowsAffected, res.Error
}
