package domain

import "time"

// LoginChallenge is one in-flight SMS verification attempt. A row is created
// after the password check passes and may be redeemed at most once before
// ExpiresAt.
type LoginChallenge struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Token      string     `gorm:"uniqueIndex;size:64;not null" json:"token"`
	AccountID  uint       `gorm:"not null;index" json:"account_id"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
}

func (c *LoginChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

func (c *LoginChallenge) Redeemed() bool {
	return c.RedeemedAt != nil
}
