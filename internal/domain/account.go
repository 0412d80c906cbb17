package domain

import "time"

type Account struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	Username              string    `gorm:"uniqueIndex;size:255;not null" json:"username"`
	Email                 *string   `gorm:"uniqueIndex;size:255" json:"email,omitempty"`
	PasswordHash          string    `gorm:"size:1024" json:"-"`
	PhoneNumber           string    `gorm:"size:32" json:"phone_number"`
	CountryCode           string    `gorm:"size:8" json:"country_code"`
	TOTPSecret            string    `gorm:"size:64" json:"-"`
	IsAdmin               bool      `gorm:"not null;default:false" json:"is_admin"`
	MustUpdateCredentials bool      `gorm:"not null;default:false" json:"must_update_credentials"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// MaskedPhone returns the phone number with all but the last four digits
// replaced, for display in challenge responses.
func (a *Account) MaskedPhone() string {
	digits := []rune(a.PhoneNumber)
	if len(digits) <= 4 {
		return a.PhoneNumber
	}
	masked := make([]rune, len(digits))
	for i := range digits {
		if i < len(digits)-4 {
			masked[i] = '•'
		} else {
			masked[i] = digits[i]
		}
	}
	return string(masked)
}
