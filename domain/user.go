package domain

import (
	"regexp"
	"time"
)

// UserStatus defines the possible statuses of a user account.
type UserStatus string

const (
	UserStatusActive UserStatus = "ACTIVE"
	UserStatusLocked UserStatus = "LOCKED"
)

// phoneNumberRe accepts numbers in the format '+999999999', up to 15 digits.
var phoneNumberRe = regexp.MustCompile(`^\+?1?\d{9,15}$`)

// ValidPhoneNumber reports whether s is an acceptable phone number.
func ValidPhoneNumber(s string) bool {
	return phoneNumberRe.MatchString(s)
}

// User is a persisted Telegram-backed account. It is created on the first
// verified login and updated in place on subsequent logins, keyed by the
// unique Telegram handle. PhoneNumber is optional and, when set, unique.
type User struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	TelegramID  int64      `bson:"telegram_id" json:"telegram_id"`
	Username    string     `bson:"username" json:"username"`
	FirstName   string     `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName    string     `bson:"last_name,omitempty" json:"last_name,omitempty"`
	PhotoURL    string     `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	PhoneNumber string     `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	Status      UserStatus `bson:"status" json:"status"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
}
