package models

import "time"

const (
	UserStatusPending   = "pending"
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

// User carries the cached points balance and the contact details a buyer
// unlocks on purchase. Auth concerns live outside this module.
type User struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone,omitempty"`
	Wechat    string    `json:"wechat,omitempty"`
	Points    int       `json:"points"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact returns the string revealed to a buyer: wechat when bound,
// otherwise the phone number.
func (u User) Contact() string {
	if u.Wechat != "" {
		return u.Wechat
	}
	return u.Phone
}
