package models

import "time"

// User is a registered reader of the textbook. Username and email are unique;
// PasswordHash is never serialized in API responses.
type User struct {
	ID                 int       `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	SoftwareBackground string    `json:"software_background,omitempty"`
	HardwareBackground string    `json:"hardware_background,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
