package model

import "time"

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	DisplayName  *string    `json:"display_name,omitempty"`
	FullName     *string    `json:"full_name,omitempty"`
	Address      *string    `json:"address,omitempty"`
	Country      *string    `json:"country,omitempty"`
	Equipment    *string    `json:"equipment,omitempty"`
	PasswordHash *string    `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
