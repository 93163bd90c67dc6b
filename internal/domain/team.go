package domain

import "time"

// Team is a GitHub organization team offered to the admin at approval time.
type Team struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// PendingInvitation is an outstanding GitHub organization invitation.
type PendingInvitation struct {
	ID        int64     `json:"id"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
