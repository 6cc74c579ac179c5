package auth

import "time"

type Session struct {
	ID        string    `json:"id"`
	TokenHash string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
	ExpiresAt time.Time `json:"expiresAt"`
}
