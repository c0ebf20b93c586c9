package domain

import "time"

// Idempotency stores the response of a previously completed unsafe request,
// keyed by (user_id, scope, key). It lets a client retry
// POST /payments/initialize and receive the same payment reference instead of
// opening a second charge. It never influences credit balances.
type Idempotency struct {
	ID               string    `gorm:"type:varchar(64);primaryKey"`
	UserID           string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_user_scope_key,priority:1"`
	Scope            string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_user_scope_key,priority:2"`
	Key              string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_user_scope_key,priority:3"`
	Reference        string    `gorm:"type:varchar(128);not null"`
	AuthorizationURL string    `gorm:"type:text;not null"`
	Status           int       `gorm:"not null"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt        time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
