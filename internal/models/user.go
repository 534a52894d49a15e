package models

import "time"

// DefaultRole is assigned when registration omits a role. Roles are stored
// for reference only; nothing restricts access by role.
const DefaultRole = "staff"

type User struct {
	ID             uint      `gorm:"primaryKey"`
	Email          string    `gorm:"uniqueIndex;size:255;not null"`
	HashedPassword string    `gorm:"size:255;not null"`
	Role           string    `gorm:"size:50;not null"`
	CreatedAt      time.Time `gorm:"not null"`
}
