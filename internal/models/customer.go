package models

import "time"

type Customer struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:255;not null"`
	Email     string    `gorm:"uniqueIndex;size:255;not null"`
	Phone     *string   `gorm:"size:50"`
	CreatedAt time.Time `gorm:"not null"`
}
