package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated principal. All items and store tags are scoped to
// exactly one owning user. IDs are assigned by the application so the schema
// works on both postgres and sqlite.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex:users_email_key"`
	PasswordHash string     `gorm:"column:password_hash;type:text;not null"`
	DisplayName  string     `gorm:"column:display_name;type:text"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
}

func (User) TableName() string { return "users" }
