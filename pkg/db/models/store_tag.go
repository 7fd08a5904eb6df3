package models

import (
	"time"

	"github.com/google/uuid"
)

// StoreTag is a user-defined shopping-location label referenced by grocery
// items. Tags are created and deleted explicitly and otherwise immutable.
type StoreTag struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Owner     uuid.UUID `gorm:"column:owner;type:uuid;not null;index:store_tags_owner_idx"`
	Name      string    `gorm:"column:name;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (StoreTag) TableName() string { return "store_tags" }
