package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is one trackable good on either the pantry or grocery list. The amount
// travels as text; consumers parse it leniently (unparsable values read as 0).
type Item struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Owner     uuid.UUID  `gorm:"column:owner;type:uuid;not null;index:items_owner_list_idx"`
	List      string     `gorm:"column:list;type:text;not null;index:items_owner_list_idx"`
	Name      string     `gorm:"column:name;type:text;not null"`
	Category  string     `gorm:"column:category;type:text;not null;default:other"`
	Amount    string     `gorm:"column:amount;type:text;not null;default:0"`
	Unit      string     `gorm:"column:unit;type:text;not null;default:count"`
	StoreID   *uuid.UUID `gorm:"column:store_id;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Item) TableName() string { return "items" }
