package models

import "time"

// CartState stores one serialized cart under its storage key.
type CartState struct {
	StateKey  string    `gorm:"column:state_key;primaryKey"`
	Payload   string    `gorm:"column:payload;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (CartState) TableName() string {
	return "cart_states"
}
