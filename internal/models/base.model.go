package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseUUIDModel gives a record a store-assigned UUIDv7 id. Records are
// deleted for real, so there is no DeletedAt column.
type BaseUUIDModel struct {
	ID string `gorm:"type:varchar(64);primaryKey" json:"id"`
}

func (b *BaseUUIDModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id.String()
	}
	return nil
}

type Timestamps struct {
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
