package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Promotion is a multi-buy rule: RequiredQuantity units of Category in Size
// for a fixed bundle price.
type Promotion struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Category         string          `gorm:"column:category;not null"`
	Size             string          `gorm:"column:size;not null"`
	RequiredQuantity int             `gorm:"column:required_quantity;not null;default:1"`
	PriceReg         decimal.Decimal `gorm:"column:price_reg;type:numeric(10,2);not null"`
	PriceLrg         decimal.Decimal `gorm:"column:price_lrg;type:numeric(10,2);not null"`
	Active           bool            `gorm:"column:active;not null;default:true"`
	Description      string          `gorm:"column:description;not null;default:''"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Promotion) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
