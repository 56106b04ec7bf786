package promotions

import (
	"context"
	"fmt"

	"github.com/cocobubble/storefront/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads and writes promotions in the relational store.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every promotion in creation order so "first match wins" in the
// index is stable across refreshes.
func (r *Repository) List(ctx context.Context) ([]Promotion, error) {
	var rows []models.Promotion
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}

	out := make([]Promotion, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

// Upsert inserts or replaces promotions by id inside tx (or the base handle
// when tx is nil). Promotions without an id get one assigned.
func (r *Repository) Upsert(ctx context.Context, tx *gorm.DB, promos []Promotion) error {
	if len(promos) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.db
	}

	rows := make([]models.Promotion, 0, len(promos))
	for _, p := range promos {
		row, err := toModel(p)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"category", "size", "required_quantity", "price_reg", "price_lrg", "active", "description", "updated_at",
		}),
	}).Create(&rows).Error
}

func fromModel(row models.Promotion) Promotion {
	size, ok := ParseSize(row.Size)
	if !ok {
		size = Size(row.Size)
	}
	return Promotion{
		ID:               row.ID.String(),
		Category:         row.Category,
		Size:             size,
		RequiredQuantity: row.RequiredQuantity,
		PriceReg:         row.PriceReg.InexactFloat64(),
		PriceLrg:         row.PriceLrg.InexactFloat64(),
		Active:           row.Active,
		Description:      row.Description,
	}
}

func toModel(p Promotion) (models.Promotion, error) {
	var id uuid.UUID
	if p.ID != "" {
		parsed, err := uuid.Parse(p.ID)
		if err != nil {
			return models.Promotion{}, fmt.Errorf("promotion id %q: %w", p.ID, err)
		}
		id = parsed
	}
	if !p.Size.Valid() {
		return models.Promotion{}, fmt.Errorf("promotion %q: unknown size %q", p.ID, p.Size)
	}
	return models.Promotion{
		ID:               id,
		Category:         p.Category,
		Size:             string(p.Size),
		RequiredQuantity: p.Required(),
		PriceReg:         decimal.NewFromFloat(p.PriceReg),
		PriceLrg:         decimal.NewFromFloat(p.PriceLrg),
		Active:           p.Active,
		Description:      p.Description,
	}, nil
}
