package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/cocobubble/storefront/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the gorm-backed catalog.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Product(ctx context.Context, id string) (Product, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return Product{}, ErrProductNotFound
	}
	var row models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", pid, true).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("load product %s: %w", id, err)
	}
	return productFromModel(row), nil
}

func (r *Repository) Products(ctx context.Context) ([]Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("category ASC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, productFromModel(row))
	}
	return out, nil
}

func (r *Repository) Categories(ctx context.Context) ([]Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).
		Order("position ASC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, Category{ID: row.ID.String(), Name: row.Name})
	}
	return out, nil
}

// UpsertProducts writes products keyed by name and makes sure their
// categories exist. tx may be nil.
func (r *Repository) UpsertProducts(ctx context.Context, tx *gorm.DB, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.db
	}
	tx = tx.WithContext(ctx)

	seen := map[string]bool{}
	categories := make([]models.Category, 0)
	rows := make([]models.Product, 0, len(products))
	for i, p := range products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, models.Category{Name: p.Category, Position: len(categories)})
		}
		row := models.Product{
			Name:     p.Name,
			Category: p.Category,
			PriceReg: decimal.NewFromFloat(p.PriceReg),
			PriceLrg: decimal.NewFromFloat(p.PriceLrg),
			IsActive: true,
		}
		if p.ImageURL != "" {
			img := p.ImageURL
			row.ImageURL = &img
		}
		if p.ID != "" {
			id, err := uuid.Parse(p.ID)
			if err != nil {
				return fmt.Errorf("product %d id %q: %w", i, p.ID, err)
			}
			row.ID = id
		}
		rows = append(rows, row)
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&categories).Error; err != nil {
		return fmt.Errorf("upsert categories: %w", err)
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"category", "price_reg", "price_lrg", "image_url", "is_active", "updated_at"}),
	}).Create(&rows).Error; err != nil {
		return fmt.Errorf("upsert products: %w", err)
	}
	return nil
}

func productFromModel(row models.Product) Product {
	p := Product{
		ID:       row.ID.String(),
		Name:     row.Name,
		Category: row.Category,
		PriceReg: row.PriceReg.InexactFloat64(),
		PriceLrg: row.PriceLrg.InexactFloat64(),
	}
	if row.ImageURL != nil {
		p.ImageURL = *row.ImageURL
	}
	return p
}
