package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SeedProduct is one entry of a catalog seed file.
type SeedProduct struct {
	ID       string   `json:"id"`
	Name     string   `json:"name" validate:"required"`
	Category string   `json:"category" validate:"required"`
	PriceReg *float64 `json:"priceReg" validate:"required,gte=0"`
	PriceLrg *float64 `json:"priceLrg" validate:"required,gte=0"`
	Image    string   `json:"image"`
}

// Rejected describes a seed entry that failed validation.
type Rejected struct {
	Index  int
	Name   string
	Reason string
}

var seedValidator = validator.New()

// ParseSeed decodes a JSON array of products and splits it into valid
// products and rejected entries. Only malformed JSON is an error.
func ParseSeed(r io.Reader) ([]Product, []Rejected, error) {
	var entries []SeedProduct
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, nil, fmt.Errorf("decode seed file: %w", err)
	}

	valid := make([]Product, 0, len(entries))
	var rejected []Rejected
	for i, e := range entries {
		e.Name = strings.TrimSpace(e.Name)
		e.Category = strings.TrimSpace(e.Category)
		if err := seedValidator.Struct(e); err != nil {
			rejected = append(rejected, Rejected{Index: i, Name: e.Name, Reason: err.Error()})
			continue
		}
		valid = append(valid, Product{
			ID:       e.ID,
			Name:     e.Name,
			Category: e.Category,
			PriceReg: *e.PriceReg,
			PriceLrg: *e.PriceLrg,
			ImageURL: e.Image,
		})
	}
	return valid, rejected, nil
}
