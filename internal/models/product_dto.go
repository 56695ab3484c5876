package models

import "github.com/shopspring/decimal"

// StockEntryRequest is one size/quantity pair supplied by a client.
type StockEntryRequest struct {
	Size     string `json:"size" yaml:"size" validate:"required"`
	Quantity int    `json:"quantity" yaml:"quantity" validate:"gte=0"`
}

// CreateProductRequest carries the fields accepted when creating a product.
type CreateProductRequest struct {
	Title        string              `json:"title" yaml:"title" validate:"required,min=1"`
	Price        *decimal.Decimal    `json:"price,omitempty" yaml:"price,omitempty" validate:"omitempty,gte=0"`
	Description  string              `json:"description,omitempty" yaml:"description,omitempty"`
	Slug         string              `json:"slug,omitempty" yaml:"slug,omitempty"`
	Sizes        []string            `json:"sizes,omitempty" yaml:"sizes,omitempty" validate:"omitempty,dive,required"`
	Gender       Gender              `json:"gender" yaml:"gender" validate:"required,oneof=men women kid unisex"`
	Tags         []string            `json:"tags,omitempty" yaml:"tags,omitempty" validate:"omitempty,dive,required"`
	Images       []string            `json:"images,omitempty" yaml:"images,omitempty" validate:"omitempty,dive,required"`
	StockEntries []StockEntryRequest `json:"stockEntries,omitempty" yaml:"stockEntries,omitempty" validate:"omitempty,dive"`
}

// UpdateProductRequest is a partial update. Nil fields are left untouched;
// a non-nil Images or StockEntries replaces the whole child collection.
type UpdateProductRequest struct {
	Title        *string              `json:"title,omitempty" validate:"omitempty,min=1"`
	Price        *decimal.Decimal     `json:"price,omitempty" validate:"omitempty,gte=0"`
	Description  *string              `json:"description,omitempty"`
	Slug         *string              `json:"slug,omitempty" validate:"omitempty,min=1"`
	Sizes        *[]string            `json:"sizes,omitempty" validate:"omitempty,dive,required"`
	Gender       *Gender              `json:"gender,omitempty" validate:"omitempty,oneof=men women kid unisex"`
	Tags         *[]string            `json:"tags,omitempty" validate:"omitempty,dive,required"`
	Images       *[]string            `json:"images,omitempty" validate:"omitempty,dive,required"`
	StockEntries *[]StockEntryRequest `json:"stockEntries,omitempty" validate:"omitempty,dive"`
}

// StockEntryResponse is the public view of a ProductStock row.
type StockEntryResponse struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// ProductResponse is the flattened product: images reduced to plain URLs.
type ProductResponse struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Price        decimal.Decimal      `json:"price"`
	Description  string               `json:"description"`
	Slug         string               `json:"slug"`
	Sizes        []string             `json:"sizes"`
	Gender       Gender               `json:"gender"`
	Tags         []string             `json:"tags"`
	Images       []string             `json:"images"`
	StockEntries []StockEntryResponse `json:"stockEntries"`
	User         *UserSummary         `json:"user,omitempty"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Count    int64             `json:"count"`
	Pages    int               `json:"pages"`
	Products []ProductResponse `json:"products"`
}
