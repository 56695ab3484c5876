package repositories

import (
	"context"

	"catalog/internal/models"
)

// DefaultPageLimit is used when a listing does not ask for a page size.
const DefaultPageLimit = 10

// ListParams selects one page of products.
type ListParams struct {
	Limit  int
	Offset int
	Gender models.Gender // empty means every gender
}

// Page is one page of products with the totals of the whole filtered set.
type Page struct {
	Products []models.Product
	Count    int64
	Pages    int
}

// ReplacePolicy decides what an explicitly empty child list does on update.
// With a flag set, an empty list removes every existing child; without it the
// empty list is treated as if the field had been omitted.
type ReplacePolicy struct {
	WipeOnEmptyImages bool
	WipeOnEmptyStock  bool
}

// DefaultReplacePolicy wipes children on an explicit empty list.
var DefaultReplacePolicy = ReplacePolicy{WipeOnEmptyImages: true, WipeOnEmptyStock: true}

// ProductRepository defines the interface for product aggregate persistence.
type ProductRepository interface {
	Create(ctx context.Context, req models.CreateProductRequest, user *models.User) (*models.Product, error)
	List(ctx context.Context, params ListParams) (*Page, error)
	FindByKey(ctx context.Context, term string) (*models.Product, error)
	Update(ctx context.Context, id string, req models.UpdateProductRequest, user *models.User) (*models.Product, error)
	Remove(ctx context.Context, term string) (*models.Product, error)
	DeleteAll(ctx context.Context) (int64, error)
}
