package repositories

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"catalog/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db     *gorm.DB
	policy ReplacePolicy
	log    zerolog.Logger
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB, policy ReplacePolicy, log zerolog.Logger) *GORMProductRepository {
	return &GORMProductRepository{
		db:     db,
		policy: policy,
		log:    log.With().Str("component", "product_repository").Logger(),
	}
}

// Create persists a product together with its images and stock entries in one write.
func (r *GORMProductRepository) Create(ctx context.Context, req models.CreateProductRequest, user *models.User) (*models.Product, error) {
	product := &models.Product{
		Title:        req.Title,
		Description:  req.Description,
		Slug:         req.Slug,
		Sizes:        req.Sizes,
		Gender:       req.Gender,
		Tags:         req.Tags,
		Images:       newImages(req.Images),
		StockEntries: newStockEntries(req.StockEntries),
		UserID:       ownerID(user),
	}
	if req.Price != nil {
		product.Price = *req.Price
	}

	if err := r.db.WithContext(ctx).Omit("User").Create(product).Error; err != nil {
		return nil, classify(r.log, "create product", err)
	}
	return r.FindByKey(ctx, product.ID)
}

// List returns one page of products ordered by id, optionally filtered by
// gender. A gender filter always includes unisex products.
func (r *GORMProductRepository) List(ctx context.Context, params ListParams) (*Page, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	filter := byGender(params.Gender)

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(filter).Count(&count).Error; err != nil {
		return nil, classify(r.log, "count products", err)
	}

	products := []models.Product{}
	err := withChildren(r.db.WithContext(ctx)).
		Scopes(filter).
		Order("products.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&products).Error
	if err != nil {
		return nil, classify(r.log, "list products", err)
	}

	return &Page{
		Products: products,
		Count:    count,
		Pages:    int(math.Ceil(float64(count) / float64(limit))),
	}, nil
}

// FindByKey resolves a product by UUID, or else by title (case-insensitive) or slug.
func (r *GORMProductRepository) FindByKey(ctx context.Context, term string) (*models.Product, error) {
	var product models.Product
	q := withChildren(r.db.WithContext(ctx))

	var err error
	if id, parseErr := uuid.Parse(term); parseErr == nil {
		err = q.First(&product, "products.id = ?", id.String()).Error
	} else {
		// Both sides go through the store's UPPER so they fold alike; on
		// SQLite that folds ASCII letters only.
		err = q.Where("UPPER(products.title) = UPPER(?) OR products.slug = ?", term, strings.ToLower(term)).
			First(&product).Error
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product with %s", ErrNotFound, term)
	}
	if err != nil {
		return nil, classify(r.log, "find product", err)
	}
	return &product, nil
}

// Update merges scalar changes and replaces the image and stock collections
// that the request supplies. Everything after the lookup runs in a single
// transaction: on any error no row of the product or its children changes.
func (r *GORMProductRepository) Update(ctx context.Context, id string, req models.UpdateProductRequest, user *models.User) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product with id %s", ErrNotFound, id)
		}
		return nil, classify(r.log, "load product for update", err)
	}
	applyChanges(&product, req)

	replaceImages := req.Images != nil && (len(*req.Images) > 0 || r.policy.WipeOnEmptyImages)
	replaceStock := req.StockEntries != nil && (len(*req.StockEntries) > 0 || r.policy.WipeOnEmptyStock)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replaceImages {
			if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductImage{}).Error; err != nil {
				return fmt.Errorf("failed to delete images: %w", err)
			}
		}
		if replaceStock {
			if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductStock{}).Error; err != nil {
				return fmt.Errorf("failed to delete stock entries: %w", err)
			}
		}

		// Updates never falls back to an insert: a row removed since the
		// lookup shows up as zero affected rows and rolls everything back.
		product.UserID = ownerID(user)
		product.Normalize()
		res := tx.Model(&product).
			Select("*").
			Omit("id", "created_at", clause.Associations).
			Updates(&product)
		if res.Error != nil {
			return fmt.Errorf("failed to save product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: product with id %s", ErrNotFound, product.ID)
		}

		if replaceImages {
			images := newImages(*req.Images)
			for i := range images {
				images[i].ProductID = product.ID
			}
			if len(images) > 0 {
				if err := tx.Create(&images).Error; err != nil {
					return fmt.Errorf("failed to insert images: %w", err)
				}
			}
		}
		if replaceStock {
			stock := newStockEntries(*req.StockEntries)
			for i := range stock {
				stock[i].ProductID = product.ID
			}
			if len(stock) > 0 {
				if err := tx.Create(&stock).Error; err != nil {
					return fmt.Errorf("failed to insert stock entries: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(r.log, "update product", err)
	}

	return r.FindByKey(ctx, product.ID)
}

// Remove deletes the product matching term together with its children.
func (r *GORMProductRepository) Remove(ctx context.Context, term string) (*models.Product, error) {
	product, err := r.FindByKey(ctx, term)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Select("Images", "StockEntries").Delete(product).Error; err != nil {
		return nil, classify(r.log, "remove product", err)
	}
	return product, nil
}

// DeleteAll removes every product and child row and returns how many products were removed.
func (r *GORMProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.ProductImage{}).Error; err != nil {
			return fmt.Errorf("failed to delete images: %w", err)
		}
		if err := all.Delete(&models.ProductStock{}).Error; err != nil {
			return fmt.Errorf("failed to delete stock entries: %w", err)
		}
		res := all.Delete(&models.Product{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete products: %w", res.Error)
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, classify(r.log, "delete all products", err)
	}
	return removed, nil
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("product_images.id ASC") }).
		Preload("StockEntries", func(db *gorm.DB) *gorm.DB { return db.Order("product_stocks.id ASC") }).
		Preload("User")
}

func byGender(g models.Gender) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if g == "" {
			return db
		}
		return db.Where("products.gender IN ?", []string{string(g), string(models.GenderUnisex)})
	}
}

func applyChanges(p *models.Product, req models.UpdateProductRequest) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Slug != nil {
		p.Slug = *req.Slug
	}
	if req.Sizes != nil {
		p.Sizes = *req.Sizes
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.Tags != nil {
		p.Tags = *req.Tags
	}
}

func newImages(urls []string) []models.ProductImage {
	images := make([]models.ProductImage, 0, len(urls))
	for _, url := range urls {
		images = append(images, models.ProductImage{URL: url})
	}
	return images
}

func newStockEntries(entries []models.StockEntryRequest) []models.ProductStock {
	stock := make([]models.ProductStock, 0, len(entries))
	for _, e := range entries {
		stock = append(stock, models.ProductStock{Size: e.Size, Quantity: e.Quantity})
	}
	return stock
}

func ownerID(user *models.User) *string {
	if user == nil || user.ID == "" {
		return nil
	}
	id := user.ID
	return &id
}
