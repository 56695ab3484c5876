package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Gender classifies who a product is meant for.
type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderKid    Gender = "kid"
	GenderUnisex Gender = "unisex"
)

// Product is the aggregate root of the catalog. Images and stock entries are
// owned by it and removed together with it.
type Product struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title        string          `json:"title" gorm:"uniqueIndex;not null"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null;default:0"`
	Description  string          `json:"description" gorm:"type:text"`
	Slug         string          `json:"slug" gorm:"uniqueIndex;not null"`
	Sizes        StringList      `json:"sizes" gorm:"type:text"`
	Gender       Gender          `json:"gender" gorm:"type:varchar(10);not null;index"`
	Tags         StringList      `json:"tags" gorm:"type:text"`
	Images       []ProductImage  `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	StockEntries []ProductStock  `json:"stockEntries" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	UserID       *string         `json:"userId,omitempty" gorm:"type:varchar(36);index"`
	User         *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ProductImage is an image URL owned by a product.
type ProductImage struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	URL       string `json:"url" gorm:"not null"`
	ProductID string `json:"-" gorm:"type:varchar(36);not null;index"`
}

// ProductStock is the available quantity of one size of a product.
type ProductStock struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Size      string `json:"size" gorm:"type:text;not null"`
	Quantity  int    `json:"quantity" gorm:"not null"`
	ProductID string `json:"-" gorm:"type:varchar(36);not null;index"`
}

func (ProductStock) TableName() string {
	return "product_stocks"
}

// BeforeCreate assigns a fresh UUID when the caller did not provide one.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// BeforeSave keeps the slug and the set-like columns normalised on every write.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.Normalize()
	return nil
}

// Normalize derives the slug from the title when empty, slugifies it and
// drops repeated sizes and tags.
func (p *Product) Normalize() {
	if p.Slug == "" {
		p.Slug = p.Title
	}
	p.Slug = Slugify(p.Slug)
	p.Sizes = p.Sizes.Unique()
	p.Tags = p.Tags.Unique()
}

// Slugify lowercases s, replaces spaces with underscores and drops apostrophes.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "'", "")
}

// ImageURLs returns the image URLs in their stored order.
func (p *Product) ImageURLs() []string {
	urls := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		urls = append(urls, img.URL)
	}
	return urls
}

// Flatten returns the public representation of the product.
func (p *Product) Flatten() ProductResponse {
	stock := make([]StockEntryResponse, 0, len(p.StockEntries))
	for _, s := range p.StockEntries {
		stock = append(stock, StockEntryResponse{Size: s.Size, Quantity: s.Quantity})
	}
	resp := ProductResponse{
		ID:           p.ID,
		Title:        p.Title,
		Price:        p.Price,
		Description:  p.Description,
		Slug:         p.Slug,
		Sizes:        nonNil(p.Sizes),
		Gender:       p.Gender,
		Tags:         nonNil(p.Tags),
		Images:       p.ImageURLs(),
		StockEntries: stock,
	}
	if p.User != nil {
		resp.User = &UserSummary{ID: p.User.ID, Username: p.User.Username, FullName: p.User.FullName}
	}
	return resp
}

func nonNil(l StringList) []string {
	if l == nil {
		return []string{}
	}
	return l
}
