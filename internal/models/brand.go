package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BrandCategory groups brands for sorting and storefront badges
type BrandCategory string

const (
	BrandCategoryBudget BrandCategory = "budget"
	BrandCategoryMedium BrandCategory = "medium"
	BrandCategoryTop    BrandCategory = "top"
)

// Brand represents a tire manufacturer. Brands are created explicitly by admins
// or implicitly during bulk import when an unknown brand name shows up.
type Brand struct {
	ID       uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	Name     string        `json:"name" gorm:"not null;uniqueIndex:idx_brands_name"`
	Slug     string        `json:"slug" gorm:"not null;uniqueIndex:idx_brands_slug"`
	Country  *string       `json:"country,omitempty"`
	Category BrandCategory `json:"category" gorm:"type:varchar(20);not null;default:'budget'"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Brand) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Slug == "" {
		b.Slug = Slugify(b.Name)
	}
	return nil
}
