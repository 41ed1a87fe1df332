package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tireshop-service/internal/pricing"
)

// Season represents tire seasonality
type Season string

const (
	SeasonWinter    Season = "winter"
	SeasonSummer    Season = "summer"
	SeasonAllSeason Season = "all-season"
)

var (
	sizeTokenPattern  = regexp.MustCompile(`\d{3}/\d{2}\s?[RZrz]\d{1,2}`)
	multiSpacePattern = regexp.MustCompile(`\s+`)
	edgePunctPattern  = regexp.MustCompile(`^\W+|\W+$`)
)

// Product represents a tire in the catalog.
//
// Width/profile/diameter of 0 mean the size could not be parsed from the
// source data; such products are kept out of the storefront base set but stay
// visible to admins. The natural key (brand, name, width, profile, diameter)
// carries a real composite unique index so repeated imports cannot create
// silent duplicates.
type Product struct {
	ID      uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	BrandID *uuid.UUID `json:"brandId,omitempty" gorm:"type:uuid;index;uniqueIndex:idx_products_natural_key"`
	Brand   *Brand     `json:"brand,omitempty" gorm:"constraint:OnDelete:SET NULL"`

	Name string `json:"name" gorm:"not null;uniqueIndex:idx_products_natural_key"`
	Slug string `json:"slug" gorm:"not null;uniqueIndex:idx_products_slug"`

	Width       int    `json:"width" gorm:"not null;default:0;index;uniqueIndex:idx_products_natural_key"`
	Profile     int    `json:"profile" gorm:"not null;default:0;uniqueIndex:idx_products_natural_key"`
	Diameter    int    `json:"diameter" gorm:"not null;default:0;index;uniqueIndex:idx_products_natural_key"`
	Seasonality Season `json:"seasonality" gorm:"type:varchar(20);not null;default:'all-season';index"`

	SeoTitle *string `json:"seoTitle,omitempty" gorm:"column:seo_title;type:varchar(500)"`
	SeoH1    *string `json:"seoH1,omitempty" gorm:"column:seo_h1"`
	SeoText  *string `json:"seoText,omitempty" gorm:"column:seo_text;type:text"`

	Description string `json:"description" gorm:"type:text"`

	// CostPrice is what the shop pays; Price is the derived sale price in whole
	// currency units, persisted so min/max filters work in SQL. OldPrice is the
	// pre-discount reference, present only while a discount is active.
	CostPrice       decimal.Decimal  `json:"costPrice" gorm:"type:decimal(10,2);not null;default:0"`
	Price           decimal.Decimal  `json:"price" gorm:"type:decimal(10,0);not null;default:0;index"`
	OldPrice        *decimal.Decimal `json:"oldPrice,omitempty" gorm:"type:decimal(10,0)"`
	DiscountPercent int              `json:"discountPercent" gorm:"not null;default:0"`

	StockQuantity int `json:"stockQuantity" gorm:"not null;default:0;index"`

	PhotoURL *string `json:"photoUrl,omitempty" gorm:"type:varchar(1024)"`

	Country     *string `json:"country,omitempty" gorm:"type:varchar(50)"`
	Year        int     `json:"year" gorm:"default:2024"`
	LoadIndex   *string `json:"loadIndex,omitempty" gorm:"type:varchar(10)"`
	SpeedIndex  *string `json:"speedIndex,omitempty" gorm:"type:varchar(10)"`
	StudType    string  `json:"studType" gorm:"type:varchar(50);default:'unstudded'"`
	VehicleType string  `json:"vehicleType" gorm:"type:varchar(50);default:'passenger'"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ApplyPricing recomputes the derived sale price fields from cost price,
// discount and the given markup. The markup is loaded once by the caller
// (per request or per import run) and passed in, never fetched here.
func (p *Product) ApplyPricing(markup decimal.Decimal) {
	p.Price = pricing.SalePrice(p.CostPrice, markup, p.DiscountPercent)
	if pricing.ClampDiscount(p.DiscountPercent) > 0 {
		old := pricing.BasePrice(p.CostPrice, markup)
		p.OldPrice = &old
	} else {
		p.OldPrice = nil
	}
}

// EnsureSlug fills the slug from brand, name and size when empty. The first 8
// chars of the product ID keep it unique across same-named products.
func (p *Product) EnsureSlug(brandName string) {
	if p.Slug != "" {
		return
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if brandName == "" {
		brandName = "no-brand"
	}
	base := Slugify(fmt.Sprintf("%s-%s-%d-%d-%d", brandName, p.Name, p.Width, p.Profile, p.Diameter))
	p.Slug = fmt.Sprintf("%s-%s", base, p.ID.String()[:8])
}

// SizeLabel formats the tire size the way it is printed on the sidewall.
func (p *Product) SizeLabel() string {
	if p.Width == 0 || p.Diameter == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d R%d", p.Width, p.Profile, p.Diameter)
}

// DisplayName is the storefront name: the raw spreadsheet name minus the
// brand prefix, the word "Шина" and the size token, leaving model and indexes.
// Falls back to the full name when cleanup would leave nothing.
func (p *Product) DisplayName() string {
	text := strings.ReplaceAll(p.Name, "Шина", "")
	text = strings.ReplaceAll(text, "шина", "")
	text = strings.TrimSpace(text)

	if p.Brand != nil && p.Brand.Name != "" {
		escaped := regexp.QuoteMeta(p.Brand.Name)
		text = regexp.MustCompile(`(?i)^` + escaped).ReplaceAllString(text, "")
		text = regexp.MustCompile(`(?i)\(` + escaped + `\)`).ReplaceAllString(text, "")
	}

	text = sizeTokenPattern.ReplaceAllString(text, "")
	text = multiSpacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = edgePunctPattern.ReplaceAllString(text, "")

	if text == "" {
		return p.Name
	}
	return text
}
