package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tireshop-service/internal/pricing"
)

// SiteSettings is a singleton row (id=1) holding the global pricing markup.
type SiteSettings struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	GlobalMarkup decimal.Decimal `json:"globalMarkup" gorm:"type:decimal(5,2);not null;default:1.30"`
}

// GetSettings fetches the settings row, creating it with the default markup
// on first use. Callers load it once per request or import run and pass the
// markup down; pricing code never re-fetches it mid-computation.
func GetSettings(db *gorm.DB) (*SiteSettings, error) {
	settings := SiteSettings{ID: 1, GlobalMarkup: pricing.DefaultMarkup}
	if err := db.Where(SiteSettings{ID: 1}).FirstOrCreate(&settings).Error; err != nil {
		return nil, err
	}
	if !settings.GlobalMarkup.IsPositive() {
		settings.GlobalMarkup = pricing.DefaultMarkup
	}
	return &settings, nil
}
