package importer

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tireshop-service/internal/models"
)

// Importer persists parsed price-list rows. One Run is one outer transaction;
// each row gets its own savepoint so a bad row rolls back alone and the rest
// of the batch still lands.
type Importer struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewImporter(db *gorm.DB, log *logrus.Logger) *Importer {
	return &Importer{db: db, log: log}
}

// Run imports the given rows. The global markup is loaded once at the start
// and used for every row; a markup change mid-import does not split the batch
// into two price regimes.
func (im *Importer) Run(rows []ProductRow, parseErrs []models.ImportRowError) (*models.ImportResult, error) {
	start := time.Now()

	result := &models.ImportResult{
		TotalRows:    len(rows) + len(parseErrs),
		SkippedCount: len(parseErrs),
		Errors:       parseErrs,
	}

	settings, err := models.GetSettings(im.db)
	if err != nil {
		return nil, err
	}
	markup := settings.GlobalMarkup

	err = im.db.Transaction(func(tx *gorm.DB) error {
		brands := newBrandCache(tx)

		for _, row := range rows {
			row := row
			rowErr := tx.Transaction(func(rtx *gorm.DB) error {
				return im.upsertRow(rtx, brands, row, markup, result)
			})
			if rowErr != nil {
				im.log.WithFields(logrus.Fields{
					"row":   row.Row,
					"brand": row.Brand,
					"name":  row.Name,
					"error": rowErr.Error(),
				}).Warn("Import row failed")
				result.FailedCount++
				result.Errors = append(result.Errors, models.ImportRowError{
					Row:     row.Row,
					Code:    models.ImportErrDB,
					Message: rowErr.Error(),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Success = result.FailedCount == 0
	result.ProcessingMs = time.Since(start).Milliseconds()

	im.log.WithFields(logrus.Fields{
		"total":   result.TotalRows,
		"created": result.CreatedCount,
		"updated": result.UpdatedCount,
		"skipped": result.SkippedCount,
		"failed":  result.FailedCount,
		"ms":      result.ProcessingMs,
	}).Info("Import finished")

	return result, nil
}

// upsertRow creates or updates one product by its natural key
// (brand, name, width, profile, diameter).
func (im *Importer) upsertRow(tx *gorm.DB, brands *brandCache, row ProductRow, markup decimal.Decimal, result *models.ImportResult) error {
	brand, err := brands.getOrCreate(row.Brand)
	if err != nil {
		return err
	}

	cost, err := decimal.NewFromString(row.Cost)
	if err != nil {
		cost = decimal.Zero
	}

	var existing models.Product
	query := tx.Where("name = ? AND width = ? AND profile = ? AND diameter = ?",
		row.Name, row.Width, row.Profile, row.Diameter)
	if brand != nil {
		query = query.Where("brand_id = ?", brand.ID)
	} else {
		query = query.Where("brand_id IS NULL")
	}
	err = query.First(&existing).Error

	switch {
	case err == nil:
		existing.CostPrice = cost
		existing.StockQuantity = row.Quantity
		existing.Seasonality = row.Season
		if row.Country != "" {
			existing.Country = &row.Country
		}
		if row.Year > 0 {
			existing.Year = row.Year
		}
		// a photo set by hand wins over whatever the price list carries
		if row.PhotoURL != "" && (existing.PhotoURL == nil || *existing.PhotoURL == "") {
			existing.PhotoURL = &row.PhotoURL
		}
		existing.ApplyPricing(markup)
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		result.UpdatedCount++
		result.UpdatedIDs = append(result.UpdatedIDs, existing.ID.String())

	case err == gorm.ErrRecordNotFound:
		product := models.Product{
			Name:          row.Name,
			Width:         row.Width,
			Profile:       row.Profile,
			Diameter:      row.Diameter,
			Seasonality:   row.Season,
			CostPrice:     cost,
			StockQuantity: row.Quantity,
		}
		brandName := ""
		if brand != nil {
			product.BrandID = &brand.ID
			brandName = brand.Name
		}
		if row.PhotoURL != "" {
			product.PhotoURL = &row.PhotoURL
		}
		if row.Country != "" {
			product.Country = &row.Country
		}
		if row.Year > 0 {
			product.Year = row.Year
		}
		product.ApplyPricing(markup)
		product.EnsureSlug(brandName)
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		result.CreatedCount++
		result.CreatedIDs = append(result.CreatedIDs, product.ID.String())

	default:
		return err
	}

	return nil
}

// brandCache memoizes brand lookups per run so a 5000-row price list does not
// issue 5000 brand queries. Misses are cached too.
type brandCache struct {
	tx      *gorm.DB
	byLower map[string]*models.Brand
}

func newBrandCache(tx *gorm.DB) *brandCache {
	return &brandCache{tx: tx, byLower: make(map[string]*models.Brand)}
}

func (c *brandCache) getOrCreate(name string) (*models.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	key := strings.ToLower(name)
	if brand, ok := c.byLower[key]; ok {
		return brand, nil
	}

	var brand models.Brand
	err := c.tx.Where("LOWER(name) = ?", key).First(&brand).Error
	if err == gorm.ErrRecordNotFound {
		brand = models.Brand{
			ID:       uuid.New(),
			Name:     name,
			Category: models.BrandCategoryBudget,
		}
		brand.Slug = models.Slugify(name)
		if brand.Slug == "" {
			brand.Slug = "brand"
		}
		// slug collision with a differently-spelled brand name
		var count int64
		if err := c.tx.Model(&models.Brand{}).Where("slug = ?", brand.Slug).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			brand.Slug = brand.Slug + "-" + brand.ID.String()[:8]
		}
		if err := c.tx.Create(&brand).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	c.byLower[key] = &brand
	return &brand, nil
}
