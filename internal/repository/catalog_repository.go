package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tireshop-service/internal/models"
)

// Cache TTL constants
const (
	ProductCacheTTL     = 5 * time.Minute // Single product cache
	ProductListCacheTTL = 2 * time.Minute // Product list cache (shorter due to frequent changes)
	BrandCacheTTL       = 30 * time.Minute
)

const cacheKeyPrefix = "tireshop:catalog:"

// SortOrder for product listings
type SortOrder string

const (
	SortDefault   SortOrder = ""
	SortCheap     SortOrder = "cheap"
	SortExpensive SortOrder = "expensive"
)

// ProductFilter describes one catalog listing query. The zero value lists the
// whole base set: products with a parsed size (width and diameter > 0).
type ProductFilter struct {
	BrandID  *uuid.UUID
	Season   models.Season
	Width    int
	Profile  int
	Diameter int
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Sort     SortOrder
	Page     int
	Limit    int
}

// CatalogRepository is the data access layer for products and brands, with a
// Redis read-through cache on hot storefront queries. A nil Redis client
// disables caching without changing behavior.
type CatalogRepository struct {
	db    *gorm.DB
	redis *redis.Client
	log   *logrus.Logger
}

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) *CatalogRepository {
	return &CatalogRepository{db: db, redis: redisClient, log: log}
}

// generateListCacheKey creates a deterministic cache key for list queries
func generateListCacheKey(prefix string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("%s%s:%s", cacheKeyPrefix, prefix, hex.EncodeToString(hash[:]))
}

func (r *CatalogRepository) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if r.redis == nil {
		return false
	}
	data, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (r *CatalogRepository) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if r.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		r.log.WithField("key", key).WithError(err).Debug("Cache write failed")
	}
}

// invalidateProductCaches drops the single-product cache and all list caches.
func (r *CatalogRepository) invalidateProductCaches(ctx context.Context, slug string) {
	if r.redis == nil {
		return
	}
	if slug != "" {
		_ = r.redis.Del(ctx, cacheKeyPrefix+"product:"+slug).Err()
	}
	r.deletePattern(ctx, cacheKeyPrefix+"products:list:*")
	r.deletePattern(ctx, cacheKeyPrefix+"facets:*")
}

func (r *CatalogRepository) invalidateBrandCaches(ctx context.Context) {
	if r.redis == nil {
		return
	}
	r.deletePattern(ctx, cacheKeyPrefix+"brands:*")
}

func (r *CatalogRepository) deletePattern(ctx context.Context, pattern string) {
	iter := r.redis.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = r.redis.Del(ctx, keys...).Err()
	}
}

// listPage is the cached shape of one product listing page.
type listPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

// ListProducts returns one page of the catalog under the given filter plus
// the total match count. In-stock products always sort ahead of out-of-stock
// ones; within each group the sort order applies.
func (r *CatalogRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	cacheKey := generateListCacheKey("products:list", filter)
	var cached listPage
	if r.cacheGet(ctx, cacheKey, &cached) {
		return cached.Products, cached.Total, nil
	}

	query := r.baseQuery(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Brand")
	switch filter.Sort {
	case SortCheap:
		query = query.Order("stock_quantity = 0").Order("price ASC")
	case SortExpensive:
		query = query.Order("stock_quantity = 0").Order("price DESC")
	default:
		query = query.Order("stock_quantity = 0").Order("products.created_at DESC")
	}

	var products []models.Product
	offset := (filter.Page - 1) * filter.Limit
	if err := query.Offset(offset).Limit(filter.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	r.cacheSet(ctx, cacheKey, listPage{Products: products, Total: total}, ProductListCacheTTL)
	return products, total, nil
}

// baseQuery applies the storefront base set (parsed size only) plus filters.
func (r *CatalogRepository) baseQuery(filter ProductFilter) *gorm.DB {
	query := r.db.Model(&models.Product{}).
		Where("width > 0 AND diameter > 0")

	if filter.BrandID != nil {
		query = query.Where("brand_id = ?", *filter.BrandID)
	}
	if filter.Season != "" {
		query = query.Where("seasonality = ?", filter.Season)
	}
	if filter.Width > 0 {
		query = query.Where("width = ?", filter.Width)
	}
	if filter.Profile > 0 {
		query = query.Where("profile = ?", filter.Profile)
	}
	if filter.Diameter > 0 {
		query = query.Where("diameter = ?", filter.Diameter)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR brand_id IN (?)",
			like,
			r.db.Model(&models.Brand{}).Select("id").Where("LOWER(name) LIKE ?", like),
		)
	}
	return query
}

// GetProductBySlug returns one product with its brand, read-through cached.
func (r *CatalogRepository) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	cacheKey := cacheKeyPrefix + "product:" + slug
	var cached models.Product
	if r.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var product models.Product
	err := r.db.Preload("Brand").Where("slug = ?", slug).First(&product).Error
	if err != nil {
		return nil, err
	}

	r.cacheSet(ctx, cacheKey, product, ProductCacheTTL)
	return &product, nil
}

// GetProductsByIDs loads products for cart enrichment in a single query.
func (r *CatalogRepository) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	err := r.db.Preload("Brand").Where("id IN ?", ids).Find(&products).Error
	return products, err
}

// SimilarProducts returns in-stock products sharing the width and diameter,
// excluding the product itself.
func (r *CatalogRepository) SimilarProducts(ctx context.Context, p *models.Product, limit int) ([]models.Product, error) {
	if p.Width == 0 || p.Diameter == 0 {
		return []models.Product{}, nil
	}
	if limit <= 0 {
		limit = 4
	}
	var products []models.Product
	err := r.db.Preload("Brand").
		Where("width = ? AND diameter = ? AND id != ? AND stock_quantity > 0", p.Width, p.Diameter, p.ID).
		Order("price ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// PriceRange returns the min and max sale price within the filter, skipping
// zero-priced products (cost never imported).
func (r *CatalogRepository) PriceRange(ctx context.Context, filter ProductFilter) (min, max decimal.Decimal, err error) {
	var row struct {
		Min decimal.Decimal
		Max decimal.Decimal
	}
	err = r.baseQuery(filter).
		Where("price > 0").
		Select("COALESCE(MIN(price), 0) as min, COALESCE(MAX(price), 0) as max").
		Scan(&row).Error
	return row.Min, row.Max, err
}

// FacetValues holds the distinct size values present in the base set, used
// for filter dropdowns and cross links.
type FacetValues struct {
	Widths    []int `json:"widths"`
	Profiles  []int `json:"profiles"`
	Diameters []int `json:"diameters"`
}

// DistinctFacetValues returns the distinct widths, profiles and diameters of
// the catalog base set, cached.
func (r *CatalogRepository) DistinctFacetValues(ctx context.Context) (*FacetValues, error) {
	cacheKey := cacheKeyPrefix + "facets:values"
	var cached FacetValues
	if r.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var values FacetValues
	base := func() *gorm.DB {
		return r.db.Model(&models.Product{}).Where("width > 0 AND diameter > 0")
	}
	if err := base().Distinct("width").Order("width").Pluck("width", &values.Widths).Error; err != nil {
		return nil, err
	}
	if err := base().Where("profile > 0").Distinct("profile").Order("profile").Pluck("profile", &values.Profiles).Error; err != nil {
		return nil, err
	}
	if err := base().Distinct("diameter").Order("diameter").Pluck("diameter", &values.Diameters).Error; err != nil {
		return nil, err
	}

	r.cacheSet(ctx, cacheKey, values, ProductListCacheTTL)
	return &values, nil
}

// Brands returns all brands ordered by name, cached.
func (r *CatalogRepository) Brands(ctx context.Context) ([]models.Brand, error) {
	cacheKey := cacheKeyPrefix + "brands:all"
	var cached []models.Brand
	if r.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	var brands []models.Brand
	if err := r.db.Order("name ASC").Find(&brands).Error; err != nil {
		return nil, err
	}

	r.cacheSet(ctx, cacheKey, brands, BrandCacheTTL)
	return brands, nil
}

// BrandBySlug returns one brand by its slug.
func (r *CatalogRepository) BrandBySlug(ctx context.Context, slug string) (*models.Brand, error) {
	var brand models.Brand
	if err := r.db.Where("slug = ?", slug).First(&brand).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

// BrandSlugExists implements seo.BrandResolver against the cached brand list.
func (r *CatalogRepository) BrandSlugExists(slug string) bool {
	brands, err := r.Brands(context.Background())
	if err != nil {
		return false
	}
	for _, b := range brands {
		if b.Slug == slug {
			return true
		}
	}
	return false
}

// CreateBrand creates a brand and invalidates the brand cache.
func (r *CatalogRepository) CreateBrand(ctx context.Context, brand *models.Brand) error {
	if err := r.db.Create(brand).Error; err != nil {
		return err
	}
	r.invalidateBrandCaches(ctx)
	return nil
}

// CreateProduct creates a product and invalidates list caches.
func (r *CatalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	brandName := ""
	if product.BrandID != nil {
		var brand models.Brand
		if err := r.db.First(&brand, "id = ?", *product.BrandID).Error; err != nil {
			return err
		}
		brandName = brand.Name
	}
	product.EnsureSlug(brandName)
	if err := r.db.Create(product).Error; err != nil {
		return err
	}
	r.invalidateProductCaches(ctx, product.Slug)
	return nil
}

// SaveProduct persists changes to an existing product and invalidates caches.
func (r *CatalogRepository) SaveProduct(ctx context.Context, product *models.Product) error {
	if err := r.db.Save(product).Error; err != nil {
		return err
	}
	r.invalidateProductCaches(ctx, product.Slug)
	return nil
}

// GetProductByID loads one product by primary key.
func (r *CatalogRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("Brand").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product. Order items referencing it keep their
// denormalized name via the SET NULL foreign key.
func (r *CatalogRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		return err
	}
	if err := r.db.Delete(&product).Error; err != nil {
		return err
	}
	r.invalidateProductCaches(ctx, product.Slug)
	return nil
}

// InStockProducts streams the base-set in-stock products for sitemap
// generation, capped to keep the sitemap bounded.
func (r *CatalogRepository) InStockProducts(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 5000
	}
	var products []models.Product
	err := r.db.
		Where("width > 0 AND diameter > 0 AND stock_quantity > 0").
		Order("updated_at DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// CleanupNames rewrites product names to their display form in batches.
// Returns how many products changed. This is an admin maintenance pass for
// catalogs imported before name cleanup existed.
func (r *CatalogRepository) CleanupNames(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	changed := 0
	var batch []models.Product
	err := r.db.Preload("Brand").FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		for i := range batch {
			display := batch[i].DisplayName()
			if display == batch[i].Name {
				continue
			}
			if err := tx.Model(&models.Product{}).
				Where("id = ?", batch[i].ID).
				Update("name", display).Error; err != nil {
				return err
			}
			changed++
		}
		return nil
	}).Error
	if err != nil {
		return changed, err
	}
	if changed > 0 {
		r.invalidateProductCaches(ctx, "")
	}
	return changed, nil
}
