package handlers

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tireshop-service/internal/config"
	"tireshop-service/internal/models"
	"tireshop-service/internal/repository"
	"tireshop-service/internal/seo"
)

// CatalogHandler serves the public storefront: faceted listings under
// /tyres, product pages, search, sitemap and robots.
type CatalogHandler struct {
	repo *repository.CatalogRepository
	cfg  *config.Config
	log  *logrus.Logger
}

func NewCatalogHandler(repo *repository.CatalogRepository, cfg *config.Config, log *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{repo: repo, cfg: cfg, log: log}
}

// productView is the storefront product payload.
type productView struct {
	models.Product
	DisplayName string `json:"displayName"`
	SizeLabel   string `json:"sizeLabel"`
	InStock     bool   `json:"inStock"`
}

func toView(p models.Product) productView {
	return productView{
		Product:     p,
		DisplayName: p.DisplayName(),
		SizeLabel:   p.SizeLabel(),
		InStock:     p.StockQuantity > 0,
	}
}

func toViews(products []models.Product) []productView {
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, toView(p))
	}
	return views
}

// ListTyres handles GET /tyres/*facets: the faceted catalog listing.
//
// Facet segments in the path select brand, season and size in any order;
// the response carries the canonical path and legacy query-string filters
// (?brand=&season=&width=...) trigger a permanent redirect onto it, so
// every facet combination has exactly one indexable URL.
func (h *CatalogHandler) ListTyres(c *gin.Context) {
	segments := splitFacetPath(c.Param("facets"))

	facets, ok := seo.ParsePath(segments, h.repo)
	if !ok {
		c.JSON(http.StatusNotFound, models.NewErrorResponse("NOT_FOUND", "Unknown catalog section"))
		return
	}

	if redirected := h.redirectQueryFilters(c, facets); redirected {
		return
	}

	filter := repository.ProductFilter{
		Season:   facets.Season(),
		Width:    facets.Width,
		Profile:  facets.Profile,
		Diameter: facets.Diameter,
		Search:   c.Query("q"),
		Sort:     repository.SortOrder(c.Query("sort")),
		Page:     queryInt(c, "page", 1),
		Limit:    h.pageSize(c),
	}

	brandName := ""
	if facets.BrandSlug != "" {
		brand, err := h.repo.BrandBySlug(c.Request.Context(), facets.BrandSlug)
		if err != nil {
			c.JSON(http.StatusNotFound, models.NewErrorResponse("NOT_FOUND", "Unknown brand"))
			return
		}
		filter.BrandID = &brand.ID
		brandName = brand.Name
	}
	if min, ok := queryPrice(c, "min_price"); ok {
		filter.MinPrice = &min
	}
	if max, ok := queryPrice(c, "max_price"); ok {
		filter.MaxPrice = &max
	}

	products, total, err := h.repo.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list products")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to load catalog"))
		return
	}

	minPrice, maxPrice, err := h.repo.PriceRange(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to compute price range")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to load catalog"))
		return
	}

	meta := seo.BuildMeta(facets, brandName, minPrice.IntPart())
	faq, err := seo.FAQSchema(facets, brandName, minPrice.IntPart())
	if err != nil {
		h.log.WithError(err).Error("Failed to render FAQ schema")
		faq = []byte("{}")
	}

	c.JSON(http.StatusOK, gin.H{
		"products":      toViews(products),
		"total":         total,
		"page":          filter.Page,
		"limit":         filter.Limit,
		"canonicalPath": seo.CanonicalPath(facets),
		"meta":          meta,
		"faqSchema":     json.RawMessage(faq),
		"crossLinks":    seo.CrossLinks(facets),
		"priceRange":    gin.H{"min": minPrice, "max": maxPrice},
	})
}

// redirectQueryFilters moves legacy ?brand=&season=&width=&profile=&diameter=
// requests onto the canonical facet path with a permanent redirect. Non-facet
// parameters (sort, page, prices) survive the redirect. Returns true when a
// redirect was written.
func (h *CatalogHandler) redirectQueryFilters(c *gin.Context, current seo.Facets) bool {
	target := current
	changed := false

	if slug := strings.ToLower(c.Query("brand")); slug != "" && h.repo.BrandSlugExists(slug) {
		target.BrandSlug = slug
		changed = true
	}
	if season := c.Query("season"); season != "" {
		if slug := seo.SeasonSlug(models.Season(season)); slug != "" {
			target.SeasonSlug = slug
			changed = true
		}
	}
	width := queryInt(c, "width", 0)
	profile := queryInt(c, "profile", 0)
	diameter := queryInt(c, "diameter", 0)
	if width > 0 && profile > 0 && diameter > 0 {
		target.Width, target.Profile, target.Diameter = width, profile, diameter
		changed = true
	}

	if !changed {
		return false
	}
	location := seo.CanonicalPath(target)
	rest := c.Request.URL.Query()
	for _, key := range []string{"brand", "season", "width", "profile", "diameter"} {
		rest.Del(key)
	}
	if encoded := rest.Encode(); encoded != "" {
		location += "?" + encoded
	}
	c.Redirect(http.StatusMovedPermanently, location)
	return true
}

// GetProduct handles GET /products/:slug: one product with similar offers.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	slug := c.Param("slug")

	product, err := h.repo.GetProductBySlug(c.Request.Context(), slug)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, models.NewErrorResponse("NOT_FOUND", "Product not found"))
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Failed to load product")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to load product"))
		return
	}

	similar, err := h.repo.SimilarProducts(c.Request.Context(), product, 4)
	if err != nil {
		h.log.WithError(err).Warn("Failed to load similar products")
		similar = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"product": toView(*product),
		"similar": toViews(similar),
	})
}

// Search handles GET /search?q=. A bare 6-7 digit query is treated as a
// compact tire size ("2055516") and redirected to the size facet page;
// anything else searches product and brand names.
func (h *CatalogHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))

	if w, p, d, ok := seo.ParseSizeQuery(q); ok {
		c.Redirect(http.StatusMovedPermanently, seo.CanonicalPath(seo.Facets{
			Width: w, Profile: p, Diameter: d,
		}))
		return
	}

	products, total, err := h.repo.ListProducts(c.Request.Context(), repository.ProductFilter{
		Search: q,
		Page:   queryInt(c, "page", 1),
		Limit:  h.pageSize(c),
	})
	if err != nil {
		h.log.WithError(err).Error("Search failed")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Search failed"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": toViews(products),
		"total":    total,
		"query":    q,
	})
}

// FacetValues handles GET /facets: distinct sizes and brands for filter UIs.
func (h *CatalogHandler) FacetValues(c *gin.Context) {
	values, err := h.repo.DistinctFacetValues(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to load facet values")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to load facets"))
		return
	}
	brands, err := h.repo.Brands(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to load brands")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to load brands"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sizes":  values,
		"brands": brands,
	})
}

// sitemap XML shapes
type sitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap handles GET /sitemap.xml: static pages, facet season pages and
// in-stock product URLs.
func (h *CatalogHandler) Sitemap(c *gin.Context) {
	base := h.cfg.SiteBaseURL

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs,
		sitemapURL{Loc: base + "/", ChangeFreq: "daily", Priority: "1.0"},
		sitemapURL{Loc: base + seo.BasePath, ChangeFreq: "daily", Priority: "0.9"},
	)
	for _, slug := range []string{"zymovi", "litni", "vsesezonni"} {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + seo.CanonicalPath(seo.Facets{SeasonSlug: slug}),
			ChangeFreq: "daily",
			Priority:   "0.8",
		})
	}

	products, err := h.repo.InStockProducts(c.Request.Context(), 0)
	if err != nil {
		h.log.WithError(err).Error("Failed to load products for sitemap")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to build sitemap"))
		return
	}
	for _, p := range products {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/products/%s", base, p.Slug),
			ChangeFreq: "weekly",
			Priority:   "0.6",
		})
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, xml.Header)
	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		h.log.WithError(err).Error("Failed to marshal sitemap")
		return
	}
	c.Writer.Write(data)
}

// Robots handles GET /robots.txt.
func (h *CatalogHandler) Robots(c *gin.Context) {
	body := strings.Join([]string{
		"User-agent: *",
		"Disallow: /admin/",
		"Disallow: /cart",
		"Disallow: /checkout",
		"Sitemap: " + h.cfg.SiteBaseURL + "/sitemap.xml",
		"",
	}, "\n")
	c.String(http.StatusOK, body)
}

func (h *CatalogHandler) pageSize(c *gin.Context) int {
	size := queryInt(c, "limit", h.cfg.DefaultPageSize)
	if size > h.cfg.MaxPageSize {
		size = h.cfg.MaxPageSize
	}
	return size
}

func splitFacetPath(raw string) []string {
	var segments []string
	for _, seg := range strings.Split(raw, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func queryPrice(c *gin.Context, key string) (decimal.Decimal, bool) {
	raw := c.Query(key)
	if raw == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	return d, true
}
