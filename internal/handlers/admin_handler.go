package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tireshop-service/internal/models"
	"tireshop-service/internal/pricing"
	"tireshop-service/internal/repository"
)

// AdminHandler serves the admin API: product and brand management, orders,
// the global markup setting and catalog maintenance.
type AdminHandler struct {
	db      *gorm.DB
	catalog *repository.CatalogRepository
	orders  *repository.OrdersRepository
	log     *logrus.Logger
}

func NewAdminHandler(db *gorm.DB, catalog *repository.CatalogRepository, orders *repository.OrdersRepository, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{db: db, catalog: catalog, orders: orders, log: log}
}

// productRequest is the admin product payload. A brand is mandatory here:
// the natural-key unique index cannot catch duplicates of brandless rows
// (NULLs compare distinct), so the only writer allowed to omit a brand is
// the importer, which substitutes "Unknown" instead.
type productRequest struct {
	BrandID         *uuid.UUID `json:"brandId" binding:"required"`
	Name            string     `json:"name" binding:"required"`
	Width           int        `json:"width"`
	Profile         int        `json:"profile"`
	Diameter        int        `json:"diameter"`
	Seasonality     string     `json:"seasonality"`
	Description     string     `json:"description"`
	CostPrice       string     `json:"costPrice"`
	DiscountPercent int        `json:"discountPercent"`
	StockQuantity   int        `json:"stockQuantity"`
	PhotoURL        *string    `json:"photoUrl"`
	Country         *string    `json:"country"`
	Year            int        `json:"year"`
	SeoTitle        *string    `json:"seoTitle"`
	SeoH1           *string    `json:"seoH1"`
	SeoText         *string    `json:"seoText"`
}

func (r *productRequest) apply(p *models.Product) error {
	p.BrandID = r.BrandID
	p.Name = r.Name
	p.Width = r.Width
	p.Profile = r.Profile
	p.Diameter = r.Diameter
	if r.Seasonality != "" {
		p.Seasonality = models.Season(r.Seasonality)
	}
	p.Description = r.Description
	if r.CostPrice != "" {
		cost, err := decimal.NewFromString(r.CostPrice)
		if err != nil {
			return err
		}
		p.CostPrice = cost
	}
	p.DiscountPercent = pricing.ClampDiscount(r.DiscountPercent)
	p.StockQuantity = r.StockQuantity
	p.PhotoURL = r.PhotoURL
	p.Country = r.Country
	if r.Year > 0 {
		p.Year = r.Year
	}
	p.SeoTitle = r.SeoTitle
	p.SeoH1 = r.SeoH1
	p.SeoText = r.SeoText
	return nil
}

// CreateProduct handles POST /admin/products. The sale price is always
// derived from cost, markup and discount, never accepted from the client.
func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "name and brandId are required"))
		return
	}

	var product models.Product
	if err := req.apply(&product); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "costPrice must be a decimal number"))
		return
	}

	settings, err := models.GetSettings(h.db)
	if err != nil {
		h.log.WithError(err).Error("Failed to load settings")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to create product"))
		return
	}
	product.ApplyPricing(settings.GlobalMarkup)

	if err := h.catalog.CreateProduct(c.Request.Context(), &product); err != nil {
		h.log.WithError(err).Error("Failed to create product")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to create product"))
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /admin/products/:id.
func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "id must be a UUID"))
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "name and brandId are required"))
		return
	}

	product, err := h.catalog.GetProductByID(c.Request.Context(), id)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, models.NewErrorResponse("NOT_FOUND", "Product not found"))
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Failed to load product")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to update product"))
		return
	}

	if err := req.apply(product); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "costPrice must be a decimal number"))
		return
	}

	settings, err := models.GetSettings(h.db)
	if err != nil {
		h.log.WithError(err).Error("Failed to load settings")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to update product"))
		return
	}
	product.ApplyPricing(settings.GlobalMarkup)

	if err := h.catalog.SaveProduct(c.Request.Context(), product); err != nil {
		h.log.WithError(err).Error("Failed to save product")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to update product"))
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /admin/products/:id.
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "id must be a UUID"))
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, models.NewErrorResponse("NOT_FOUND", "Product not found"))
			return
		}
		h.log.WithError(err).Error("Failed to delete product")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to delete product"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListBrands handles GET /admin/brands.
func (h *AdminHandler) ListBrands(c *gin.Context) {
	brands, err := h.catalog.Brands(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to list brands")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to list brands"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

type brandRequest struct {
	Name     string  `json:"name" binding:"required"`
	Country  *string `json:"country"`
	Category string  `json:"category"`
}

// CreateBrand handles POST /admin/brands.
func (h *AdminHandler) CreateBrand(c *gin.Context) {
	var req brandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "name is required"))
		return
	}

	brand := models.Brand{
		Name:     req.Name,
		Country:  req.Country,
		Category: models.BrandCategoryBudget,
	}
	switch models.BrandCategory(req.Category) {
	case models.BrandCategoryMedium:
		brand.Category = models.BrandCategoryMedium
	case models.BrandCategoryTop:
		brand.Category = models.BrandCategoryTop
	}

	if err := h.catalog.CreateBrand(c.Request.Context(), &brand); err != nil {
		h.log.WithError(err).Error("Failed to create brand")
		c.JSON(http.StatusConflict, models.NewErrorResponse("CONFLICT", "Brand already exists or could not be created"))
		return
	}

	c.JSON(http.StatusCreated, brand)
}

// ListOrders handles GET /admin/orders?status=&page=&limit=.
func (h *AdminHandler) ListOrders(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !models.ValidOrderStatus(status) {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "Unknown order status"))
		return
	}

	orders, total, err := h.orders.ListOrders(c.Request.Context(), status, queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		h.log.WithError(err).Error("Failed to list orders")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to list orders"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
	})
}

type orderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PATCH /admin/orders/:id/status.
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "id must be a UUID"))
		return
	}

	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidOrderStatus(req.Status) {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "Unknown order status"))
		return
	}

	if err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, models.NewErrorResponse("NOT_FOUND", "Order not found"))
			return
		}
		h.log.WithError(err).Error("Failed to update order status")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to update order"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetMarkup handles GET /admin/settings/markup.
func (h *AdminHandler) GetMarkup(c *gin.Context) {
	settings, err := models.GetSettings(h.db)
	if err != nil {
		h.log.WithError(err).Error("Failed to load settings")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to load settings"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"globalMarkup": settings.GlobalMarkup})
}

type markupRequest struct {
	GlobalMarkup string `json:"globalMarkup" binding:"required"`
}

// UpdateMarkup handles PUT /admin/settings/markup. Changing the markup
// reprices the whole catalog from stored cost prices.
func (h *AdminHandler) UpdateMarkup(c *gin.Context) {
	var req markupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "globalMarkup is required"))
		return
	}

	markup, err := decimal.NewFromString(req.GlobalMarkup)
	if err != nil || !markup.IsPositive() {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "globalMarkup must be a positive decimal"))
		return
	}

	repriced := 0
	err = h.db.Transaction(func(tx *gorm.DB) error {
		settings, err := models.GetSettings(tx)
		if err != nil {
			return err
		}
		settings.GlobalMarkup = markup
		if err := tx.Save(settings).Error; err != nil {
			return err
		}

		var batch []models.Product
		return tx.FindInBatches(&batch, 500, func(btx *gorm.DB, _ int) error {
			for i := range batch {
				batch[i].ApplyPricing(markup)
				if err := btx.Model(&models.Product{}).
					Where("id = ?", batch[i].ID).
					Updates(map[string]interface{}{
						"price":     batch[i].Price,
						"old_price": batch[i].OldPrice,
					}).Error; err != nil {
					return err
				}
				repriced++
			}
			return nil
		}).Error
	})
	if err != nil {
		h.log.WithError(err).Error("Failed to update markup")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to update markup"))
		return
	}

	h.log.WithFields(logrus.Fields{"markup": markup.String(), "repriced": repriced}).Info("Global markup updated")
	c.JSON(http.StatusOK, gin.H{
		"globalMarkup": markup,
		"repriced":     repriced,
	})
}

// FixProductNames handles POST /admin/maintenance/fix-names: rewrites stored
// product names to their cleaned display form in batches.
func (h *AdminHandler) FixProductNames(c *gin.Context) {
	changed, err := h.catalog.CleanupNames(c.Request.Context(), 500)
	if err != nil {
		h.log.WithError(err).Error("Name cleanup failed")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Name cleanup failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}
