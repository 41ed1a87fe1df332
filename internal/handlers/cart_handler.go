package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tireshop-service/internal/cart"
	"tireshop-service/internal/middleware"
	"tireshop-service/internal/models"
	"tireshop-service/internal/repository"
)

// CartHandler serves the session cart endpoints.
type CartHandler struct {
	store cart.Store
	repo  *repository.CatalogRepository
	log   *logrus.Logger
}

func NewCartHandler(store cart.Store, repo *repository.CatalogRepository, log *logrus.Logger) *CartHandler {
	return &CartHandler{store: store, repo: repo, log: log}
}

// cartLine is one enriched cart row: the stored line joined with the live
// product. Enrichment happens on a working copy; reading the cart never
// mutates what is stored.
type cartLine struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	PhotoURL    *string         `json:"photoUrl,omitempty"`
	SizeLabel   string          `json:"sizeLabel"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	StockLeft   int             `json:"stockLeft"`
	Unavailable bool            `json:"unavailable"`
}

type cartPayload struct {
	Lines   []cartLine      `json:"lines"`
	Len     int             `json:"len"`
	Total   decimal.Decimal `json:"total"`
	Warning string          `json:"warning,omitempty"`
}

type cartItemRequest struct {
	ProductID string `form:"product_id" json:"productId" binding:"required"`
	Quantity  int    `form:"quantity" json:"quantity"`
}

func (h *CartHandler) loadCart(c *gin.Context) (*cart.Cart, string, bool) {
	sessionID := middleware.SessionID(c)
	crt, err := h.store.Get(c.Request.Context(), sessionID)
	if err != nil {
		h.log.WithError(err).Error("Failed to load cart")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to load cart"))
		return nil, "", false
	}
	return crt, sessionID, true
}

func (h *CartHandler) buildPayload(c *gin.Context, crt *cart.Cart, warning string) (cartPayload, error) {
	payload := cartPayload{
		Lines:   []cartLine{},
		Len:     crt.Len(),
		Total:   crt.Total(),
		Warning: warning,
	}

	ids := make([]uuid.UUID, 0, len(crt.Items))
	for id := range crt.Items {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		ids = append(ids, parsed)
	}
	products, err := h.repo.GetProductsByIDs(c.Request.Context(), ids)
	if err != nil {
		return payload, err
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID.String()] = p
	}

	for id, item := range crt.Items {
		line := cartLine{
			ProductID: id,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		if p, ok := byID[id]; ok {
			line.Name = p.DisplayName()
			line.Slug = p.Slug
			line.PhotoURL = p.PhotoURL
			line.SizeLabel = p.SizeLabel()
			line.StockLeft = p.StockQuantity
		} else {
			line.Unavailable = true
		}
		payload.Lines = append(payload.Lines, line)
	}
	return payload, nil
}

// GetCart handles GET /cart.
func (h *CartHandler) GetCart(c *gin.Context) {
	crt, _, ok := h.loadCart(c)
	if !ok {
		return
	}
	payload, err := h.buildPayload(c, crt, "")
	if err != nil {
		h.log.WithError(err).Error("Failed to enrich cart")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to load cart"))
		return
	}
	c.JSON(http.StatusOK, payload)
}

// addToCart is the shared add/update flow. replace distinguishes the
// cart-page quantity update from the add-to-cart button.
func (h *CartHandler) addToCart(c *gin.Context, replace bool) (*cart.Cart, *models.Product, bool, bool) {
	var req cartItemRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "product_id is required"))
		return nil, nil, false, false
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "product_id must be a UUID"))
		return nil, nil, false, false
	}

	product, err := h.repo.GetProductByID(c.Request.Context(), productID)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, models.NewErrorResponse("NOT_FOUND", "Product not found"))
		return nil, nil, false, false
	}
	if err != nil {
		h.log.WithError(err).Error("Failed to load product for cart")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to update cart"))
		return nil, nil, false, false
	}

	crt, sessionID, ok := h.loadCart(c)
	if !ok {
		return nil, nil, false, false
	}

	_, clamped := crt.ClampedAdd(product.ID.String(), product.Price, req.Quantity, product.StockQuantity, replace)

	if err := h.store.Save(c.Request.Context(), sessionID, crt); err != nil {
		h.log.WithError(err).Error("Failed to save cart")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to update cart"))
		return nil, nil, false, false
	}
	return crt, product, clamped, true
}

// AddItem handles POST /cart/items: the form add-to-cart path. When the
// requested quantity had to be clamped to stock the response carries a
// warning the page shows to the shopper.
func (h *CartHandler) AddItem(c *gin.Context) {
	crt, product, clamped, ok := h.addToCart(c, false)
	if !ok {
		return
	}

	warning := ""
	if clamped {
		warning = fmt.Sprintf("Only %d units of %s are in stock", product.StockQuantity, product.DisplayName())
	}
	payload, err := h.buildPayload(c, crt, warning)
	if err != nil {
		h.log.WithError(err).Error("Failed to enrich cart")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to load cart"))
		return
	}
	c.JSON(http.StatusOK, payload)
}

// UpdateItem handles PUT /cart/items: sets a line quantity outright,
// clamped to stock.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	crt, product, clamped, ok := h.addToCart(c, true)
	if !ok {
		return
	}

	warning := ""
	if clamped {
		warning = fmt.Sprintf("Only %d units of %s are in stock", product.StockQuantity, product.DisplayName())
	}
	payload, err := h.buildPayload(c, crt, warning)
	if err != nil {
		h.log.WithError(err).Error("Failed to enrich cart")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to load cart"))
		return
	}
	c.JSON(http.StatusOK, payload)
}

// AddItemAjax handles POST /cart/items/ajax: the one-click button on listing
// pages. Clamping is silent here; the widget only needs the new badge count.
func (h *CartHandler) AddItemAjax(c *gin.Context) {
	crt, _, _, ok := h.addToCart(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cartLen": crt.Len(),
	})
}

// RemoveItem handles DELETE /cart/items/:productId.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	crt, sessionID, ok := h.loadCart(c)
	if !ok {
		return
	}

	crt.Remove(c.Param("productId"))
	if err := h.store.Save(c.Request.Context(), sessionID, crt); err != nil {
		h.log.WithError(err).Error("Failed to save cart")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to update cart"))
		return
	}

	payload, err := h.buildPayload(c, crt, "")
	if err != nil {
		h.log.WithError(err).Error("Failed to enrich cart")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Failed to load cart"))
		return
	}
	c.JSON(http.StatusOK, payload)
}
