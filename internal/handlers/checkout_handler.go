package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tireshop-service/internal/cart"
	"tireshop-service/internal/clients"
	"tireshop-service/internal/middleware"
	"tireshop-service/internal/models"
	"tireshop-service/internal/repository"
)

// CheckoutHandler turns a session cart into an order and notifies the shop.
type CheckoutHandler struct {
	store    cart.Store
	catalog  *repository.CatalogRepository
	orders   *repository.OrdersRepository
	telegram *clients.TelegramClient
	log      *logrus.Logger
}

func NewCheckoutHandler(store cart.Store, catalog *repository.CatalogRepository, orders *repository.OrdersRepository, telegram *clients.TelegramClient, log *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		store:    store,
		catalog:  catalog,
		orders:   orders,
		telegram: telegram,
		log:      log,
	}
}

type checkoutRequest struct {
	FullName         string `form:"full_name" json:"fullName" binding:"required"`
	Phone            string `form:"phone" json:"phone" binding:"required"`
	Email            string `form:"email" json:"email"`
	ShippingType     string `form:"shipping_type" json:"shippingType"`
	City             string `form:"city" json:"city"`
	NovaPoshtaBranch string `form:"nova_poshta_branch" json:"novaPoshtaBranch"`
	Comment          string `form:"comment" json:"comment"`
}

// Checkout handles POST /checkout. The order and its items land in one
// transaction with stock decrement; the Telegram notification is best
// effort and never fails the order.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "full_name and phone are required"))
		return
	}

	shipping := models.ShippingType(req.ShippingType)
	if shipping != models.ShippingPickup && shipping != models.ShippingNovaPoshta {
		shipping = models.ShippingPickup
	}

	sessionID := middleware.SessionID(c)
	crt, err := h.store.Get(c.Request.Context(), sessionID)
	if err != nil {
		h.log.WithError(err).Error("Failed to load cart for checkout")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Checkout failed"))
		return
	}
	if crt.Len() == 0 {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("EMPTY_CART", "Cart is empty"))
		return
	}

	ids := make([]uuid.UUID, 0, len(crt.Items))
	for id := range crt.Items {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		ids = append(ids, parsed)
	}
	products, err := h.catalog.GetProductsByIDs(c.Request.Context(), ids)
	if err != nil {
		h.log.WithError(err).Error("Failed to load cart products for checkout")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Checkout failed"))
		return
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID.String()] = p
	}

	order := models.Order{
		Status:           models.OrderStatusNew,
		ShippingType:     shipping,
		FullName:         req.FullName,
		Phone:            req.Phone,
		City:             req.City,
		NovaPoshtaBranch: req.NovaPoshtaBranch,
	}
	if req.Email != "" {
		order.Email = &req.Email
	}

	total := decimal.Zero
	for id, item := range crt.Items {
		product, ok := byID[id]
		if !ok {
			// product vanished since it was added: drop the line
			continue
		}
		pid := product.ID
		order.Items = append(order.Items, models.OrderItem{
			ProductID:       &pid,
			ProductName:     product.DisplayName(),
			Quantity:        item.Quantity,
			PriceAtPurchase: item.Price,
		})
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if len(order.Items) == 0 {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("EMPTY_CART", "Cart items are no longer available"))
		return
	}
	order.Total = total

	if err := h.orders.CreateOrder(c.Request.Context(), &order); err != nil {
		h.log.WithError(err).Error("Failed to create order")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("INTERNAL_ERROR", "Checkout failed"))
		return
	}

	if h.telegram.Enabled() {
		if err := h.telegram.SendMessage(c.Request.Context(), orderMessage(&order, req.Comment)); err != nil {
			h.log.WithError(err).WithField("order_id", order.ID).Error("Failed to send order notification")
		}
	}

	if err := h.store.Delete(c.Request.Context(), sessionID); err != nil {
		h.log.WithError(err).WithField("order_id", order.ID).Warn("Failed to clear cart after checkout")
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"orderId": order.ID,
		"total":   order.Total,
	})
}

// orderMessage formats the Telegram notification: order header, customer,
// delivery block, items, total.
func orderMessage(order *models.Order, comment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>New order %s</b>\n\n", order.ID.String()[:8])
	fmt.Fprintf(&b, "Customer: %s\nPhone: %s\n", order.FullName, order.Phone)
	if order.Email != nil {
		fmt.Fprintf(&b, "Email: %s\n", *order.Email)
	}

	b.WriteString("\n")
	if order.ShippingType == models.ShippingNovaPoshta {
		fmt.Fprintf(&b, "Delivery: Nova Poshta\nCity: %s\nBranch: %s\n", order.City, order.NovaPoshtaBranch)
	} else {
		b.WriteString("Delivery: pickup\n")
	}

	b.WriteString("\nItems:\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "• %s — %d x %s\n", item.ProductName, item.Quantity, item.PriceAtPurchase.StringFixed(0))
	}
	fmt.Fprintf(&b, "\n<b>Total: %s UAH</b>", order.Total.StringFixed(0))

	if comment != "" {
		fmt.Fprintf(&b, "\n\nComment: %s", comment)
	}
	return b.String()
}

type callbackRequest struct {
	Phone string `form:"phone" json:"phone" binding:"required"`
	Name  string `form:"name" json:"name"`
}

// Callback handles POST /callback: the "call me back" button. This one is a
// pure notification, so a Telegram failure is the request failure.
func (h *CheckoutHandler) Callback(c *gin.Context) {
	var req callbackRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("VALIDATION_ERROR", "phone is required"))
		return
	}

	text := fmt.Sprintf("<b>Callback request</b>\nPhone: %s", req.Phone)
	if req.Name != "" {
		text += fmt.Sprintf("\nName: %s", req.Name)
	}

	if err := h.telegram.SendMessage(c.Request.Context(), text); err != nil {
		h.log.WithError(err).Error("Failed to send callback request")
		c.JSON(http.StatusServiceUnavailable, models.NewErrorResponse("NOTIFY_FAILED", "Could not submit callback request"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
