package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk-api/internal/application/service"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/internal/domain/enum"
	"github.com/sangkips/billdesk-api/internal/presentation/http/dto/request"
	"github.com/sangkips/billdesk-api/internal/presentation/http/dto/response"
	"github.com/sangkips/billdesk-api/internal/presentation/http/middleware"
	"github.com/sangkips/billdesk-api/pkg/apperror"
)

// BillingHandler handles cart and checkout HTTP requests
type BillingHandler struct {
	cartService    *service.CartService
	invoiceService *service.InvoiceService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(cartService *service.CartService, invoiceService *service.InvoiceService) *BillingHandler {
	return &BillingHandler{
		cartService:    cartService,
		invoiceService: invoiceService,
	}
}

// OpenSession starts a billing session, restoring the operator's last
// unfinished cart for the selected business
func (h *BillingHandler) OpenSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	session, err := h.cartService.OpenSession(c.Request.Context(), userID, middleware.GetBusinessID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Billing session opened", session)
}

// GetSession returns the session with its cart and checkout state
func (h *BillingHandler) GetSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	session, err := h.cartService.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Billing session retrieved", session)
}

// CloseSession discards the session and its saved cart
func (h *BillingHandler) CloseSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	if err := h.cartService.CloseSession(c.Request.Context(), userID, sessionID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Totals returns the derived cart totals
func (h *BillingHandler) Totals(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	totals, err := h.cartService.Totals(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cart totals retrieved", totals)
}

// AddItem adds a catalog product to the cart
func (h *BillingHandler) AddItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req request.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.FromValidation(err))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	session, err := h.cartService.AddItem(c.Request.Context(), userID, sessionID, req.ProductID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item added to cart", session)
}

// RemoveItem removes one line from the cart
func (h *BillingHandler) RemoveItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	productID, ok := int64Param(c, "product_id", "product ID")
	if !ok {
		return
	}

	session, err := h.cartService.RemoveItem(c.Request.Context(), userID, sessionID, productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item removed from cart", session)
}

// UpdateQuantity sets a line quantity
func (h *BillingHandler) UpdateQuantity(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	productID, ok := int64Param(c, "product_id", "product ID")
	if !ok {
		return
	}

	var req request.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	session, err := h.cartService.UpdateQuantity(c.Request.Context(), userID, sessionID, productID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quantity updated", session)
}

// UpdatePrice overrides a line's unit price
func (h *BillingHandler) UpdatePrice(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	productID, ok := int64Param(c, "product_id", "product ID")
	if !ok {
		return
	}

	var req request.UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	session, err := h.cartService.UpdatePrice(c.Request.Context(), userID, sessionID, productID, string(req.Price))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Price updated", session)
}

// SetDiscount sets the flat cart discount
func (h *BillingHandler) SetDiscount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req request.SetDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if req.Amount.IsNegative() {
		response.Error(c, apperror.NewUnprocessableError("amount", "must not be negative"))
		return
	}

	session, err := h.cartService.SetDiscount(c.Request.Context(), userID, sessionID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Discount updated", session)
}

// ClearCart empties the cart and resets the discount
func (h *BillingHandler) ClearCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	session, err := h.cartService.ClearCart(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cart cleared", session)
}

// BeginCheckout opens the customer details form
func (h *BillingHandler) BeginCheckout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	session, err := h.invoiceService.BeginCheckout(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Checkout started", session)
}

// CancelCheckout closes the form and keeps the cart
func (h *BillingHandler) CancelCheckout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	session, err := h.invoiceService.CancelCheckout(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Checkout cancelled", session)
}

// GenerateInvoice submits the cart as an invoice
func (h *BillingHandler) GenerateInvoice(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req request.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	status, err := enum.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		response.Error(c, apperror.NewUnprocessableError("payment_status", "must be one of: paid unpaid"))
		return
	}
	method, err := enum.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		response.Error(c, apperror.NewUnprocessableError("payment_method", "must be one of: cash upi card credit"))
		return
	}

	invoice, err := h.invoiceService.GenerateInvoice(c.Request.Context(), &service.GenerateInvoiceInput{
		UserID:    userID,
		SessionID: sessionID,
		Draft: entity.CustomerDraft{
			Name:    req.CustomerName,
			Phone:   req.Phone,
			Email:   req.Email,
			Address: req.Address,
		},
		PaymentStatus: status,
		PaymentMethod: method,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Invoice "+invoice.InvoiceNumber+" generated", invoice)
}

// Notifications drains the session's pending notifications
func (h *BillingHandler) Notifications(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	notes, err := h.cartService.TakeNotifications(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Notifications retrieved", notes)
}

// Attempts lists the session's invoice attempts
func (h *BillingHandler) Attempts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	attempts, err := h.invoiceService.Attempts(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice attempts retrieved", attempts)
}

// Events streams session changes as server-sent events until the client
// disconnects or the session is closed
func (h *BillingHandler) Events(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	session, err := h.cartService.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	events, cancel := h.cartService.Subscribe(sessionID)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("session", session)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(ev.Operation, ev.Session)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
