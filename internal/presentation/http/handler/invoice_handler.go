package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk-api/internal/application/service"
	"github.com/sangkips/billdesk-api/internal/domain/enum"
	"github.com/sangkips/billdesk-api/internal/presentation/http/dto/request"
	"github.com/sangkips/billdesk-api/internal/presentation/http/dto/response"
	"github.com/sangkips/billdesk-api/pkg/apperror"
)

// InvoiceHandler handles requests for invoices that already exist on the backend
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Get returns one invoice
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "id", "invoice ID")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved successfully", invoice)
}

// CustomerInfo returns the display customer of an invoice
func (h *InvoiceHandler) CustomerInfo(c *gin.Context) {
	id, ok := int64Param(c, "id", "invoice ID")
	if !ok {
		return
	}

	info, err := h.invoiceService.CustomerInfo(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer info retrieved successfully", info)
}

// DownloadPDF streams the backend-rendered invoice PDF
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	id, ok := int64Param(c, "id", "invoice ID")
	if !ok {
		return
	}

	data, filename, err := h.invoiceService.DownloadPDF(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(200, "application/pdf", data)
}

// UpdatePaymentStatus changes the payment status of an invoice
func (h *InvoiceHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := int64Param(c, "id", "invoice ID")
	if !ok {
		return
	}

	var req request.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.FromValidation(err))
		return
	}

	status, err := enum.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		response.Error(c, apperror.NewUnprocessableError("payment_status", err.Error()))
		return
	}

	invoice, err := h.invoiceService.UpdatePaymentStatus(c.Request.Context(), id, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment status updated", invoice)
}

// MarkPaid marks an invoice paid
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	id, ok := int64Param(c, "id", "invoice ID")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.MarkPaid(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice marked as paid", invoice)
}
