package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk-api/internal/application/service"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/internal/presentation/http/dto/request"
	"github.com/sangkips/billdesk-api/internal/presentation/http/dto/response"
)

// PrinterHandler drives the counter's receipt printer
type PrinterHandler struct {
	printerService *service.PrinterService
}

func NewPrinterHandler(printerService *service.PrinterService) *PrinterHandler {
	return &PrinterHandler{printerService: printerService}
}

// printOutcome is returned by print endpoints. A receipt that was built but
// not printed still comes back so the front end can show it.
type printOutcome struct {
	Receipt *entity.Receipt `json:"receipt"`
	Warning string          `json:"warning,omitempty"`
}

func (h *PrinterHandler) GetStatus(c *gin.Context) {
	response.OK(c, "Printer status retrieved", h.printerService.GetStatus(c.Request.Context()))
}

func (h *PrinterHandler) TestPrint(c *gin.Context) {
	receipt, err := h.printerService.TestPrint(c.Request.Context())
	if err != nil {
		response.OK(c, "Test receipt built but not printed", printOutcome{Receipt: receipt, Warning: err.Error()})
		return
	}
	response.OK(c, "Test page sent to printer", printOutcome{Receipt: receipt})
}

// PrintInvoice prints the receipt of a generated invoice. The cashier line
// defaults to the signed-in operator.
func (h *PrinterHandler) PrintInvoice(c *gin.Context) {
	id, ok := int64Param(c, "id", "invoice ID")
	if !ok {
		return
	}

	var req request.PrintInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request: "+err.Error())
			return
		}
	}
	if req.Cashier == "" {
		req.Cashier = GetUserEmail(c)
	}

	receipt, err := h.printerService.PrintInvoiceReceipt(c.Request.Context(), id, req.Cashier)
	switch {
	case err == nil:
		response.OK(c, "Invoice receipt printed", printOutcome{Receipt: receipt})
	case receipt != nil:
		response.OK(c, "Invoice receipt built but not printed", printOutcome{Receipt: receipt, Warning: err.Error()})
	default:
		response.Error(c, err)
	}
}
