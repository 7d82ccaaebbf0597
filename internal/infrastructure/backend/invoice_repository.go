package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/internal/domain/enum"
	domainRepo "github.com/sangkips/billdesk-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type invoiceRepository struct {
	client *Client
}

// NewInvoiceRepository creates an invoice repository backed by the REST API
func NewInvoiceRepository(client *Client) domainRepo.InvoiceRepository {
	return &invoiceRepository{client: client}
}

// The backend reads money as JSON numbers, so decimals go out unquoted.
type invoiceItemPayload struct {
	ProductID     int64       `json:"product_id"`
	Quantity      int         `json:"quantity"`
	UnitPrice     json.Number `json:"unit_price"`
	TaxPercentage json.Number `json:"tax_percentage"`
}

type invoicePayload struct {
	CustomerID     *int64                 `json:"customer_id"`
	Items          []invoiceItemPayload   `json:"items"`
	DiscountAmount json.Number            `json:"discount_amount"`
	PaymentMethod  string                 `json:"payment_method"`
	PaymentStatus  string                 `json:"payment_status"`
	Notes          string                 `json:"notes"`
	WalkInCustomer *entity.WalkInCustomer `json:"walk_in_customer,omitempty"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func newInvoicePayload(req *entity.InvoiceRequest) *invoicePayload {
	items := make([]invoiceItemPayload, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, invoiceItemPayload{
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			UnitPrice:     number(it.UnitPrice),
			TaxPercentage: number(it.TaxPercentage),
		})
	}
	return &invoicePayload{
		CustomerID:     req.CustomerID,
		Items:          items,
		DiscountAmount: number(req.DiscountAmount),
		PaymentMethod:  req.PaymentMethod.String(),
		PaymentStatus:  req.PaymentStatus.String(),
		Notes:          req.Notes,
		WalkInCustomer: req.WalkInCustomer,
	}
}

func (r *invoiceRepository) Create(ctx context.Context, req *entity.InvoiceRequest, businessID *int64) (*entity.Invoice, error) {
	query := url.Values{}
	if businessID != nil {
		query.Set("business_id", strconv.FormatInt(*businessID, 10))
	}

	var invoice entity.Invoice
	err := r.client.do(ctx, call{
		op:     "invoices.create",
		method: http.MethodPost,
		path:   "/invoices/",
		query:  query,
		body:   newInvoicePayload(req),
	}, &invoice)
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.client.do(ctx, call{op: "invoices.get", method: http.MethodGet, path: invoicePath(id)}, &invoice)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) DownloadPDF(ctx context.Context, id int64) ([]byte, error) {
	return r.client.send(ctx, call{
		op:     "invoices.pdf",
		method: http.MethodGet,
		path:   invoicePath(id) + "/pdf",
		accept: "application/pdf",
	})
}

func (r *invoiceRepository) UpdatePaymentStatus(ctx context.Context, id int64, status enum.PaymentStatus) (*entity.Invoice, error) {
	body := map[string]string{"payment_status": status.String()}

	var invoice entity.Invoice
	err := r.client.do(ctx, call{op: "invoices.update", method: http.MethodPut, path: invoicePath(id), body: body}, &invoice)
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func invoicePath(id int64) string {
	return "/invoices/" + strconv.FormatInt(id, 10)
}
