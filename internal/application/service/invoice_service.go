package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/internal/domain/enum"
	"github.com/sangkips/billdesk-api/internal/domain/repository"
	"github.com/sangkips/billdesk-api/internal/infrastructure/artifact"
	"github.com/sangkips/billdesk-api/internal/infrastructure/telemetry"
	"github.com/sangkips/billdesk-api/pkg/apperror"
)

const (
	defaultSubmitTimeout   = 30 * time.Second
	defaultFollowUpTimeout = 60 * time.Second
)

// ErrCheckoutNotStarted is returned when generate is triggered outside checkout
var ErrCheckoutNotStarted = apperror.NewBadRequestError("Checkout has not been started")

// InvoiceService drives a billing session through checkout: customer
// reconciliation, invoice submission and the follow-ups of a created invoice
type InvoiceService struct {
	carts       *CartService
	resolver    CustomerResolver
	invoiceRepo repository.InvoiceRepository
	attemptRepo repository.InvoiceAttemptRepository
	artifacts   artifact.Store
	printer     *PrinterService
	autoPrint   bool
	validate    *validator.Validate
	metrics     *telemetry.BillingMetrics
	logger      zerolog.Logger

	submitTimeout   time.Duration
	followUpTimeout time.Duration

	wg sync.WaitGroup
}

// InvoiceServiceConfig holds the optional collaborators of InvoiceService.
// A nil Artifacts store disables PDF retrieval; a nil Printer or AutoPrint
// false disables receipt printing after checkout.
type InvoiceServiceConfig struct {
	Artifacts     artifact.Store
	Printer       *PrinterService
	AutoPrint     bool
	SubmitTimeout time.Duration
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	carts *CartService,
	resolver CustomerResolver,
	invoiceRepo repository.InvoiceRepository,
	attemptRepo repository.InvoiceAttemptRepository,
	cfg InvoiceServiceConfig,
	metrics *telemetry.BillingMetrics,
	logger zerolog.Logger,
) *InvoiceService {
	submitTimeout := cfg.SubmitTimeout
	if submitTimeout <= 0 {
		submitTimeout = defaultSubmitTimeout
	}

	return &InvoiceService{
		carts:           carts,
		resolver:        resolver,
		invoiceRepo:     invoiceRepo,
		attemptRepo:     attemptRepo,
		artifacts:       cfg.Artifacts,
		printer:         cfg.Printer,
		autoPrint:       cfg.AutoPrint,
		validate:        newValidator(),
		metrics:         metrics,
		logger:          logger.With().Str("component", "invoice").Logger(),
		submitTimeout:   submitTimeout,
		followUpTimeout: defaultFollowUpTimeout,
	}
}

// newValidator reports fields by their json names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(apperror.JSONFieldName)
	return v
}

// BeginCheckout moves the session into customer collection
func (s *InvoiceService) BeginCheckout(ctx context.Context, userID string, sessionID uuid.UUID) (*entity.BillingSession, error) {
	return s.carts.update(ctx, userID, sessionID, "checkout_begin", func(session *entity.BillingSession) error {
		if session.State.InFlight() {
			return apperror.ErrInFlight
		}
		if session.Cart.IsEmpty() {
			return apperror.ErrEmptyCart
		}
		session.State = enum.CheckoutStateCollectingCustomerInfo
		return nil
	})
}

// CancelCheckout returns the session to idle and resets the checkout form
func (s *InvoiceService) CancelCheckout(ctx context.Context, userID string, sessionID uuid.UUID) (*entity.BillingSession, error) {
	return s.carts.update(ctx, userID, sessionID, "checkout_cancel", func(session *entity.BillingSession) error {
		if session.State.InFlight() {
			return apperror.ErrInFlight
		}
		session.State = enum.CheckoutStateIdle
		session.LastError = ""
		session.ResetCheckout()
		return nil
	})
}

// GenerateInvoiceInput represents the generate invoice input
type GenerateInvoiceInput struct {
	UserID        string
	SessionID     uuid.UUID
	Draft         entity.CustomerDraft
	PaymentStatus enum.PaymentStatus
	PaymentMethod enum.PaymentMethod
}

type generateResult struct {
	invoice *entity.Invoice
	err     error
}

// GenerateInvoice reconciles the customer, submits the invoice for the cart
// as it is now and, on success, clears the cart and schedules PDF retrieval
// and receipt printing.
//
// The attempt runs detached from ctx: when ctx ends first the caller gets
// ctx.Err() while the attempt completes and updates the session.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, input *GenerateInvoiceInput) (*entity.Invoice, error) {
	draft := input.Draft.Trimmed()
	if err := s.validateInput(draft, input); err != nil {
		return nil, err
	}

	// Claim the session; the cart is captured here and locked until the
	// attempt completes
	var cart entity.Cart
	claimed, err := s.carts.update(ctx, input.UserID, input.SessionID, "generate_start", func(session *entity.BillingSession) error {
		if session.State.InFlight() {
			s.metrics.ConcurrentRejects.Inc()
			return apperror.ErrInFlight
		}
		if session.Cart.IsEmpty() {
			return apperror.ErrEmptyCart
		}
		if !session.State.CanGenerate() {
			return ErrCheckoutNotStarted
		}
		session.State = enum.CheckoutStateReconciling
		session.Draft = draft
		session.PaymentStatus = input.PaymentStatus
		session.PaymentMethod = input.PaymentMethod
		session.LastError = ""
		cart = session.Cart
		return nil
	})
	if err != nil {
		return nil, err
	}

	workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.submitTimeout)
	done := make(chan generateResult, 1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		inv, err := s.generate(workCtx, claimed, cart, draft, input)
		done <- generateResult{invoice: inv, err: err}
	}()

	select {
	case r := <-done:
		return r.invoice, r.err
	case <-ctx.Done():
		s.logger.Info().Str("session", input.SessionID.String()).Msg("caller left before invoice attempt finished")
		return nil, ctx.Err()
	}
}

func (s *InvoiceService) validateInput(draft entity.CustomerDraft, input *GenerateInvoiceInput) error {
	if err := s.validate.Struct(draft); err != nil {
		return apperror.FromValidation(err)
	}
	if !input.PaymentStatus.IsCreatable() {
		return apperror.NewUnprocessableError("payment_status", "must be one of: paid unpaid")
	}
	if !input.PaymentMethod.IsValid() {
		return apperror.NewUnprocessableError("payment_method", "must be one of: cash upi card credit")
	}
	return nil
}

func (s *InvoiceService) generate(ctx context.Context, session *entity.BillingSession, cart entity.Cart, draft entity.CustomerDraft, input *GenerateInvoiceInput) (*entity.Invoice, error) {
	log := s.logger.With().Str("session", session.ID.String()).Str("user", session.UserID).Logger()
	business := telemetry.BusinessLabel(session.BusinessID)

	resolved := s.resolver.Reconcile(ctx, draft)
	s.setState(ctx, session, "submitting", enum.CheckoutStateSubmitting)

	req := entity.NewInvoiceRequest(cart, resolved, draft, input.PaymentStatus, input.PaymentMethod)
	attempt := s.openAttempt(ctx, session, cart, resolved, req)

	inv, err := s.invoiceRepo.Create(ctx, req, session.BusinessID)
	if err != nil {
		s.metrics.InvoicesFailed.WithLabelValues(business, statusLabel(err)).Inc()
		s.closeAttempt(ctx, attempt, func(a *entity.InvoiceAttempt) { a.Fail(err) })

		_, _ = s.carts.update(ctx, session.UserID, session.ID, "generate_failed", func(ss *entity.BillingSession) error {
			ss.State = enum.CheckoutStateFailed
			ss.LastError = errorMessage(err)
			return nil
		})
		log.Warn().Err(err).Msg("invoice submission failed")
		return nil, err
	}

	s.metrics.InvoicesGenerated.WithLabelValues(business, inv.PaymentMethod.String(), inv.PaymentStatus.String()).Inc()
	s.metrics.InvoiceValue.WithLabelValues(business).Observe(inv.GrandTotal.InexactFloat64())
	s.closeAttempt(ctx, attempt, func(a *entity.InvoiceAttempt) { a.Succeed(inv) })

	_, _ = s.carts.update(ctx, session.UserID, session.ID, "invoice_created", func(ss *entity.BillingSession) error {
		ss.Cart = ss.Cart.Clear()
		ss.ResetCheckout()
		ss.State = enum.CheckoutStateIdle
		ss.LastInvoice = inv
		ss.LastError = ""
		return nil
	})

	log.Info().
		Int64("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Str("customer_outcome", resolved.Outcome.String()).
		Msg("invoice created")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.followUp(context.WithoutCancel(ctx), session, inv)
	}()

	return inv, nil
}

func (s *InvoiceService) setState(ctx context.Context, session *entity.BillingSession, op string, state enum.CheckoutState) {
	_, err := s.carts.update(ctx, session.UserID, session.ID, op, func(ss *entity.BillingSession) error {
		ss.State = state
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("session", session.ID.String()).Msg("session state update failed")
	}
}

// openAttempt writes the pending attempt record. A failed write is logged
// and the submission goes ahead without a record.
func (s *InvoiceService) openAttempt(ctx context.Context, session *entity.BillingSession, cart entity.Cart, resolved entity.ResolvedCustomer, req *entity.InvoiceRequest) *entity.InvoiceAttempt {
	payload, err := json.Marshal(req)
	if err != nil {
		s.logger.Error().Err(err).Msg("invoice request encode failed")
	}
	attempt := &entity.InvoiceAttempt{
		SessionID:       session.ID,
		UserID:          session.UserID,
		BusinessID:      session.BusinessID,
		Status:          enum.AttemptStatusPending,
		CustomerOutcome: resolved.Outcome,
		CustomerID:      resolved.CustomerID,
		ItemCount:       cart.Len(),
		GrandTotal:      cart.Total().GrandTotal,
		Request:         payload,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		s.logger.Warn().Err(err).Str("session", session.ID.String()).Msg("invoice attempt record failed")
		return nil
	}
	return attempt
}

func (s *InvoiceService) closeAttempt(ctx context.Context, attempt *entity.InvoiceAttempt, complete func(*entity.InvoiceAttempt)) {
	if attempt == nil {
		return
	}
	complete(attempt)
	// The submission may have used up ctx's deadline
	if err := s.attemptRepo.Update(context.WithoutCancel(ctx), attempt); err != nil {
		s.logger.Warn().Err(err).Str("attempt", attempt.ID.String()).Msg("invoice attempt update failed")
	}
}

// followUp retrieves the invoice PDF and prints the receipt. Failures only
// raise session notifications.
func (s *InvoiceService) followUp(ctx context.Context, session *entity.BillingSession, inv *entity.Invoice) {
	ctx, cancel := context.WithTimeout(ctx, s.followUpTimeout)
	defer cancel()

	if s.artifacts != nil {
		if path, err := s.saveArtifact(ctx, inv); err != nil {
			s.metrics.ArtifactFailures.WithLabelValues("pdf").Inc()
			s.logger.Warn().Err(err).Str("invoice", inv.InvoiceNumber).Msg("invoice PDF retrieval failed")
			s.carts.notify(session.ID, newNotification(entity.NotificationArtifactFailed, inv,
				fmt.Sprintf("Invoice %s was created but its PDF could not be saved", inv.InvoiceNumber)))
		} else {
			s.carts.notify(session.ID, newNotification(entity.NotificationArtifactSaved, inv,
				fmt.Sprintf("Saved %s", path)))
		}
	}

	if s.autoPrint && s.printer != nil && s.printer.Enabled() {
		if _, err := s.printer.PrintInvoice(ctx, inv, session.UserID); err != nil {
			s.metrics.ArtifactFailures.WithLabelValues("print").Inc()
			s.carts.notify(session.ID, newNotification(entity.NotificationPrintFailed, inv,
				fmt.Sprintf("Invoice %s was created but the receipt did not print", inv.InvoiceNumber)))
		}
	}
}

func (s *InvoiceService) saveArtifact(ctx context.Context, inv *entity.Invoice) (string, error) {
	data, err := s.invoiceRepo.DownloadPDF(ctx, inv.ID)
	if err != nil {
		return "", err
	}
	return s.artifacts.Save(ctx, inv.PDFFileName(), data)
}

func newNotification(kind entity.NotificationKind, inv *entity.Invoice, message string) entity.Notification {
	return entity.Notification{
		ID:        uuid.New(),
		Kind:      kind,
		Message:   message,
		InvoiceID: inv.ID,
		CreatedAt: time.Now(),
	}
}

// Wait blocks until running attempts and follow-ups have finished
func (s *InvoiceService) Wait() {
	s.wg.Wait()
}

// Attempts lists the recorded invoice attempts of the operator's session,
// oldest first
func (s *InvoiceService) Attempts(ctx context.Context, userID string, sessionID uuid.UUID) ([]entity.InvoiceAttempt, error) {
	if _, err := s.carts.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	attempts, err := s.attemptRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []entity.InvoiceAttempt{}
	}
	return attempts, nil
}

// GetInvoice fetches an invoice from the backend
func (s *InvoiceService) GetInvoice(ctx context.Context, invoiceID int64) (*entity.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return inv, nil
}

// CustomerInfo returns who an invoice was issued to
func (s *InvoiceService) CustomerInfo(ctx context.Context, invoiceID int64) (*entity.CustomerInfo, error) {
	inv, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	info := inv.CustomerInfo()
	return &info, nil
}

// DownloadPDF returns the invoice document and its file name
func (s *InvoiceService) DownloadPDF(ctx context.Context, invoiceID int64) ([]byte, string, error) {
	inv, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	data, err := s.invoiceRepo.DownloadPDF(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	return data, inv.PDFFileName(), nil
}

// UpdatePaymentStatus changes an invoice's payment status on the backend and
// returns the invoice as the backend now has it
func (s *InvoiceService) UpdatePaymentStatus(ctx context.Context, invoiceID int64, status enum.PaymentStatus) (*entity.Invoice, error) {
	inv, err := s.invoiceRepo.UpdatePaymentStatus(ctx, invoiceID, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("invoice_id", invoiceID).Str("payment_status", inv.PaymentStatus.String()).Msg("invoice payment status updated")
	return inv, nil
}

// MarkPaid sets an invoice's payment status to paid
func (s *InvoiceService) MarkPaid(ctx context.Context, invoiceID int64) (*entity.Invoice, error) {
	return s.UpdatePaymentStatus(ctx, invoiceID, enum.PaymentStatusPaid)
}

func statusLabel(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return strconv.Itoa(appErr.Code)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	return "unknown"
}

func errorMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
