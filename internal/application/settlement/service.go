package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domorder "github.com/trippeak/tourshop/internal/domain/order"
	domoutbox "github.com/trippeak/tourshop/internal/domain/outbox"
	domproduct "github.com/trippeak/tourshop/internal/domain/product"
	domwallet "github.com/trippeak/tourshop/internal/domain/wallet"
	"github.com/trippeak/tourshop/internal/observability"
	"github.com/trippeak/tourshop/internal/observability/logctx"
)

const (
	settlementService = "settlement-service"
	useCasePaid       = "settlement.paid"
	useCaseCancel     = "settlement.cancel"
	spanPrefix        = "UC."
	publishTimeout    = 300 * time.Millisecond
)

// CommissionRate is the platform's fixed share of each line's revenue,
// deducted before crediting the shop. Applied per line so rounding stays
// line-local.
var CommissionRate = decimal.RequireFromString("0.10")

var (
	ErrEmptyToken = errors.New("settlement: order token is required")
	ErrNotFound   = domorder.ErrNotFound
	ErrConflict   = domorder.ErrStatusConflict
)

// Result reports the outcome of a gateway callback back to the transport
// layer. The boolean flags mirror which side effects actually ran; a
// duplicate "paid" delivery acknowledges success with all flags false.
type Result struct {
	OrderID           string
	Status            domorder.Status
	StockUpdated      bool
	CartCleared       bool
	WalletUpdated     bool
	CommissionApplied bool
	AlreadyPaid       bool
}

// Service settles orders in response to asynchronous payment gateway
// callbacks. The Pending→Paid transition is a compare-and-swap in the
// order repository, so concurrent duplicate deliveries perform the side
// effects exactly once.
type Service struct {
	orders    domorder.Repository
	products  domproduct.Repository
	wallets   domwallet.Repository
	inventory Inventory
	publisher domoutbox.Publisher

	tel           observability.Observability
	log           observability.Logger
	reqCounter    observability.Counter
	durHistogram  observability.Histogram
	creditCounter observability.Counter
	publishErrors observability.Counter
}

func NewService(
	orders domorder.Repository,
	products domproduct.Repository,
	wallets domwallet.Repository,
	inventory Inventory,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()

	return &Service{
		orders:        orders,
		products:      products,
		wallets:       wallets,
		inventory:     inventory,
		publisher:     publisher,
		tel:           tel,
		log:           tel.Logger().With(observability.F("service", settlementService)),
		reqCounter:    metrics.Counter(observability.MUsecaseRequests),
		durHistogram:  metrics.Histogram(observability.MUsecaseDuration),
		creditCounter: metrics.Counter(observability.MSettlementCredits),
		publishErrors: metrics.Counter(observability.MEventPublishErrors),
	}
}

// Paid handles the gateway's "paid" callback for the order identified by
// token (external gateway code, falling back to the internal id).
func (s *Service) Paid(ctx context.Context, token string) (_ *Result, err error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCasePaid),
		observability.F("order_token", token),
	)

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"SettlePaid",
		attribute.String("use_case", useCasePaid),
		attribute.String("order.token", token),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		s.finish(ctx, span, logger, useCasePaid, start, outcome, statusText, err)
	}()

	if token == "" {
		outcome, statusText = "error", "TOKEN_REQUIRED"
		return nil, ErrEmptyToken
	}

	ord, err := s.resolve(ctx, token)
	if err != nil {
		if errors.Is(err, domorder.ErrNotFound) {
			outcome, statusText = "error", "ORDER_NOT_FOUND"
		} else {
			outcome, statusText = "error", "ORDER_LOOKUP_FAILED"
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", ord.ID))

	if ord.Status == domorder.StatusPaid {
		statusText = "ALREADY_PAID"
		span.AddEvent("order.duplicate_paid_callback")
		return s.ackAlreadyPaid(ord), nil
	}

	switch transErr := s.orders.TransitionStatus(ctx, ord.ID, domorder.StatusPending, domorder.StatusPaid); {
	case transErr == nil:
		ord.Status = domorder.StatusPaid
	case errors.Is(transErr, domorder.ErrStatusConflict):
		// Lost the race or the order left Pending since the read.
		current, readErr := s.orders.Get(ctx, ord.ID)
		if readErr == nil && current.Status == domorder.StatusPaid {
			statusText = "ALREADY_PAID"
			span.AddEvent("order.duplicate_paid_callback")
			return s.ackAlreadyPaid(current), nil
		}
		outcome, statusText = "error", "STATUS_CONFLICT"
		return nil, transErr
	default:
		outcome, statusText = "error", "STATUS_UPDATE_FAILED"
		return nil, fmt.Errorf("settlement: transition: %w", transErr)
	}

	result := &Result{OrderID: ord.ID, Status: ord.Status}

	if err = s.inventory.Adjust(ctx, ord.ID); err != nil {
		outcome, statusText = "error", "INVENTORY_ADJUST_FAILED"
		return nil, fmt.Errorf("settlement: inventory adjust: %w", err)
	}
	result.StockUpdated = true
	result.CartCleared = true

	if err = s.recordSales(ctx, logger, ord); err != nil {
		outcome, statusText = "error", "SOLD_COUNT_UPDATE_FAILED"
		return nil, err
	}

	credits, commission, creditErr := s.creditWallets(ctx, logger, ord)
	if creditErr != nil {
		outcome, statusText = "error", "WALLET_CREDIT_FAILED"
		return nil, creditErr
	}
	if credits.IsPositive() {
		result.WalletUpdated = true
		result.CommissionApplied = true
	}

	s.publish(ctx, logger, domorder.NewOrderSettledEvent(ord, credits, commission))

	span.AddEvent("order.settled",
		trace.WithAttributes(
			attribute.String("order.id", ord.ID),
			attribute.String("settlement.credits", credits.String()),
			attribute.String("settlement.commission", commission.String()),
		),
	)

	return result, nil
}

// Cancel handles the gateway's "cancelled" callback. It only re-persists
// the order status: stock, cart, sold counters, and wallets are never
// touched, regardless of the prior status. A cancellation after payment
// does not reverse financial effects.
func (s *Service) Cancel(ctx context.Context, token string) (_ *Result, err error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCaseCancel),
		observability.F("order_token", token),
	)

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"SettleCancel",
		attribute.String("use_case", useCaseCancel),
		attribute.String("order.token", token),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		s.finish(ctx, span, logger, useCaseCancel, start, outcome, statusText, err)
	}()

	if token == "" {
		outcome, statusText = "error", "TOKEN_REQUIRED"
		return nil, ErrEmptyToken
	}

	ord, err := s.resolve(ctx, token)
	if err != nil {
		if errors.Is(err, domorder.ErrNotFound) {
			outcome, statusText = "error", "ORDER_NOT_FOUND"
		} else {
			outcome, statusText = "error", "ORDER_LOOKUP_FAILED"
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", ord.ID))

	ord.MarkCancelled()
	if err = s.orders.Update(ctx, ord); err != nil {
		outcome, statusText = "error", "ORDER_UPDATE_FAILED"
		return nil, fmt.Errorf("settlement: cancel: %w", err)
	}

	s.publish(ctx, logger, domorder.NewOrderCancelledEvent(ord))

	span.AddEvent("order.cancelled",
		trace.WithAttributes(attribute.String("order.id", ord.ID)),
	)

	return &Result{OrderID: ord.ID, Status: ord.Status}, nil
}

// resolve looks the order up by external gateway code first, then falls
// back to the internal identifier.
func (s *Service) resolve(ctx context.Context, token string) (*domorder.Order, error) {
	ord, err := s.orders.FindByCode(ctx, token)
	if err == nil {
		return ord, nil
	}
	if !errors.Is(err, domorder.ErrNotFound) {
		return nil, fmt.Errorf("settlement: lookup by code: %w", err)
	}
	return s.orders.Get(ctx, token)
}

func (s *Service) ackAlreadyPaid(ord *domorder.Order) *Result {
	return &Result{
		OrderID:     ord.ID,
		Status:      ord.Status,
		AlreadyPaid: true,
	}
}

// recordSales increments each referenced product's sold counter by the
// line quantity, through the store's atomic increment so settlements of
// different orders sharing a product never lose an update. A missing
// product is logged and skipped; a store failure aborts the settlement.
func (s *Service) recordSales(ctx context.Context, logger observability.Logger, ord *domorder.Order) error {
	for _, line := range ord.Lines {
		err := s.products.AddSold(ctx, line.ProductID, line.Quantity)
		if errors.Is(err, domproduct.ErrNotFound) {
			logger.Warn("sold_count_skipped_product_missing",
				observability.F("order_id", ord.ID),
				observability.F("product_id", line.ProductID),
			)
			continue
		}
		if err != nil {
			return fmt.Errorf("settlement: sold count: %w", err)
		}
	}
	return nil
}

// creditWallets splits each line's revenue between the platform commission
// and the owning shop's wallet. The commission is rounded per line and the
// credit is the remainder, so credit + commission always equals the line
// total. Crediting goes through the store's atomic Credit, since several
// orders can settle against the same shop wallet at once. A missing wallet
// skips that line's credit without failing the settlement.
func (s *Service) creditWallets(ctx context.Context, logger observability.Logger, ord *domorder.Order) (credits, commission decimal.Decimal, err error) {
	credits, commission = decimal.Zero, decimal.Zero

	for _, line := range ord.Lines {
		total := line.Total()
		if !total.IsPositive() {
			continue
		}
		fee := total.Mul(CommissionRate).Round(2)
		credit := total.Sub(fee)

		creditErr := s.wallets.Credit(ctx, line.ShopID, credit)
		if errors.Is(creditErr, domwallet.ErrNotFound) {
			logger.Warn("wallet_credit_skipped_shop_missing",
				observability.F("order_id", ord.ID),
				observability.F("shop_id", line.ShopID),
				observability.F("credit", credit.String()),
			)
			s.creditCounter.Add(1, observability.L("outcome", "skipped"))
			continue
		}
		if creditErr != nil {
			return credits, commission, fmt.Errorf("settlement: wallet credit: %w", creditErr)
		}

		credits = credits.Add(credit)
		commission = commission.Add(fee)
		s.creditCounter.Add(1, observability.L("outcome", "credited"))
	}

	return credits, commission, nil
}

func (s *Service) publish(ctx context.Context, logger observability.Logger, e domoutbox.Event) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, e); err != nil {
		logger.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
		s.publishErrors.Add(1, observability.L("event", e.EventName()))
	}
}

// finish closes the span, records RED metrics, and emits the summary log
// line shared by both callbacks.
func (s *Service) finish(
	ctx context.Context,
	span trace.Span,
	logger observability.Logger,
	useCase string,
	start time.Time,
	outcome, statusText string,
	err error,
) {
	latency := time.Since(start).Seconds()

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()
	}

	s.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
	s.durHistogram.Observe(latency,
		observability.L("use_case", useCase),
	)

	fields := []observability.Field{
		observability.F("outcome", outcome),
		observability.F("status", statusText),
		observability.F("latency_seconds", latency),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}

	logger.Info("use_case_done", fields...)
}
