package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-be/internal/address"
	"storefront-be/internal/db"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/payment"

	"go.uber.org/zap"
)

type Service interface {
	// CreateOrder turns a cart snapshot and a succeeded payment into an
	// order, exactly once per payment intent. The bool is true when the
	// order already existed and nothing was written.
	CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, bool, error)

	GetOrderDetail(ctx context.Context, userID uint, orderID int64, isAdmin bool) (*Order, error)
	ListOrders(ctx context.Context, userID uint, status *Status, limit, page int) ([]*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status Status) (*Order, error)
}

// IdempotencyCache maps a payment intent to the order it created. It only
// short-circuits lookups; order_payments stays authoritative.
type IdempotencyCache interface {
	Get(ctx context.Context, paymentIntentID string) (int64, bool, error)
	Set(ctx context.Context, paymentIntentID string, orderID int64) error
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
}

type CartClearer interface {
	ClearCart(ctx context.Context, userID uint) error
}

// Deps are the collaborators of the order service. Cache, Events and Carts
// are optional.
type Deps struct {
	DB        *sql.DB
	Orders    Repository
	Inventory inventory.Repository
	Addresses address.Repository
	Payments  payment.Repository

	Cache   IdempotencyCache
	Events  EventPublisher
	Carts   CartClearer
	Metrics *metrics.Checkout

	DefaultCountry string
	TxTimeout      time.Duration
}

type service struct {
	Deps
}

func NewService(d Deps) Service {
	if d.Metrics == nil {
		d.Metrics = &metrics.Checkout{}
	}
	return &service{Deps: d}
}

// errAlreadyCreated aborts the creation transaction when the in-transaction
// intent check finds an earlier order.
var errAlreadyCreated = errors.New("order already created for payment intent")

func (s *service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.Uint("user_id", in.UserID),
		zap.String("payment_intent_id", in.PaymentIntentID),
		zap.String("source", string(in.Source)),
	)

	timer := metrics.StartTimer()

	if err := in.validateIdentity(); err != nil {
		s.Metrics.ValidationErrors.Inc()
		log.Warn("rejected order input", zap.Error(err))
		return nil, false, err
	}

	// ---------- FAST PATH ----------
	if existing := s.findExisting(ctx, log, in.PaymentIntentID); existing != nil {
		if !in.mayReplay(existing) {
			log.Warn("payment intent belongs to another user", zap.Int64("order_id", existing.ID))
			return nil, false, ErrForbidden
		}
		s.Metrics.DuplicateTriggers.Inc()
		log.Info("order already exists for payment intent", zap.Int64("order_id", existing.ID))
		return existing, true, nil
	}

	if err := in.Validate(); err != nil {
		s.Metrics.ValidationErrors.Inc()
		log.Warn("rejected order input", zap.Error(err))
		return nil, false, err
	}

	// ---------- TRANSACTION ----------
	txCtx := ctx
	if s.TxTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.TxTimeout)
		defer cancel()
	}

	var (
		created    *Order
		existingID int64
		outcomes   []inventory.Outcome
	)

	err := db.RunInTx(txCtx, s.DB, func(tx *sql.Tx) error {
		id, found, err := s.Orders.FindIDByPaymentIntent(txCtx, tx, in.PaymentIntentID)
		if err != nil {
			return err
		}
		if found {
			existingID = id
			return errAlreadyCreated
		}

		shipTo, err := s.shippingAddress(txCtx, in)
		if err != nil {
			return err
		}

		o := &Order{
			UserID:      in.UserID,
			TotalAmount: in.TotalAmount,
			ShippingFee: in.ShippingFee,
			Status:      StatusPaid,
		}
		if err := s.Orders.InsertOrder(txCtx, tx, o); err != nil {
			return err
		}

		outcomes = outcomes[:0]
		for _, line := range in.Lines {
			it := Item{
				OrderID:   o.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.UnitPrice,
				Size:      line.Size,
			}
			if err := s.Orders.InsertItem(txCtx, tx, &it); err != nil {
				return err
			}

			out, err := s.Inventory.Decrement(txCtx, tx, inventory.Line{
				ProductID: line.ProductID,
				Size:      line.Size,
				Quantity:  line.Quantity,
			})
			if err != nil {
				return err
			}
			outcomes = append(outcomes, out)
			o.Items = append(o.Items, it)
		}

		if shipTo != nil {
			snap := address.NewSnapshot(o.ID, in.UserID, *shipTo, s.DefaultCountry)
			if err := s.Addresses.InsertSnapshot(txCtx, tx, snap); err != nil {
				return err
			}
			o.Address = snap
		}

		p := &payment.Payment{
			OrderID:         o.ID,
			UserID:          in.UserID,
			PaymentIntentID: in.PaymentIntentID,
			Amount:          in.TotalAmount,
			Status:          payment.StatusSucceeded,
			PaymentMethod:   in.PaymentMethod,
		}
		if p.PaymentMethod == "" {
			p.PaymentMethod = payment.DefaultMethod
		}
		if err := s.Payments.Record(txCtx, tx, p); err != nil {
			return err
		}
		o.Payment = p

		created = o
		return nil
	})

	switch {
	case err == nil:

	case errors.Is(err, errAlreadyCreated):
		return s.replay(ctx, log, in, existingID)

	case errors.Is(err, payment.ErrDuplicatePayment):
		// A concurrent trigger committed first.
		p, lookupErr := s.Payments.GetByIntent(ctx, in.PaymentIntentID)
		if lookupErr != nil {
			s.Metrics.CreationFailures.Inc()
			log.Error("duplicate payment but existing order not readable", zap.Error(lookupErr))
			return nil, false, fmt.Errorf("%w: %w", ErrOrderCreationFailed, lookupErr)
		}
		return s.replay(ctx, log, in, p.OrderID)

	case errors.Is(err, inventory.ErrProductNotFound):
		s.Metrics.ValidationErrors.Inc()
		log.Warn("order references unknown product", zap.Error(err))
		return nil, false, fmt.Errorf("%w: %w", ErrInvalidInput, err)

	case errors.Is(err, ErrInvalidInput):
		s.Metrics.ValidationErrors.Inc()
		log.Warn("rejected order input", zap.Error(err))
		return nil, false, err

	default:
		s.Metrics.CreationFailures.Inc()
		log.Error("order creation rolled back", zap.Error(err))
		return nil, false, fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
	}

	s.Metrics.OrdersCreated.Inc()
	s.Metrics.ObserveCreate(timer)
	s.reportInventory(log, created.ID, outcomes)

	log.Info("order created",
		zap.Int64("order_id", created.ID),
		zap.Int("items", len(created.Items)),
		zap.Int64("total_amount", created.TotalAmount),
	)

	s.afterCommit(ctx, log, created)
	return created, false, nil
}

// shippingAddress picks the inline address, else copies the saved one.
func (s *service) shippingAddress(ctx context.Context, in CreateOrderInput) (*address.Input, error) {
	if in.Address != nil {
		return in.Address, nil
	}
	if in.AddressID == nil {
		return nil, nil
	}

	saved, err := s.Addresses.GetByID(ctx, *in.AddressID, in.UserID)
	if errors.Is(err, address.ErrAddressNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err != nil {
		return nil, err
	}

	copied := saved.ToInput()
	return &copied, nil
}

// findExisting returns the order already created for the intent, consulting
// the cache before order_payments. Lookup failures are treated as a miss;
// the transaction repeats the check.
func (s *service) findExisting(ctx context.Context, log *zap.Logger, paymentIntentID string) *Order {
	if s.Cache != nil {
		orderID, ok, err := s.Cache.Get(ctx, paymentIntentID)
		if err != nil {
			log.Warn("idempotency cache lookup failed", zap.Error(err))
		}
		if ok {
			if o, err := s.loadOrder(ctx, orderID); err == nil {
				return o
			}
			log.Warn("cached order not readable, falling back", zap.Int64("order_id", orderID))
		}
	}

	p, err := s.Payments.GetByIntent(ctx, paymentIntentID)
	if err != nil {
		if !errors.Is(err, payment.ErrPaymentNotFound) {
			log.Warn("payment lookup failed", zap.Error(err))
		}
		return nil
	}

	o, err := s.loadOrder(ctx, p.OrderID)
	if err != nil {
		log.Warn("existing order not readable", zap.Int64("order_id", p.OrderID), zap.Error(err))
		return nil
	}
	s.cacheIntent(ctx, log, paymentIntentID, o.ID)
	return o
}

func (s *service) replay(ctx context.Context, log *zap.Logger, in CreateOrderInput, orderID int64) (*Order, bool, error) {
	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		s.Metrics.CreationFailures.Inc()
		log.Error("existing order not readable", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, false, fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
	}

	s.cacheIntent(ctx, log, in.PaymentIntentID, o.ID)

	if !in.mayReplay(o) {
		log.Warn("payment intent belongs to another user", zap.Int64("order_id", o.ID))
		return nil, false, ErrForbidden
	}

	s.Metrics.DuplicateTriggers.Inc()
	log.Info("order already exists for payment intent", zap.Int64("order_id", o.ID))
	return o, true, nil
}

func (s *service) reportInventory(log *zap.Logger, orderID int64, outcomes []inventory.Outcome) {
	for _, out := range outcomes {
		switch {
		case out.Oversold():
			s.Metrics.OversoldLines.Inc()
			log.Warn("stock could not cover paid order line",
				zap.Int64("order_id", orderID),
				zap.String("unit", out.Unit.String()),
			)
		case !out.Applied:
			s.Metrics.UntrackedLines.Inc()
		}
	}
}

// afterCommit runs the best-effort steps of a fresh creation. None of them
// can undo the committed order.
func (s *service) afterCommit(ctx context.Context, log *zap.Logger, o *Order) {
	ctx = context.WithoutCancel(ctx)

	if s.Carts != nil {
		if err := s.Carts.ClearCart(ctx, o.UserID); err != nil {
			log.Warn("failed to clear cart after checkout", zap.Error(err))
		}
	}

	s.cacheIntent(ctx, log, o.Payment.PaymentIntentID, o.ID)

	if s.Events != nil {
		if err := s.Events.PublishOrderCreated(ctx, o); err != nil {
			log.Warn("failed to publish order created event", zap.Error(err))
		}
	}
}

func (s *service) cacheIntent(ctx context.Context, log *zap.Logger, paymentIntentID string, orderID int64) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, paymentIntentID, orderID); err != nil {
		log.Warn("failed to cache payment intent", zap.Error(err))
	}
}

// loadOrder reads an order with its payment record.
func (s *service) loadOrder(ctx context.Context, orderID int64) (*Order, error) {
	o, err := s.Orders.GetOrderDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	p, err := s.Payments.GetByOrder(ctx, orderID)
	switch {
	case err == nil:
		o.Payment = p
	case errors.Is(err, payment.ErrPaymentNotFound):
	default:
		return nil, err
	}
	return o, nil
}

func (s *service) GetOrderDetail(ctx context.Context, userID uint, orderID int64, isAdmin bool) (*Order, error) {
	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && o.UserID != userID {
		logger.FromCtx(ctx).Warn("order access denied",
			zap.String("layer", "service"),
			zap.String("method", "GetOrderDetail"),
			zap.Int64("order_id", orderID),
		)
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, userID uint, status *Status, limit, page int) ([]*Order, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}

	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *status)
	}

	return s.Orders.ListByUser(ctx, userID, status, limit, (page-1)*limit)
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID int64, status Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrderStatus"),
		zap.Int64("order_id", orderID),
		zap.String("status", string(status)),
	)

	o, err := s.Orders.GetOrderDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(o.Status, status) {
		log.Warn("rejected status transition", zap.String("from", string(o.Status)))
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.Status, status)
	}

	if err := s.Orders.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}

	log.Info("order status updated", zap.String("from", string(o.Status)))
	o.Status = status
	return o, nil
}
